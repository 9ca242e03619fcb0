package renderapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

func TestClient_Render(t *testing.T) {
	var gotOptions blueprint.PrintOptions
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/processFile" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
		} else {
			defer file.Close()
			data, _ := io.ReadAll(file)
			if string(data) != "fake-png-bytes" {
				t.Errorf("unexpected file body %q", data)
			}
			if header.Filename != "poster.png" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
			if ct := header.Header.Get("Content-Type"); ct != "image/png" {
				t.Errorf("unexpected content type %q", ct)
			}
		}

		if err := json.Unmarshal([]byte(r.FormValue("options")), &gotOptions); err != nil {
			t.Errorf("options field: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"image_url":"/artifacts/poster.png","width":36,"height":24,"dpi":200}`))
	}))
	defer server.Close()

	client := New(server.URL)
	opts := blueprint.PrintOptions{
		Side:       blueprint.SideLong,
		SizingMode: blueprint.SizingMaxSize,
		PaperWidth: 36,
		Preview:    true,
	}
	img, err := client.Render(context.Background(), blueprint.SourceFile{
		Name:        "poster.png",
		ContentType: "image/png",
		Data:        []byte("fake-png-bytes"),
	}, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if img.URL != "/artifacts/poster.png" {
		t.Fatalf("unexpected artifact URL %q", img.URL)
	}
	if img.Width != 36 || img.Height != 24 || img.DPI != 200 {
		t.Fatalf("unexpected artifact metadata %+v", img)
	}
	if gotOptions != opts {
		t.Fatalf("options did not round-trip: %+v", gotOptions)
	}
}

func TestClient_RenderUnsupportedType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Render(context.Background(), blueprint.SourceFile{
		Name:        "notes.txt",
		ContentType: "text/plain",
		Data:        []byte("hello"),
	}, blueprint.PrintOptions{Side: blueprint.SideLong, SizingMode: blueprint.SizingMaxSize, PaperWidth: 36})
	if err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	var perr *blueprint.PrintError
	if !errors.As(err, &perr) || perr.Kind != blueprint.KindUnsupportedMedia {
		t.Fatalf("expected unsupported media kind, got %v", err)
	}
}

func TestClient_RenderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Render(context.Background(), blueprint.SourceFile{
		Name:        "poster.png",
		ContentType: "image/png",
		Data:        []byte("fake"),
	}, blueprint.PrintOptions{Side: blueprint.SideLong, SizingMode: blueprint.SizingMaxSize, PaperWidth: 36})
	if err == nil {
		t.Fatalf("expected error for server failure")
	}
	if kind := blueprint.KindFromError(err); kind != blueprint.KindExternal {
		t.Fatalf("expected external kind, got %s", kind)
	}
}

func TestClient_RenderRequiresFile(t *testing.T) {
	client := New("http://renderer.invalid")
	_, err := client.Render(context.Background(), blueprint.SourceFile{}, blueprint.PrintOptions{})
	if err == nil {
		t.Fatalf("expected error for empty file")
	}
	if kind := blueprint.KindFromError(err); kind != blueprint.KindValidation {
		t.Fatalf("expected validation kind, got %s", kind)
	}
}

func TestClient_FetchResolvesRelativeURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artifacts/poster.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("rendered-bytes"))
	}))
	defer server.Close()

	client := New(server.URL)
	body, contentType, err := client.Fetch(context.Background(), blueprint.RenderedImage{URL: "/artifacts/poster.png"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "rendered-bytes" {
		t.Fatalf("unexpected artifact body %q", data)
	}
	if contentType != "image/png" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}
