package printer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

type stubFetcher struct {
	body        string
	contentType string
	err         error
}

func (f stubFetcher) Fetch(ctx context.Context, img blueprint.RenderedImage) (io.ReadCloser, string, error) {
	_ = ctx
	_ = img
	if f.err != nil {
		return nil, "", f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), f.contentType, nil
}

type savedArtifact struct {
	meta blueprint.ArtifactMeta
	data []byte
}

type recordingStore struct {
	saved []savedArtifact
	err   error
}

func (s *recordingStore) Save(ctx context.Context, meta blueprint.ArtifactMeta, r io.Reader) (blueprint.ArtifactRef, error) {
	_ = ctx
	if s.err != nil {
		return blueprint.ArtifactRef{}, s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return blueprint.ArtifactRef{}, err
	}
	s.saved = append(s.saved, savedArtifact{meta: meta, data: data})
	return blueprint.ArtifactRef{
		Key:         meta.Key,
		Name:        meta.Name,
		ContentType: meta.ContentType,
		Class:       meta.Class,
		Bytes:       int64(len(data)),
		CreatedAt:   meta.CreatedAt,
	}, nil
}

func (s *recordingStore) Open(ctx context.Context, key string) (io.ReadCloser, blueprint.ArtifactRef, error) {
	_ = ctx
	return nil, blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindNotFound, fmt.Sprintf("artifact %q not found", key), nil)
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	_ = key
	return nil
}

func (s *recordingStore) List(ctx context.Context) ([]blueprint.ArtifactRef, error) {
	_ = ctx
	return nil, nil
}

func TestSpoolPrinter_DropsArtifact(t *testing.T) {
	store := &recordingStore{}
	p := NewSpoolPrinter(stubFetcher{body: "png-bytes", contentType: "image/png"}, store)

	img := blueprint.RenderedImage{
		URL:        "http://render/artifact.png",
		Width:      24,
		Height:     36,
		DPI:        200,
		RenderedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	if err := p.Print(context.Background(), img, blueprint.PrintOptions{Print: true}); err != nil {
		t.Fatalf("print: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 spooled artifact, got %d", len(store.saved))
	}
	got := store.saved[0]
	if got.meta.Key != "spool/PRINT_ME_200_DPI_24x36_20260314T103000Z.png" {
		t.Fatalf("unexpected spool key %q", got.meta.Key)
	}
	if got.meta.Class != blueprint.ArtifactPrint {
		t.Fatalf("expected print class, got %q", got.meta.Class)
	}
	if got.meta.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %q", got.meta.ContentType)
	}
	if string(got.data) != "png-bytes" {
		t.Fatalf("unexpected spool payload %q", got.data)
	}
}

func TestSpoolPrinter_TrimsPrefix(t *testing.T) {
	store := &recordingStore{}
	p := NewSpoolPrinter(stubFetcher{body: "x", contentType: "application/pdf"}, store)
	p.Prefix = "/plotter/queue/"

	img := blueprint.RenderedImage{Width: 17, Height: 22, DPI: 300, RenderedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)}
	if err := p.Print(context.Background(), img, blueprint.PrintOptions{Print: true}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if got := store.saved[0].meta.Key; !strings.HasPrefix(got, "plotter/queue/PRINT_ME_") {
		t.Fatalf("unexpected spool key %q", got)
	}
}

func TestSpoolPrinter_RefusesPreview(t *testing.T) {
	p := NewSpoolPrinter(stubFetcher{body: "x", contentType: "image/png"}, &recordingStore{})

	err := p.Print(context.Background(), blueprint.RenderedImage{}, blueprint.PrintOptions{Preview: true})
	if err == nil {
		t.Fatalf("expected error")
	}
	if blueprint.KindFromError(err) != blueprint.KindValidation {
		t.Fatalf("expected validation error, got %v", blueprint.KindFromError(err))
	}
}

func TestSpoolPrinter_NotConfigured(t *testing.T) {
	p := &SpoolPrinter{}
	err := p.Print(context.Background(), blueprint.RenderedImage{}, blueprint.PrintOptions{Print: true})
	if err == nil {
		t.Fatalf("expected error")
	}
	if blueprint.KindFromError(err) != blueprint.KindNotImpl {
		t.Fatalf("expected not_implemented, got %v", blueprint.KindFromError(err))
	}
}

func TestExtForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{contentType: "application/pdf", want: "pdf"},
		{contentType: "image/png", want: "png"},
		{contentType: "IMAGE/JPEG", want: "jpg"},
		{contentType: " image/tiff ", want: "tif"},
		{contentType: "application/octet-stream", want: ""},
	}
	for _, tc := range tests {
		if got := extForContentType(tc.contentType); got != tc.want {
			t.Fatalf("extForContentType(%q): expected %q, got %q", tc.contentType, tc.want, got)
		}
	}
}
