package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

func TestClient_VerifyKnownUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/info/1234" {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "Sam Plotter",
			"college_id": "hmc-1234",
			"college_email": "sam@hmc.edu",
			"passed_quizzes": ["Laser Cutting", "Large Format Printing"]
		}`))
	}))
	defer server.Close()

	client := New(server.URL)
	client.APIKey = "secret"

	info, err := client.Verify(context.Background(), 1234)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !info.Known {
		t.Fatalf("expected known user")
	}
	if info.Name != "Sam Plotter" || info.CollegeEmail != "sam@hmc.edu" {
		t.Fatalf("unexpected identity %+v", info)
	}
	if !info.HasQualification("Large Format Printing") {
		t.Fatalf("expected qualification in %v", info.PassedQuizzes)
	}
}

func TestClient_VerifyNullBodyIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	info, err := New(server.URL).Verify(context.Background(), 999)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if info.Known {
		t.Fatalf("expected unknown sentinel, got %+v", info)
	}
}

func TestClient_VerifyNotFoundIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	info, err := New(server.URL).Verify(context.Background(), 999)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if info.Known {
		t.Fatalf("expected unknown sentinel, got %+v", info)
	}
}

func TestClient_VerifyServerErrorFailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL).Verify(context.Background(), 1234)
	if err == nil {
		t.Fatalf("expected error for server failure")
	}
	if kind := blueprint.KindFromError(err); kind != blueprint.KindExternal {
		t.Fatalf("expected external kind, got %s", kind)
	}
}
