package sourcecallback

import (
	"context"
	"testing"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

func TestProvider_LoadCallsFunc(t *testing.T) {
	called := false
	provider := NewProvider(func(ctx context.Context) (blueprint.SourceFile, error) {
		_ = ctx
		called = true
		return blueprint.SourceFile{Name: "poster.png", ContentType: "image/png", Data: []byte{0x89}}, nil
	})

	file, err := provider.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Name != "poster.png" {
		t.Fatalf("expected poster.png, got %q", file.Name)
	}
	if !called {
		t.Fatalf("expected callback to be invoked")
	}
}

func TestProvider_LoadNilFunc(t *testing.T) {
	provider := &Provider{}
	if _, err := provider.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStatic_YieldsFixedFile(t *testing.T) {
	provider := Static(blueprint.SourceFile{Name: "map.pdf", ContentType: "application/pdf", Data: []byte("%PDF")})

	file, err := provider.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Name != "map.pdf" {
		t.Fatalf("expected map.pdf, got %q", file.Name)
	}

	empty := Static(blueprint.SourceFile{})
	if _, err := empty.Load(context.Background()); err == nil {
		t.Fatalf("expected not found for empty file")
	}
}
