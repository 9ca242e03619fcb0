package printer

import (
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// 1x1 transparent GIF.
const tinyGIF = "R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"

func chromeBinaryPath(t *testing.T) string {
	t.Helper()

	chromePath := os.Getenv("CHROME_BIN")
	if chromePath == "" {
		for _, candidate := range []string{"google-chrome", "chromium", "chromium-browser"} {
			if path, err := exec.LookPath(candidate); err == nil {
				chromePath = path
				break
			}
		}
	}
	if chromePath == "" {
		t.Skip("chromium binary not found; set CHROME_BIN to run this test")
	}
	return chromePath
}

func TestChromiumPrinter_PassesThroughPDF(t *testing.T) {
	store := &recordingStore{}
	p := NewChromiumPrinter(stubFetcher{body: "%PDF-1.7 payload", contentType: "application/pdf"}, store)

	img := blueprint.RenderedImage{
		Width:      36,
		Height:     48,
		DPI:        300,
		RenderedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	// A PDF artifact spools as-is; no browser is started.
	if err := p.Print(context.Background(), img, blueprint.PrintOptions{Print: true}); err != nil {
		t.Fatalf("print: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 spooled artifact, got %d", len(store.saved))
	}
	got := store.saved[0]
	if string(got.data) != "%PDF-1.7 payload" {
		t.Fatalf("unexpected spool payload %q", got.data)
	}
	if got.meta.ContentType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got.meta.ContentType)
	}
	if got.meta.Key != "spool/PRINT_ME_300_DPI_36x48_20260314T103000Z.pdf" {
		t.Fatalf("unexpected spool key %q", got.meta.Key)
	}
}

func TestChromiumPrinter_RefusesPreview(t *testing.T) {
	p := NewChromiumPrinter(stubFetcher{body: "x", contentType: "image/png"}, &recordingStore{})

	err := p.Print(context.Background(), blueprint.RenderedImage{}, blueprint.PrintOptions{Preview: true})
	if err == nil {
		t.Fatalf("expected error")
	}
	if blueprint.KindFromError(err) != blueprint.KindValidation {
		t.Fatalf("expected validation error, got %v", blueprint.KindFromError(err))
	}
}

func TestChromiumPrinter_NotConfigured(t *testing.T) {
	p := &ChromiumPrinter{}
	err := p.Print(context.Background(), blueprint.RenderedImage{}, blueprint.PrintOptions{Print: true})
	if err == nil {
		t.Fatalf("expected error")
	}
	if blueprint.KindFromError(err) != blueprint.KindNotImpl {
		t.Fatalf("expected not_implemented, got %v", blueprint.KindFromError(err))
	}
}

func TestPrintDocument_PageSizeAndPayload(t *testing.T) {
	payload := []byte("raster-bytes")
	doc := printDocument(blueprint.RenderedImage{Width: 24, Height: 36}, "image/png", payload)

	if !strings.Contains(doc, "size: 24in 36in") {
		t.Fatalf("expected page size in document, got %q", doc)
	}
	if !strings.Contains(doc, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(payload)) {
		t.Fatalf("expected inline payload in document")
	}
}

func TestPrintDocument_GuardsZeroSize(t *testing.T) {
	doc := printDocument(blueprint.RenderedImage{}, "image/png", nil)
	if !strings.Contains(doc, "size: 1in 1in") {
		t.Fatalf("expected fallback page size, got %q", doc)
	}
}

func TestAllocatorOptionsFromArgs(t *testing.T) {
	opts := allocatorOptionsFromArgs([]string{"--no-sandbox", "", "  ", "--window-size=1280,720", "disable-gpu"})
	if len(opts) != 3 {
		t.Fatalf("expected 3 allocator options, got %d", len(opts))
	}
}

func TestChromiumPrinter_WrapsRaster_Smoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping chromium smoke test in short mode")
	}
	chromePath := chromeBinaryPath(t)

	gif, err := base64.StdEncoding.DecodeString(tinyGIF)
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}

	store := &recordingStore{}
	p := NewChromiumPrinter(stubFetcher{body: string(gif), contentType: "image/gif"}, store)
	p.BrowserPath = chromePath
	p.Timeout = 30 * time.Second
	p.Args = []string{"--no-sandbox", "--disable-dev-shm-usage"}
	t.Cleanup(func() {
		_ = p.Close()
	})

	img := blueprint.RenderedImage{
		Width:      2,
		Height:     3,
		DPI:        96,
		RenderedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	if err := p.Print(context.Background(), img, blueprint.PrintOptions{Print: true}); err != nil {
		t.Fatalf("print: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected 1 spooled artifact, got %d", len(store.saved))
	}
	got := store.saved[0]
	if len(got.data) < 4 || string(got.data[:4]) != "%PDF" {
		t.Fatalf("expected pdf output, got %q", string(got.data[:4]))
	}
	if got.meta.ContentType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got.meta.ContentType)
	}
}
