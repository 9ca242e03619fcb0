package printer

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// ArtifactFetcher downloads a rendered artifact from the render service.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, img blueprint.RenderedImage) (io.ReadCloser, string, error)
}

// SpoolPrinter drops authorized prints into the spool area of the artifact
// store, named so staff can spot them in the plotter queue folder.
// Submission ends at the drop; the plotter is not observed.
type SpoolPrinter struct {
	Fetcher  ArtifactFetcher
	Store    blueprint.ArtifactStore
	Template string
	Prefix   string
	Now      func() time.Time
}

// NewSpoolPrinter creates a spool-drop print surface.
func NewSpoolPrinter(fetcher ArtifactFetcher, store blueprint.ArtifactStore) *SpoolPrinter {
	return &SpoolPrinter{Fetcher: fetcher, Store: store, Now: time.Now}
}

// Print fetches the artifact and writes it under the spool prefix.
func (p *SpoolPrinter) Print(ctx context.Context, img blueprint.RenderedImage, opts blueprint.PrintOptions) error {
	if p == nil {
		return blueprint.NewError(blueprint.KindInternal, "spool printer is nil", nil)
	}
	if p.Fetcher == nil || p.Store == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "print spool not configured", nil)
	}
	if !opts.Print {
		return blueprint.NewError(blueprint.KindValidation, "refusing to spool a preview render", nil)
	}

	body, contentType, err := p.Fetcher.Fetch(ctx, img)
	if err != nil {
		return err
	}
	defer body.Close()

	name, err := p.spoolName(img, extForContentType(contentType))
	if err != nil {
		return err
	}

	_, err = p.Store.Save(ctx, blueprint.ArtifactMeta{
		Key:         p.prefix() + "/" + name,
		Name:        name,
		ContentType: contentType,
		Class:       blueprint.ArtifactPrint,
		CreatedAt:   p.now(),
	}, body)
	if err != nil {
		return blueprint.NewError(blueprint.KindExternal, "spool write failed", err)
	}
	return nil
}

func (p *SpoolPrinter) spoolName(img blueprint.RenderedImage, ext string) (string, error) {
	stamp := img.RenderedAt
	if stamp.IsZero() {
		stamp = p.now()
	}
	name, err := blueprint.RenderSpoolName(p.Template, img, blueprint.AuditRecord{Timestamp: stamp}, ext)
	if err != nil {
		return "", blueprint.NewError(blueprint.KindInternal, "spool name failed", err)
	}
	return name, nil
}

func (p *SpoolPrinter) prefix() string {
	if p.Prefix != "" {
		return strings.Trim(p.Prefix, "/")
	}
	return "spool"
}

func (p *SpoolPrinter) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func extForContentType(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "application/pdf":
		return "pdf"
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/tiff", "image/tif":
		return "tif"
	case "image/webp":
		return "webp"
	default:
		return ""
	}
}
