package printer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

const defaultPDFScale = 1.0

// ChromiumPrinter converts rendered artifacts into print-ready PDFs with a
// shared headless Chromium instance before spooling them. The plotter driver
// only takes PDF, so raster artifacts are wrapped in a full-bleed page whose
// physical size matches the print.
type ChromiumPrinter struct {
	Fetcher  ArtifactFetcher
	Store    blueprint.ArtifactStore
	Template string
	Prefix   string
	Now      func() time.Time

	BrowserPath string
	Headless    bool
	Timeout     time.Duration
	Args        []string

	initOnce      sync.Once
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromiumPrinter creates a PDF-converting print surface.
func NewChromiumPrinter(fetcher ArtifactFetcher, store blueprint.ArtifactStore) *ChromiumPrinter {
	return &ChromiumPrinter{Fetcher: fetcher, Store: store, Headless: true, Now: time.Now}
}

// Print fetches the artifact, converts it to PDF when it is not one already,
// and drops the result under the spool prefix.
func (p *ChromiumPrinter) Print(ctx context.Context, img blueprint.RenderedImage, opts blueprint.PrintOptions) error {
	if p == nil {
		return blueprint.NewError(blueprint.KindInternal, "chromium printer is nil", nil)
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
	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return blueprint.NewError(blueprint.KindExternal, "artifact read failed", err)
	}

	pdf := data
	if !strings.EqualFold(strings.TrimSpace(contentType), "application/pdf") {
		pdf, err = p.printToPDF(ctx, img, contentType, data)
		if err != nil {
			return err
		}
	}

	stamp := img.RenderedAt
	if stamp.IsZero() {
		stamp = p.now()
	}
	name, err := blueprint.RenderSpoolName(p.Template, img, blueprint.AuditRecord{Timestamp: stamp}, "pdf")
	if err != nil {
		return blueprint.NewError(blueprint.KindInternal, "spool name failed", err)
	}

	prefix := p.Prefix
	if prefix == "" {
		prefix = "spool"
	}
	_, err = p.Store.Save(ctx, blueprint.ArtifactMeta{
		Key:         strings.Trim(prefix, "/") + "/" + name,
		Name:        name,
		ContentType: "application/pdf",
		Class:       blueprint.ArtifactPrint,
		CreatedAt:   p.now(),
	}, bytes.NewReader(pdf))
	if err != nil {
		return blueprint.NewError(blueprint.KindExternal, "spool write failed", err)
	}
	return nil
}

// Close releases Chromium resources if they have been initialized.
func (p *ChromiumPrinter) Close() error {
	if p == nil {
		return nil
	}
	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	return nil
}

func (p *ChromiumPrinter) printToPDF(ctx context.Context, img blueprint.RenderedImage, contentType string, data []byte) ([]byte, error) {
	if err := p.ensureBrowser(); err != nil {
		return nil, blueprint.NewError(blueprint.KindInternal, "chromium init failed", err)
	}

	tabCtx, cancel := chromedp.NewContext(p.browserCtx)
	defer cancel()

	execCtx, cancelReq := context.WithCancel(tabCtx)
	defer cancelReq()
	go func() {
		select {
		case <-ctx.Done():
			cancelReq()
		case <-execCtx.Done():
		}
	}()
	if p.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		execCtx, cancelTimeout = context.WithTimeout(execCtx, p.Timeout)
		defer cancelTimeout()
	}

	doc := printDocument(img, contentType, data)

	var pdf []byte
	actions := []chromedp.Action{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitReady("img", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			params := page.PrintToPDF().
				WithScale(defaultPDFScale).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true)
			var err error
			pdf, _, err = params.Do(ctx)
			return err
		}),
	}

	if err := chromedp.Run(execCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, blueprint.NewError(blueprint.KindInternal, "chromium pdf render failed", err)
	}
	return pdf, nil
}

func (p *ChromiumPrinter) ensureBrowser() error {
	p.initOnce.Do(func() {
		options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if p.BrowserPath != "" {
			options = append(options, chromedp.ExecPath(p.BrowserPath))
		}
		options = append(options, chromedp.Flag("headless", p.Headless))
		options = append(options, allocatorOptionsFromArgs(p.Args)...)

		p.allocCtx, p.allocCancel = chromedp.NewExecAllocator(context.Background(), options...)
		p.browserCtx, p.browserCancel = chromedp.NewContext(p.allocCtx)
	})
	if p.allocCtx == nil || p.browserCtx == nil {
		return errors.New("chromium allocator unavailable")
	}
	return nil
}

func (p *ChromiumPrinter) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// printDocument builds a full-bleed page sized to the physical print. The
// @page rule carries the size; PreferCSSPageSize makes Chromium honor it.
func printDocument(img blueprint.RenderedImage, contentType string, data []byte) string {
	width := img.Width
	height := img.Height
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf(
		`<!DOCTYPE html><html><head><style>@page { size: %gin %gin; margin: 0; } html, body { margin: 0; padding: 0; } img { width: 100%%; height: 100%%; display: block; }</style></head><body><img src="data:%s;base64,%s"></body></html>`,
		width, height, contentType, encoded)
}

func allocatorOptionsFromArgs(args []string) []chromedp.ExecAllocatorOption {
	options := make([]chromedp.ExecAllocatorOption, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		arg = strings.TrimPrefix(arg, "--")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			options = append(options, chromedp.Flag(name, value))
			continue
		}
		options = append(options, chromedp.Flag(arg, true))
	}
	return options
}
