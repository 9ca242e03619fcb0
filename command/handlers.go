package command

import (
	"context"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
)

// LoadFileHandler loads source files into the print session.
type LoadFileHandler struct {
	Service blueprint.Service
}

func NewLoadFileHandler(svc blueprint.Service) *LoadFileHandler {
	return &LoadFileHandler{Service: svc}
}

func (h *LoadFileHandler) Execute(ctx context.Context, msg LoadFile) error {
	if h == nil || h.Service == nil {
		return errors.New("print service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	info, err := h.Service.LoadFile(ctx, msg.File)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = info
	}
	if res := gcmd.ResultFromContext[blueprint.FileInfo](ctx); res != nil {
		res.Store(info)
	}
	return nil
}

// RenderPreviewHandler renders previews through the session cache.
type RenderPreviewHandler struct {
	Service blueprint.Service
}

func NewRenderPreviewHandler(svc blueprint.Service) *RenderPreviewHandler {
	return &RenderPreviewHandler{Service: svc}
}

func (h *RenderPreviewHandler) Execute(ctx context.Context, msg RenderPreview) error {
	if h == nil || h.Service == nil {
		return errors.New("print service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	img, err := h.Service.RenderPreview(ctx, msg.Options)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = img
	}
	if res := gcmd.ResultFromContext[blueprint.RenderedImage](ctx); res != nil {
		res.Store(img)
	}
	return nil
}

// WarmCacheHandler pre-renders option sets without touching the display.
type WarmCacheHandler struct {
	Service blueprint.Service
}

func NewWarmCacheHandler(svc blueprint.Service) *WarmCacheHandler {
	return &WarmCacheHandler{Service: svc}
}

func (h *WarmCacheHandler) Execute(ctx context.Context, msg WarmCache) error {
	if h == nil || h.Service == nil {
		return errors.New("print service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	return h.Service.WarmCache(ctx, msg.Options...)
}

// SubmitPrintHandler runs audited prints.
type SubmitPrintHandler struct {
	Service blueprint.Service
}

func NewSubmitPrintHandler(svc blueprint.Service) *SubmitPrintHandler {
	return &SubmitPrintHandler{Service: svc}
}

func (h *SubmitPrintHandler) Execute(ctx context.Context, msg SubmitPrint) error {
	if h == nil || h.Service == nil {
		return errors.New("print service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	record, err := h.Service.Print(ctx, msg.Token, msg.Options)
	// The audit record commits before render and print run, so it is
	// surfaced to the caller even when those later steps fail.
	if msg.Result != nil && !record.Timestamp.IsZero() {
		*msg.Result = record
	}
	if err != nil {
		return err
	}
	if res := gcmd.ResultFromContext[blueprint.AuditRecord](ctx); res != nil {
		res.Store(record)
	}
	return nil
}

// ExportAuditReportHandler renders audit history reports.
type ExportAuditReportHandler struct {
	Service blueprint.Service

	// Renderers resolves a format to a renderer. Defaults to
	// blueprint.ReportRendererFor.
	Renderers func(blueprint.ReportFormat) (blueprint.ReportRenderer, error)
}

func NewExportAuditReportHandler(svc blueprint.Service) *ExportAuditReportHandler {
	return &ExportAuditReportHandler{Service: svc}
}

func (h *ExportAuditReportHandler) Execute(ctx context.Context, msg ExportAuditReport) error {
	if h == nil || h.Service == nil {
		return errors.New("print service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	rendererFor := h.Renderers
	if rendererFor == nil {
		rendererFor = blueprint.ReportRendererFor
	}
	renderer, err := rendererFor(msg.Format)
	if err != nil {
		return err
	}
	records, err := h.Service.History(ctx)
	if err != nil {
		return err
	}
	stats, err := renderer.Render(ctx, records, msg.Output)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = stats
	}
	if res := gcmd.ResultFromContext[blueprint.ReportStats](ctx); res != nil {
		res.Store(stats)
	}
	return nil
}

// CleanupArtifactsHandler sweeps expired artifacts from the store.
type CleanupArtifactsHandler struct {
	Store  blueprint.ArtifactStore
	Rules  blueprint.RetentionRules
	Config gcmd.HandlerConfig
	Clock  func() time.Time
}

func NewCleanupArtifactsHandler(store blueprint.ArtifactStore, rules blueprint.RetentionRules) *CleanupArtifactsHandler {
	return &CleanupArtifactsHandler{Store: store, Rules: rules}
}

func (h *CleanupArtifactsHandler) Execute(ctx context.Context, msg CleanupArtifacts) error {
	if h == nil || h.Store == nil {
		return errors.New("artifact store is required", errors.CategoryInternal).
			WithTextCode("STORE_REQUIRED")
	}
	now := msg.Now
	if now.IsZero() {
		if h.Clock != nil {
			now = h.Clock()
		} else {
			now = time.Now()
		}
	}
	removed, err := blueprint.SweepArtifacts(ctx, h.Store, h.Rules, now)
	if err != nil {
		return err
	}
	count := len(removed)
	if msg.Result != nil {
		*msg.Result = count
	}
	if res := gcmd.ResultFromContext[int](ctx); res != nil {
		res.Store(count)
	}
	return nil
}

func (h *CleanupArtifactsHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), CleanupArtifacts{})
	}
}

func (h *CleanupArtifactsHandler) CronOptions() gcmd.HandlerConfig {
	return h.Config
}
