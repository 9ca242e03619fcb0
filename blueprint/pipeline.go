package blueprint

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultLoadingDelay is how long a render may stay in flight before the
// loading indicator becomes visible. Short enough to feel responsive, long
// enough that fast responses never flicker a spinner.
const DefaultLoadingDelay = 300 * time.Millisecond

// Pipeline obtains a displayable artifact for a PrintOptions record, using
// the session's cache when possible and the remote renderer otherwise.
//
// Nothing here enforces at-most-one in-flight request per key: rapid option
// changes may overlap requests, and whichever response arrives last wins
// the display. That ordering is the contract, not an accident.
type Pipeline struct {
	Renderer Renderer
	Session  *Session
	Display  Display
	Logger   Logger
	Emitter  ChangeEmitter
	Metrics  MetricsHook
	Now      func() time.Time

	// IDGenerator tags each job for event correlation.
	IDGenerator func() string

	// LoadingDelay overrides DefaultLoadingDelay when positive.
	LoadingDelay time.Duration
}

// RenderJob is one unit of pipeline work.
type RenderJob struct {
	Options PrintOptions

	// Speculative marks warm-cache renders for options the user has not
	// selected. They populate the cache but never touch the display or
	// the session's displayed artifact.
	Speculative bool
}

// NewPipeline creates a pipeline with defaults applied. The display stays
// unset so hosts can wire their own; Render treats a nil display as a no-op.
func NewPipeline(renderer Renderer, session *Session) *Pipeline {
	return &Pipeline{
		Renderer:    renderer,
		Session:     session,
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: defaultIDGenerator(),
	}
}

// Render executes one render job: resolve the key, consult the cache for
// previews, otherwise round-trip the renderer with delayed loading
// feedback. Cache population happens before the display update.
func (p *Pipeline) Render(ctx context.Context, job RenderJob) (RenderedImage, error) {
	if p == nil {
		return RenderedImage{}, AsGoError(NewError(KindInternal, "pipeline is nil", nil))
	}
	if p.Renderer == nil {
		return RenderedImage{}, AsGoError(NewError(KindInternal, "renderer is not configured", nil))
	}
	if p.Session == nil {
		return RenderedImage{}, AsGoError(NewError(KindInternal, "session is not configured", nil))
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	display := p.Display
	if display == nil {
		display = NopDisplay{}
	}

	opts := job.Options
	if !opts.Print {
		opts = opts.ForPreview()
	}
	if err := opts.Validate(); err != nil {
		return RenderedImage{}, AsGoError(err)
	}

	key, err := EncodeOptionsKey(opts)
	if err != nil {
		return RenderedImage{}, AsGoError(err)
	}

	file := p.Session.File()
	if file.Empty() {
		return RenderedImage{}, AsGoError(NewError(KindValidation, "no source file loaded", nil))
	}
	cache := p.Session.Cache()

	idGen := p.IDGenerator
	if idGen == nil {
		idGen = defaultIDGenerator()
	}
	info := jobInfo{id: idGen(), key: key, opts: opts, speculative: job.Speculative, startedAt: now()}

	// Print renders are never memoized; previews hit the cache first.
	if !opts.Print {
		if img, ok := cache.Get(key); ok {
			if !job.Speculative {
				p.Session.SetDisplayed(img)
				display.ShowImage(img, RenderNote(img))
			}
			p.emit(ctx, info, "render.cache_hit", nil)
			p.emitMetrics(ctx, info, "render.cache_hit", img, nil)
			return img, nil
		}
	}

	p.emit(ctx, info, "render.requested", nil)

	var spinner *time.Timer
	if !job.Speculative {
		display.Loading()
		delay := p.LoadingDelay
		if delay <= 0 {
			delay = DefaultLoadingDelay
		}
		spinner = time.AfterFunc(delay, display.ShowSpinner)
	}

	img, err := p.Renderer.Render(ctx, file, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		if !job.Speculative {
			display.ShowError(KindFromError(err), UserMessage(err))
		}
		p.fail(ctx, info, err)
		return RenderedImage{}, AsGoError(err)
	}

	img.Key = key
	img.RenderedAt = now()

	if !opts.Print {
		cache.Put(key, img)
	}
	if !job.Speculative {
		p.Session.SetDisplayed(img)
		display.ShowImage(img, RenderNote(img))
	}

	p.emit(ctx, info, "render.completed", map[string]any{
		"duration": now().Sub(info.startedAt),
	})
	p.emitMetrics(ctx, info, "render.completed", img, nil)

	return img, nil
}

// RenderNote formats the size/DPI info line shown with a rendered artifact.
func RenderNote(img RenderedImage) string {
	note := fmt.Sprintf("%.1f x %.1f in at %d DPI", img.Width, img.Height, img.DPI)
	if img.DPI > 0 && img.DPI < LowDPIWarning {
		note += fmt.Sprintf(" (below %d DPI, print quality may suffer)", LowDPIWarning)
	}
	return note
}

func (p *Pipeline) fail(ctx context.Context, info jobInfo, err error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}

	if errors.Is(err, context.Canceled) {
		p.emit(ctx, info, "render.canceled", map[string]any{
			"duration": now().Sub(info.startedAt),
		})
		p.emitMetrics(ctx, info, "render.canceled", RenderedImage{}, err)
		return
	}

	p.emit(ctx, info, "render.failed", map[string]any{
		"error":      err.Error(),
		"error_kind": KindFromError(err),
		"duration":   now().Sub(info.startedAt),
	})
	p.emitMetrics(ctx, info, "render.failed", RenderedImage{}, err)
}

func (p *Pipeline) emit(ctx context.Context, info jobInfo, name string, meta map[string]any) {
	if p.Emitter == nil {
		return
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	_ = p.Emitter.Emit(ctx, ChangeEvent{
		Name:      name,
		Key:       info.key,
		Options:   info.opts,
		Timestamp: now(),
		Metadata:  mergeMetadata(info.baseMeta(), meta),
	})
}

func (p *Pipeline) emitMetrics(ctx context.Context, info jobInfo, name string, img RenderedImage, err error) {
	if p.Metrics == nil {
		return
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	kind := ErrorKind("")
	if err != nil {
		kind = KindFromError(err)
	}
	_ = p.Metrics.Emit(ctx, MetricsEvent{
		Name:      name,
		Key:       info.key,
		DPI:       img.DPI,
		Duration:  now().Sub(info.startedAt),
		ErrorKind: kind,
		Timestamp: now(),
	})
}

type jobInfo struct {
	id          string
	key         string
	opts        PrintOptions
	speculative bool
	startedAt   time.Time
}

func (i jobInfo) baseMeta() map[string]any {
	return map[string]any{
		"job_id":      i.id,
		"speculative": i.speculative,
		"preview":     i.opts.Preview,
		"print":       i.opts.Print,
		"sizing_mode": i.opts.SizingMode,
		"side":        i.opts.Side,
		"paper_width": i.opts.PaperWidth,
	}
}

func mergeMetadata(base, extra map[string]any) map[string]any {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

func defaultIDGenerator() func() string {
	var counter uint64
	return func() string {
		id := atomic.AddUint64(&counter, 1)
		return fmt.Sprintf("job-%d", id)
	}
}
