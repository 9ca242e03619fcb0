package blueprint

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service is the high level API for the print station: load a file,
// render previews against the session cache, authorize badge holders,
// and execute audited prints.
type Service interface {
	// LoadFile replaces the session's source file and clears the render
	// cache. It returns the inspected file info.
	LoadFile(ctx context.Context, file SourceFile) (FileInfo, error)

	// RenderPreview resolves options (from the options source when opts is
	// nil) and renders a preview through the cache-aware pipeline.
	RenderPreview(ctx context.Context, opts *PrintOptions) (RenderedImage, error)

	// WarmCache renders the given option sets speculatively, populating the
	// cache without touching the display. With no arguments it warms the
	// current options and their opposite side. Individual render failures
	// are logged, never returned.
	WarmCache(ctx context.Context, optsList ...PrintOptions) error

	// Authorize checks a raw badge token against the configured mode.
	Authorize(ctx context.Context, rawToken string) (Authorization, error)

	// Print runs the full print sequence: authorize, check quota, append
	// the audit record, render at print fidelity, and hand the artifact to
	// the print surface. The audit record is returned even when a later
	// step fails, since the log entry is already committed by then.
	Print(ctx context.Context, rawToken string, opts *PrintOptions) (AuditRecord, error)

	// History returns all audit records, newest first.
	History(ctx context.Context) ([]AuditRecord, error)
}

// ServiceConfig carries the dependencies for NewService. Renderer (or a
// prebuilt Pipeline) is required; everything else has a working default.
type ServiceConfig struct {
	// Pipeline, when set, is used as-is. Otherwise one is built from
	// Renderer and Session.
	Pipeline *Pipeline

	// Renderer produces artifacts for option records. Required unless
	// Pipeline is set.
	Renderer Renderer

	// Session holds the loaded file and its render cache. Defaults to a
	// fresh session backed by Cache.
	Session *Session

	// Cache seeds the default session. Ignored when Session is set.
	Cache RenderCache

	// Display receives render lifecycle updates.
	Display Display

	// Options supplies panel state when callers pass nil options.
	Options OptionsSource

	// Authorizer validates badge tokens. Defaults to local mode.
	Authorizer *Authorizer

	// Audit stores print records. Defaults to the in-memory log.
	Audit AuditLog

	// Printer receives rendered artifacts for physical printing. Print
	// fails with KindNotImpl when unset.
	Printer PrintSurface

	// Inspector extracts file info at load time. Optional.
	Inspector SourceInspector

	// Quota gates prints per badge token after authorization. Optional.
	Quota QuotaHook

	Logger  Logger
	Emitter ChangeEmitter
	Metrics MetricsHook

	// Now is the clock, defaults to time.Now.
	Now func() time.Time

	// LoadingDelay overrides the pipeline's spinner delay.
	LoadingDelay time.Duration
}

type service struct {
	pipeline   *Pipeline
	session    *Session
	options    OptionsSource
	authorizer *Authorizer
	audit      AuditLog
	printer    PrintSurface
	inspector  SourceInspector
	quota      QuotaHook
	logger     Logger
	emitter    ChangeEmitter
	now        func() time.Time
}

// NewService validates the config, fills defaults, and returns a Service.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Pipeline == nil && cfg.Renderer == nil {
		return nil, AsGoError(NewError(KindInternal, "a renderer is required", nil))
	}

	session := cfg.Session
	if session == nil {
		session = NewSession(cfg.Cache)
	}

	pipeline := cfg.Pipeline
	if pipeline == nil {
		pipeline = NewPipeline(cfg.Renderer, session)
	}
	if pipeline.Session == nil {
		pipeline.Session = session
	}
	if cfg.Display != nil && pipeline.Display == nil {
		pipeline.Display = cfg.Display
	}
	if cfg.Emitter != nil && pipeline.Emitter == nil {
		pipeline.Emitter = cfg.Emitter
	}
	if cfg.Metrics != nil && pipeline.Metrics == nil {
		pipeline.Metrics = cfg.Metrics
	}
	if cfg.LoadingDelay > 0 {
		pipeline.LoadingDelay = cfg.LoadingDelay
	}

	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	if pipeline.Now == nil {
		pipeline.Now = nowFn
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}

	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = &Authorizer{Mode: AuthorizationLocal, Now: nowFn}
	}
	if authorizer.Now == nil {
		authorizer.Now = nowFn
	}

	audit := cfg.Audit
	if audit == nil {
		audit = NewMemoryAuditLog()
	}

	return &service{
		pipeline:   pipeline,
		session:    session,
		options:    cfg.Options,
		authorizer: authorizer,
		audit:      audit,
		printer:    cfg.Printer,
		inspector:  cfg.Inspector,
		quota:      cfg.Quota,
		logger:     logger,
		emitter:    pipeline.Emitter,
		now:        nowFn,
	}, nil
}

func (s *service) LoadFile(ctx context.Context, file SourceFile) (FileInfo, error) {
	if file.Empty() {
		return FileInfo{}, AsGoError(NewError(KindValidation, "source file is empty", nil))
	}

	info := FileInfo{
		Name:        file.Name,
		ContentType: file.DeclaredType(),
		IsPDF:       file.IsPDF(),
		Pages:       1,
		Bytes:       len(file.Data),
	}
	if s.inspector != nil {
		inspected, err := s.inspector.Inspect(ctx, file)
		if err != nil {
			return FileInfo{}, AsGoError(err)
		}
		info = inspected
	}

	s.session.SetFile(file, info, s.now())
	s.emit(ctx, "file.loaded", 0, map[string]any{
		"name":         info.Name,
		"content_type": info.ContentType,
		"pages":        info.Pages,
		"bytes":        info.Bytes,
	})

	return info, nil
}

func (s *service) RenderPreview(ctx context.Context, opts *PrintOptions) (RenderedImage, error) {
	resolved, err := s.resolveOptions(ctx, opts)
	if err != nil {
		return RenderedImage{}, err
	}
	return s.pipeline.Render(ctx, RenderJob{Options: resolved.ForPreview()})
}

func (s *service) WarmCache(ctx context.Context, optsList ...PrintOptions) error {
	if len(optsList) == 0 {
		resolved, err := s.resolveOptions(ctx, nil)
		if err != nil {
			return err
		}
		optsList = []PrintOptions{resolved, resolved.WithSide(OppositeSide(resolved.Side))}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, opts := range optsList {
		opts := opts.ForPreview()
		g.Go(func() error {
			if _, err := s.pipeline.Render(gctx, RenderJob{Options: opts, Speculative: true}); err != nil {
				s.logger.Debugf("speculative render skipped: %v", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *service) Authorize(ctx context.Context, rawToken string) (Authorization, error) {
	auth, err := s.authorizer.Authorize(ctx, rawToken)
	if err != nil {
		s.emit(ctx, "print.denied", 0, map[string]any{
			"error":      err.Error(),
			"error_kind": string(KindFromError(err)),
		})
		return Authorization{}, AsGoError(err)
	}

	s.emit(ctx, "print.authorized", auth.Token, nil)
	return auth, nil
}

func (s *service) Print(ctx context.Context, rawToken string, opts *PrintOptions) (AuditRecord, error) {
	resolved, err := s.resolveOptions(ctx, opts)
	if err != nil {
		return AuditRecord{}, err
	}
	printOpts := resolved.ForPrint()
	if err := printOpts.Validate(); err != nil {
		return AuditRecord{}, AsGoError(err)
	}

	auth, err := s.Authorize(ctx, rawToken)
	if err != nil {
		return AuditRecord{}, err
	}

	if s.quota != nil {
		if err := s.quota.Allow(ctx, auth.Token); err != nil {
			s.emit(ctx, "print.denied", auth.Token, map[string]any{
				"error":      err.Error(),
				"error_kind": string(KindFromError(err)),
			})
			return AuditRecord{}, AsGoError(err)
		}
	}

	record := AuditRecord{
		Timestamp: s.now(),
		Token:     auth.Token,
		Identity:  auth.Identity,
		Options:   printOpts,
	}
	if err := s.audit.Append(ctx, record); err != nil {
		return AuditRecord{}, AsGoError(err)
	}
	s.emit(ctx, "print.logged", auth.Token, map[string]any{
		"timestamp": record.TimestampKey(),
	})

	img, err := s.pipeline.Render(ctx, RenderJob{Options: printOpts})
	if err != nil {
		return record, err
	}

	if s.printer == nil {
		return record, AsGoError(NewError(KindNotImpl, "print surface is not configured", nil))
	}
	if err := s.printer.Print(ctx, img, printOpts); err != nil {
		return record, AsGoError(NewError(KindExternal, "print submission failed", err))
	}

	s.emit(ctx, "print.completed", auth.Token, map[string]any{
		"image_url": img.URL,
	})
	return record, nil
}

func (s *service) History(ctx context.Context) ([]AuditRecord, error) {
	records, err := s.audit.List(ctx)
	if err != nil {
		return nil, AsGoError(err)
	}
	SortRecordsNewestFirst(records)
	return records, nil
}

// resolveOptions returns opts when given, otherwise builds canonical options
// from the configured options source.
func (s *service) resolveOptions(ctx context.Context, opts *PrintOptions) (PrintOptions, error) {
	if opts != nil {
		return *opts, nil
	}
	if s.options == nil {
		return PrintOptions{}, AsGoError(NewError(KindInternal, "no options source configured", nil))
	}
	panel, err := s.options.Snapshot(ctx)
	if err != nil {
		return PrintOptions{}, AsGoError(NewError(KindInternal, "options source failed", err))
	}
	return BuildOptions(panel), nil
}

func (s *service) emit(ctx context.Context, name string, token int64, meta map[string]any) {
	if s.emitter == nil {
		return
	}
	_ = s.emitter.Emit(ctx, ChangeEvent{
		Name:      name,
		Token:     token,
		Timestamp: s.now(),
		Metadata:  meta,
	})
}
