package blueprint

import (
	"context"
	"testing"
	"time"
)

type orderedAuditLog struct {
	inner *MemoryAuditLog
	order *[]string
}

func (l *orderedAuditLog) Append(ctx context.Context, record AuditRecord) error {
	if l.order != nil {
		*l.order = append(*l.order, "audit")
	}
	return l.inner.Append(ctx, record)
}

func (l *orderedAuditLog) List(ctx context.Context) ([]AuditRecord, error) {
	return l.inner.List(ctx)
}

type orderedQuota struct {
	order *[]string
	err   error
}

func (q *orderedQuota) Allow(ctx context.Context, token int64) error {
	_ = ctx
	_ = token
	if q.order != nil {
		*q.order = append(*q.order, "quota")
	}
	return q.err
}

type orderedPrinter struct {
	order *[]string
	jobs  []RenderedImage
	err   error
}

func (p *orderedPrinter) Print(ctx context.Context, img RenderedImage, opts PrintOptions) error {
	_ = ctx
	_ = opts
	if p.order != nil {
		*p.order = append(*p.order, "surface")
	}
	p.jobs = append(p.jobs, img)
	return p.err
}

func serviceForTest(t *testing.T, cfg ServiceConfig) Service {
	t.Helper()
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_PrintSequence(t *testing.T) {
	order := []string{}
	audit := &orderedAuditLog{inner: NewMemoryAuditLog(), order: &order}
	quota := &orderedQuota{order: &order}
	printer := &orderedPrinter{order: &order}

	verifier := IdentityVerifierFunc(func(_ context.Context, _ int64) (IdentityInfo, error) {
		order = append(order, "authorize")
		return IdentityInfo{Known: true, Name: "Sam", PassedQuizzes: []string{DefaultQualification}}, nil
	})

	renderer := RendererFunc(func(_ context.Context, _ SourceFile, opts PrintOptions) (RenderedImage, error) {
		order = append(order, "render")
		if !opts.Print || opts.Preview {
			t.Errorf("print render must carry print=true, preview=false, got %+v", opts)
		}
		return RenderedImage{URL: "http://render/print.png", Width: 36, Height: 24, DPI: 200}, nil
	})

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := serviceForTest(t, ServiceConfig{
		Renderer:   renderer,
		Audit:      audit,
		Quota:      quota,
		Printer:    printer,
		Authorizer: &Authorizer{Mode: AuthorizationRemote, Verifier: verifier},
		Now:        func() time.Time { return now },
	})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "poster.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := previewOptions(36)
	record, err := svc.Print(context.Background(), "1234-5678", &opts)
	if err != nil {
		t.Fatalf("print: %v", err)
	}

	want := []string{"authorize", "quota", "audit", "render", "surface"}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}

	if record.Token != 1234 {
		t.Fatalf("expected token 1234, got %d", record.Token)
	}
	if !record.Timestamp.Equal(now) {
		t.Fatalf("expected record at %v, got %v", now, record.Timestamp)
	}
	if record.Identity.Name != "Sam" {
		t.Fatalf("expected identity captured, got %+v", record.Identity)
	}
	if len(printer.jobs) != 1 || printer.jobs[0].URL != "http://render/print.png" {
		t.Fatalf("expected the print artifact on the surface, got %+v", printer.jobs)
	}
}

func TestService_PrintUnauthorizedLeavesNoTrace(t *testing.T) {
	renderCalls := 0
	renderer := RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
		renderCalls++
		return RenderedImage{URL: "u"}, nil
	})
	audit := NewMemoryAuditLog()
	printer := &orderedPrinter{}

	svc := serviceForTest(t, ServiceConfig{
		Renderer: renderer,
		Audit:    audit,
		Printer:  printer,
		Authorizer: &Authorizer{
			Mode: AuthorizationRemote,
			Verifier: IdentityVerifierFunc(func(_ context.Context, _ int64) (IdentityInfo, error) {
				return IdentityInfo{}, nil
			}),
		},
	})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "poster.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := previewOptions(36)
	_, err := svc.Print(context.Background(), "1234", &opts)
	if err == nil {
		t.Fatalf("expected authorization failure")
	}
	if KindFromError(err) != KindUnauthorized {
		t.Fatalf("expected unauthorized kind, got %v", err)
	}

	records, _ := audit.List(context.Background())
	if len(records) != 0 {
		t.Fatalf("denied print must not be logged, got %d records", len(records))
	}
	if renderCalls != 0 {
		t.Fatalf("denied print must not render")
	}
	if len(printer.jobs) != 0 {
		t.Fatalf("denied print must not reach the surface")
	}
}

func TestService_PrintQuotaDeniedBeforeAudit(t *testing.T) {
	audit := NewMemoryAuditLog()
	quota := &orderedQuota{err: NewError(KindQuota, "print quota exceeded for user 1234", nil)}

	svc := serviceForTest(t, ServiceConfig{
		Renderer: RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
			t.Error("render must not run when quota denies")
			return RenderedImage{}, nil
		}),
		Audit:   audit,
		Quota:   quota,
		Printer: &orderedPrinter{},
	})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "poster.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := previewOptions(36)
	_, err := svc.Print(context.Background(), "1234", &opts)
	if err == nil {
		t.Fatalf("expected quota error")
	}
	if KindFromError(err) != KindQuota {
		t.Fatalf("expected quota kind, got %v", err)
	}
	records, _ := audit.List(context.Background())
	if len(records) != 0 {
		t.Fatalf("quota-denied print must not be logged")
	}
}

func TestService_PrintTimestampCollisionAborts(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	audit := NewMemoryAuditLog()
	if err := audit.Append(context.Background(), AuditRecord{Timestamp: now, Token: 9999}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	renderCalls := 0
	svc := serviceForTest(t, ServiceConfig{
		Renderer: RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
			renderCalls++
			return RenderedImage{URL: "u"}, nil
		}),
		Audit:   audit,
		Printer: &orderedPrinter{},
		Now:     func() time.Time { return now },
	})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "poster.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := previewOptions(36)
	_, err := svc.Print(context.Background(), "1234", &opts)
	if err == nil {
		t.Fatalf("expected collision error")
	}
	if KindFromError(err) != KindConflict {
		t.Fatalf("expected conflict kind, got %v", err)
	}
	if renderCalls != 0 {
		t.Fatalf("collision must abort before rendering")
	}

	records, _ := audit.List(context.Background())
	if len(records) != 1 || records[0].Token != 9999 {
		t.Fatalf("existing record must be untouched, got %+v", records)
	}
}

func TestService_LoadFileClearsCache(t *testing.T) {
	renderCalls := 0
	renderer := RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
		renderCalls++
		return RenderedImage{URL: "u", DPI: 100}, nil
	})

	svc := serviceForTest(t, ServiceConfig{Renderer: renderer})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "a.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	opts := previewOptions(36)
	if _, err := svc.RenderPreview(context.Background(), &opts); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if _, err := svc.RenderPreview(context.Background(), &opts); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if renderCalls != 1 {
		t.Fatalf("expected cached second preview, got %d calls", renderCalls)
	}

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "b.png", Data: []byte{2}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := svc.RenderPreview(context.Background(), &opts); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if renderCalls != 2 {
		t.Fatalf("new file must invalidate the cache, got %d calls", renderCalls)
	}
}

func TestService_WarmCacheThenPreviewIsLocal(t *testing.T) {
	renderCalls := 0
	renderer := RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
		renderCalls++
		return RenderedImage{URL: "u", DPI: 100}, nil
	})
	display := newRecordingDisplay()

	svc := serviceForTest(t, ServiceConfig{Renderer: renderer, Display: display})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "a.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := previewOptions(36)
	if err := svc.WarmCache(context.Background(), opts); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if len(display.seen()) != 0 {
		t.Fatalf("warming must not touch the display, got %v", display.seen())
	}
	if renderCalls != 1 {
		t.Fatalf("expected one warm render, got %d", renderCalls)
	}

	if _, err := svc.RenderPreview(context.Background(), &opts); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if renderCalls != 1 {
		t.Fatalf("warmed preview must be local, got %d renders", renderCalls)
	}
}

func TestService_WarmCacheSwallowsFailures(t *testing.T) {
	renderer := RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
		return RenderedImage{}, NewError(KindExternal, "render service unavailable", nil)
	})
	svc := serviceForTest(t, ServiceConfig{Renderer: renderer})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "a.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := svc.WarmCache(context.Background(), previewOptions(36)); err != nil {
		t.Fatalf("speculative failures must not surface, got %v", err)
	}
}

func TestService_HistoryNewestFirst(t *testing.T) {
	audit := NewMemoryAuditLog()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, minutes := range []int{5, 1, 3} {
		record := AuditRecord{Timestamp: base.Add(time.Duration(minutes) * time.Minute), Token: int64(i + 1)}
		if err := audit.Append(context.Background(), record); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	svc := serviceForTest(t, ServiceConfig{
		Renderer: RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
			return RenderedImage{}, nil
		}),
		Audit: audit,
	})

	records, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.After(records[i-1].Timestamp) {
			t.Fatalf("expected newest first, got %v", records)
		}
	}
}

func TestService_PrintWithoutSurfaceFails(t *testing.T) {
	svc := serviceForTest(t, ServiceConfig{
		Renderer: RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
			return RenderedImage{URL: "u"}, nil
		}),
	})

	if _, err := svc.LoadFile(context.Background(), SourceFile{Name: "a.png", Data: []byte{1}}); err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := previewOptions(36)
	record, err := svc.Print(context.Background(), "1234", &opts)
	if err == nil {
		t.Fatalf("expected missing-surface error")
	}
	if KindFromError(err) != KindNotImpl {
		t.Fatalf("expected not-implemented kind, got %v", err)
	}
	// The audit record was already committed when the surface failed.
	if record.Token != 1234 {
		t.Fatalf("expected the committed record back, got %+v", record)
	}
}

func TestNewService_RequiresRenderer(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	if err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestService_LoadFileRejectsEmpty(t *testing.T) {
	svc := serviceForTest(t, ServiceConfig{
		Renderer: RendererFunc(func(_ context.Context, _ SourceFile, _ PrintOptions) (RenderedImage, error) {
			return RenderedImage{}, nil
		}),
	})

	_, err := svc.LoadFile(context.Background(), SourceFile{Name: "empty.png"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if KindFromError(err) != KindValidation {
		t.Fatalf("expected validation kind, got %v", err)
	}
}
