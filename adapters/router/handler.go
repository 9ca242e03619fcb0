package printrouter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-router"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	printcmd "github.com/HMC-Makerspace/BLUEPRINT/command"
	printqry "github.com/HMC-Makerspace/BLUEPRINT/query"
)

const (
	defaultBasePath = "/api"
	warmTimeout     = 2 * time.Minute
)

// CleanupScheduler enqueues an artifact retention sweep.
type CleanupScheduler interface {
	RequestCleanup(ctx context.Context, before time.Time) error
}

// Config wires the handler's collaborators.
type Config struct {
	// Service answers badge checks directly. Everything else travels the
	// command bus, so its handlers must be subscribed by the host.
	Service blueprint.Service

	// Panel is the mutable control state behind the panel endpoints.
	// Defaults to a fresh panel.
	Panel *Panel

	// Cleanup enqueues retention sweeps. The cleanup endpoint answers 501
	// when unset.
	Cleanup CleanupScheduler

	// Reports resolves export formats. Defaults to the built-in formats;
	// hosts that register extra renderers pass the same registry they gave
	// the report command handler.
	Reports *blueprint.ReportRegistry

	// BasePath prefixes every route. Defaults to /api.
	BasePath string

	Logger blueprint.Logger
}

// Handler exposes the print station API for go-router.
type Handler struct {
	service blueprint.Service
	panel   *Panel
	cleanup CleanupScheduler
	reports *blueprint.ReportRegistry
	base    string
	logger  blueprint.Logger
}

// New creates a go-router handler for the print station API.
func New(cfg Config) *Handler {
	panel := cfg.Panel
	if panel == nil {
		panel = NewPanel()
	}
	reports := cfg.Reports
	if reports == nil {
		reports = blueprint.NewReportRegistry()
	}
	base := strings.TrimSuffix(cfg.BasePath, "/")
	if base == "" {
		base = defaultBasePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = blueprint.NopLogger{}
	}
	return &Handler{
		service: cfg.Service,
		panel:   panel,
		cleanup: cfg.Cleanup,
		reports: reports,
		base:    base,
		logger:  logger,
	}
}

// Panel returns the control state store so hosts can hand it to the
// service as its options source.
func (h *Handler) Panel() *Panel {
	if h == nil {
		return nil
	}
	return h.panel
}

// RegisterRoutes registers the API on a compatible go-router router.
func (h *Handler) RegisterRoutes(r any) {
	reg, ok := r.(routeRegistrar)
	if !ok || h == nil {
		return
	}
	base := h.base

	// Session
	reg.Post(base+"/files", h.LoadFile)
	reg.Get(base+"/state", h.SessionState)

	// Options and rendering
	reg.Get(base+"/panel", h.GetPanel)
	reg.Post(base+"/panel", h.UpdatePanel)
	reg.Post(base+"/preview", h.RenderPreview)
	reg.Post(base+"/warm", h.WarmCache)

	// Printing
	reg.Post(base+"/authorize", h.Authorize)
	reg.Post(base+"/print", h.SubmitPrint)

	// Audit log
	reg.Get(base+"/history", h.History)
	reg.Get(base+"/history/export", h.ExportHistory)

	// Maintenance
	reg.Post(base+"/cleanup", h.RequestCleanup)
}

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// LoadFile handles POST {base}/files. The file travels as the raw request
// body; the name comes from the name query parameter or the X-File-Name
// header, the type from Content-Type.
func (h *Handler) LoadFile(c router.Context) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		name = strings.TrimSpace(c.Header("X-File-Name"))
	}
	file := blueprint.SourceFile{
		Name:        name,
		ContentType: c.Header("Content-Type"),
		Data:        c.Body(),
	}

	info, err := dispatcher.DispatchWithResult[printcmd.LoadFile, blueprint.FileInfo](c.Context(), printcmd.LoadFile{File: file})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// RenderPreview handles POST {base}/preview. An empty body renders whatever
// the panel currently says.
func (h *Handler) RenderPreview(c router.Context) error {
	opts, err := optionsFromBody(c)
	if err != nil {
		return writeError(c, err)
	}

	img, err := dispatcher.DispatchWithResult[printcmd.RenderPreview, blueprint.RenderedImage](c.Context(), printcmd.RenderPreview{Options: opts})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, img)
}

// GetPanel handles GET {base}/panel. It returns the current control state
// plus the vocabulary the controls draw from.
func (h *Handler) GetPanel(c router.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"panel":        statePayload(h.panel.State()),
		"paper_widths": blueprint.PaperWidths(),
		"sides":        []string{string(blueprint.SideShort), string(blueprint.SideLong)},
		"sizing_modes": []string{string(blueprint.SizingMaxSize), string(blueprint.SizingSpecificSize), string(blueprint.SizingSpecificDPI)},
	})
}

// UpdatePanel handles POST {base}/panel. The UI posts its full control
// state; the station re-renders against the new options and warms the
// opposite side in the background so flipping the side control answers
// from cache.
func (h *Handler) UpdatePanel(c router.Context) error {
	var payload panelPayload
	if err := c.Bind(&payload); err != nil {
		return writeError(c, blueprint.NewError(blueprint.KindValidation, "panel payload is invalid", err))
	}
	h.panel.Set(payload.toState())

	img, err := dispatcher.DispatchWithResult[printcmd.RenderPreview, blueprint.RenderedImage](c.Context(), printcmd.RenderPreview{})
	if err != nil {
		return writeError(c, err)
	}
	h.warmOppositeSide()
	return c.JSON(http.StatusOK, img)
}

// WarmCache handles POST {base}/warm. With no body it warms the current
// options and their opposite side.
func (h *Handler) WarmCache(c router.Context) error {
	msg := printcmd.WarmCache{}
	if len(bytes.TrimSpace(c.Body())) > 0 {
		var payload struct {
			Options []panelPayload `json:"options"`
		}
		if err := c.Bind(&payload); err != nil {
			return writeError(c, blueprint.NewError(blueprint.KindValidation, "warm payload is invalid", err))
		}
		for _, p := range payload.Options {
			msg.Options = append(msg.Options, blueprint.BuildOptions(p.toState()))
		}
	}

	if err := dispatcher.Dispatch(c.Context(), msg); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{"ok": true})
}

// Authorize handles POST {base}/authorize so the UI can check a badge
// before committing to a print.
func (h *Handler) Authorize(c router.Context) error {
	var payload struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&payload); err != nil {
		return writeError(c, blueprint.NewError(blueprint.KindValidation, "authorize payload is invalid", err))
	}
	if h.service == nil {
		return writeError(c, blueprint.NewError(blueprint.KindNotImpl, "print service is not configured", nil))
	}

	auth, err := h.service.Authorize(c.Context(), payload.Token)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auth)
}

// SubmitPrint handles POST {base}/print. When the print fails after the
// audit record was committed, the response carries both the error and the
// record, because the log entry exists regardless.
func (h *Handler) SubmitPrint(c router.Context) error {
	var payload struct {
		Token   string        `json:"token"`
		Options *panelPayload `json:"options"`
	}
	if err := c.Bind(&payload); err != nil {
		return writeError(c, blueprint.NewError(blueprint.KindValidation, "print payload is invalid", err))
	}

	var opts *blueprint.PrintOptions
	if payload.Options != nil {
		built := blueprint.BuildOptions(payload.Options.toState())
		opts = &built
	}

	var record blueprint.AuditRecord
	msg := printcmd.SubmitPrint{Token: payload.Token, Options: opts, Result: &record}
	if err := dispatcher.Dispatch(c.Context(), msg); err != nil {
		if record.Timestamp.IsZero() {
			return writeError(c, err)
		}
		return c.JSON(statusForKind(blueprint.KindFromError(err)), map[string]any{
			"error":  errorBody(err),
			"record": record,
		})
	}
	return c.JSON(http.StatusOK, record)
}

// SessionState handles GET {base}/state.
func (h *Handler) SessionState(c router.Context) error {
	status, err := dispatcher.Query[printqry.SessionStatus, printqry.Status](c.Context(), printqry.SessionStatus{})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// History handles GET {base}/history with optional token, count, and since
// filters. since accepts unix seconds or RFC3339.
func (h *Handler) History(c router.Context) error {
	msg := printqry.PrintHistory{Count: c.QueryInt("count", 0)}

	if token := strings.TrimSpace(c.Query("token")); token != "" {
		parsed, err := blueprint.ParseIdentityToken(token)
		if err != nil {
			return writeError(c, err)
		}
		msg.Token = parsed
	}
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		ts, ok := parseHistoryTime(since)
		if !ok {
			return writeError(c, blueprint.NewError(blueprint.KindValidation, "invalid since timestamp", nil))
		}
		msg.Since = ts
	}

	records, err := dispatcher.Query[printqry.PrintHistory, []blueprint.AuditRecord](c.Context(), msg)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	})
}

// ExportHistory handles GET {base}/history/export?format=csv|json|xlsx as
// a file download.
func (h *Handler) ExportHistory(c router.Context) error {
	format := blueprint.ReportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if format == "" {
		format = blueprint.ReportCSV
	}
	renderer, err := h.reports.RendererFor(format)
	if err != nil {
		return writeError(c, err)
	}

	buf := &bytes.Buffer{}
	if err := dispatcher.Dispatch(c.Context(), printcmd.ExportAuditReport{Format: format, Output: buf}); err != nil {
		return writeError(c, err)
	}

	filename := "print-audit." + renderer.Ext()
	c.SetHeader("Content-Type", renderer.ContentType())
	c.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	return c.Send(buf.Bytes())
}

// RequestCleanup handles POST {base}/cleanup by enqueuing a retention
// sweep.
func (h *Handler) RequestCleanup(c router.Context) error {
	if h.cleanup == nil {
		return writeError(c, blueprint.NewError(blueprint.KindNotImpl, "cleanup scheduler is not configured", nil))
	}
	if err := h.cleanup.RequestCleanup(c.Context(), time.Time{}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{"ok": true})
}

// warmOppositeSide pre-renders the flipped orientation in the background.
// Failures only cost the cache entry, so they are logged and dropped.
func (h *Handler) warmOppositeSide() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		if err := dispatcher.Dispatch(ctx, printcmd.WarmCache{}); err != nil {
			h.logger.Debugf("speculative warm failed: %v", err)
		}
	}()
}
