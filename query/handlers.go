package query

import (
	"context"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/goliatone/go-errors"
)

// PrintHistoryHandler returns filtered audit records.
type PrintHistoryHandler struct {
	Service blueprint.Service
}

func NewPrintHistoryHandler(svc blueprint.Service) *PrintHistoryHandler {
	return &PrintHistoryHandler{Service: svc}
}

func (h *PrintHistoryHandler) Query(ctx context.Context, msg PrintHistory) ([]blueprint.AuditRecord, error) {
	if h == nil || h.Service == nil {
		return nil, errors.New("print service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	records, err := h.Service.History(ctx)
	if err != nil {
		return nil, err
	}

	filtered := records[:0]
	for _, record := range records {
		if msg.Token != 0 && record.Token != msg.Token {
			continue
		}
		if !msg.Since.IsZero() && record.Timestamp.Before(msg.Since) {
			continue
		}
		filtered = append(filtered, record)
		if msg.Count > 0 && len(filtered) >= msg.Count {
			break
		}
	}
	return filtered, nil
}

// SessionStatusHandler snapshots the session and display surface.
type SessionStatusHandler struct {
	Session *blueprint.Session
	Display *blueprint.StateDisplay
}

func NewSessionStatusHandler(session *blueprint.Session, display *blueprint.StateDisplay) *SessionStatusHandler {
	return &SessionStatusHandler{Session: session, Display: display}
}

func (h *SessionStatusHandler) Query(ctx context.Context, msg SessionStatus) (Status, error) {
	_ = ctx
	_ = msg
	if h == nil || h.Session == nil {
		return Status{}, errors.New("print session is required", errors.CategoryInternal).
			WithTextCode("SESSION_REQUIRED")
	}

	status := Status{
		Loaded:    !h.Session.File().Empty(),
		File:      h.Session.Info(),
		LoadedAt:  h.Session.LoadedAt(),
		CacheSize: h.Session.Cache().Len(),
	}
	if img, ok := h.Session.Displayed(); ok {
		status.Displayed = &img
	}
	if h.Display != nil {
		status.Display = h.Display.Snapshot()
	}
	return status, nil
}
