package printactivity

import (
	"context"
	"strconv"
	"strings"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/goliatone/go-users/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Config configures the activity emitter adapter.
type Config struct {
	Sink       types.ActivitySink
	Channel    string
	ObjectType string

	// TenantID scopes records to one makerspace installation. Optional.
	TenantID string
}

// Emitter adapts ChangeEmitter events into go-users activity records.
type Emitter struct {
	sink       types.ActivitySink
	channel    string
	objectType string
	tenantID   string
}

// NewEmitter creates a new activity emitter.
func NewEmitter(cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "blueprint"
	}
	objectType := strings.TrimSpace(cfg.ObjectType)
	if objectType == "" {
		objectType = "print"
	}
	return &Emitter{
		sink:       cfg.Sink,
		channel:    channel,
		objectType: objectType,
		tenantID:   strings.TrimSpace(cfg.TenantID),
	}
}

// Emit logs print lifecycle events to the configured ActivitySink.
func (e *Emitter) Emit(ctx context.Context, evt blueprint.ChangeEvent) error {
	if e == nil {
		return blueprint.NewError(blueprint.KindInternal, "activity emitter is nil", nil)
	}
	if e.sink == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "activity sink not configured", nil)
	}
	verb := strings.TrimSpace(evt.Name)
	if verb == "" {
		return blueprint.NewError(blueprint.KindValidation, "activity verb is required", nil)
	}
	objectID := objectIDFor(evt)
	if objectID == "" {
		return blueprint.NewError(blueprint.KindValidation, "activity object ID is required", nil)
	}

	meta := buildMetadata(evt)
	record, err := activity.BuildRecordFromUUID(
		actorUUID(evt),
		verb,
		e.objectType,
		objectID,
		meta,
		activity.WithChannel(e.channel),
		activity.WithOccurredAt(evt.Timestamp),
		activity.WithTenant(parseUUID(e.tenantID)),
	)
	if err != nil {
		return err
	}
	return e.sink.Log(ctx, record)
}

// objectIDFor prefers the options cache key, then the badge token, then the
// event instant. Render events carry a key, print lifecycle events a token.
func objectIDFor(evt blueprint.ChangeEvent) string {
	if key := strings.TrimSpace(evt.Key); key != "" {
		return key
	}
	if evt.Token != 0 {
		return strconv.FormatInt(evt.Token, 10)
	}
	if !evt.Timestamp.IsZero() {
		return strconv.FormatInt(evt.Timestamp.UnixMilli(), 10)
	}
	return ""
}

// actorUUID parses a metadata actor_id when present. Badge tokens are
// college card numbers, never UUIDs, so most records carry uuid.Nil.
func actorUUID(evt blueprint.ChangeEvent) uuid.UUID {
	if raw, ok := evt.Metadata["actor_id"].(string); ok {
		return parseUUID(raw)
	}
	return uuid.Nil
}

func buildMetadata(evt blueprint.ChangeEvent) map[string]any {
	meta := make(map[string]any, 6)
	if evt.Token != 0 {
		meta["token"] = evt.Token
	}
	if evt.Options.Side != "" {
		meta["side"] = string(evt.Options.Side)
	}
	if evt.Options.SizingMode != "" {
		meta["sizing_mode"] = string(evt.Options.SizingMode)
	}
	if evt.Options.PaperWidth != 0 {
		meta["paper_width"] = evt.Options.PaperWidth
	}
	for k, v := range evt.Metadata {
		meta[k] = v
	}
	return meta
}

func parseUUID(value string) uuid.UUID {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
