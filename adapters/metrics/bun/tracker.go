// Package metricsbun persists render pipeline metrics in a Bun-backed
// database, so staff can inspect cache hit rates and render latency for a
// station without external telemetry.
package metricsbun

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// Tracker stores render lifecycle events.
type Tracker struct {
	DB  *bun.DB
	Now func() time.Time
}

// NewTracker creates a Bun-backed metrics tracker.
func NewTracker(db *bun.DB) *Tracker {
	return &Tracker{DB: db, Now: time.Now}
}

// Init creates the metrics table.
func (t *Tracker) Init(ctx context.Context) error {
	if t == nil || t.DB == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "metrics database not configured", nil)
	}
	_, err := t.DB.NewCreateTable().Model((*eventModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Emit records one pipeline event.
func (t *Tracker) Emit(ctx context.Context, evt blueprint.MetricsEvent) error {
	if t == nil || t.DB == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "metrics database not configured", nil)
	}
	if evt.Name == "" {
		return blueprint.NewError(blueprint.KindValidation, "metrics event name is required", nil)
	}

	recordedAt := evt.Timestamp
	if recordedAt.IsZero() {
		recordedAt = t.now()
	}

	model := eventModel{
		Name:       evt.Name,
		Key:        evt.Key,
		DPI:        evt.DPI,
		Bytes:      evt.Bytes,
		DurationMS: evt.Duration.Milliseconds(),
		ErrorKind:  string(evt.ErrorKind),
		RecordedAt: recordedAt,
	}
	_, err := t.DB.NewInsert().Model(&model).Exec(ctx)
	return err
}

// EventSummary aggregates one event name.
type EventSummary struct {
	Name          string
	Count         int64
	Bytes         int64
	AvgDurationMS float64
}

// Summary aggregates events by name, oldest cutoff first. A zero since
// includes everything.
func (t *Tracker) Summary(ctx context.Context, since time.Time) ([]EventSummary, error) {
	if t == nil || t.DB == nil {
		return nil, blueprint.NewError(blueprint.KindNotImpl, "metrics database not configured", nil)
	}

	query := t.DB.NewSelect().Model((*eventModel)(nil)).
		ColumnExpr("name").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("SUM(bytes) AS bytes").
		ColumnExpr("AVG(duration_ms) AS avg_duration_ms").
		GroupExpr("name").
		OrderExpr("name")
	if !since.IsZero() {
		query = query.Where("recorded_at >= ?", since)
	}

	summaries := make([]EventSummary, 0)
	if err := query.Scan(ctx, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

type eventModel struct {
	bun.BaseModel `bun:"table:render_metrics,alias:render_metrics"`

	ID         int64     `bun:",pk,autoincrement"`
	Name       string    `bun:",notnull"`
	Key        string    `bun:"key"`
	DPI        int       `bun:"dpi"`
	Bytes      int64     `bun:"bytes"`
	DurationMS int64     `bun:"duration_ms"`
	ErrorKind  string    `bun:"error_kind"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
}

var _ blueprint.MetricsHook = (*Tracker)(nil)
