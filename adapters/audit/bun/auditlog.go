package auditbun

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/uptrace/bun"
)

// AuditLog stores print records in a Bun-backed database. The millisecond
// timestamp is the primary key, so a second record in the same millisecond
// is rejected as a conflict rather than silently merged.
type AuditLog struct {
	DB *bun.DB
}

// NewAuditLog creates a Bun-backed audit log.
func NewAuditLog(db *bun.DB) *AuditLog {
	return &AuditLog{DB: db}
}

// Init creates the backing table when it does not exist yet. Safe to call
// on every startup.
func (l *AuditLog) Init(ctx context.Context) error {
	if l == nil || l.DB == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "audit database not configured", nil)
	}
	_, err := l.DB.NewCreateTable().Model((*recordModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Filter narrows ListRange results. Zero fields match everything.
type Filter struct {
	Token int64
	Since time.Time
	Until time.Time
}

// Append inserts a record. Inserts use ON CONFLICT DO NOTHING, so a
// duplicate timestamp key reports zero affected rows and maps to a
// conflict instead of a driver-specific constraint error.
func (l *AuditLog) Append(ctx context.Context, record blueprint.AuditRecord) error {
	if l == nil || l.DB == nil {
		return blueprint.NewError(blueprint.KindNotImpl, "audit database not configured", nil)
	}
	if record.Timestamp.IsZero() {
		return blueprint.NewError(blueprint.KindValidation, "audit record timestamp is required", nil)
	}

	model, err := modelFromRecord(record)
	if err != nil {
		return err
	}
	res, err := l.DB.NewInsert().Model(&model).Ignore().Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return blueprint.NewError(blueprint.KindConflict, fmt.Sprintf("print record at %d already exists", model.TimestampMS), nil)
	}
	return nil
}

// List returns every record. Order is unspecified; callers sort.
func (l *AuditLog) List(ctx context.Context) ([]blueprint.AuditRecord, error) {
	if l == nil || l.DB == nil {
		return nil, blueprint.NewError(blueprint.KindNotImpl, "audit database not configured", nil)
	}

	models := make([]recordModel, 0)
	if err := l.DB.NewSelect().Model(&models).Scan(ctx); err != nil {
		return nil, err
	}
	return recordsFromModels(models)
}

// ListRange returns records matching a filter, newest first.
func (l *AuditLog) ListRange(ctx context.Context, filter Filter) ([]blueprint.AuditRecord, error) {
	if l == nil || l.DB == nil {
		return nil, blueprint.NewError(blueprint.KindNotImpl, "audit database not configured", nil)
	}

	models := make([]recordModel, 0)
	query := l.DB.NewSelect().Model(&models)
	if filter.Token != 0 {
		query = query.Where("token = ?", filter.Token)
	}
	if !filter.Since.IsZero() {
		query = query.Where("timestamp_ms >= ?", filter.Since.UnixMilli())
	}
	if !filter.Until.IsZero() {
		query = query.Where("timestamp_ms <= ?", filter.Until.UnixMilli())
	}
	query = query.Order("timestamp_ms DESC")

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return recordsFromModels(models)
}

type recordModel struct {
	bun.BaseModel `bun:"table:print_records,alias:print_records"`

	TimestampMS  int64     `bun:",pk"`
	PrintedAt    time.Time `bun:",notnull"`
	Token        int64     `bun:",notnull"`
	Known        bool      `bun:"known"`
	Name         string    `bun:"name"`
	CollegeID    string    `bun:"college_id"`
	CollegeEmail string    `bun:"college_email"`
	Quizzes      []byte    `bun:"quizzes"`
	Options      []byte    `bun:",notnull"`
}

func modelFromRecord(record blueprint.AuditRecord) (recordModel, error) {
	quizzes, err := json.Marshal(record.Identity.PassedQuizzes)
	if err != nil {
		return recordModel{}, err
	}
	options, err := json.Marshal(record.Options)
	if err != nil {
		return recordModel{}, err
	}

	return recordModel{
		TimestampMS:  record.TimestampKey(),
		PrintedAt:    record.Timestamp,
		Token:        record.Token,
		Known:        record.Identity.Known,
		Name:         record.Identity.Name,
		CollegeID:    record.Identity.CollegeID,
		CollegeEmail: record.Identity.CollegeEmail,
		Quizzes:      quizzes,
		Options:      options,
	}, nil
}

func (m recordModel) toRecord() (blueprint.AuditRecord, error) {
	record := blueprint.AuditRecord{
		Timestamp: m.PrintedAt,
		Token:     m.Token,
		Identity: blueprint.IdentityInfo{
			Known:        m.Known,
			Name:         m.Name,
			CollegeID:    m.CollegeID,
			CollegeEmail: m.CollegeEmail,
		},
	}

	if len(m.Quizzes) > 0 {
		if err := json.Unmarshal(m.Quizzes, &record.Identity.PassedQuizzes); err != nil {
			return blueprint.AuditRecord{}, err
		}
	}
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &record.Options); err != nil {
			return blueprint.AuditRecord{}, err
		}
	}
	return record, nil
}

func recordsFromModels(models []recordModel) ([]blueprint.AuditRecord, error) {
	records := make([]blueprint.AuditRecord, 0, len(models))
	for _, model := range models {
		record, err := model.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
