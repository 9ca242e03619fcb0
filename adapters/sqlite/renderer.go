package reportsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	_ "modernc.org/sqlite"
)

// Format is the registry key for SQLite reports.
const Format = blueprint.ReportFormat("sqlite")

const defaultTableName = "print_records"

// Renderer writes audit records into a SQLite database file. The table
// shape mirrors the kiosk's own audit table, so staff tooling written
// against the live database works on downloaded reports too.
type Renderer struct {
	// TableName overrides the table name. Defaults to print_records.
	TableName string
}

func (r Renderer) ContentType() string { return "application/vnd.sqlite3" }
func (r Renderer) Ext() string         { return "sqlite" }

// Render buffers records into a temp SQLite database and streams it to w.
func (r Renderer) Render(ctx context.Context, records []blueprint.AuditRecord, w io.Writer) (blueprint.ReportStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tableName := sanitizeIdentifier(r.TableName, defaultTableName)

	tempFile, err := os.CreateTemp("", "blueprint-*.sqlite")
	if err != nil {
		return blueprint.ReportStats{}, blueprint.NewError(blueprint.KindInternal, "sqlite temp file create failed", err)
	}
	path := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(path)
		return blueprint.ReportStats{}, blueprint.NewError(blueprint.KindInternal, "sqlite temp file close failed", err)
	}
	defer func() {
		_ = os.Remove(path)
	}()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return blueprint.ReportStats{}, blueprint.NewError(blueprint.KindInternal, "sqlite open failed", err)
	}

	stats, err := writeRecords(ctx, db, tableName, records)
	if err != nil {
		_ = db.Close()
		return stats, err
	}
	if err := db.Close(); err != nil {
		return stats, blueprint.NewError(blueprint.KindInternal, "sqlite close failed", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return stats, blueprint.NewError(blueprint.KindInternal, "sqlite temp file open failed", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cw := &countingWriter{w: w}
	if _, err := io.Copy(cw, file); err != nil {
		return blueprint.ReportStats{Rows: stats.Rows, Bytes: cw.count}, err
	}
	stats.Bytes = cw.count
	return stats, nil
}

func writeRecords(ctx context.Context, db *sql.DB, tableName string, records []blueprint.AuditRecord) (blueprint.ReportStats, error) {
	stats := blueprint.ReportStats{}

	table := quoteIdentifier(tableName)
	createSQL := fmt.Sprintf(`CREATE TABLE %s (
		timestamp_ms INTEGER PRIMARY KEY,
		printed_at TEXT NOT NULL,
		token INTEGER NOT NULL,
		name TEXT,
		college_id TEXT,
		college_email TEXT,
		side TEXT NOT NULL,
		sizing_mode TEXT NOT NULL,
		specific_width REAL,
		specific_height REAL,
		specific_dpi INTEGER,
		paper_width INTEGER NOT NULL
	)`, table)
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (timestamp_ms, printed_at, token, name, college_id, college_email, side, sizing_mode, specific_width, specific_height, specific_dpi, paper_width) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		table)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, blueprint.NewError(blueprint.KindInternal, "sqlite begin transaction failed", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return stats, blueprint.NewError(blueprint.KindInternal, "sqlite create table failed", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return stats, blueprint.NewError(blueprint.KindInternal, "sqlite prepare insert failed", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			_ = stmt.Close()
			return stats, err
		}

		_, err := stmt.ExecContext(ctx,
			rec.TimestampKey(),
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.Token,
			nullText(rec.Identity.Name),
			nullText(rec.Identity.CollegeID),
			nullText(rec.Identity.CollegeEmail),
			string(rec.Options.Side),
			string(rec.Options.SizingMode),
			nullFloat(rec.Options.SpecificWidth),
			nullFloat(rec.Options.SpecificHeight),
			nullInt(rec.Options.SpecificDPI),
			rec.Options.PaperWidth,
		)
		if err != nil {
			_ = stmt.Close()
			return stats, blueprint.NewError(blueprint.KindInternal, "sqlite insert failed", err)
		}
		stats.Rows++
	}

	if err := stmt.Close(); err != nil {
		return stats, blueprint.NewError(blueprint.KindInternal, "sqlite close statement failed", err)
	}
	if err := tx.Commit(); err != nil {
		return stats, blueprint.NewError(blueprint.KindInternal, "sqlite commit failed", err)
	}
	return stats, nil
}

func nullText(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sanitizeIdentifier(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := strings.Trim(b.String(), "_")
	if sanitized == "" {
		sanitized = fallback
	}
	if sanitized != "" && sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "t_" + sanitized
	}
	return sanitized
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}
