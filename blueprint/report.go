package blueprint

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ReportFormat selects an audit report encoding.
type ReportFormat string

const (
	ReportCSV  ReportFormat = "csv"
	ReportJSON ReportFormat = "json"
	ReportXLSX ReportFormat = "xlsx"
)

// ReportStats summarizes a rendered report.
type ReportStats struct {
	Rows  int64
	Bytes int64
}

// ReportRenderer writes audit records to w in one encoding.
type ReportRenderer interface {
	Render(ctx context.Context, records []AuditRecord, w io.Writer) (ReportStats, error)
	ContentType() string
	Ext() string
}

// ReportRendererFor returns the default renderer for a format.
func ReportRendererFor(format ReportFormat) (ReportRenderer, error) {
	switch format {
	case ReportCSV:
		return CSVReportRenderer{IncludeHeaders: true}, nil
	case ReportJSON:
		return JSONReportRenderer{}, nil
	case ReportXLSX:
		return XLSXReportRenderer{IncludeHeaders: true}, nil
	}
	return nil, NewError(KindValidation, fmt.Sprintf("unknown report format %q", format), nil)
}

// reportColumns is the fixed schema for audit reports. recordCells must
// produce values in the same order.
var reportColumns = []string{
	"timestamp",
	"token",
	"name",
	"college_id",
	"college_email",
	"side",
	"sizing_mode",
	"specific_width",
	"specific_height",
	"specific_dpi",
	"paper_width",
}

func recordCells(rec AuditRecord) []any {
	return []any{
		rec.Timestamp,
		rec.Token,
		rec.Identity.Name,
		rec.Identity.CollegeID,
		rec.Identity.CollegeEmail,
		string(rec.Options.Side),
		string(rec.Options.SizingMode),
		nullableReportFloat(rec.Options.SpecificWidth),
		nullableReportFloat(rec.Options.SpecificHeight),
		nullableReportInt(rec.Options.SpecificDPI),
		rec.Options.PaperWidth,
	}
}

func nullableReportFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableReportInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

// reportText renders a cell value for text formats.
func reportText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
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

type limitedWriter struct {
	w     io.Writer
	count int64
	limit int64
}

func newLimitedWriter(w io.Writer, limit int64) *limitedWriter {
	return &limitedWriter{w: w, limit: limit}
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	if lw.limit > 0 && lw.count+int64(len(p)) > lw.limit {
		return 0, NewError(KindValidation, "max bytes exceeded", nil)
	}
	n, err := lw.w.Write(p)
	lw.count += int64(n)
	return n, err
}
