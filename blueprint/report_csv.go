package blueprint

import (
	"context"
	"encoding/csv"
	"io"
)

// CSVReportRenderer renders audit records as CSV.
type CSVReportRenderer struct {
	Delimiter      rune
	IncludeHeaders bool
}

func (r CSVReportRenderer) ContentType() string { return "text/csv" }
func (r CSVReportRenderer) Ext() string         { return "csv" }

// Render writes one row per audit record.
func (r CSVReportRenderer) Render(ctx context.Context, records []AuditRecord, w io.Writer) (ReportStats, error) {
	cw := &countingWriter{w: w}
	writer := csv.NewWriter(cw)
	if r.Delimiter != 0 {
		writer.Comma = r.Delimiter
	}

	if r.IncludeHeaders {
		if err := writer.Write(reportColumns); err != nil {
			return ReportStats{}, err
		}
	}

	stats := ReportStats{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		cells := recordCells(rec)
		row := make([]string, len(cells))
		for i, value := range cells {
			row[i] = reportText(value)
		}
		if err := writer.Write(row); err != nil {
			return stats, err
		}
		stats.Rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, err
	}

	stats.Bytes = cw.count
	return stats, nil
}
