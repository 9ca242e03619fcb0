package blueprint

import (
	"context"
	"encoding/json"
	"io"
)

// JSONReportRenderer renders audit records as a JSON array, or as NDJSON
// when Lines is set.
type JSONReportRenderer struct {
	Lines bool
}

func (r JSONReportRenderer) ContentType() string {
	if r.Lines {
		return "application/x-ndjson"
	}
	return "application/json"
}

func (r JSONReportRenderer) Ext() string {
	if r.Lines {
		return "ndjson"
	}
	return "json"
}

// Render writes one object per audit record, keyed by the report columns.
func (r JSONReportRenderer) Render(ctx context.Context, records []AuditRecord, w io.Writer) (ReportStats, error) {
	cw := &countingWriter{w: w}
	stats := ReportStats{}

	if r.Lines {
		encoder := json.NewEncoder(cw)
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := encoder.Encode(recordObject(rec)); err != nil {
				return stats, err
			}
			stats.Rows++
		}
		stats.Bytes = cw.count
		return stats, nil
	}

	if _, err := cw.Write([]byte("[")); err != nil {
		return stats, err
	}

	first := true
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		payload, err := json.Marshal(recordObject(rec))
		if err != nil {
			return stats, err
		}
		if !first {
			if _, err := cw.Write([]byte(",")); err != nil {
				return stats, err
			}
		}
		first = false
		if _, err := cw.Write(payload); err != nil {
			return stats, err
		}
		stats.Rows++
	}

	if _, err := cw.Write([]byte("]")); err != nil {
		return stats, err
	}

	stats.Bytes = cw.count
	return stats, nil
}

func recordObject(rec AuditRecord) map[string]any {
	cells := recordCells(rec)
	obj := make(map[string]any, len(reportColumns))
	for i, name := range reportColumns {
		obj[name] = cells[i]
	}
	return obj
}
