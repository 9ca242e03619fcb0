package blueprint

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	excelMaxRows     = 1048576
	defaultSheetName = "Prints"
	defaultDateTime  = "yyyy-mm-dd hh:mm:ss"
)

// XLSXReportRenderer renders audit records into an XLSX workbook.
type XLSXReportRenderer struct {
	SheetName      string
	IncludeHeaders bool
	MaxRows        int
	MaxBytes       int64
}

func (r XLSXReportRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r XLSXReportRenderer) Ext() string { return "xlsx" }

// Render streams rows into a single worksheet.
func (r XLSXReportRenderer) Render(ctx context.Context, records []AuditRecord, w io.Writer) (ReportStats, error) {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	sheetName := r.SheetName
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	defaultSheet := file.GetSheetName(0)
	if defaultSheet != sheetName {
		file.SetSheetName(defaultSheet, sheetName)
	}

	stream, err := file.NewStreamWriter(sheetName)
	if err != nil {
		return ReportStats{}, err
	}

	headerID, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return ReportStats{}, err
	}
	dateFormat := defaultDateTime
	dateID, err := file.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return ReportStats{}, err
	}

	rowIndex := 1
	if r.IncludeHeaders {
		headers := make([]interface{}, len(reportColumns))
		for i, name := range reportColumns {
			headers[i] = excelize.Cell{StyleID: headerID, Value: name}
		}
		if err := stream.SetRow(fmt.Sprintf("A%d", rowIndex), headers); err != nil {
			return ReportStats{}, err
		}
		rowIndex++
	}

	maxRows := r.MaxRows
	if maxRows <= 0 || maxRows > excelMaxRows {
		maxRows = excelMaxRows
	}

	stats := ReportStats{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Rows++
		if stats.Rows > int64(maxRows) || rowIndex > excelMaxRows {
			return stats, NewError(KindValidation, "max rows exceeded", nil)
		}

		values := recordCells(rec)
		cells := make([]interface{}, len(values))
		for i, value := range values {
			cells[i] = xlsxReportCell(value, dateID)
		}
		if err := stream.SetRow(fmt.Sprintf("A%d", rowIndex), cells); err != nil {
			return stats, err
		}
		rowIndex++
	}

	if err := stream.Flush(); err != nil {
		return stats, err
	}

	lw := newLimitedWriter(w, r.MaxBytes)
	if _, err := file.WriteTo(lw); err != nil {
		return stats, err
	}
	stats.Bytes = lw.count
	return stats, nil
}

func xlsxReportCell(value any, dateID int) excelize.Cell {
	switch v := value.(type) {
	case nil:
		return excelize.Cell{Value: ""}
	case time.Time:
		return excelize.Cell{Value: v.UTC(), StyleID: dateID}
	case bool, int, int64, float64, float32, string:
		return excelize.Cell{Value: v}
	default:
		return excelize.Cell{Value: fmt.Sprint(v)}
	}
}
