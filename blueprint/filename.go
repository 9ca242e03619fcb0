package blueprint

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// DefaultSpoolTemplate names spooled prints so staff can spot them in the
// printer queue folder.
const DefaultSpoolTemplate = "PRINT_ME_{{.DPI}}_DPI_{{.Width}}x{{.Height}}_{{.Timestamp}}"

type spoolNameData struct {
	DPI       string
	Width     string
	Height    string
	Token     string
	Timestamp string
	Date      string
}

// RenderSpoolName expands a filename template for a print artifact. An empty
// name falls back to DefaultSpoolTemplate, an empty ext to "pdf".
func RenderSpoolName(name string, img RenderedImage, record AuditRecord, ext string) (string, error) {
	if name == "" {
		name = DefaultSpoolTemplate
	}

	data := spoolNameData{
		DPI:       fmt.Sprintf("%d", img.DPI),
		Width:     trimFloat(img.Width),
		Height:    trimFloat(img.Height),
		Token:     fmt.Sprintf("%d", record.Token),
		Timestamp: record.Timestamp.UTC().Format("20060102T150405Z"),
		Date:      record.Timestamp.UTC().Format("20060102"),
	}

	tmpl, err := template.New("spoolname").Parse(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	result := strings.TrimSpace(buf.String())
	if result == "" {
		return "", fmt.Errorf("empty spool name")
	}

	if ext == "" {
		ext = "pdf"
	}
	if !strings.HasSuffix(strings.ToLower(result), "."+ext) {
		result = result + "." + ext
	}
	return result, nil
}

// trimFloat renders a dimension without trailing zeros, so 24.0 prints as
// "24" and 10.5 as "10.5".
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
