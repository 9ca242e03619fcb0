// Package printformgen publishes formgen-style widget contracts for the
// print station: the option panel form and the audit history table. Front
// ends render these definitions instead of hard-coding the control set.
package printformgen

import (
	"strconv"
	"strings"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// Field defines a form field for formgen-style UIs.
type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

// Form defines the option panel form widget.
type Form struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Action      string  `json:"action"`
	Method      string  `json:"method"`
	SubmitLabel string  `json:"submit_label"`
	Fields      []Field `json:"fields"`
}

// TableColumn defines a column in the history table.
type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TableAction defines a table action that maps to an HTTP endpoint.
type TableAction struct {
	Label       string `json:"label"`
	Method      string `json:"method"`
	URLTemplate string `json:"url_template"`
}

// Table defines a history widget.
type Table struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	DataURL string        `json:"data_url"`
	Columns []TableColumn `json:"columns"`
	Actions []TableAction `json:"actions,omitempty"`
}

// Theme captures optional theme tokens for station UI styling.
type Theme struct {
	Name   string            `json:"name"`
	Tokens map[string]string `json:"tokens"`
}

// UI bundles the widgets needed for the option panel and history views.
type UI struct {
	OptionsForm Form  `json:"options_form"`
	History     Table `json:"history"`
	Theme       Theme `json:"theme"`
}

// DefaultUI returns the widget contract for a station mounted at basePath.
func DefaultUI(basePath string) UI {
	basePath = strings.TrimRight(basePath, "/")
	if basePath == "" {
		basePath = "/api"
	}
	return UI{
		OptionsForm: OptionsForm(basePath),
		History:     HistoryTable(basePath),
		Theme:       DefaultTheme(),
	}
}

// OptionsForm builds a form definition for the print option panel. Field
// names match the renderer option vocabulary.
func OptionsForm(basePath string) Form {
	widths := blueprint.PaperWidths()
	widthOptions := make([]string, len(widths))
	for i, w := range widths {
		widthOptions[i] = strconv.Itoa(w)
	}

	return Form{
		ID:          "print-options",
		Title:       "Print Options",
		Action:      basePath + "/panel",
		Method:      "POST",
		SubmitLabel: "Apply",
		Fields: []Field{
			{Name: "side", Label: "Paper Side", Type: "select", Options: []string{string(blueprint.SideShort), string(blueprint.SideLong)}},
			{Name: "sizingMode", Label: "Sizing", Type: "select", Options: []string{string(blueprint.SizingMaxSize), string(blueprint.SizingSpecificSize), string(blueprint.SizingSpecificDPI)}},
			{Name: "paperWidth", Label: "Roll Width", Type: "select", Options: widthOptions, Hint: "Inches"},
			{Name: "widthInches", Label: "Width", Type: "number", Hint: "Specific size only"},
			{Name: "heightInches", Label: "Height", Type: "number", Hint: "Specific size only"},
			{Name: "dpi", Label: "DPI", Type: "number", Hint: "Specific DPI only"},
		},
	}
}

// HistoryTable builds a table definition for the print audit log. Column
// keys address the history endpoint's record JSON.
func HistoryTable(basePath string) Table {
	return Table{
		ID:      "print-history",
		Title:   "Print History",
		DataURL: basePath + "/history",
		Columns: []TableColumn{
			{Key: "timestamp", Label: "Printed"},
			{Key: "identity_token", Label: "Badge"},
			{Key: "identity_info.name", Label: "Name"},
			{Key: "options.side", Label: "Side"},
			{Key: "options.sizingMode", Label: "Sizing"},
			{Key: "options.paperWidth", Label: "Roll"},
		},
		Actions: []TableAction{
			{Label: "Download CSV", Method: "GET", URLTemplate: basePath + "/history/export?format=csv"},
			{Label: "Download Spreadsheet", Method: "GET", URLTemplate: basePath + "/history/export?format=xlsx"},
		},
	}
}

// DefaultTheme provides a small theme token set for station widgets.
func DefaultTheme() Theme {
	return Theme{
		Name: "blueprint",
		Tokens: map[string]string{
			"primary":   "#1e40af",
			"surface":   "#f8fafc",
			"text":      "#0f172a",
			"muted":     "#64748b",
			"accent":    "#f59e0b",
			"danger":    "#b91c1c",
			"success":   "#15803d",
			"border":    "#e2e8f0",
			"highlight": "#dbeafe",
		},
	}
}
