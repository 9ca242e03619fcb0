package blueprint

import (
	"fmt"
	"sync"
)

// ReportRegistry stores report renderers by format. Hosts register
// additional formats on top of the built-ins before handing the registry to
// the report handler.
type ReportRegistry struct {
	mu        sync.RWMutex
	renderers map[ReportFormat]ReportRenderer
}

// NewReportRegistry creates a registry preloaded with the built-in formats.
func NewReportRegistry() *ReportRegistry {
	r := &ReportRegistry{renderers: make(map[ReportFormat]ReportRenderer)}
	_ = r.Register(ReportCSV, CSVReportRenderer{IncludeHeaders: true})
	_ = r.Register(ReportJSON, JSONReportRenderer{})
	_ = r.Register(ReportXLSX, XLSXReportRenderer{IncludeHeaders: true})
	return r
}

// Register adds a renderer for a format.
func (r *ReportRegistry) Register(format ReportFormat, renderer ReportRenderer) error {
	if format == "" {
		return NewError(KindValidation, "report format is required", nil)
	}
	if renderer == nil {
		return NewError(KindValidation, "report renderer is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.renderers[format]; exists {
		return NewError(KindValidation, fmt.Sprintf("renderer for %q already registered", format), nil)
	}
	r.renderers[format] = renderer
	return nil
}

// RendererFor returns the renderer for the format. The signature matches
// the report handler's resolver hook.
func (r *ReportRegistry) RendererFor(format ReportFormat) (ReportRenderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, NewError(KindValidation, fmt.Sprintf("unknown report format %q", format), nil)
	}
	return renderer, nil
}
