package blueprint

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Side selects which paper dimension the image side is printed across.
type Side string

const (
	SideShort Side = "short"
	SideLong  Side = "long"
)

// SizingMode describes how the output size is derived.
type SizingMode string

const (
	SizingMaxSize      SizingMode = "maxSize"
	SizingSpecificSize SizingMode = "specificSize"
	SizingSpecificDPI  SizingMode = "specificDpi"
)

// Numeric option bounds. DPI values are clamped into [MinDPI, MaxDPI] and
// truncated to integers; dimensions are inches with zero meaning unset.
const (
	MinDPI = 50
	MaxDPI = 10000

	MinDimensionInches = 0
	MaxDimensionInches = 1000

	// LowDPIWarning is the threshold below which a render is annotated
	// with a quality warning.
	LowDPIWarning = 100

	// MaxRollInches is the longest print the plotter roll supports.
	MaxRollInches = 80
)

var paperWidths = [...]int{17, 24, 36, 44}

// PaperWidths returns the supported roll widths in inches.
func PaperWidths() []int {
	out := make([]int, len(paperWidths))
	copy(out, paperWidths[:])
	return out
}

// ValidPaperWidth reports whether w is a supported roll width.
func ValidPaperWidth(w int) bool {
	for _, pw := range paperWidths {
		if pw == w {
			return true
		}
	}
	return false
}

// Point is a pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ImageArea names the four corners of the destination placement region.
// Constant for a given physical layout.
type ImageArea struct {
	TopLeft     Point `json:"topLeft"`
	TopRight    Point `json:"topRight"`
	BottomLeft  Point `json:"bottomLeft"`
	BottomRight Point `json:"bottomRight"`
}

// PrintOptions is the canonical description of one render/print request.
// Immutable once built; the JSON tags are the renderer wire names.
type PrintOptions struct {
	ImageArea      ImageArea  `json:"imageArea"`
	Side           Side       `json:"side"`
	SizingMode     SizingMode `json:"sizingMode"`
	SpecificWidth  float64    `json:"specificWidth,omitempty"`
	SpecificHeight float64    `json:"specificHeight,omitempty"`
	SpecificDPI    int        `json:"specificDpi,omitempty"`
	PaperWidth     int        `json:"paperWidth"`
	Preview        bool       `json:"preview"`
	Print          bool       `json:"print"`
}

// ForPreview returns a copy flagged as a preview render.
func (o PrintOptions) ForPreview() PrintOptions {
	o.Preview = true
	o.Print = false
	return o
}

// ForPrint returns a copy flagged as the authorized final render.
func (o PrintOptions) ForPrint() PrintOptions {
	o.Preview = false
	o.Print = true
	return o
}

// WithSide returns a copy targeting the given side. Used for the
// opposite-side cache warm.
func (o PrintOptions) WithSide(side Side) PrintOptions {
	o.Side = side
	return o
}

// OppositeSide returns the other paper side.
func OppositeSide(side Side) Side {
	if side == SideShort {
		return SideLong
	}
	return SideShort
}

// SourceFile is the file the user loaded, owned by the session.
type SourceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// DeclaredType returns the declared content type, falling back to the
// file extension.
func (f SourceFile) DeclaredType() string {
	ct := strings.TrimSpace(f.ContentType)
	if ct != "" {
		return ct
	}
	return mime.TypeByExtension(filepath.Ext(f.Name))
}

// IsPDF reports whether the declared type is a PDF.
func (f SourceFile) IsPDF() bool {
	return strings.EqualFold(f.DeclaredType(), "application/pdf")
}

// Empty reports whether no file has been loaded.
func (f SourceFile) Empty() bool {
	return len(f.Data) == 0 && f.Name == ""
}

var supportedSourceTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/gif":       {},
	"image/bmp":       {},
	"image/tiff":      {},
	"image/tif":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// SupportedSourceType reports whether the renderer accepts the content type.
// The renderer remains authoritative; unknown types still round-trip and
// come back as HTTP 415.
func SupportedSourceType(contentType string) bool {
	_, ok := supportedSourceTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}

// FileInfo describes a loaded source file.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	IsPDF       bool   `json:"is_pdf"`
	Pages       int    `json:"pages"`
	Bytes       int    `json:"bytes"`
}

// RenderedImage is the displayable artifact returned by the renderer plus
// its size/DPI metadata. The JSON tags match the renderer response body.
type RenderedImage struct {
	URL    string  `json:"image_url"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPI    int     `json:"dpi"`

	Key        string    `json:"-"`
	RenderedAt time.Time `json:"-"`
}

// Renderer is the remote renderer contract: one request, one artifact.
type Renderer interface {
	Render(ctx context.Context, file SourceFile, opts PrintOptions) (RenderedImage, error)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(ctx context.Context, file SourceFile, opts PrintOptions) (RenderedImage, error)

func (f RendererFunc) Render(ctx context.Context, file SourceFile, opts PrintOptions) (RenderedImage, error) {
	return f(ctx, file, opts)
}

// RenderCache memoizes rendered artifacts per options key for the lifetime
// of the current source file. Put overwrites unconditionally; Clear is the
// only invalidation.
type RenderCache interface {
	Get(key string) (RenderedImage, bool)
	Put(key string, img RenderedImage)
	Clear()
	Len() int
}

// PanelState mirrors the option controls at one instant. Raw numeric
// values are clamped by BuildOptions, not here.
type PanelState struct {
	ImageArea  ImageArea
	Side       Side
	SizingMode SizingMode
	PaperWidth int

	WidthInches  float64
	HeightInches float64
	DPI          float64
}

// OptionsSource supplies the current panel state to the service.
type OptionsSource interface {
	Snapshot(ctx context.Context) (PanelState, error)
}

// OptionsSourceFunc adapts a function to an OptionsSource.
type OptionsSourceFunc func(ctx context.Context) (PanelState, error)

func (f OptionsSourceFunc) Snapshot(ctx context.Context) (PanelState, error) {
	return f(ctx)
}

// PrintSurface opens the native print flow for a rendered artifact.
// Completion is not observed past submission.
type PrintSurface interface {
	Print(ctx context.Context, img RenderedImage, opts PrintOptions) error
}

// PrintSurfaceFunc adapts a function to a PrintSurface.
type PrintSurfaceFunc func(ctx context.Context, img RenderedImage, opts PrintOptions) error

func (f PrintSurfaceFunc) Print(ctx context.Context, img RenderedImage, opts PrintOptions) error {
	return f(ctx, img, opts)
}

// ArtifactClass distinguishes retained preview copies from print spools.
type ArtifactClass string

const (
	ArtifactPreview ArtifactClass = "preview"
	ArtifactPrint   ArtifactClass = "print"
)

// ArtifactMeta describes an artifact being saved.
type ArtifactMeta struct {
	Key         string
	Name        string
	ContentType string
	Class       ArtifactClass
	CreatedAt   time.Time
}

// ArtifactRef points at a stored artifact.
type ArtifactRef struct {
	Key         string        `json:"key"`
	Name        string        `json:"name"`
	Path        string        `json:"path,omitempty"`
	URL         string        `json:"url,omitempty"`
	ContentType string        `json:"content_type"`
	Class       ArtifactClass `json:"class"`
	Bytes       int64         `json:"bytes"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ArtifactStore persists fetched previews and spooled prints.
type ArtifactStore interface {
	Save(ctx context.Context, meta ArtifactMeta, r io.Reader) (ArtifactRef, error)
	Open(ctx context.Context, key string) (io.ReadCloser, ArtifactRef, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]ArtifactRef, error)
}

// SourceInspector reports metadata for a loaded source file.
type SourceInspector interface {
	Inspect(ctx context.Context, file SourceFile) (FileInfo, error)
}

// SourceProvider loads a source file from somewhere (path, upload, callback).
type SourceProvider interface {
	Load(ctx context.Context) (SourceFile, error)
}

// QuotaHook enforces print limits per identity token.
type QuotaHook interface {
	Allow(ctx context.Context, token int64) error
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// ChangeEvent describes lifecycle events.
type ChangeEvent struct {
	Name      string
	Key       string
	Token     int64
	Options   PrintOptions
	Timestamp time.Time
	Metadata  map[string]any
}

// ChangeEmitter emits lifecycle events.
type ChangeEmitter interface {
	Emit(ctx context.Context, evt ChangeEvent) error
}

// MetricsEvent describes lifecycle metrics.
type MetricsEvent struct {
	Name      string
	Key       string
	DPI       int
	Bytes     int64
	Duration  time.Duration
	ErrorKind ErrorKind
	Timestamp time.Time
}

// MetricsHook emits metrics-friendly lifecycle observations.
type MetricsHook interface {
	Emit(ctx context.Context, evt MetricsEvent) error
}
