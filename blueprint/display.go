package blueprint

import "sync"

// DisplayState names the states of the render surface: empty -> loading ->
// {loaded, errored}, re-entering loading on the next render call.
type DisplayState string

const (
	DisplayEmpty   DisplayState = "empty"
	DisplayLoading DisplayState = "loading"
	DisplayLoaded  DisplayState = "loaded"
	DisplayErrored DisplayState = "errored"
)

// Display is the user-visible render surface. Loading marks the start of a
// request with the spinner still hidden; ShowSpinner fires only when the
// round trip outlives the delay threshold. ShowImage and ShowError dismiss
// the spinner unconditionally, visible or not.
type Display interface {
	Loading()
	ShowSpinner()
	ShowImage(img RenderedImage, note string)
	ShowError(kind ErrorKind, msg string)
}

// NopDisplay discards display updates.
type NopDisplay struct{}

func (NopDisplay) Loading()                        {}
func (NopDisplay) ShowSpinner()                    {}
func (NopDisplay) ShowImage(RenderedImage, string) {}
func (NopDisplay) ShowError(ErrorKind, string)     {}

// DisplaySnapshot is a point-in-time copy of the surface.
type DisplaySnapshot struct {
	State     DisplayState   `json:"state"`
	Spinner   bool           `json:"spinner"`
	Image     *RenderedImage `json:"image,omitempty"`
	Note      string         `json:"note,omitempty"`
	ErrorKind ErrorKind      `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// StateDisplay is a goroutine-safe Display that tracks the state machine.
// Concurrent renders race on it and the last writer wins, matching the
// pipeline's ordering contract.
type StateDisplay struct {
	mu      sync.RWMutex
	state   DisplayState
	spinner bool
	image   RenderedImage
	note    string
	errKind ErrorKind
	errMsg  string
}

// NewStateDisplay creates an empty surface.
func NewStateDisplay() *StateDisplay {
	return &StateDisplay{state: DisplayEmpty}
}

// Loading enters the loading state with the spinner hidden.
func (d *StateDisplay) Loading() {
	d.mu.Lock()
	d.state = DisplayLoading
	d.spinner = false
	d.mu.Unlock()
}

// ShowSpinner makes the loading indicator visible if a request is still in
// flight.
func (d *StateDisplay) ShowSpinner() {
	d.mu.Lock()
	if d.state == DisplayLoading {
		d.spinner = true
	}
	d.mu.Unlock()
}

// ShowImage displays a rendered artifact with an optional info note.
func (d *StateDisplay) ShowImage(img RenderedImage, note string) {
	d.mu.Lock()
	d.state = DisplayLoaded
	d.spinner = false
	d.image = img
	d.note = note
	d.errKind = ""
	d.errMsg = ""
	d.mu.Unlock()
}

// ShowError displays a failure message, leaving the previous image behind
// it untouched.
func (d *StateDisplay) ShowError(kind ErrorKind, msg string) {
	d.mu.Lock()
	d.state = DisplayErrored
	d.spinner = false
	d.errKind = kind
	d.errMsg = msg
	d.mu.Unlock()
}

// State returns the current display state.
func (d *StateDisplay) State() DisplayState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Snapshot returns a copy of the surface for rendering.
func (d *StateDisplay) Snapshot() DisplaySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := DisplaySnapshot{
		State:     d.state,
		Spinner:   d.spinner,
		Note:      d.note,
		ErrorKind: d.errKind,
		Error:     d.errMsg,
	}
	if d.state == DisplayLoaded || d.image.URL != "" {
		img := d.image
		snap.Image = &img
	}
	return snap
}
