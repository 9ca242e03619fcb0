package query

import (
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
	"github.com/goliatone/go-errors"
)

// PrintHistory requests audit records, newest first. Zero values leave the
// corresponding filter off.
type PrintHistory struct {
	// Count caps the number of records returned. Zero means all.
	Count int
	// Since drops records printed before the given instant.
	Since time.Time
	// Token filters to one badge holder.
	Token int64
}

func (PrintHistory) Type() string { return "print:history" }

func (msg PrintHistory) Validate() error {
	if msg.Count < 0 {
		return errors.New("count must not be negative", errors.CategoryValidation).
			WithTextCode("COUNT_INVALID")
	}
	return nil
}

// SessionStatus requests a snapshot of the kiosk session.
type SessionStatus struct{}

func (SessionStatus) Type() string { return "print:session" }

func (SessionStatus) Validate() error { return nil }

// Status is a point-in-time view of the session and its display surface.
type Status struct {
	Loaded    bool                      `json:"loaded"`
	File      blueprint.FileInfo        `json:"file"`
	LoadedAt  time.Time                 `json:"loaded_at"`
	CacheSize int                       `json:"cache_size"`
	Displayed *blueprint.RenderedImage  `json:"displayed,omitempty"`
	Display   blueprint.DisplaySnapshot `json:"display"`
}
