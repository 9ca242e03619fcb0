package printrouter

import (
	"context"
	"sync"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// Panel holds the station's option controls. The UI posts its full control
// state on every change; the service pulls a snapshot whenever a request
// arrives without explicit options. Option changes never touch the render
// cache, so flipping a control back reuses the earlier render.
type Panel struct {
	mu    sync.RWMutex
	state blueprint.PanelState
}

// NewPanel creates a panel at the default control state.
func NewPanel() *Panel {
	return &Panel{state: blueprint.DefaultPanelState()}
}

// Snapshot implements blueprint.OptionsSource.
func (p *Panel) Snapshot(ctx context.Context) (blueprint.PanelState, error) {
	_ = ctx
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state, nil
}

// Set replaces the control state and returns the canonical options it now
// builds to.
func (p *Panel) Set(state blueprint.PanelState) blueprint.PrintOptions {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	return blueprint.BuildOptions(state)
}

// State returns the current control state.
func (p *Panel) State() blueprint.PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}
