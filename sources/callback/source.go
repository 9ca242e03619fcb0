package sourcecallback

import (
	"context"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// ProviderFunc loads a source file on demand.
type ProviderFunc func(ctx context.Context) (blueprint.SourceFile, error)

// Provider wraps a callback function as a SourceProvider. Hosts use it to
// bridge whatever hands them files: an upload handler, a watched folder,
// a message queue.
type Provider struct {
	fn ProviderFunc
}

// NewProvider creates a callback-based SourceProvider.
func NewProvider(fn ProviderFunc) *Provider {
	return &Provider{fn: fn}
}

// Load delegates to the configured callback.
func (p *Provider) Load(ctx context.Context) (blueprint.SourceFile, error) {
	if p == nil || p.fn == nil {
		return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindValidation, "callback provider requires a function", nil)
	}
	return p.fn(ctx)
}

// Static returns a provider that always yields the same file.
func Static(file blueprint.SourceFile) *Provider {
	return NewProvider(func(ctx context.Context) (blueprint.SourceFile, error) {
		_ = ctx
		if file.Empty() {
			return blueprint.SourceFile{}, blueprint.NewError(blueprint.KindNotFound, "no file configured", nil)
		}
		return file, nil
	})
}
