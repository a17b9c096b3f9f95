// Package mock provides test doubles for codecanvas interfaces using
// function fields.
package mock

import (
	"context"

	"github.com/fwojciec/codecanvas"
)

// Interface compliance check.
var _ codecanvas.Provider = (*Provider)(nil)

// Provider is a test double for codecanvas.Provider.
// Set StreamFn or GenerateFn for the calls under test; an unset field
// panics to catch missing setup.
type Provider struct {
	StreamFn   func(ctx context.Context, req codecanvas.Request) (codecanvas.Stream, error)
	GenerateFn func(ctx context.Context, req codecanvas.Request) (codecanvas.Response, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req codecanvas.Request) (codecanvas.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Generate delegates to GenerateFn.
func (p *Provider) Generate(ctx context.Context, req codecanvas.Request) (codecanvas.Response, error) {
	return p.GenerateFn(ctx, req)
}
