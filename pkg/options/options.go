// Package options supplies read-only reference lists, such as the
// properties and units offered in a lease step, to wizard select fields.
package options

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownSource is returned when a provider has no list for a source.
var ErrUnknownSource = errors.New("options: unknown source")

// Option is one selectable entry.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
	// Group optionally ties the entry to a parent value, such as the
	// property a unit belongs to.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// Provider resolves the options for a named source.
type Provider interface {
	Options(ctx context.Context, source string) ([]Option, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, source string) ([]Option, error)

// Options calls fn.
func (fn ProviderFunc) Options(ctx context.Context, source string) ([]Option, error) {
	return fn(ctx, source)
}

// Chain consults providers in order and returns the first list found.
// Errors other than ErrUnknownSource stop the chain.
func Chain(providers ...Provider) Provider {
	return ProviderFunc(func(ctx context.Context, source string) ([]Option, error) {
		for _, provider := range providers {
			if provider == nil {
				continue
			}
			opts, err := provider.Options(ctx, source)
			if errors.Is(err, ErrUnknownSource) {
				continue
			}
			return opts, err
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	})
}

// Filter keeps the options whose Group equals group. An empty group keeps
// everything.
func Filter(opts []Option, group string) []Option {
	if group == "" {
		return append([]Option(nil), opts...)
	}
	var out []Option
	for _, opt := range opts {
		if opt.Group == group {
			out = append(out, opt)
		}
	}
	return out
}

// Labels returns the display labels in order.
func Labels(opts []Option) []string {
	out := make([]string, len(opts))
	for i, opt := range opts {
		out[i] = opt.Label
	}
	return out
}
