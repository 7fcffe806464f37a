// Package submit defines the persistence collaborator the wizard hands its
// final values to, along with an HTTP implementation and helpers for
// sanitising payloads and mapping server error responses back onto fields.
package submit

import "context"

// Result describes the entity created by a successful submission.
type Result struct {
	ID     string         `json:"id,omitempty"`
	Status int            `json:"-"`
	Entity map[string]any `json:"entity,omitempty"`
}

// Submitter persists the merged form values.
type Submitter interface {
	Submit(ctx context.Context, values map[string]any) (Result, error)
}

// Func adapts a function into a Submitter.
type Func func(ctx context.Context, values map[string]any) (Result, error)

// Submit calls fn.
func (fn Func) Submit(ctx context.Context, values map[string]any) (Result, error) {
	return fn(ctx, values)
}
