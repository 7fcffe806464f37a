// Package formwizard is the top-level entry point: it opens the bundled
// onboarding wizards, imports schemas from OpenAPI documents, and attaches a
// terminal session to a controller.
package formwizard

import (
	"context"

	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/wizard"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

// Controller aliases wizard.Controller for callers that only import the
// root package.
type Controller = wizard.Controller

// Option aliases wizard.Option.
type Option = wizard.Option

// Open builds a controller for a bundled wizard ("team-member" or "tenant").
func Open(name string, options ...Option) (*Controller, error) {
	s, err := wizards.Lookup(name)
	if err != nil {
		return nil, err
	}
	return wizard.New(s, options...)
}

// OpenSchema builds a controller for a caller-supplied schema.
func OpenSchema(s schema.Schema, options ...Option) (*Controller, error) {
	return wizard.New(s, options...)
}

// ImportSchema converts component of the OpenAPI document at location.
func ImportSchema(ctx context.Context, location, component string, options ...openapi.Option) (schema.Schema, error) {
	return openapi.NewImporter(options...).Import(ctx, location, component)
}

// RunTerminal walks ctrl interactively until the form is submitted or the
// user closes it.
func RunTerminal(ctx context.Context, ctrl *Controller, options ...tui.Option) error {
	session, err := tui.New(ctrl, options...)
	if err != nil {
		return err
	}
	_, err = session.Run(ctx)
	return err
}

// Wizards lists the bundled wizard names.
func Wizards() []string {
	return wizards.Names()
}
