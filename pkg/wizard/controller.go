// Package wizard implements the multi-step form state machine: field state,
// step navigation gated by per-step validation, whole-form submission and
// the unsaved-changes guard.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/derivation"
	"github.com/goliatone/go-formwizard/pkg/options"
	"github.com/goliatone/go-formwizard/pkg/permissions"
	"github.com/goliatone/go-formwizard/pkg/roles"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/submit"
	"github.com/goliatone/go-formwizard/pkg/upload"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

// Controller owns the form state of one wizard session. All methods are
// safe for concurrent use; readers receive copies.
type Controller struct {
	schema    schema.Schema
	validator *schema.Validator
	engine    *derivation.Engine
	submitter submit.Submitter
	uploader  upload.Uploader
	options   options.Provider
	logger    logrus.FieldLogger
	observers observers
	extras    map[string]any

	// derives is set when the schema carries the role and department
	// fields the derivation engine maintains.
	derives bool

	mu            sync.Mutex
	values        map[string]any
	current       int
	dirty         bool
	submitting    bool
	submitErr     *SubmissionError
	avatarPreview string
	generation    uint64
}

// New builds a controller for s with every field at its default and the
// first step current.
func New(s schema.Schema, options ...Option) (*Controller, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	c := &Controller{
		schema:    s,
		validator: schema.NewValidator(),
		engine:    derivation.New(),
		logger:    discardLogger(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	_, hasRole := s.Field(wizards.FieldRole)
	_, hasDepartment := s.Field(wizards.FieldDepartment)
	c.derives = hasRole && hasDepartment

	c.values = s.Defaults()
	c.current = 1
	return c, nil
}

// Schema returns the wizard's schema.
func (c *Controller) Schema() schema.Schema {
	return c.schema
}

// UpdateField sets name to value and marks the form dirty. Role and
// department updates re-derive the permission fields before returning.
// Unknown field names and unknown role keys leave the state untouched.
func (c *Controller) UpdateField(name string, value any) error {
	field, ok := c.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	c.mu.Lock()
	var (
		event *Event
		err   error
	)
	switch {
	case c.derives && name == wizards.FieldRole:
		event, err = c.selectRoleLocked(value)
	case c.derives && name == wizards.FieldDepartment:
		event = c.selectDepartmentLocked(value)
	default:
		coerced, cerr := schema.Coerce(field, value)
		if cerr != nil {
			// Kept as given; validation reports the type mismatch.
			coerced = value
		}
		c.values[name] = coerced
	}
	if err == nil {
		c.dirty = true
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	if event != nil {
		c.emit(*event)
	}
	return nil
}

func (c *Controller) selectRoleLocked(value any) (*Event, error) {
	key, err := parseRole(value)
	if err != nil {
		return nil, err
	}
	res, err := c.engine.SelectRole(c.selectionLocked(), key)
	if err != nil {
		return nil, err
	}
	c.applySelectionLocked(res.Selection)
	c.logDerivation(wizards.FieldRole, res)
	return &Event{Kind: EventDerived, Wizard: c.schema.Name, Field: wizards.FieldRole, Outcome: res.Outcome}, nil
}

func (c *Controller) selectDepartmentLocked(value any) *Event {
	var dept roles.Department
	switch v := value.(type) {
	case roles.Department:
		dept = v
	case string:
		dept = roles.ParseDepartment(v)
	case nil:
	default:
		dept = roles.ParseDepartment(fmt.Sprint(v))
	}
	res := c.engine.SelectDepartment(c.selectionLocked(), dept)
	c.applySelectionLocked(res.Selection)
	c.logDerivation(wizards.FieldDepartment, res)
	return &Event{Kind: EventDerived, Wizard: c.schema.Name, Field: wizards.FieldDepartment, Outcome: res.Outcome}
}

func (c *Controller) logDerivation(field string, res derivation.Result) {
	entry := c.logger.WithFields(logrus.Fields{
		"wizard":  c.schema.Name,
		"field":   field,
		"outcome": string(res.Outcome),
		"role":    res.Selection.Role.String(),
	})
	if res.Outcome == derivation.OutcomeDepartmentSet || res.Outcome == derivation.OutcomeRoleCleared {
		entry.Debug("inconsistent selection resolved")
		return
	}
	entry.Debug("permissions derived")
}

func parseRole(value any) (roles.Key, error) {
	switch v := value.(type) {
	case nil:
		return roles.None, nil
	case roles.Key:
		if v != roles.None && !v.Valid() {
			return roles.None, fmt.Errorf("%w: %d", roles.ErrUnknownRole, int(v))
		}
		return v, nil
	case string:
		return roles.Parse(v)
	}
	return roles.Parse(fmt.Sprint(value))
}

// selectionLocked reads the derivation-owned fields out of the form state.
func (c *Controller) selectionLocked() derivation.Selection {
	sel := derivation.Selection{Flags: permissions.Empty()}
	if raw, ok := c.values[wizards.FieldRole].(string); ok {
		if key, err := roles.Parse(raw); err == nil {
			sel.Role = key
		}
	}
	if raw, ok := c.values[wizards.FieldDepartment].(string); ok {
		sel.Department = roles.ParseDepartment(raw)
	}
	if raw, ok := c.values[wizards.FieldAccessLevel].(string); ok {
		if level, err := permissions.ParseAccessLevel(raw); err == nil {
			sel.AccessLevel = level
		}
	}
	for _, flag := range permissions.All() {
		if granted, ok := c.values[string(flag)].(bool); ok {
			sel.Flags[flag] = granted
		}
	}
	return sel
}

func (c *Controller) applySelectionLocked(sel derivation.Selection) {
	c.values[wizards.FieldRole] = sel.Role.String()
	c.values[wizards.FieldDepartment] = string(sel.Department)
	if _, ok := c.values[wizards.FieldAccessLevel]; ok {
		c.values[wizards.FieldAccessLevel] = sel.AccessLevel.String()
	}
	for _, flag := range permissions.All() {
		if _, ok := c.values[string(flag)]; ok {
			c.values[string(flag)] = sel.Flags.Has(flag)
		}
	}
}

// Selection returns the role, department, access level and flags currently
// held in the form state.
func (c *Controller) Selection() derivation.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionLocked()
}

// ClearPermissions sets every permission flag false. Role, department and
// access level are untouched.
func (c *Controller) ClearPermissions() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.derives {
		return
	}
	c.applySelectionLocked(c.engine.ClearAll(c.selectionLocked()))
	c.dirty = true
}

// VisiblePermissions lists the flags relevant to the selected role, or every
// flag when no role is selected.
func (c *Controller) VisiblePermissions() []permissions.Flag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.VisibleFlags(c.selectionLocked())
}

// Values returns a copy of the form state.
func (c *Controller) Values() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyValues(c.values)
}

// Value returns one field's current value.
func (c *Controller) Value(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[name]
	return value, ok
}

// CurrentStep returns the 1-based id of the current step.
func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// IsDirty reports whether the form changed since it was opened or reset.
func (c *Controller) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// IsFieldActive reports whether name's When rule holds for the current
// state. A rule that fails to evaluate counts as active so the field still
// surfaces its error.
func (c *Controller) IsFieldActive(name string) bool {
	field, ok := c.schema.Field(name)
	if !ok {
		return false
	}
	active, err := c.validator.Active(field, c.Values(), c.extras)
	return active || err != nil
}

// IsStepValid validates only the fields and assertions of step id.
func (c *Controller) IsStepValid(id int) bool {
	if _, ok := c.schema.Step(id); !ok {
		return false
	}
	return len(c.StepErrors(id)) == 0
}

// StepErrors returns the failures of step id against the current state.
func (c *Controller) StepErrors(id int) []schema.FieldError {
	step, ok := c.schema.Step(id)
	if !ok {
		return nil
	}
	values := c.Values()
	return c.validator.ValidateStep(step, values, c.extras)
}

// IsSubmissionValid validates every step regardless of the current one.
func (c *Controller) IsSubmissionValid() bool {
	return len(c.Errors()) == 0
}

// Errors returns the whole-form failures.
func (c *Controller) Errors() []schema.FieldError {
	return c.validator.ValidateStep(c.schema.Merged(), c.Values(), c.extras)
}

// IsCurrentStepValid validates the current step, except on the final step
// where the whole form must be valid.
func (c *Controller) IsCurrentStepValid() bool {
	current := c.CurrentStep()
	if current == c.schema.Len() {
		return c.IsSubmissionValid()
	}
	return c.IsStepValid(current)
}

// GoNext advances one step when the current step is valid. It reports
// whether the step changed.
func (c *Controller) GoNext() bool {
	c.mu.Lock()
	from := c.current
	if from >= c.schema.Len() {
		c.mu.Unlock()
		return false
	}
	step, _ := c.schema.Step(from)
	errs := c.validator.ValidateStep(step, c.values, c.extras)
	if len(errs) > 0 {
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{"wizard": c.schema.Name, "step": from, "errors": len(errs)}).Debug("next blocked by validation")
		c.emit(Event{Kind: EventNextBlocked, Wizard: c.schema.Name, From: from, To: from})
		return false
	}
	c.current = from + 1
	c.mu.Unlock()

	c.stepChanged(from, from+1)
	return true
}

// GoBack moves one step back, stopping at the first step.
func (c *Controller) GoBack() bool {
	c.mu.Lock()
	from := c.current
	if from <= 1 {
		c.mu.Unlock()
		return false
	}
	c.current = from - 1
	c.mu.Unlock()

	c.stepChanged(from, from-1)
	return true
}

// GoToStep jumps to an already reached step.
func (c *Controller) GoToStep(id int) error {
	if id < 1 || id > c.schema.Len() {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, id)
	}
	c.mu.Lock()
	from := c.current
	if id > from {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d (current %d)", ErrStepNotReached, id, from)
	}
	c.current = id
	c.mu.Unlock()

	if id != from {
		c.stepChanged(from, id)
	}
	return nil
}

func (c *Controller) stepChanged(from, to int) {
	c.logger.WithFields(logrus.Fields{"wizard": c.schema.Name, "from": from, "step": to}).Debug("step changed")
	c.emit(Event{Kind: EventStepChanged, Wizard: c.schema.Name, From: from, To: to})
}

// Reset restores defaults, returns to the first step and clears the dirty
// flag, the avatar preview and any recorded submission error. Avatar
// uploads started before the reset are discarded when they complete.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.emit(Event{Kind: EventReset, Wizard: c.schema.Name, To: 1})
}

func (c *Controller) resetLocked() {
	c.values = c.schema.Defaults()
	c.current = 1
	c.dirty = false
	c.submitErr = nil
	c.avatarPreview = ""
	c.generation++
}

// IsSubmitting reports whether a Submit call is in flight.
func (c *Controller) IsSubmitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// SubmissionError returns the error of the last failed submission, cleared
// by Reset or a later successful submission.
func (c *Controller) SubmissionError() *SubmissionError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// Submit validates the whole form and hands a sanitised copy of it to the
// submitter. A successful submission resets the controller; a failed one
// records the error and leaves the form as it was.
func (c *Controller) Submit(ctx context.Context) (submit.Result, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return submit.Result{}, ErrSubmissionInFlight
	}
	if c.submitter == nil {
		c.mu.Unlock()
		return submit.Result{}, ErrNoSubmitter
	}
	errs := c.validator.ValidateStep(c.schema.Merged(), c.values, c.extras)
	if len(errs) > 0 {
		c.mu.Unlock()
		verr := &ValidationError{Errors: errs}
		c.logger.WithFields(logrus.Fields{"wizard": c.schema.Name, "fields": verr.Fields()}).Debug("submission blocked by validation")
		c.emit(Event{Kind: EventSubmitRejected, Wizard: c.schema.Name, Err: verr})
		return submit.Result{}, verr
	}
	payload := submit.Sanitize(c.schema, c.values)
	c.submitting = true
	c.mu.Unlock()

	res, err := c.submitter.Submit(ctx, payload)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		serr := c.submissionError(err)
		c.submitErr = serr
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{"wizard": c.schema.Name}).WithError(err).Warn("submission failed")
		c.emit(Event{Kind: EventSubmitFailed, Wizard: c.schema.Name, Err: serr})
		return res, serr
	}
	c.resetLocked()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{"wizard": c.schema.Name, "id": res.ID}).Info("submission accepted")
	c.emit(Event{Kind: EventSubmitted, Wizard: c.schema.Name})
	c.emit(Event{Kind: EventReset, Wizard: c.schema.Name, To: 1})
	return res, nil
}

func (c *Controller) submissionError(err error) *SubmissionError {
	serr := &SubmissionError{Err: err}
	var remote *submit.RemoteError
	if errors.As(err, &remote) {
		var names []string
		for _, step := range c.schema.Steps {
			names = append(names, step.FieldNames()...)
		}
		mapping := submit.MapErrorPayload(names, remote.Payload)
		serr.Fields = mapping.Fields
		serr.Form = submit.MergeFormErrors(mapping.Form, remote.Message)
	}
	return serr
}

// Options resolves the option lists of every field on step id that names
// an options source, keyed by field name. The provider's lists are
// reference data and are never written into the form state.
func (c *Controller) Options(ctx context.Context, id int) (map[string][]options.Option, error) {
	step, ok := c.schema.Step(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStepOutOfRange, id)
	}
	out := make(map[string][]options.Option)
	for _, field := range step.Fields {
		if field.OptionsSource == "" {
			continue
		}
		if c.options == nil {
			return nil, ErrNoOptionsProvider
		}
		opts, err := c.options.Options(ctx, field.OptionsSource)
		if err != nil {
			return nil, fmt.Errorf("wizard: options for %s: %w", field.Name, err)
		}
		out[field.Name] = opts
	}
	return out, nil
}

func (c *Controller) emit(ev Event) {
	if len(c.observers) == 0 {
		return
	}
	c.observers.Observe(ev)
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
