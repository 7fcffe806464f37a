package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/options"
	"github.com/goliatone/go-formwizard/pkg/permissions"
	"github.com/goliatone/go-formwizard/pkg/review"
	"github.com/goliatone/go-formwizard/pkg/roles"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/submit"
	"github.com/goliatone/go-formwizard/pkg/upload"
	"github.com/goliatone/go-formwizard/pkg/wizard"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

const (
	actionNext   = "Next"
	actionBack   = "Back"
	actionSubmit = "Submit"
	actionClose  = "Close"
)

// Session walks a wizard controller step by step in the terminal.
type Session struct {
	ctrl   *wizard.Controller
	guard  *wizard.Guard
	driver PromptDriver
	review *review.Renderer
	theme  Theme
	closed bool
}

// New constructs a session over ctrl with the survey driver by default.
func New(ctrl *wizard.Controller, opts ...Option) (*Session, error) {
	if ctrl == nil {
		return nil, errors.New("tui: controller is required")
	}
	s := &Session{
		ctrl:   ctrl,
		driver: NewSurveyDriver(),
		theme:  Theme{ErrorPrefix: "! "},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.review == nil {
		s.review = review.New(review.WithSkipStep(ctrl.Schema().Len()))
	}
	s.guard = wizard.NewGuard(ctrl, func() { s.closed = true })
	return s, nil
}

// Run prompts until the form is submitted or closed. Closing returns
// ErrClosed; a failed submission keeps the session open for another try.
func (s *Session) Run(ctx context.Context) (submit.Result, error) {
	sch := s.ctrl.Schema()
	for {
		if s.closed {
			return submit.Result{}, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return submit.Result{}, err
		}

		id := s.ctrl.CurrentStep()
		step, _ := sch.Step(id)
		s.say(ctx, s.theme.StepPrefix+fmt.Sprintf("Step %d of %d: %s", id, sch.Len(), step.Title))
		if step.Description != "" {
			s.say(ctx, step.Description)
		}
		if id == sch.Len() {
			if summary, err := s.review.Render(sch, s.ctrl.Values()); err == nil {
				s.say(ctx, summary)
			}
		}

		if err := s.promptStep(ctx, step); err != nil {
			if errors.Is(err, ErrAborted) {
				if err := s.requestClose(ctx); err != nil {
					return submit.Result{}, err
				}
				continue
			}
			return submit.Result{}, err
		}

		result, done, err := s.act(ctx, id)
		if errors.Is(err, ErrAborted) {
			if err := s.requestClose(ctx); err != nil {
				return submit.Result{}, err
			}
			continue
		}
		if err != nil || done {
			return result, err
		}
	}
}

func (s *Session) act(ctx context.Context, id int) (submit.Result, bool, error) {
	last := id == s.ctrl.Schema().Len()
	actions := []string{actionNext}
	if last {
		actions = []string{actionSubmit}
	}
	if id > 1 {
		actions = append(actions, actionBack)
	}
	actions = append(actions, actionClose)

	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Continue", Options: actions})
	if err != nil {
		return submit.Result{}, false, err
	}
	if idx < 0 || idx >= len(actions) {
		return submit.Result{}, false, nil
	}

	switch actions[idx] {
	case actionNext:
		if !s.ctrl.GoNext() {
			s.reportErrors(ctx, s.ctrl.StepErrors(id))
		}
	case actionBack:
		s.ctrl.GoBack()
	case actionClose:
		return submit.Result{}, false, s.requestClose(ctx)
	case actionSubmit:
		return s.submit(ctx)
	}
	return submit.Result{}, false, nil
}

func (s *Session) submit(ctx context.Context) (submit.Result, bool, error) {
	result, err := s.ctrl.Submit(ctx)
	if err == nil {
		s.say(ctx, s.theme.InfoPrefix+"Submitted "+result.ID)
		return result, true, nil
	}

	var verr *wizard.ValidationError
	var serr *wizard.SubmissionError
	switch {
	case errors.As(err, &verr):
		s.reportErrors(ctx, verr.Errors)
		if len(verr.Errors) > 0 {
			if step := s.ctrl.Schema().StepOf(verr.Errors[0].Field); step > 0 {
				_ = s.ctrl.GoToStep(step)
			}
		}
	case errors.As(err, &serr):
		for _, msg := range serr.Form {
			s.say(ctx, s.theme.ErrorPrefix+msg)
		}
		for field, msgs := range serr.Fields {
			s.say(ctx, s.theme.ErrorPrefix+field+": "+strings.Join(msgs, "; "))
		}
		if len(serr.Form) == 0 && len(serr.Fields) == 0 {
			s.say(ctx, s.theme.ErrorPrefix+"Submission failed: "+serr.Err.Error())
		}
	default:
		return submit.Result{}, false, err
	}
	return submit.Result{}, false, nil
}

// requestClose routes through the guard and asks for confirmation only when
// there is unsaved input.
func (s *Session) requestClose(ctx context.Context) error {
	req := s.guard.RequestClose()
	if req == nil {
		return nil
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message: req.Title,
		Help:    req.Message,
		Options: []string{req.ConfirmLabel, req.CancelLabel},
	})
	if err != nil && !errors.Is(err, ErrAborted) {
		return err
	}
	if err == nil && idx == 0 {
		req.Confirm()
		return nil
	}
	req.Dismiss()
	return nil
}

func (s *Session) promptStep(ctx context.Context, step schema.Step) error {
	choices, err := s.ctrl.Options(ctx, step.ID)
	if err != nil {
		s.say(ctx, s.theme.ErrorPrefix+"Options unavailable: "+err.Error())
	}

	var flags bool
	var lastChoice string
	for _, field := range step.Fields {
		if permissions.IsFlag(field.Name) {
			flags = true
			continue
		}
		if !s.ctrl.IsFieldActive(field.Name) {
			continue
		}
		opts := choices[field.Name]
		if len(opts) > 0 && lastChoice != "" && grouped(opts) {
			if narrowed := options.Filter(opts, lastChoice); len(narrowed) > 0 {
				opts = narrowed
			}
		}
		if err := s.promptField(ctx, step.ID, field, opts); err != nil {
			return err
		}
		if len(choices[field.Name]) > 0 {
			lastChoice, _ = s.stringValue(field.Name)
		}
	}
	if flags {
		return s.promptPermissions(ctx)
	}
	return nil
}

func (s *Session) promptField(ctx context.Context, stepID int, field schema.Field, opts []options.Option) error {
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}

	for {
		var (
			answer any
			err    error
		)
		current, _ := s.ctrl.Value(field.Name)

		switch {
		case field.Name == wizards.FieldAvatar:
			return s.promptAvatar(ctx, label)
		case field.Name == wizards.FieldDepartment:
			answer, err = s.choose(ctx, label, roles.DepartmentNames(), roles.DepartmentNames(), current)
		case field.Name == wizards.FieldRole:
			labels, values := s.roleChoices()
			answer, err = s.choose(ctx, label, labels, values, current)
		case field.Name == wizards.FieldAccessLevel:
			answer, err = s.choose(ctx, label, permissions.AccessLevelNames(), permissions.AccessLevelNames(), current)
		case len(opts) > 0:
			values := make([]string, len(opts))
			for i, opt := range opts {
				values[i] = opt.Value
			}
			answer, err = s.choose(ctx, label, options.Labels(opts), values, current)
		case len(enumValues(field.Rules)) > 0:
			values := enumValues(field.Rules)
			if field.Required {
				answer, err = s.choose(ctx, label, values, values, current)
				break
			}
			labels := append([]string{"(none)"}, values...)
			answer, err = s.choose(ctx, label, labels, append([]string{""}, values...), current)
		case field.Type == schema.TypeBoolean:
			def, _ := current.(bool)
			answer, err = s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def})
		case field.Sanitize:
			answer, err = s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: review.FormatValue(current)})
		default:
			answer, err = s.driver.Input(ctx, InputConfig{Message: label, Default: review.FormatValue(current)})
		}
		if err != nil {
			return err
		}

		if err := s.ctrl.UpdateField(field.Name, answer); err != nil {
			s.say(ctx, s.theme.ErrorPrefix+err.Error())
			continue
		}
		if errs := fieldErrors(s.ctrl.StepErrors(stepID), field.Name); len(errs) > 0 {
			s.reportErrors(ctx, errs)
			continue
		}
		return nil
	}
}

func (s *Session) choose(ctx context.Context, label string, labels, values []string, current any) (any, error) {
	def := 0
	if text, ok := current.(string); ok {
		for i, v := range values {
			if v == text {
				def = i
			}
		}
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: label, Options: labels, DefaultIndex: def})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(values) {
		return "", nil
	}
	return values[idx], nil
}

// roleChoices lists the roles of the selected department, or every role
// when no department narrows the list.
func (s *Session) roleChoices() ([]string, []string) {
	keys := roles.AllowedRoles(s.ctrl.Selection().Department)
	if len(keys) == 0 {
		keys = roles.Keys()
	}
	labels := make([]string, 0, len(keys))
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		def, ok := roles.Lookup(key)
		if !ok {
			continue
		}
		labels = append(labels, def.DisplayName)
		values = append(values, key.String())
	}
	return labels, values
}

func (s *Session) promptPermissions(ctx context.Context) error {
	flags := s.ctrl.VisiblePermissions()
	if len(flags) == 0 {
		return nil
	}
	sel := s.ctrl.Selection()

	labels := make([]string, len(flags))
	var defaults []int
	for i, flag := range flags {
		labels[i] = string(flag)
		if def, ok := permissions.Lookup(flag); ok {
			labels[i] = def.Label
		}
		if sel.Flags.Has(flag) {
			defaults = append(defaults, i)
		}
	}

	chosen, err := s.driver.MultiSelect(ctx, SelectConfig{Message: "Permissions", Options: labels, Defaults: defaults})
	if err != nil {
		return err
	}
	granted := make(map[int]bool, len(chosen))
	for _, idx := range chosen {
		granted[idx] = true
	}
	for i, flag := range flags {
		if granted[i] == sel.Flags.Has(flag) {
			continue
		}
		if err := s.ctrl.UpdateField(string(flag), granted[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptAvatar(ctx context.Context, label string) error {
	current, _ := s.stringValue(wizards.FieldAvatar)
	path, err := s.driver.Input(ctx, InputConfig{
		Message: label,
		Help:    "Path to an image file. Leave blank to keep the current one.",
	})
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	file, err := upload.Open(path)
	if err != nil {
		s.say(ctx, s.theme.ErrorPrefix+err.Error())
		return nil
	}
	url, err := s.ctrl.UploadAvatar(ctx, file)
	switch {
	case errors.Is(err, wizard.ErrNoUploader):
		s.say(ctx, s.theme.ErrorPrefix+"Avatar uploads are not configured")
	case err != nil:
		s.say(ctx, s.theme.ErrorPrefix+"Avatar upload failed, keeping "+fallback(current, "no avatar")+": "+err.Error())
	default:
		s.say(ctx, s.theme.InfoPrefix+"Avatar stored at "+url)
	}
	return nil
}

func (s *Session) stringValue(name string) (string, bool) {
	value, ok := s.ctrl.Value(name)
	if !ok {
		return "", false
	}
	text, ok := value.(string)
	return text, ok
}

func (s *Session) reportErrors(ctx context.Context, errs []schema.FieldError) {
	for _, fe := range errs {
		s.say(ctx, s.theme.ErrorPrefix+fe.Error())
	}
}

func (s *Session) say(ctx context.Context, msg string) {
	_ = s.driver.Info(ctx, msg)
}

// fieldErrors keeps the failures of name itself. Cross-field assertions are
// reported when leaving the step.
func fieldErrors(errs []schema.FieldError, name string) []schema.FieldError {
	var out []schema.FieldError
	for _, fe := range errs {
		if fe.Field == name && fe.Rule != schema.RuleAssert {
			out = append(out, fe)
		}
	}
	return out
}

// enumValues extracts the oneof parameters from a validator tag list.
// Single quotes group values that contain spaces.
func enumValues(rules string) []string {
	for _, rule := range strings.Split(rules, ",") {
		rule = strings.TrimSpace(rule)
		if !strings.HasPrefix(rule, "oneof=") {
			continue
		}
		var (
			out    []string
			token  strings.Builder
			quoted bool
		)
		flush := func() {
			if token.Len() > 0 {
				out = append(out, token.String())
				token.Reset()
			}
		}
		for _, r := range strings.TrimPrefix(rule, "oneof=") {
			switch {
			case r == '\'':
				quoted = !quoted
				if !quoted {
					flush()
				}
			case r == ' ' && !quoted:
				flush()
			default:
				token.WriteRune(r)
			}
		}
		flush()
		return out
	}
	return nil
}

func grouped(opts []options.Option) bool {
	for _, opt := range opts {
		if opt.Group != "" {
			return true
		}
	}
	return false
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
