package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/options"
	"github.com/goliatone/go-formwizard/pkg/submit"
	"github.com/goliatone/go-formwizard/pkg/wizard"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

// abort scripts a Ctrl+C at a prompt.
type abort struct{}

// stubDriver answers prompts by message. Select answers name the option
// text; MultiSelect answers are []string.
type stubDriver struct {
	answers map[string][]any
	offered map[string][]string
	infos   []string
}

func newStub(answers map[string][]any) *stubDriver {
	return &stubDriver{answers: answers, offered: map[string][]string{}}
}

func (s *stubDriver) next(message string) (any, error) {
	queue := s.answers[message]
	if len(queue) == 0 {
		return nil, fmt.Errorf("no answer scripted for %q", message)
	}
	s.answers[message] = queue[1:]
	if _, ok := queue[0].(abort); ok {
		return nil, ErrAborted
	}
	return queue[0], nil
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	v, err := s.next(cfg.Message)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	v, err := s.next(cfg.Message)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.offered[cfg.Message] = append([]string(nil), cfg.Options...)
	v, err := s.next(cfg.Message)
	if err != nil {
		return -1, err
	}
	return indexOf(cfg.Options, v.(string)), nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.offered[cfg.Message] = append([]string(nil), cfg.Options...)
	v, err := s.next(cfg.Message)
	if err != nil {
		return nil, err
	}
	return indicesOf(cfg.Options, v.([]string)), nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	v, err := s.next(cfg.Message)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

func newSession(t *testing.T, ctrl *wizard.Controller, driver PromptDriver) *Session {
	t.Helper()
	session, err := New(ctrl, WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return session
}

func TestRunClosesCleanFormWithoutConfirmation(t *testing.T) {
	ctrl, _ := wizard.New(wizards.TenantOnboarding())
	driver := newStub(map[string][]any{"First name *": {abort{}}})

	_, err := newSession(t, ctrl, driver).Run(context.Background())
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, asked := driver.offered[wizard.CloseTitle]; asked {
		t.Fatalf("clean form should close without confirmation")
	}
}

func TestRunDirtyCloseNeedsConfirmation(t *testing.T) {
	ctrl, _ := wizard.New(wizards.TenantOnboarding())
	driver := newStub(map[string][]any{
		"First name *":    {"Ada", "Ada"},
		"Last name *":     {abort{}, abort{}},
		wizard.CloseTitle: {wizard.CloseCancelLabel, wizard.CloseConfirmLabel},
	})

	_, err := newSession(t, ctrl, driver).Run(context.Background())
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if diff := cmp.Diff([]string{wizard.CloseConfirmLabel, wizard.CloseCancelLabel}, driver.offered[wizard.CloseTitle]); diff != "" {
		t.Fatalf("close prompt options (-want +got):\n%s", diff)
	}
	if ctrl.IsDirty() {
		t.Fatalf("confirmed close should discard the input")
	}
}

func TestRunTenantSubmits(t *testing.T) {
	var payload map[string]any
	provider := options.NewStatic(map[string][]options.Option{
		wizards.SourceProperties: {
			{Label: "Harbor View", Value: "p1"},
			{Label: "Elm Court", Value: "p2"},
		},
		wizards.SourceUnits: {
			{Label: "Unit 1A", Value: "u1", Group: "p2"},
			{Label: "Unit 2B", Value: "u2", Group: "p1"},
			{Label: "Unit 3C", Value: "u3", Group: "p1"},
		},
	})
	ctrl, err := wizard.New(wizards.TenantOnboarding(),
		wizard.WithOptionsProvider(provider),
		wizard.WithSubmitter(submit.Func(func(_ context.Context, values map[string]any) (submit.Result, error) {
			payload = values
			return submit.Result{ID: "t-1"}, nil
		})),
	)
	if err != nil {
		t.Fatalf("wizard.New: %v", err)
	}

	driver := newStub(map[string][]any{
		"First name *": {"Ada"},
		"Last name *":  {"Lovelace"},
		"Email *":      {"ada@example.com"},
		// The first phone is rejected and asked again.
		"Phone *":  {"nope", "+1 555 123 4567"},
		"Avatar":   {""},
		"Continue": {actionNext, actionNext, actionNext, actionNext, actionSubmit},

		"Current address *":  {"1 Main Street"},
		"Years at address":   {"3"},
		"Previous landlord":  {""},
		"Landlord phone":     {""},
		"Previously evicted": {false},

		"Property *":       {"Harbor View"},
		"Unit *":           {"Unit 2B"},
		"Lease start *":    {"2025-01-01"},
		"Lease end *":      {"2026-01-01"},
		"Monthly rent *":   {"1500"},
		"Security deposit": {""},

		"Employment status *":       {"retired"},
		"Annual income":             {""},
		"Has pets":                  {false},
		"Consent to credit check *": {true},

		"Notes": {"<b>Quiet</b> tenant"},
	})

	result, err := newSession(t, ctrl, driver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v (infos: %v)", err, driver.infos)
	}
	if result.ID != "t-1" {
		t.Fatalf("unexpected result %#v", result)
	}
	if diff := cmp.Diff([]string{"Unit 2B", "Unit 3C"}, driver.offered["Unit *"]); diff != "" {
		t.Fatalf("units should be narrowed to the property (-want +got):\n%s", diff)
	}
	if _, asked := driver.offered["Employer *"]; asked {
		t.Fatalf("inactive employer field was prompted")
	}
	for key, want := range map[string]any{
		"propertyId":     "p1",
		"unitId":         "u2",
		"yearsAtAddress": int64(3),
		"monthlyRent":    float64(1500),
		"notes":          "Quiet tenant",
		"phone":          "+1 555 123 4567",
	} {
		if payload[key] != want {
			t.Fatalf("payload[%s] = %#v, want %#v", key, payload[key], want)
		}
	}

	summaryShown := false
	for _, info := range driver.infos {
		if strings.Contains(info, "Unit: u2") {
			summaryShown = true
		}
	}
	if !summaryShown {
		t.Fatalf("review summary not shown: %v", driver.infos)
	}
}

func TestPromptStepAdjustsPermissions(t *testing.T) {
	ctrl, _ := wizard.New(wizards.TeamMember())
	driver := newStub(map[string][]any{
		"Department *":   {"Maintenance"},
		"Role *":         {"Maintenance Staff"},
		"Access level *": {"Basic"},
		"Permissions":    {[]string{"Manage Maintenance"}},
	})
	session := newSession(t, ctrl, driver)
	step, _ := ctrl.Schema().Step(3)

	if err := session.promptStep(context.Background(), step); err != nil {
		t.Fatalf("promptStep: %v", err)
	}
	if diff := cmp.Diff([]string{"Maintenance Staff"}, driver.offered["Role *"]); diff != "" {
		t.Fatalf("roles should follow the department (-want +got):\n%s", diff)
	}
	if got, _ := ctrl.Value(wizards.FieldRole); got != "MAINTENANCE_STAFF" {
		t.Fatalf("role = %v", got)
	}
	if got, _ := ctrl.Value("canManageMaintenance"); got != true {
		t.Fatalf("kept permission lost: %v", got)
	}
	if got, _ := ctrl.Value("canViewReports"); got != false {
		t.Fatalf("deselected permission still granted: %v", got)
	}
	if !ctrl.IsStepValid(3) {
		t.Fatalf("step should be valid: %v", ctrl.StepErrors(3))
	}
}

func TestEnumValues(t *testing.T) {
	got := enumValues("required,oneof=Basic 'Full Service' Admin,max=3")
	if diff := cmp.Diff([]string{"Basic", "Full Service", "Admin"}, got); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	if enumValues("min=2") != nil {
		t.Fatalf("expected no values without oneof")
	}
}
