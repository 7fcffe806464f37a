package wizard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/options"
	"github.com/goliatone/go-formwizard/pkg/permissions"
	"github.com/goliatone/go-formwizard/pkg/roles"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/wizard"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

func newTeamMember(t *testing.T, opts ...wizard.Option) *wizard.Controller {
	t.Helper()
	ctrl, err := wizard.New(wizards.TeamMember(), opts...)
	if err != nil {
		t.Fatalf("wizard.New: %v", err)
	}
	return ctrl
}

func mustUpdate(t *testing.T, ctrl *wizard.Controller, name string, value any) {
	t.Helper()
	if err := ctrl.UpdateField(name, value); err != nil {
		t.Fatalf("UpdateField(%s): %v", name, err)
	}
}

// fillTeamMember makes every step of the team member wizard valid.
func fillTeamMember(t *testing.T, ctrl *wizard.Controller) {
	t.Helper()
	mustUpdate(t, ctrl, "firstName", "Ada")
	mustUpdate(t, ctrl, "lastName", "Lovelace")
	mustUpdate(t, ctrl, "email", "ada@example.com")
	mustUpdate(t, ctrl, "phone", "+1 555 010 2288")
	mustUpdate(t, ctrl, "jobTitle", "Leasing Consultant")
	mustUpdate(t, ctrl, "yearsExperience", "4")
	mustUpdate(t, ctrl, wizards.FieldDepartment, "Property Management")
	mustUpdate(t, ctrl, wizards.FieldRole, "LEASING_AGENT")
	mustUpdate(t, ctrl, "startDate", "2026-11-02")
}

func walkToEnd(t *testing.T, ctrl *wizard.Controller) {
	t.Helper()
	for ctrl.CurrentStep() < ctrl.Schema().Len() {
		if !ctrl.GoNext() {
			t.Fatalf("blocked on step %d: %v", ctrl.CurrentStep(), ctrl.StepErrors(ctrl.CurrentStep()))
		}
	}
}

func TestNewRejectsMalformedSchema(t *testing.T) {
	if _, err := wizard.New(schema.Schema{}); err == nil {
		t.Fatalf("expected error for empty schema")
	}
}

func TestNewStartsAtDefaults(t *testing.T) {
	ctrl := newTeamMember(t)
	if ctrl.CurrentStep() != 1 || ctrl.IsDirty() {
		t.Fatalf("unexpected initial state step=%d dirty=%v", ctrl.CurrentStep(), ctrl.IsDirty())
	}
	if diff := cmp.Diff(wizards.TeamMember().Defaults(), ctrl.Values()); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestGoNextIsGatedByStepValidity(t *testing.T) {
	ctrl := newTeamMember(t)

	before := ctrl.CurrentStep()
	valid := ctrl.IsStepValid(before)
	moved := ctrl.GoNext()
	if valid || moved || ctrl.CurrentStep() != before {
		t.Fatalf("empty step 1 must block: valid=%v moved=%v step=%d", valid, moved, ctrl.CurrentStep())
	}

	fillTeamMember(t, ctrl)
	for step := 1; step < ctrl.Schema().Len(); step++ {
		valid := ctrl.IsStepValid(step)
		moved := ctrl.GoNext()
		if valid != moved {
			t.Fatalf("step %d: valid=%v but moved=%v", step, valid, moved)
		}
		if ctrl.CurrentStep() != step+1 {
			t.Fatalf("expected step %d, got %d", step+1, ctrl.CurrentStep())
		}
	}

	if ctrl.GoNext() {
		t.Fatalf("GoNext past the last step must be a no-op")
	}
	if ctrl.CurrentStep() != 5 {
		t.Fatalf("expected clamp at 5, got %d", ctrl.CurrentStep())
	}
}

func TestGoBackStopsAtFirstStep(t *testing.T) {
	ctrl := newTeamMember(t)
	if ctrl.GoBack() || ctrl.CurrentStep() != 1 {
		t.Fatalf("GoBack on step 1 must not move")
	}
	fillTeamMember(t, ctrl)
	ctrl.GoNext()
	if !ctrl.GoBack() || ctrl.CurrentStep() != 1 {
		t.Fatalf("expected to be back on step 1, got %d", ctrl.CurrentStep())
	}
}

func TestGoToStepOnlyReachedSteps(t *testing.T) {
	ctrl := newTeamMember(t)
	fillTeamMember(t, ctrl)
	ctrl.GoNext()
	ctrl.GoNext()

	if err := ctrl.GoToStep(4); !errors.Is(err, wizard.ErrStepNotReached) {
		t.Fatalf("expected ErrStepNotReached, got %v", err)
	}
	if ctrl.CurrentStep() != 3 {
		t.Fatalf("rejected jump mutated step: %d", ctrl.CurrentStep())
	}
	if err := ctrl.GoToStep(0); !errors.Is(err, wizard.ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}
	if err := ctrl.GoToStep(9); !errors.Is(err, wizard.ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}
	if err := ctrl.GoToStep(1); err != nil || ctrl.CurrentStep() != 1 {
		t.Fatalf("jump back failed: %v step=%d", err, ctrl.CurrentStep())
	}
	if err := ctrl.GoToStep(3); !errors.Is(err, wizard.ErrStepNotReached) {
		t.Fatalf("after moving back, step 3 counts as ahead; got %v", err)
	}
}

func flagsOf(ctrl *wizard.Controller) map[string]any {
	values := ctrl.Values()
	out := make(map[string]any)
	for _, flag := range permissions.All() {
		out[string(flag)] = values[string(flag)]
	}
	out[wizards.FieldAccessLevel] = values[wizards.FieldAccessLevel]
	return out
}

func TestRoleChangeIsOrderIndependent(t *testing.T) {
	for _, a := range roles.Keys() {
		for _, b := range roles.Keys() {
			if a == b {
				continue
			}
			viaA := newTeamMember(t)
			mustUpdate(t, viaA, wizards.FieldRole, a.String())
			mustUpdate(t, viaA, string(permissions.ManageRoles), true)
			mustUpdate(t, viaA, wizards.FieldRole, b.String())

			direct := newTeamMember(t)
			mustUpdate(t, direct, wizards.FieldRole, b.String())

			if diff := cmp.Diff(flagsOf(direct), flagsOf(viaA)); diff != "" {
				t.Fatalf("%s then %s differs from %s (-direct +via):\n%s", a, b, b, diff)
			}
		}
	}
}

func TestManualOverrideSurvivesUnrelatedEdits(t *testing.T) {
	ctrl := newTeamMember(t)
	mustUpdate(t, ctrl, wizards.FieldRole, "ACCOUNTANT")
	mustUpdate(t, ctrl, string(permissions.ManageVendors), true)
	mustUpdate(t, ctrl, wizards.FieldAccessLevel, "Admin")
	mustUpdate(t, ctrl, "firstName", "Grace")

	values := ctrl.Values()
	if values[string(permissions.ManageVendors)] != true || values[wizards.FieldAccessLevel] != "Admin" {
		t.Fatalf("manual overrides reverted: %v %v", values[string(permissions.ManageVendors)], values[wizards.FieldAccessLevel])
	}
}

func TestMaintenanceDepartmentAutoSelects(t *testing.T) {
	ctrl := newTeamMember(t)
	mustUpdate(t, ctrl, wizards.FieldDepartment, "Maintenance")

	values := ctrl.Values()
	if values[wizards.FieldRole] != "MAINTENANCE_STAFF" {
		t.Fatalf("expected MAINTENANCE_STAFF, got %v", values[wizards.FieldRole])
	}
	granted := map[permissions.Flag]bool{
		permissions.ManageMaintenance: true,
		permissions.ManageVendors:     true,
		permissions.ViewReports:       true,
		permissions.ExportData:        true,
		permissions.ViewAuditLogs:     true,
	}
	for _, flag := range permissions.All() {
		if values[string(flag)] != granted[flag] {
			t.Fatalf("flag %s = %v, want %v", flag, values[string(flag)], granted[flag])
		}
	}
	if values[wizards.FieldAccessLevel] != "Basic" {
		t.Fatalf("expected Basic, got %v", values[wizards.FieldAccessLevel])
	}
}

func TestDepartmentInvalidatesSelectedRole(t *testing.T) {
	ctrl := newTeamMember(t)
	mustUpdate(t, ctrl, wizards.FieldRole, "PROPERTY_MANAGER")
	mustUpdate(t, ctrl, wizards.FieldDepartment, "Accounting")

	values := ctrl.Values()
	if values[wizards.FieldRole] != "" {
		t.Fatalf("expected role unset, got %v", values[wizards.FieldRole])
	}
	for _, flag := range permissions.All() {
		if values[string(flag)] != false {
			t.Fatalf("flag %s should be false", flag)
		}
	}
	if values[wizards.FieldAccessLevel] != "Basic" {
		t.Fatalf("expected Basic, got %v", values[wizards.FieldAccessLevel])
	}
}

func TestMultiRoleDepartmentDoesNotAutoSelect(t *testing.T) {
	ctrl := newTeamMember(t)
	mustUpdate(t, ctrl, wizards.FieldDepartment, "Property Management")
	if role, _ := ctrl.Value(wizards.FieldRole); role != "" {
		t.Fatalf("expected no role, got %v", role)
	}
	mustUpdate(t, ctrl, wizards.FieldRole, "LEASING_AGENT")
	if role, _ := ctrl.Value(wizards.FieldRole); role != "LEASING_AGENT" {
		t.Fatalf("explicit pick not applied: %v", role)
	}
}

func TestRoleOutsideDepartmentRealignsDepartment(t *testing.T) {
	ctrl := newTeamMember(t)
	mustUpdate(t, ctrl, wizards.FieldDepartment, "Marketing")
	mustUpdate(t, ctrl, wizards.FieldRole, "ACCOUNTANT")

	sel := ctrl.Selection()
	if sel.Department != roles.DepartmentAccounting || sel.Role != roles.Accountant {
		t.Fatalf("expected Accounting/ACCOUNTANT, got %q/%s", sel.Department, sel.Role)
	}
}

func TestUnknownInputsDoNotMutate(t *testing.T) {
	ctrl := newTeamMember(t)
	if err := ctrl.UpdateField("nickname", "x"); !errors.Is(err, wizard.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := ctrl.UpdateField(wizards.FieldRole, "JANITOR"); !errors.Is(err, roles.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if ctrl.IsDirty() {
		t.Fatalf("rejected updates must not mark the form dirty")
	}
}

func TestSubmissionStrictness(t *testing.T) {
	ctrl := newTeamMember(t)
	fillTeamMember(t, ctrl)
	walkToEnd(t, ctrl)
	if !ctrl.IsSubmissionValid() || !ctrl.IsCurrentStepValid() {
		t.Fatalf("filled form should be valid: %v", ctrl.Errors())
	}

	if err := ctrl.GoToStep(1); err != nil {
		t.Fatalf("GoToStep: %v", err)
	}
	mustUpdate(t, ctrl, "firstName", "")
	if ctrl.IsSubmissionValid() {
		t.Fatalf("cleared firstName must invalidate submission")
	}
	if !ctrl.IsStepValid(5) {
		t.Fatalf("review step alone stays valid")
	}
}

func TestFinalStepValidatesWholeForm(t *testing.T) {
	ctrl := newTeamMember(t)
	fillTeamMember(t, ctrl)
	walkToEnd(t, ctrl)
	mustUpdate(t, ctrl, "email", "broken")

	if ctrl.IsCurrentStepValid() {
		t.Fatalf("review step must fail when an earlier step drifted")
	}
	if !ctrl.IsStepValid(ctrl.CurrentStep()) {
		t.Fatalf("the review step's own schema is still valid")
	}
}

func TestDirtyRoundTrip(t *testing.T) {
	ctrl := newTeamMember(t)
	mustUpdate(t, ctrl, "bio", "hello")
	if !ctrl.IsDirty() {
		t.Fatalf("expected dirty after UpdateField")
	}
	fillTeamMember(t, ctrl)
	ctrl.GoNext()

	ctrl.Reset()
	if ctrl.IsDirty() || ctrl.CurrentStep() != 1 {
		t.Fatalf("reset did not restore clean state")
	}
	if diff := cmp.Diff(wizards.TeamMember().Defaults(), ctrl.Values()); diff != "" {
		t.Fatalf("reset values mismatch (-want +got):\n%s", diff)
	}
}

func TestClearPermissions(t *testing.T) {
	ctrl := newTeamMember(t)
	mustUpdate(t, ctrl, wizards.FieldRole, "ADMINISTRATOR")
	ctrl.ClearPermissions()

	sel := ctrl.Selection()
	if got := sel.Flags.Granted(); len(got) != 0 {
		t.Fatalf("expected no flags, got %v", got)
	}
	if sel.Role != roles.Administrator || sel.AccessLevel != permissions.AccessAdmin {
		t.Fatalf("clear all must keep role and access level: %#v", sel)
	}
}

func TestVisiblePermissions(t *testing.T) {
	ctrl := newTeamMember(t)
	if got := len(ctrl.VisiblePermissions()); got != len(permissions.All()) {
		t.Fatalf("expected all flags without a role, got %d", got)
	}
	mustUpdate(t, ctrl, wizards.FieldRole, "MAINTENANCE_STAFF")
	if got := len(ctrl.VisiblePermissions()); got >= len(permissions.All()) {
		t.Fatalf("expected a narrowed list for maintenance, got %d", got)
	}
}

func TestTenantConditionalFields(t *testing.T) {
	ctrl, err := wizard.New(wizards.TenantOnboarding())
	if err != nil {
		t.Fatalf("wizard.New: %v", err)
	}
	mustUpdate(t, ctrl, "employmentStatus", "retired")
	mustUpdate(t, ctrl, "creditCheckConsent", true)
	if !ctrl.IsStepValid(4) {
		t.Fatalf("retired tenant needs no employer: %v", ctrl.StepErrors(4))
	}

	if ctrl.IsFieldActive("employerName") || ctrl.IsFieldActive("petDetails") {
		t.Fatalf("conditional fields should be inactive")
	}

	mustUpdate(t, ctrl, "employmentStatus", "employed")
	mustUpdate(t, ctrl, "hasPets", "true")
	if !ctrl.IsFieldActive("employerName") || !ctrl.IsFieldActive("petDetails") {
		t.Fatalf("conditional fields should be active")
	}
	got := map[string]bool{}
	for _, fe := range ctrl.StepErrors(4) {
		got[fe.Field] = true
	}
	if !got["employerName"] || !got["petDetails"] {
		t.Fatalf("expected employer and pet errors, got %v", ctrl.StepErrors(4))
	}
}

func TestTenantLeaseAssertion(t *testing.T) {
	ctrl, _ := wizard.New(wizards.TenantOnboarding())
	mustUpdate(t, ctrl, "propertyId", "prop-1")
	mustUpdate(t, ctrl, "unitId", "u-1")
	mustUpdate(t, ctrl, "leaseStart", "2026-12-01")
	mustUpdate(t, ctrl, "leaseEnd", "2026-06-01")
	mustUpdate(t, ctrl, "monthlyRent", "1800")

	errs := ctrl.StepErrors(3)
	if len(errs) != 1 || errs[0].Field != "leaseEnd" || errs[0].Rule != schema.RuleAssert {
		t.Fatalf("expected lease end assertion, got %v", errs)
	}
	mustUpdate(t, ctrl, "leaseEnd", "2027-11-30")
	if !ctrl.IsStepValid(3) {
		t.Fatalf("expected valid lease step: %v", ctrl.StepErrors(3))
	}
}

func TestTenantRejectsRoleFields(t *testing.T) {
	ctrl, _ := wizard.New(wizards.TenantOnboarding())
	if err := ctrl.UpdateField(wizards.FieldRole, "LEASING_AGENT"); !errors.Is(err, wizard.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestOptionsForStep(t *testing.T) {
	provider := options.NewStatic(map[string][]options.Option{
		wizards.SourceProperties: {{Label: "Maple Court", Value: "prop-1"}},
		wizards.SourceUnits:      {{Label: "1A", Value: "u-1", Group: "prop-1"}},
	})
	ctrl, _ := wizard.New(wizards.TenantOnboarding(), wizard.WithOptionsProvider(provider))

	got, err := ctrl.Options(context.Background(), 3)
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if len(got["propertyId"]) != 1 || len(got["unitId"]) != 1 {
		t.Fatalf("unexpected options %v", got)
	}
	if stepOne, err := ctrl.Options(context.Background(), 1); err != nil || len(stepOne) != 0 {
		t.Fatalf("step 1 has no option sources: %v %v", stepOne, err)
	}

	bare, _ := wizard.New(wizards.TenantOnboarding())
	if _, err := bare.Options(context.Background(), 3); !errors.Is(err, wizard.ErrNoOptionsProvider) {
		t.Fatalf("expected ErrNoOptionsProvider, got %v", err)
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	var kinds []wizard.EventKind
	ctrl := newTeamMember(t, wizard.WithObserver(wizard.ObserverFunc(func(ev wizard.Event) {
		kinds = append(kinds, ev.Kind)
	})))

	ctrl.GoNext()
	mustUpdate(t, ctrl, wizards.FieldDepartment, "Maintenance")
	fillTeamMember(t, ctrl)
	ctrl.GoNext()

	want := []wizard.EventKind{wizard.EventNextBlocked, wizard.EventDerived, wizard.EventDerived, wizard.EventDerived, wizard.EventStepChanged}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestObserverMayCallBack(t *testing.T) {
	var ctrl *wizard.Controller
	seen := 0
	ctrl = newTeamMember(t, wizard.WithObserver(wizard.ObserverFunc(func(ev wizard.Event) {
		if ev.Kind == wizard.EventDerived {
			seen = len(ctrl.Values())
		}
	})))
	mustUpdate(t, ctrl, wizards.FieldRole, "EXECUTIVE")
	if seen == 0 {
		t.Fatalf("observer could not read state")
	}
}

func TestSubmitRequiresSubmitter(t *testing.T) {
	ctrl := newTeamMember(t)
	if _, err := ctrl.Submit(context.Background()); !errors.Is(err, wizard.ErrNoSubmitter) {
		t.Fatalf("expected ErrNoSubmitter, got %v", err)
	}
}
