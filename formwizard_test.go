package formwizard_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	formwizard "github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

func TestOpenBundledWizards(t *testing.T) {
	if diff := cmp.Diff([]string{wizards.TeamMemberName, wizards.TenantName}, formwizard.Wizards()); diff != "" {
		t.Fatalf("wizards mismatch (-want +got):\n%s", diff)
	}
	for _, name := range formwizard.Wizards() {
		ctrl, err := formwizard.Open(name)
		if err != nil {
			t.Fatalf("Open(%s): %v", name, err)
		}
		if ctrl.CurrentStep() != 1 || ctrl.IsDirty() {
			t.Fatalf("%s should start clean on step 1", name)
		}
	}
	if _, err := formwizard.Open("vendor"); !errors.Is(err, wizards.ErrUnknownWizard) {
		t.Fatalf("expected ErrUnknownWizard, got %v", err)
	}
}

func TestImportSchemaOpensController(t *testing.T) {
	const doc = `
openapi: 3.0.3
info: {title: Vendors, version: "1"}
paths: {}
components:
  schemas:
    Vendor:
      type: object
      required: [company]
      x-wizard-steps:
        - {id: 1, title: Company}
      properties:
        company: {type: string, x-wizard-step: 1}
`
	fsys := fstest.MapFS{"vendor.yaml": {Data: []byte(doc)}}
	s, err := formwizard.ImportSchema(context.Background(), "vendor.yaml", "Vendor", openapi.WithFS(fsys))
	if err != nil {
		t.Fatalf("ImportSchema: %v", err)
	}
	ctrl, err := formwizard.OpenSchema(s)
	if err != nil {
		t.Fatalf("OpenSchema: %v", err)
	}
	if ctrl.IsSubmissionValid() {
		t.Fatalf("required company should block submission")
	}
	if err := ctrl.UpdateField("company", "Acme Plumbing"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if !ctrl.IsSubmissionValid() {
		t.Fatalf("expected valid submission: %v", ctrl.Errors())
	}
}
