package openapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/openapi"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/testsupport"
)

func fixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/applicant.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return raw
}

func TestImportStepsBuildsSchema(t *testing.T) {
	got, err := openapi.ImportSteps(context.Background(), fixture(t), "Applicant")
	if err != nil {
		t.Fatalf("ImportSteps: %v", err)
	}

	const golden = "testdata/applicant.golden.json"
	testsupport.WriteGolden(t, golden, got)
	want := testsupport.MustLoadSchema(t, golden)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestImportedSchemaValidates(t *testing.T) {
	s, err := openapi.ImportSteps(context.Background(), fixture(t), "Applicant")
	if err != nil {
		t.Fatalf("ImportSteps: %v", err)
	}
	step, _ := s.Step(1)
	errs := schema.NewValidator().ValidateStep(step, map[string]any{
		"firstName": "Ada",
		"email":     "ada@example.com",
		"postcode":  "12AB",
	}, nil)
	if len(errs) != 1 || errs[0].Field != "postcode" {
		t.Fatalf("expected only the pattern to fail, got %v", errs)
	}
}

func TestImportStepsErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := openapi.ImportSteps(ctx, fixture(t), "Missing"); !errors.Is(err, openapi.ErrComponentNotFound) {
		t.Fatalf("expected ErrComponentNotFound, got %v", err)
	}
	if _, err := openapi.ImportSteps(ctx, fixture(t), "Contact"); !errors.Is(err, openapi.ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}

	const unassigned = `{
  "openapi": "3.0.3",
  "info": {"title": "x", "version": "1"},
  "paths": {},
  "components": {"schemas": {"Form": {
    "type": "object",
    "x-wizard-steps": [{"id": 1, "title": "Only"}],
    "properties": {"stray": {"type": "string"}}
  }}}
}`
	if _, err := openapi.ImportSteps(ctx, []byte(unassigned), "Form"); !errors.Is(err, openapi.ErrUnassignedProperty) {
		t.Fatalf("expected ErrUnassignedProperty, got %v", err)
	}
}

func TestImporterReadsFromFSAndHTTP(t *testing.T) {
	raw := fixture(t)
	ctx := context.Background()

	fromFS, err := openapi.NewImporter(openapi.WithFS(fstest.MapFS{
		"specs/applicant.yaml": {Data: raw},
	})).Import(ctx, "specs/applicant.yaml", "Applicant")
	if err != nil {
		t.Fatalf("Import fs: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	fromHTTP, err := openapi.NewImporter(openapi.WithHTTPClient(srv.Client())).Import(ctx, srv.URL+"/applicant.yaml", "Applicant")
	if err != nil {
		t.Fatalf("Import http: %v", err)
	}
	if diff := cmp.Diff(fromFS, fromHTTP); diff != "" {
		t.Fatalf("sources disagree (-fs +http):\n%s", diff)
	}

	if _, err := openapi.NewImporter().Import(ctx, srv.URL, "Applicant"); err == nil {
		t.Fatalf("expected http to be disabled without a client")
	}
}
