package submit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/submit"
)

func TestMapErrorPayload(t *testing.T) {
	fields := []string{"firstName", "email", "phone"}
	payload := map[string][]string{
		"/body/email":      {"already registered", " already registered "},
		"data.phone":       {"invalid"},
		"/body/unknown":    {"oops"},
		"non_field_errors": {"try again later"},
		"FirstName":        {"too short"},
	}

	got := submit.MapErrorPayload(fields, payload)
	wantFields := map[string][]string{
		"email":     {"already registered"},
		"phone":     {"invalid"},
		"firstName": {"too short"},
	}
	if diff := cmp.Diff(wantFields, got.Fields); diff != "" {
		t.Fatalf("field mapping mismatch (-want +got):\n%s", diff)
	}
	if len(got.Form) != 2 {
		t.Fatalf("expected two form messages, got %v", got.Form)
	}
}

func TestMapErrorPayloadEmpty(t *testing.T) {
	got := submit.MapErrorPayload([]string{"email"}, nil)
	if !got.Empty() {
		t.Fatalf("expected empty mapping, got %#v", got)
	}
}

func TestMergeFormErrors(t *testing.T) {
	got := submit.MergeFormErrors([]string{"a", " b "}, "b", "", "c")
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitize(t *testing.T) {
	s := schema.Schema{Steps: []schema.Step{{
		ID: 1,
		Fields: []schema.Field{
			{Name: "bio", Type: schema.TypeString, Sanitize: true},
			{Name: "email", Type: schema.TypeString},
		},
	}}}
	values := map[string]any{
		"bio":   `<b>Quiet</b> cat & dog<script>alert(1)</script>`,
		"email": "<a@example.com>",
	}

	got := submit.Sanitize(s, values)
	want := map[string]any{"bio": "Quiet cat & dog", "email": "<a@example.com>"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitize mismatch (-want +got):\n%s", diff)
	}
	if values["bio"] == got["bio"] {
		t.Fatalf("input map was mutated")
	}
}

func TestHTTPSubmitterSuccess(t *testing.T) {
	var received map[string]any
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("Idempotency-Key")
		if r.Header.Get("Authorization") != "Bearer t" {
			t.Errorf("missing auth header")
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42, "email": "ada@example.com"}`))
	}))
	defer srv.Close()

	sub, err := submit.NewHTTP(srv.URL, submit.WithHeader("Authorization", "Bearer t"))
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	res, err := sub.Submit(context.Background(), map[string]any{"email": "ada@example.com"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ID != "42" || res.Status != http.StatusCreated {
		t.Fatalf("unexpected result %#v", res)
	}
	if received["email"] != "ada@example.com" {
		t.Fatalf("server did not get payload: %v", received)
	}
	if key == "" {
		t.Fatalf("expected idempotency key")
	}
}

func TestHTTPSubmitterRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "validation failed", "errors": {"/body/email": ["taken"], "form": "retry"}}`))
	}))
	defer srv.Close()

	sub, _ := submit.NewHTTP(srv.URL)
	_, err := sub.Submit(context.Background(), map[string]any{})

	var remote *submit.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Status != http.StatusUnprocessableEntity || remote.Message != "validation failed" {
		t.Fatalf("unexpected remote error %#v", remote)
	}
	want := map[string][]string{"/body/email": {"taken"}, "form": {"retry"}}
	if diff := cmp.Diff(want, remote.Payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNewHTTPRequiresEndpoint(t *testing.T) {
	if _, err := submit.NewHTTP("  "); !errors.Is(err, submit.ErrEndpointRequired) {
		t.Fatalf("expected ErrEndpointRequired, got %v", err)
	}
}
