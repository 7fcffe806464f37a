package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/schema"
)

var (
	// ErrUnknownField is returned when updating a field the schema does not declare.
	ErrUnknownField = errors.New("wizard: unknown field")
	// ErrStepNotReached is returned by GoToStep for a step ahead of the current one.
	ErrStepNotReached = errors.New("wizard: step not reached")
	// ErrStepOutOfRange is returned by GoToStep for ids outside 1..N.
	ErrStepOutOfRange = errors.New("wizard: step out of range")
	// ErrSubmissionInFlight is returned while a previous Submit has not finished.
	ErrSubmissionInFlight = errors.New("wizard: submission already in progress")
	// ErrNoSubmitter is returned by Submit without a configured submitter.
	ErrNoSubmitter = errors.New("wizard: no submitter configured")
	// ErrNoUploader is returned by UploadAvatar without a configured uploader.
	ErrNoUploader = errors.New("wizard: no uploader configured")
	// ErrNoOptionsProvider is returned by Options for steps that need one.
	ErrNoOptionsProvider = errors.New("wizard: no options provider configured")
)

// ValidationError is returned by Submit when the whole form fails its schema.
type ValidationError struct {
	Errors []schema.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "wizard: form is invalid: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("wizard: form is invalid: %d field errors", len(e.Errors))
}

// Fields lists the failing field names in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Errors))
	seen := make(map[string]struct{}, len(e.Errors))
	for _, fe := range e.Errors {
		if _, ok := seen[fe.Field]; ok {
			continue
		}
		seen[fe.Field] = struct{}{}
		out = append(out, fe.Field)
	}
	return out
}

// SubmissionError wraps a failed submission. Fields and Form carry messages
// mapped from the collaborator's error payload when it provided one.
type SubmissionError struct {
	Err    error
	Fields map[string][]string
	Form   []string
}

func (e *SubmissionError) Error() string {
	var b strings.Builder
	b.WriteString("wizard: submission failed")
	if len(e.Form) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Form, "; "))
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
