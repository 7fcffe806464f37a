// Package cel evaluates visibility rules written in the Common Expression
// Language. Rules see two variables: `values`, the wizard state keyed by
// field name, and `extras`, caller supplied context.
//
//	values.employmentStatus == "employed"
//	values.hasPets && extras.petsAllowed
//	values.leaseEnd > values.leaseStart
package cel

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// ErrNotBoolean is returned when a rule evaluates to a non-boolean value.
var ErrNotBoolean = errors.New("visibility: rule did not evaluate to a boolean")

// Evaluator compiles rules once and caches the resulting programs. It is
// safe for concurrent use.
type Evaluator struct {
	envOnce sync.Once
	env     *cel.Env
	envErr  error

	programs sync.Map
}

var _ visibility.Evaluator = (*Evaluator)(nil)

// New returns an evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{}
}

// Eval compiles (or reuses) rule and evaluates it against ctx. Empty rules
// always hold.
func (e *Evaluator) Eval(fieldPath, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}

	program, err := e.program(trimmed)
	if err != nil {
		return false, fmt.Errorf("visibility: %s: %w", fieldPath, err)
	}

	values := ctx.Values
	if values == nil {
		values = map[string]any{}
	}
	extras := ctx.Extras
	if extras == nil {
		extras = map[string]any{}
	}

	out, _, err := program.Eval(map[string]any{
		"values": values,
		"extras": extras,
	})
	if err != nil {
		return false, fmt.Errorf("visibility: %s: %w", fieldPath, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s (%q)", ErrNotBoolean, fieldPath, trimmed)
	}
	return result, nil
}

// Compile checks a rule without evaluating it, for validating schemas at
// startup.
func (e *Evaluator) Compile(rule string) error {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil
	}
	_, err := e.program(trimmed)
	return err
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	if cached, ok := e.programs.Load(expr); ok {
		return cached.(cel.Program), nil
	}

	env, err := e.environment()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.programs.Store(expr, program)
	return program, nil
}

func (e *Evaluator) environment() (*cel.Env, error) {
	e.envOnce.Do(func() {
		e.env, e.envErr = cel.NewEnv(
			cel.Variable("values", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("extras", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return e.env, e.envErr
}
