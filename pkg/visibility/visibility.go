// Package visibility decides whether conditional form rules hold for the
// current wizard values. Conditional fields only take part in validation
// while their rule is true; step assertions use the same evaluator.
package visibility

// Evaluator determines whether a rule holds given the current context. The
// fieldPath names the field (or assertion) the rule belongs to and is only
// used for error messages.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values carries the wizard state
// while Extras allows callers to inject arbitrary context such as the
// operator's own access level or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Always is an Evaluator that treats every rule as satisfied.
var Always Evaluator = EvaluatorFunc(func(string, string, Context) (bool, error) {
	return true, nil
})
