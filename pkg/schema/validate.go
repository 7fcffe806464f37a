package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formwizard/pkg/visibility"
	"github.com/goliatone/go-formwizard/pkg/visibility/cel"
)

// FieldError reports one failed constraint. It is a value returned from
// validation, never raised.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Rule names reported for constraints that are not validator tags.
const (
	RuleRequired = "required"
	RuleType     = "type"
	RuleWhen     = "when"
	RuleAssert   = "assert"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,18}[0-9]$`)

// Validator checks form values against steps. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	rules    visibility.Evaluator
}

// ValidatorOption customises a Validator.
type ValidatorOption func(*Validator)

// WithEvaluator swaps the evaluator used for When rules and assertions.
func WithEvaluator(evaluator visibility.Evaluator) ValidatorOption {
	return func(v *Validator) {
		if evaluator != nil {
			v.rules = evaluator
		}
	}
}

// WithRule registers an additional validator tag.
func WithRule(tag string, fn validator.Func) ValidatorOption {
	return func(v *Validator) {
		if tag == "" || fn == nil {
			return
		}
		_ = v.validate.RegisterValidation(tag, fn)
	}
}

// NewValidator builds a validator with the phone rule registered and CEL
// rule evaluation.
func NewValidator(options ...ValidatorOption) *Validator {
	v := &Validator{
		validate: validator.New(),
		rules:    cel.New(),
	}
	_ = v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// ValidateStep checks every field and assertion of step against values.
// Fields whose When rule does not hold are skipped. The result is empty
// when the step is valid.
func (v *Validator) ValidateStep(step Step, values, extras map[string]any) []FieldError {
	ctx := visibility.Context{Values: values, Extras: extras}
	var out []FieldError

	for _, field := range step.Fields {
		active, err := v.active(field, ctx)
		if err != nil {
			out = append(out, FieldError{Field: field.Name, Rule: RuleWhen, Message: err.Error()})
			continue
		}
		if !active {
			continue
		}
		if fe, failed := v.ValidateField(field, values[field.Name]); failed {
			out = append(out, fe)
		}
	}

	for _, assertion := range step.Assertions {
		ok, err := v.rules.Eval(assertion.Field, assertion.Rule, ctx)
		if err != nil {
			out = append(out, FieldError{Field: assertion.Field, Rule: RuleAssert, Message: err.Error()})
			continue
		}
		if !ok {
			message := assertion.Message
			if message == "" {
				message = "is invalid"
			}
			out = append(out, FieldError{Field: assertion.Field, Rule: RuleAssert, Message: message})
		}
	}
	return out
}

// Active reports whether field's When rule holds for values. Fields without
// a rule are always active.
func (v *Validator) Active(field Field, values, extras map[string]any) (bool, error) {
	return v.active(field, visibility.Context{Values: values, Extras: extras})
}

func (v *Validator) active(field Field, ctx visibility.Context) (bool, error) {
	if field.When == "" {
		return true, nil
	}
	return v.rules.Eval(field.Name, field.When, ctx)
}

// ValidateField checks one value against field, ignoring any When rule.
func (v *Validator) ValidateField(field Field, value any) (FieldError, bool) {
	if field.Type == TypeBoolean {
		b, ok := value.(bool)
		if value != nil && !ok {
			return typeError(field, value), true
		}
		if field.Required && !b {
			return FieldError{Field: field.Name, Rule: RuleRequired, Message: "must be accepted"}, true
		}
		return v.applyRules(field, b, field.Rules)
	}

	if IsEmpty(field, value) {
		if field.Required {
			return FieldError{Field: field.Name, Rule: RuleRequired, Message: "is required"}, true
		}
		return FieldError{}, false
	}

	if !matchesType(field.Type, value) {
		return typeError(field, value), true
	}

	rules := field.Rules
	if field.Type == TypeDate {
		rules = joinRules("datetime="+DateLayout, rules)
	}
	return v.applyRules(field, value, rules)
}

func (v *Validator) applyRules(field Field, value any, rules string) (fe FieldError, failed bool) {
	if strings.TrimSpace(rules) == "" {
		return FieldError{}, false
	}
	defer func() {
		// validator panics on undefined tags.
		if r := recover(); r != nil {
			fe = FieldError{Field: field.Name, Rule: rules, Message: fmt.Sprintf("invalid rule: %v", r)}
			failed = true
		}
	}()

	err := v.validate.Var(value, rules)
	if err == nil {
		return FieldError{}, false
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return FieldError{
			Field:   field.Name,
			Rule:    first.Tag(),
			Message: describe(field, first.Tag(), first.Param()),
		}, true
	}
	return FieldError{Field: field.Name, Rule: rules, Message: err.Error()}, true
}

func matchesType(kind FieldType, value any) bool {
	switch kind {
	case TypeString, TypeDate:
		_, ok := value.(string)
		return ok
	case TypeInteger:
		_, ok := value.(int64)
		return ok
	case TypeNumber:
		_, ok := value.(float64)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	}
	return false
}

func typeError(field Field, value any) FieldError {
	return FieldError{
		Field:   field.Name,
		Rule:    RuleType,
		Message: fmt.Sprintf("must be a %s, got %T", field.Type, value),
	}
}

func joinRules(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, ",")
}

func describe(field Field, tag, param string) string {
	text := field.Type == TypeString
	switch tag {
	case "min":
		if text {
			return fmt.Sprintf("must be at least %s characters", param)
		}
		return "must be at least " + param
	case "max":
		if text {
			return fmt.Sprintf("must be at most %s characters", param)
		}
		return "must be at most " + param
	case "len":
		return fmt.Sprintf("must be exactly %s characters", param)
	case "gte":
		return "must be greater than or equal to " + param
	case "gt":
		return "must be greater than " + param
	case "lte":
		return "must be less than or equal to " + param
	case "lt":
		return "must be less than " + param
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "eq":
		return "must equal " + param
	}
	if param != "" {
		return fmt.Sprintf("failed %s=%s", tag, param)
	}
	return "failed " + tag
}
