// Package schema describes wizard steps and the field constraints each step
// must satisfy, and validates form values against them.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is the value kind a field holds in form state.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	// TypeDate holds an ISO 8601 calendar date ("2006-01-02") as a string.
	TypeDate FieldType = "date"
)

// Field is a single constraint entry inside a step.
type Field struct {
	Name  string    `json:"name" yaml:"name"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type  FieldType `json:"type" yaml:"type"`
	// Required fields must be non-empty. Required booleans must be true.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
	// Rules is a validator tag list such as "min=2,max=50" or "email".
	Rules   string `json:"rules,omitempty" yaml:"rules,omitempty"`
	Default any    `json:"default,omitempty" yaml:"default,omitempty"`
	// When limits validation of the field to states where the rule holds.
	When          string `json:"when,omitempty" yaml:"when,omitempty"`
	Sanitize      bool   `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
	OptionsSource string `json:"optionsSource,omitempty" yaml:"optionsSource,omitempty"`
}

// Assertion is a cross-field rule attached to a step. Field names the input
// the message is reported against.
type Assertion struct {
	Field   string `json:"field" yaml:"field"`
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`
}

// Step is one page of the wizard.
type Step struct {
	ID          int         `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field     `json:"fields,omitempty" yaml:"fields,omitempty"`
	Assertions  []Assertion `json:"assertions,omitempty" yaml:"assertions,omitempty"`
}

// Field looks up a field declared on the step.
func (s Step) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames lists the step's fields in declaration order.
func (s Step) FieldNames() []string {
	out := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		out = append(out, field.Name)
	}
	return out
}

// Schema is the ordered list of steps of one wizard.
type Schema struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Len returns the number of steps.
func (s Schema) Len() int {
	return len(s.Steps)
}

// Step returns the step with the given 1-based id.
func (s Schema) Step(id int) (Step, bool) {
	if id < 1 || id > len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[id-1], true
}

// Merged returns a synthetic step holding every field and assertion of every
// step, the whole-form schema.
func (s Schema) Merged() Step {
	merged := Step{Title: s.Title}
	for _, step := range s.Steps {
		merged.Fields = append(merged.Fields, step.Fields...)
		merged.Assertions = append(merged.Assertions, step.Assertions...)
	}
	return merged
}

// Field finds a field across all steps.
func (s Schema) Field(name string) (Field, bool) {
	for _, step := range s.Steps {
		if field, ok := step.Field(name); ok {
			return field, true
		}
	}
	return Field{}, false
}

// StepOf returns the id of the step declaring name, or 0.
func (s Schema) StepOf(name string) int {
	for _, step := range s.Steps {
		if _, ok := step.Field(name); ok {
			return step.ID
		}
	}
	return 0
}

// Defaults builds the initial form state. Fields without a declared default
// start at the zero value of their type: "" for strings and dates, false for
// booleans, nil for numbers.
func (s Schema) Defaults() map[string]any {
	out := make(map[string]any)
	for _, step := range s.Steps {
		for _, field := range step.Fields {
			out[field.Name] = field.defaultValue()
		}
	}
	return out
}

func (f Field) defaultValue() any {
	if f.Default != nil {
		if value, err := Coerce(f, f.Default); err == nil {
			return value
		}
		return f.Default
	}
	switch f.Type {
	case TypeBoolean:
		return false
	case TypeInteger, TypeNumber:
		return nil
	default:
		return ""
	}
}

// DisplayLabel returns the label, falling back to the field name.
func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Name
}

// Check verifies the schema's structure: step ids run 1..N in order, field
// names are unique across steps, and assertions reference declared fields.
func (s Schema) Check() error {
	if len(s.Steps) == 0 {
		return errors.New("schema: at least one step is required")
	}
	seen := make(map[string]int)
	for idx, step := range s.Steps {
		if step.ID != idx+1 {
			return fmt.Errorf("schema: step %d has id %d", idx+1, step.ID)
		}
		for _, field := range step.Fields {
			if strings.TrimSpace(field.Name) == "" {
				return fmt.Errorf("schema: step %d declares a field without a name", step.ID)
			}
			if prev, dup := seen[field.Name]; dup {
				return fmt.Errorf("schema: field %q declared in steps %d and %d", field.Name, prev, step.ID)
			}
			switch field.Type {
			case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDate:
			default:
				return fmt.Errorf("schema: field %q has unsupported type %q", field.Name, field.Type)
			}
			seen[field.Name] = step.ID
		}
	}
	for _, step := range s.Steps {
		for _, assertion := range step.Assertions {
			if _, ok := seen[assertion.Field]; !ok {
				return fmt.Errorf("schema: step %d assertion targets unknown field %q", step.ID, assertion.Field)
			}
		}
	}
	return nil
}
