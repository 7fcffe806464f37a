package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formwizard/internal/openapi/loader"
	"github.com/goliatone/go-formwizard/internal/openapi/parser"
	"github.com/goliatone/go-formwizard/pkg/schema"
)

var (
	// ErrComponentNotFound indicates the named component is not declared.
	ErrComponentNotFound = parser.ErrComponentNotFound
	// ErrNoSteps indicates the component carries no x-wizard-steps list.
	ErrNoSteps = errors.New("openapi: component declares no wizard steps")
	// ErrUnassignedProperty indicates a property without a valid x-wizard-step.
	ErrUnassignedProperty = errors.New("openapi: property is not assigned to a step")
)

const (
	extSteps      = "x-wizard-steps"
	extAssertions = "x-wizard-assertions"
	extName       = "x-wizard-name"
	extStep       = "x-wizard-step"
	extOrder      = "x-wizard-order"
	extLabel      = "x-wizard-label"
	extWhen       = "x-wizard-when"
	extRules      = "x-wizard-rules"
	extSanitize   = "x-wizard-sanitize"
	extOptions    = "x-wizard-options"
)

// Option configures an Importer.
type Option func(*Importer)

// WithFS reads every non-URL location from fsys.
func WithFS(fsys fs.FS) Option {
	return func(i *Importer) {
		i.loaderOpts.FileSystem = fsys
	}
}

// WithHTTPClient enables http(s) document locations.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Importer) {
		i.loaderOpts.HTTPClient = client
	}
}

// WithTimeout bounds remote document fetches.
func WithTimeout(timeout time.Duration) Option {
	return func(i *Importer) {
		i.loaderOpts.Timeout = timeout
	}
}

// WithResolveReferences allows external $ref targets and validates the
// document before conversion.
func WithResolveReferences(enabled bool) Option {
	return func(i *Importer) {
		i.parserOpts.ResolveReferences = enabled
	}
}

// Importer loads documents and converts one component into a schema.
type Importer struct {
	loaderOpts loader.Options
	parserOpts parser.Options
	loader     *loader.Loader
	parser     *parser.Parser
}

// NewImporter constructs an Importer.
func NewImporter(opts ...Option) *Importer {
	i := &Importer{}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	i.loader = loader.New(i.loaderOpts)
	i.parser = parser.New(i.parserOpts)
	return i
}

// Import loads the document at location and converts component.
func (i *Importer) Import(ctx context.Context, location, component string) (schema.Schema, error) {
	raw, err := i.loader.Load(ctx, location)
	if err != nil {
		return schema.Schema{}, err
	}
	return i.FromData(ctx, raw, component)
}

// FromData converts component from an in-memory document (JSON or YAML).
func (i *Importer) FromData(ctx context.Context, raw []byte, component string) (schema.Schema, error) {
	comp, err := i.parser.Component(ctx, raw, component)
	if err != nil {
		return schema.Schema{}, err
	}
	return convert(comp)
}

// ImportSteps converts component from raw using default options.
func ImportSteps(ctx context.Context, raw []byte, component string) (schema.Schema, error) {
	return NewImporter().FromData(ctx, raw, component)
}

type stepExtension struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type assertionExtension struct {
	Step    int    `json:"step"`
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type ordered struct {
	order int
	field schema.Field
	step  int
}

func convert(comp parser.Component) (schema.Schema, error) {
	var steps []stepExtension
	if err := extension(comp.Extensions, extSteps, &steps); err != nil {
		return schema.Schema{}, err
	}
	if len(steps) == 0 {
		return schema.Schema{}, fmt.Errorf("%w: %s", ErrNoSteps, comp.Name)
	}
	sort.SliceStable(steps, func(a, b int) bool { return steps[a].ID < steps[b].ID })

	out := schema.Schema{
		Name:  strings.ToLower(comp.Name),
		Title: comp.Title,
	}
	if err := extension(comp.Extensions, extName, &out.Name); err != nil {
		return schema.Schema{}, err
	}

	index := make(map[int]int, len(steps))
	for idx, step := range steps {
		index[step.ID] = idx
		out.Steps = append(out.Steps, schema.Step{
			ID:          step.ID,
			Title:       step.Title,
			Description: step.Description,
		})
	}

	var fields []ordered
	for _, prop := range comp.Properties {
		if prop.ReadOnly {
			continue
		}
		var stepID int
		if err := extension(prop.Extensions, extStep, &stepID); err != nil {
			return schema.Schema{}, err
		}
		if _, ok := index[stepID]; !ok {
			return schema.Schema{}, fmt.Errorf("%w: %s", ErrUnassignedProperty, prop.Name)
		}
		field, err := convertProperty(prop)
		if err != nil {
			return schema.Schema{}, err
		}
		entry := ordered{field: field, step: stepID}
		if err := extension(prop.Extensions, extOrder, &entry.order); err != nil {
			return schema.Schema{}, err
		}
		fields = append(fields, entry)

		if prop.Pattern != "" {
			step := &out.Steps[index[stepID]]
			step.Assertions = append(step.Assertions, patternAssertion(field, prop.Pattern))
		}
	}
	// Properties arrive sorted by name, so a stable sort keeps name order
	// among equal x-wizard-order values.
	sort.SliceStable(fields, func(a, b int) bool { return fields[a].order < fields[b].order })
	for _, entry := range fields {
		step := &out.Steps[index[entry.step]]
		step.Fields = append(step.Fields, entry.field)
	}

	var assertions []assertionExtension
	if err := extension(comp.Extensions, extAssertions, &assertions); err != nil {
		return schema.Schema{}, err
	}
	for _, a := range assertions {
		idx, ok := index[a.Step]
		if !ok {
			return schema.Schema{}, fmt.Errorf("openapi: assertion on %q references unknown step %d", a.Field, a.Step)
		}
		out.Steps[idx].Assertions = append(out.Steps[idx].Assertions, schema.Assertion{
			Field:   a.Field,
			Rule:    a.Rule,
			Message: a.Message,
		})
	}

	if err := out.Check(); err != nil {
		return schema.Schema{}, fmt.Errorf("openapi: %s: %w", comp.Name, err)
	}
	return out, nil
}

func convertProperty(prop parser.Property) (schema.Field, error) {
	field := schema.Field{
		Name:     prop.Name,
		Label:    prop.Title,
		Required: prop.Required,
		Default:  prop.Default,
	}
	var rules []string

	switch prop.Type {
	case "string", "":
		field.Type = schema.TypeString
		switch prop.Format {
		case "date":
			field.Type = schema.TypeDate
		case "email":
			rules = append(rules, "email")
		case "uri", "url":
			rules = append(rules, "url")
		}
		if prop.MinLength > 0 {
			rules = append(rules, "min="+strconv.FormatUint(prop.MinLength, 10))
		}
		if prop.MaxLength != nil {
			rules = append(rules, "max="+strconv.FormatUint(*prop.MaxLength, 10))
		}
	case "integer":
		field.Type = schema.TypeInteger
		rules = append(rules, boundRules(prop)...)
	case "number":
		field.Type = schema.TypeNumber
		rules = append(rules, boundRules(prop)...)
	case "boolean":
		field.Type = schema.TypeBoolean
	default:
		return schema.Field{}, fmt.Errorf("openapi: property %q has unsupported type %q", prop.Name, prop.Type)
	}

	if len(prop.Enum) > 0 && field.Type != schema.TypeBoolean {
		rules = append(rules, "oneof="+enumValues(prop.Enum))
	}

	var extra string
	if err := extension(prop.Extensions, extRules, &extra); err != nil {
		return schema.Field{}, err
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		rules = append(rules, extra)
	}
	field.Rules = strings.Join(rules, ",")

	for key, target := range map[string]any{
		extLabel:    &field.Label,
		extWhen:     &field.When,
		extSanitize: &field.Sanitize,
		extOptions:  &field.OptionsSource,
	} {
		if err := extension(prop.Extensions, key, target); err != nil {
			return schema.Field{}, err
		}
	}
	return field, nil
}

func boundRules(prop parser.Property) []string {
	var rules []string
	if prop.Min != nil {
		rules = append(rules, "gte="+strconv.FormatFloat(*prop.Min, 'f', -1, 64))
	}
	if prop.Max != nil {
		rules = append(rules, "lte="+strconv.FormatFloat(*prop.Max, 'f', -1, 64))
	}
	return rules
}

func enumValues(values []any) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		text := fmt.Sprint(value)
		if strings.ContainsRune(text, ' ') {
			text = "'" + text + "'"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// patternAssertion expresses pattern as a CEL rule. Validator tags cannot
// carry arbitrary regular expressions.
func patternAssertion(field schema.Field, pattern string) schema.Assertion {
	ref := "values." + field.Name
	return schema.Assertion{
		Field:   field.Name,
		Rule:    ref + ` == "" || ` + ref + ".matches(" + strconv.Quote(pattern) + ")",
		Message: field.DisplayLabel() + " has an invalid format",
	}
}

// extension decodes ext[key] into target. Missing keys leave target as is.
// Values may arrive decoded or as raw JSON depending on the loader.
func extension(ext map[string]any, key string, target any) error {
	value, ok := ext[key]
	if !ok || value == nil {
		return nil
	}
	raw, ok := value.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(value); err != nil {
			return fmt.Errorf("openapi: encode %s: %w", key, err)
		}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("openapi: decode %s: %w", key, err)
	}
	return nil
}
