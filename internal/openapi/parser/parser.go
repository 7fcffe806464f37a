package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrComponentNotFound reports a component name missing from
// components.schemas.
var ErrComponentNotFound = errors.New("openapi parser: component not found")

// Options tunes document loading.
type Options struct {
	// ResolveReferences allows external $ref targets and validates the
	// document after loading.
	ResolveReferences bool
}

// Property is one flattened component property.
type Property struct {
	Name        string
	Type        string
	Format      string
	Title       string
	Description string
	Required    bool
	ReadOnly    bool
	Default     any
	Enum        []any
	Min         *float64
	Max         *float64
	MinLength   uint64
	MaxLength   *uint64
	Pattern     string
	Extensions  map[string]any
}

// Component is an object schema with its properties flattened across allOf.
type Component struct {
	Name        string
	Title       string
	Description string
	Properties  []Property
	Extensions  map[string]any
}

// Parser reads components out of OpenAPI documents using kin-openapi.
type Parser struct {
	options Options
}

// New constructs a Parser with the given options.
func New(options Options) *Parser {
	return &Parser{options: options}
}

// Component loads raw and returns the named component schema.
func (p *Parser) Component(ctx context.Context, raw []byte, name string) (Component, error) {
	if err := ctx.Err(); err != nil {
		return Component{}, err
	}
	if len(raw) == 0 {
		return Component{}, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return Component{}, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.ResolveReferences {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return Component{}, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}

	if doc.Components == nil {
		return Component{}, fmt.Errorf("%w: %s", ErrComponentNotFound, name)
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return Component{}, fmt.Errorf("%w: %s", ErrComponentNotFound, name)
	}

	src := ref.Value
	component := Component{
		Name:        name,
		Title:       src.Title,
		Description: src.Description,
		Extensions:  cloneExtensions(src.Extensions),
	}

	required := map[string]bool{}
	properties := map[string]*openapi3.Schema{}
	collect(src, required, properties, map[*openapi3.Schema]bool{})

	for propName, prop := range properties {
		component.Properties = append(component.Properties, convertProperty(propName, prop, required[propName]))
	}
	sort.Slice(component.Properties, func(i, j int) bool {
		return component.Properties[i].Name < component.Properties[j].Name
	})
	return component, nil
}

// collect merges properties and required names from s and its allOf members.
// Later members override earlier ones.
func collect(s *openapi3.Schema, required map[string]bool, properties map[string]*openapi3.Schema, seen map[*openapi3.Schema]bool) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true

	for _, member := range s.AllOf {
		if member != nil {
			collect(member.Value, required, properties, seen)
		}
	}
	for _, name := range s.Required {
		required[name] = true
	}
	for name, prop := range s.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		properties[name] = prop.Value
	}
}

func convertProperty(name string, src *openapi3.Schema, required bool) Property {
	prop := Property{
		Name:        name,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Title:       src.Title,
		Description: src.Description,
		Required:    required,
		ReadOnly:    src.ReadOnly,
		Default:     src.Default,
		Min:         src.Min,
		Max:         src.Max,
		MinLength:   src.MinLength,
		MaxLength:   src.MaxLength,
		Pattern:     src.Pattern,
		Extensions:  cloneExtensions(src.Extensions),
	}
	if len(src.Enum) > 0 {
		prop.Enum = append([]any(nil), src.Enum...)
	}
	return prop
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		// Nullable unions like ["string","null"] keep the concrete type.
		for _, v := range values {
			if v != "null" {
				return v
			}
		}
		return strings.Join(values, ",")
	}
}

// extensionPrefix scopes the extensions carried over from the document.
const extensionPrefix = "x-wizard"

func cloneExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]any)
	for key, value := range raw {
		if strings.HasPrefix(key, extensionPrefix) {
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
