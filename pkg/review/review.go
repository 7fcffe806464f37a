// Package review renders a plain-text summary of a wizard's entered values,
// grouped by step, for the final review page.
package review

import (
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formwizard/pkg/schema"
)

//go:embed templates/*.tpl
var templates embed.FS

const defaultTemplate = "summary.tpl"

// Entry is one labelled value.
type Entry struct {
	Field string
	Label string
	Value string
}

// Section groups entries under a step title.
type Section struct {
	Step    int
	Title   string
	Entries []Entry
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplate replaces the bundled template with pongo2 source.
func WithTemplate(source string) Option {
	return func(r *Renderer) {
		r.source = source
	}
}

// WithSkipStep leaves a step out of the summary, usually the review step
// itself.
func WithSkipStep(id int) Option {
	return func(r *Renderer) {
		if r.skip == nil {
			r.skip = make(map[int]bool)
		}
		r.skip[id] = true
	}
}

// WithShowEmpty keeps fields without a value in the summary.
func WithShowEmpty(show bool) Option {
	return func(r *Renderer) {
		r.showEmpty = show
	}
}

// Renderer turns form state into review text.
type Renderer struct {
	set       *pongo2.TemplateSet
	source    string
	skip      map[int]bool
	showEmpty bool

	once sync.Once
	tmpl *pongo2.Template
	err  error
}

// New constructs a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		set: pongo2.NewSet("review", pongo2.NewFSLoader(templates)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Sections builds the grouped entries without rendering them.
func (r *Renderer) Sections(s schema.Schema, values map[string]any) []Section {
	sections := make([]Section, 0, len(s.Steps))
	for _, step := range s.Steps {
		if r.skip[step.ID] {
			continue
		}
		section := Section{Step: step.ID, Title: step.Title}
		for _, field := range step.Fields {
			value := values[field.Name]
			if !r.showEmpty && schema.IsEmpty(field, value) {
				continue
			}
			section.Entries = append(section.Entries, Entry{
				Field: field.Name,
				Label: field.DisplayLabel(),
				Value: FormatValue(value),
			})
		}
		sections = append(sections, section)
	}
	return sections
}

// Render returns the summary text for values.
func (r *Renderer) Render(s schema.Schema, values map[string]any) (string, error) {
	tmpl, err := r.template()
	if err != nil {
		return "", err
	}
	title := s.Title
	if title == "" {
		title = s.Name
	}
	out, err := tmpl.Execute(pongo2.Context{
		"title":    title,
		"sections": r.Sections(s, values),
	})
	if err != nil {
		return "", fmt.Errorf("review: execute template: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func (r *Renderer) template() (*pongo2.Template, error) {
	r.once.Do(func() {
		if r.set == nil {
			r.err = errors.New("review: renderer is not initialised")
			return
		}
		if r.source != "" {
			r.tmpl, r.err = r.set.FromString(r.source)
		} else {
			r.tmpl, r.err = r.set.FromFile("templates/" + defaultTemplate)
		}
		if r.err != nil {
			r.err = fmt.Errorf("review: parse template: %w", r.err)
		}
	})
	return r.tmpl, r.err
}

// FormatValue renders a single value the way the summary shows it.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
