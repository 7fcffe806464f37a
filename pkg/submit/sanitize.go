package submit

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formwizard/pkg/schema"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Sanitize returns a copy of values with markup stripped from every field
// flagged Sanitize in s. Other values are copied unchanged.
func Sanitize(s schema.Schema, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	for _, step := range s.Steps {
		for _, field := range step.Fields {
			if !field.Sanitize {
				continue
			}
			if text, ok := out[field.Name].(string); ok {
				out[field.Name] = SanitizeText(text)
			}
		}
	}
	return out
}

// SanitizeText strips every HTML element from raw and returns plain text.
func SanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	cleaned := strings.TrimSpace(textSanitizer().Sanitize(trimmed))
	plain := html.UnescapeString(cleaned)
	// Escaped markup typed as text stays escaped.
	if strings.ContainsAny(plain, "<>") {
		return cleaned
	}
	return plain
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
