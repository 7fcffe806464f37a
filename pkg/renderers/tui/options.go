package tui

import "github.com/goliatone/go-formwizard/pkg/review"

// Theme captures optional formatting hints the driver can apply when printing
// messages. Keep minimal to avoid coupling session logic to ANSI specifics.
type Theme struct {
	StepPrefix  string
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithReview overrides the summary printed on the final step.
func WithReview(renderer *review.Renderer) Option {
	return func(s *Session) {
		if renderer != nil {
			s.review = renderer
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}
