package wizard

import (
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/derivation"
	"github.com/goliatone/go-formwizard/pkg/options"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/submit"
	"github.com/goliatone/go-formwizard/pkg/upload"
)

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitter sets the persistence collaborator used by Submit.
func WithSubmitter(submitter submit.Submitter) Option {
	return func(c *Controller) {
		c.submitter = submitter
	}
}

// WithUploader sets the avatar storage collaborator.
func WithUploader(uploader upload.Uploader) Option {
	return func(c *Controller) {
		c.uploader = uploader
	}
}

// WithOptionsProvider sets the source of select options.
func WithOptionsProvider(provider options.Provider) Option {
	return func(c *Controller) {
		c.options = provider
	}
}

// WithLogger attaches a logger. Defaults to a logger that discards output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an observer. It may be given more than once.
func WithObserver(observer Observer) Option {
	return func(c *Controller) {
		if observer != nil {
			c.observers = append(c.observers, observer)
		}
	}
}

// WithValidator overrides the schema validator.
func WithValidator(validator *schema.Validator) Option {
	return func(c *Controller) {
		if validator != nil {
			c.validator = validator
		}
	}
}

// WithEngine overrides the permission derivation engine.
func WithEngine(engine *derivation.Engine) Option {
	return func(c *Controller) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithExtras exposes additional values to conditional rules as `extras`.
func WithExtras(extras map[string]any) Option {
	return func(c *Controller) {
		c.extras = make(map[string]any, len(extras))
		for key, value := range extras {
			c.extras[key] = value
		}
	}
}
