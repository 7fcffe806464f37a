// Package metrics exports wizard activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Observer counts controller events. Register it with wizard.WithObserver.
type Observer struct {
	steps       *prometheus.CounterVec
	blocked     *prometheus.CounterVec
	derivations *prometheus.CounterVec
	submissions *prometheus.CounterVec
	avatars     *prometheus.CounterVec
	closes      *prometheus.CounterVec
}

var _ wizard.Observer = (*Observer)(nil)

// NewObserver registers the wizard collectors with reg. A nil reg uses the
// default registerer.
func NewObserver(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Observer{
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formwizard",
			Subsystem: "steps",
			Name:      "transitions_total",
			Help:      "Step transitions broken down by wizard and target step.",
		}, []string{"wizard", "step"}),
		blocked: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formwizard",
			Subsystem: "steps",
			Name:      "blocked_total",
			Help:      "Next attempts refused because the current step was invalid.",
		}, []string{"wizard", "step"}),
		derivations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formwizard",
			Subsystem: "permissions",
			Name:      "derivations_total",
			Help:      "Permission derivations by triggering field and outcome.",
		}, []string{"wizard", "field", "outcome"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formwizard",
			Subsystem: "submissions",
			Name:      "total",
			Help:      "Submission attempts by result (accepted, invalid, failed).",
		}, []string{"wizard", "result"}),
		avatars: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formwizard",
			Subsystem: "avatars",
			Name:      "uploads_total",
			Help:      "Avatar uploads by result.",
		}, []string{"wizard", "result"}),
		closes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "formwizard",
			Subsystem: "sessions",
			Name:      "closes_total",
			Help:      "Closed sessions, split by whether unsaved input was discarded.",
		}, []string{"wizard", "discarded"}),
	}
}

// Observe implements wizard.Observer.
func (o *Observer) Observe(ev wizard.Event) {
	switch ev.Kind {
	case wizard.EventStepChanged:
		o.steps.WithLabelValues(ev.Wizard, stepLabel(ev.To)).Inc()
	case wizard.EventNextBlocked:
		o.blocked.WithLabelValues(ev.Wizard, stepLabel(ev.From)).Inc()
	case wizard.EventDerived:
		o.derivations.WithLabelValues(ev.Wizard, ev.Field, string(ev.Outcome)).Inc()
	case wizard.EventSubmitted:
		o.submissions.WithLabelValues(ev.Wizard, "accepted").Inc()
	case wizard.EventSubmitRejected:
		o.submissions.WithLabelValues(ev.Wizard, "invalid").Inc()
	case wizard.EventSubmitFailed:
		o.submissions.WithLabelValues(ev.Wizard, "failed").Inc()
	case wizard.EventAvatarUploaded:
		o.avatars.WithLabelValues(ev.Wizard, "ok").Inc()
	case wizard.EventAvatarFailed:
		o.avatars.WithLabelValues(ev.Wizard, "error").Inc()
	case wizard.EventClosed:
		discarded := "false"
		if ev.Dirty {
			discarded = "true"
		}
		o.closes.WithLabelValues(ev.Wizard, discarded).Inc()
	}
}

var stepLabels = [...]string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

func stepLabel(step int) string {
	if step >= 0 && step < len(stepLabels) {
		return stepLabels[step]
	}
	return "other"
}
