package wizard

import "github.com/goliatone/go-formwizard/pkg/derivation"

// EventKind names something the controller did.
type EventKind string

const (
	EventStepChanged    EventKind = "step_changed"
	EventNextBlocked    EventKind = "next_blocked"
	EventDerived        EventKind = "derived"
	EventReset          EventKind = "reset"
	EventSubmitted      EventKind = "submitted"
	EventSubmitRejected EventKind = "submit_rejected"
	EventSubmitFailed   EventKind = "submit_failed"
	EventAvatarUploaded EventKind = "avatar_uploaded"
	EventAvatarFailed   EventKind = "avatar_failed"
	EventClosed         EventKind = "closed"
	EventCloseRequested EventKind = "close_requested"
	EventCloseDismissed EventKind = "close_dismissed"
)

// Event is delivered to observers after the controller releases its lock,
// so observers may call back into the controller.
type Event struct {
	Kind    EventKind
	Wizard  string
	From    int
	To      int
	Field   string
	Outcome derivation.Outcome
	Dirty   bool
	Err     error
}

// Observer receives controller events.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(Event)

// Observe calls fn.
func (fn ObserverFunc) Observe(ev Event) {
	fn(ev)
}

type observers []Observer

func (o observers) Observe(ev Event) {
	for _, obs := range o {
		obs.Observe(ev)
	}
}
