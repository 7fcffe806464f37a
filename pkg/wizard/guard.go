package wizard

import "sync"

// Key is an input the guard reacts to.
type Key int

const (
	KeyNone Key = iota
	KeyEscape
)

// Labels used on the unsaved-changes prompt.
const (
	CloseTitle        = "Unsaved changes"
	CloseMessage      = "You have unsaved changes. Closing now will discard everything entered so far."
	CloseConfirmLabel = "Close Without Saving"
	CloseCancelLabel  = "Continue Editing"
)

// Guard intercepts close requests for a controller and asks for
// confirmation while the form is dirty. There is no autosave.
type Guard struct {
	ctrl    *Controller
	onClose func()
}

// NewGuard guards ctrl. onClose runs whenever the wizard actually closes.
func NewGuard(ctrl *Controller, onClose func()) *Guard {
	if onClose == nil {
		onClose = func() {}
	}
	return &Guard{ctrl: ctrl, onClose: onClose}
}

// ConfirmationRequest is the prompt produced when closing a dirty form.
// Exactly one of Confirm or Dismiss takes effect.
type ConfirmationRequest struct {
	Title        string
	Message      string
	ConfirmLabel string
	CancelLabel  string

	once    sync.Once
	confirm func()
	dismiss func()
}

// Confirm discards the form and closes the wizard.
func (r *ConfirmationRequest) Confirm() {
	r.once.Do(r.confirm)
}

// Dismiss keeps the wizard open with its state intact.
func (r *ConfirmationRequest) Dismiss() {
	r.once.Do(r.dismiss)
}

// RequestClose closes immediately when the form is clean and returns nil.
// A dirty form returns a confirmation request instead.
func (g *Guard) RequestClose() *ConfirmationRequest {
	name := g.ctrl.schema.Name
	if !g.ctrl.IsDirty() {
		g.close(false)
		return nil
	}

	g.ctrl.logger.WithField("wizard", name).Debug("close requested with unsaved changes")
	g.ctrl.emit(Event{Kind: EventCloseRequested, Wizard: name, Dirty: true})
	return &ConfirmationRequest{
		Title:        CloseTitle,
		Message:      CloseMessage,
		ConfirmLabel: CloseConfirmLabel,
		CancelLabel:  CloseCancelLabel,
		confirm: func() {
			g.ctrl.Reset()
			g.close(true)
		},
		dismiss: func() {
			g.ctrl.emit(Event{Kind: EventCloseDismissed, Wizard: name, Dirty: true})
		},
	}
}

// HandleKey routes Escape to RequestClose. Other keys return nil.
func (g *Guard) HandleKey(key Key) *ConfirmationRequest {
	if key != KeyEscape {
		return nil
	}
	return g.RequestClose()
}

func (g *Guard) close(discarded bool) {
	g.ctrl.logger.WithField("wizard", g.ctrl.schema.Name).Debug("wizard closed")
	g.ctrl.emit(Event{Kind: EventClosed, Wizard: g.ctrl.schema.Name, Dirty: discarded})
	g.onClose()
}
