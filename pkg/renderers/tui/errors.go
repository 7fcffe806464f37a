package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrClosed is returned by Run when the user closes the wizard without
	// submitting.
	ErrClosed = errors.New("tui: session closed")
)
