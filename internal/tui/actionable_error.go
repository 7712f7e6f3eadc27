package tui

import (
	"errors"

	autosyncerrors "github.com/mrz1836/autosync/internal/errors"
)

// ActionableError pairs a user-facing message with a next step.
//
//	out.Error(tui.NewActionableError("sync already in progress", "Stop the running 'autosync watch'"))
//	// ✗ sync already in progress
//	//   ▸ Try: Stop the running 'autosync watch'
type ActionableError struct {
	// Message is the primary error message.
	Message string

	// Suggestion tells the user what to do next. Starts with a verb.
	Suggestion string

	// Context is appended to the message in parentheses when set.
	Context string

	// Cause is the underlying error, kept for errors.Is and JSON details.
	Cause error
}

// NewActionableError creates a new ActionableError with message and suggestion.
func NewActionableError(msg, suggestion string) *ActionableError {
	return &ActionableError{
		Message:    msg,
		Suggestion: suggestion,
	}
}

// FromError builds an ActionableError from the user message registered for
// err's sentinel. Unknown errors keep their own text and get no suggestion.
func FromError(err error) *ActionableError {
	if err == nil {
		return nil
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae
	}
	msg, action := autosyncerrors.Actionable(err)
	ae = &ActionableError{Message: msg, Suggestion: action, Cause: err}
	if msg != err.Error() {
		ae.Context = err.Error()
	}
	return ae
}

// Error implements the error interface.
func (e *ActionableError) Error() string {
	if e.Context != "" {
		return e.Message + " (" + e.Context + ")"
	}
	return e.Message
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// WithContext sets Context and returns e.
func (e *ActionableError) WithContext(ctx string) *ActionableError {
	e.Context = ctx
	return e
}
