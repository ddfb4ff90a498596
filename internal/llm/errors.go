// Package llm implements the completion boundary: clients that turn a
// conversation history into an assistant reply using a hosted model API.
package llm

import "fmt"

// BoundaryError wraps a failure at the completion boundary - network, auth,
// API, or malformed-response errors. Callers treat these as transient: the
// failure is reported once and the user may retry by resubmitting.
type BoundaryError struct {
	Provider string
	Err      error
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *BoundaryError) Unwrap() error {
	return e.Err
}
