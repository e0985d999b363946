package signature

import "fmt"

// DispatchError represents a failure talking to the counter-signing service.
// Dispatch failures are fatal to the request; there is nothing to clean up
// and no partial state to retry against.
type DispatchError struct {
	Message string
	Cause   error
}

func (e *DispatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("signature dispatch failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("signature dispatch failed: %s", e.Message)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}
