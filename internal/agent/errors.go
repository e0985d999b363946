// Package agent implements the letter generation loop over the LLM backend.
package agent

import "fmt"

// GenerationError represents a fatal generation failure: the backend was
// unreachable or never produced a final answer. Surfaced synchronously to the
// original caller; there is no retry at this layer.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation incomplete: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation incomplete: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
