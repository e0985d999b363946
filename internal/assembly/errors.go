// Package assembly renders parsed letter content into a fixed-layout PDF,
// merges provider administrative forms, and enforces the output page cap.
package assembly

import "fmt"

// Error represents an assembly failure. Form and merge failures degrade
// through the fallback chain instead of aborting the run; only a letter that
// cannot be rendered at all surfaces this error to the caller.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("assembly error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("assembly error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
