// Package intake validates and normalizes raw intake form submissions.
package intake

import (
	"fmt"
	"strings"
)

// FieldError represents a single validation error at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates every offending field in one rejection so a
// submitter can fix the form in a single round-trip.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("intake validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}
