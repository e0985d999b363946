// Package knowledge provides the semantic search client for the coded
// medical reference index.
package knowledge

import "fmt"

// SearchError represents a failure in one stage of the search pipeline.
// It is always returned, never panicked, so the agent loop can proceed
// without the lookup.
type SearchError struct {
	Stage   string // "embed", "query", or "rerank"
	Message string
	Cause   error
}

func (e *SearchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("knowledge search error (%s): %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("knowledge search error (%s): %s", e.Stage, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}
