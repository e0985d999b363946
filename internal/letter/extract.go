// Package letter turns raw model output into a parsed LetterContent.
// Extraction is a fallible parser with a tagged result; it never panics on
// arbitrary model text.
package letter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/lmn-fulfillment/internal/llm"
	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// ParseError represents a failed extraction: no structured payload in the
// model output, or a payload missing a required field. Fatal to the run.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation incomplete: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation incomplete: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parse extracts the first balanced JSON object from raw model text and
// decodes it into a LetterContent. Treatment and conclusion are required;
// their absence is fatal rather than producing a blank document. The
// conclusion is normalized to end with the fixed attestation phrase.
func Parse(raw string) (*types.LetterContent, error) {
	span, ok := ExtractJSON(llm.CleanJSONBlock(raw))
	if !ok {
		return nil, &ParseError{Message: "no JSON object found in model output"}
	}

	var content types.LetterContent
	if err := json.Unmarshal([]byte(span), &content); err != nil {
		return nil, &ParseError{Message: "embedded JSON object is not a letter payload", Cause: err}
	}

	var missing []string
	if strings.TrimSpace(content.Treatment) == "" {
		missing = append(missing, "treatment")
	}
	if strings.TrimSpace(content.Conclusion) == "" {
		missing = append(missing, "conclusion")
	}
	if len(missing) > 0 {
		return nil, &ParseError{Message: fmt.Sprintf("letter payload missing required fields: %s", strings.Join(missing, ", "))}
	}

	content.Conclusion = ensureAttestation(content.Conclusion)
	return &content, nil
}

// ExtractJSON returns the first balanced {...} span in text. The scan is
// string-aware: braces inside JSON strings and escaped quotes do not affect
// the balance count.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}

	return "", false
}

// ensureAttestation appends the fixed closing phrase when the model's
// conclusion lacks it.
func ensureAttestation(conclusion string) string {
	conclusion = strings.TrimSpace(conclusion)
	if strings.HasSuffix(conclusion, types.AttestationPhrase) {
		return conclusion
	}
	if !strings.HasSuffix(conclusion, ".") {
		conclusion += "."
	}
	return conclusion + " " + types.AttestationPhrase
}
