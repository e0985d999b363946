package letter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

const validPayload = `{
	"diagnosis": "Chronic stress with somatic symptoms",
	"treatment": "Twice-monthly therapeutic massage for 12 months",
	"rationale": "Supported by PMID 27055748 showing reduced cortisol levels",
	"role_statement": "I am the reviewing provider for this patient.",
	"conclusion": "This intervention is appropriate. I attest that this intervention is medically necessary for this patient.",
	"diagnosis_codes": ["Z73.3"],
	"condition_labels": ["stress"]
}`

func TestParse_PayloadSurroundedByProse(t *testing.T) {
	raw := "Here is the letter content you requested:\n\n" + validPayload + "\n\nLet me know if you need changes."

	content, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Chronic stress with somatic symptoms", content.Diagnosis)
	assert.Equal(t, []string{"Z73.3"}, content.DiagnosisCodes)
}

func TestParse_PayloadInMarkdownFence(t *testing.T) {
	raw := "```json\n" + validPayload + "\n```"

	content, err := Parse(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, content.Treatment)
}

func TestParse_NoJSONObjectIsFatal(t *testing.T) {
	_, err := Parse("I am sorry, I cannot help with that request.")
	require.Error(t, err)

	parseErr, ok := err.(*ParseError)
	require.True(t, ok, "error should be *ParseError")
	assert.Contains(t, parseErr.Error(), "no JSON object")
}

func TestParse_MissingTreatmentIsFatal(t *testing.T) {
	raw := `{"diagnosis": "stress", "conclusion": "necessary."}`

	_, err := Parse(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "treatment")
}

func TestParse_MissingConclusionIsFatal(t *testing.T) {
	raw := `{"diagnosis": "stress", "treatment": "massage"}`

	_, err := Parse(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conclusion")
}

func TestParse_MissingBothFieldsReportsBoth(t *testing.T) {
	raw := `{"diagnosis": "stress"}`

	_, err := Parse(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "treatment")
	assert.Contains(t, err.Error(), "conclusion")
}

func TestParse_AppendsAttestationWhenAbsent(t *testing.T) {
	raw := `{"treatment": "massage", "conclusion": "This is needed"}`

	content, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(content.Conclusion, types.AttestationPhrase))
	assert.Contains(t, content.Conclusion, "This is needed.")
}

func TestExtractJSON_NestedObjects(t *testing.T) {
	text := `prefix {"a": {"b": {"c": 1}}, "d": 2} suffix {"e": 3}`

	span, ok := ExtractJSON(text)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": {"c": 1}}, "d": 2}`, span)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	text := `{"text": "a closing brace } and an escaped quote \" inside"}`

	span, ok := ExtractJSON(text)
	require.True(t, ok)
	assert.Equal(t, text, span)
}

func TestExtractJSON_UnbalancedObject(t *testing.T) {
	_, ok := ExtractJSON(`{"a": {"b": 1}`)
	assert.False(t, ok)
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, ok := ExtractJSON("plain text only")
	assert.False(t, ok)
}
