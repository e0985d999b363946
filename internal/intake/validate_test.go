package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidIntake(t *testing.T) {
	raw := []byte(`{
		"age": 32,
		"sex": "F",
		"administrator": "HealthEquity",
		"state": "ny",
		"diagnosed_conditions": ["stress"],
		"preventive_goals": "reduce stress",
		"product_name": "Therapeutic massage program",
		"business_name": "Calm Springs Wellness"
	}`)

	record, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, 32, record.Age)
	assert.Equal(t, "NY", record.State, "state should be normalized to upper case")
	assert.Equal(t, []string{"stress"}, record.DiagnosedConditions)
}

func TestValidate_ListFieldsDefaultToEmpty(t *testing.T) {
	raw := []byte(`{
		"age": 45,
		"administrator": "Optum",
		"state": "CA",
		"product_name": "Gym membership",
		"business_name": "Iron Works Gym"
	}`)

	record, err := Validate(raw)
	require.NoError(t, err)
	assert.NotNil(t, record.DiagnosedConditions)
	assert.NotNil(t, record.FamilyHistory)
	assert.NotNil(t, record.RiskFactors)
	assert.Empty(t, record.DiagnosedConditions)
}

func TestValidate_ReportsEveryOffendingField(t *testing.T) {
	// age non-positive, state wrong length, administrator and product/business missing
	raw := []byte(`{"age": 0, "state": "NEW YORK"}`)

	_, err := Validate(raw)
	require.Error(t, err)

	ve, ok := err.(*ValidationError)
	require.True(t, ok, "error should be *ValidationError")
	require.GreaterOrEqual(t, len(ve.Errors), 4, "all offending fields should be reported, got: %v", ve.Errors)

	fields := make(map[string]bool)
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["age"] || fields["(root)"])
	assert.True(t, fields["state"] || fields["(root)"])
}

func TestValidate_MalformedJSON(t *testing.T) {
	_, err := Validate([]byte(`{ not json`))
	require.Error(t, err)

	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "(root)", ve.Errors[0].Field)
}

func TestValidate_AgeMustBePositive(t *testing.T) {
	raw := []byte(`{
		"age": -3,
		"administrator": "WEX",
		"state": "TX",
		"product_name": "Sauna sessions",
		"business_name": "Heatline Spa"
	}`)

	_, err := Validate(raw)
	require.Error(t, err)

	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidationError_MessageListsAllFields(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{
		{Field: "age", Message: "must be positive"},
		{Field: "state", Message: "must be two characters"},
	}}

	msg := ve.Error()
	assert.Contains(t, msg, "age")
	assert.Contains(t, msg, "state")
}
