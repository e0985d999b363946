package intake

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

//go:embed schema.json
var intakeSchema string

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a raw intake submission against the intake schema and
// returns a normalized IntakeRecord. It is a pure function: no I/O, no side
// effects. On failure it returns a *ValidationError listing every offending
// field path, never just the first.
func Validate(raw []byte) (*types.IntakeRecord, error) {
	schemaLoader := gojsonschema.NewStringLoader(intakeSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		// Malformed JSON (or an unloadable schema) never reaches the typed pass.
		return nil, &ValidationError{Errors: []FieldError{
			{Field: "(root)", Message: fmt.Sprintf("invalid JSON document: %v", err)},
		}}
	}

	if !result.Valid() {
		ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return nil, ve
	}

	var record types.IntakeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, &ValidationError{Errors: []FieldError{
			{Field: "(root)", Message: fmt.Sprintf("failed to decode intake: %v", err)},
		}}
	}

	// Second pass on the typed record. The schema pass already covers shape,
	// but struct tags guard callers that construct records directly.
	if err := validate.Struct(&record); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			ve := &ValidationError{Errors: make([]FieldError, 0, len(verrs))}
			for _, fe := range verrs {
				ve.Errors = append(ve.Errors, FieldError{
					Field:   strings.ToLower(fe.Field()),
					Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
				})
			}
			return nil, ve
		}
		return nil, fmt.Errorf("intake validation failed: %w", err)
	}

	normalize(&record)
	return &record, nil
}

// normalize fills defaults the schema leaves open: list-typed fields become
// empty lists when absent, and the state code is upper-cased.
func normalize(record *types.IntakeRecord) {
	if record.DiagnosedConditions == nil {
		record.DiagnosedConditions = []string{}
	}
	if record.FamilyHistory == nil {
		record.FamilyHistory = []string{}
	}
	if record.RiskFactors == nil {
		record.RiskFactors = []string{}
	}
	record.State = strings.ToUpper(strings.TrimSpace(record.State))
	record.Administrator = strings.TrimSpace(record.Administrator)
}
