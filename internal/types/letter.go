package types

// AttestationPhrase is the fixed closing phrase every generated letter must end with.
// The assembly engine appends it when the model output conclusion lacks it.
const AttestationPhrase = "I attest that this intervention is medically necessary for this patient."

// LetterContent is the structured payload the generation agent embeds in its
// free-form output. Treatment and Conclusion are the only fields whose absence
// is a fatal parse failure; the remaining sections render when present.
type LetterContent struct {
	Diagnosis       string   `json:"diagnosis"`
	Treatment       string   `json:"treatment"`
	Rationale       string   `json:"rationale"`
	RoleStatement   string   `json:"role_statement"`
	Conclusion      string   `json:"conclusion"`
	DiagnosisCodes  []string `json:"diagnosis_codes,omitempty"`
	ConditionLabels []string `json:"condition_labels,omitempty"`
}

// SignatureRequest records the external correlation handle returned by the
// counter-signing service. Only DocumentID is referenced later, by the
// completion correlator.
type SignatureRequest struct {
	DocumentID     string `json:"document_id"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	BusinessName   string `json:"business_name"`
}
