package assembly

import (
	"fmt"
	"time"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// MaxPages is the hard cap on assembled output, applied after the form merge
// so the letter's own pagination is unaffected by truncation policy.
const MaxPages = 3

// DisclaimerLine is the fixed legal line carried in the running footer of
// every letter page after the first.
const DisclaimerLine = "This letter supports plan administration of a preventive benefit and does not replace the advice of the patient's own physician."

// Signer placeholder markers. These are rendered literally, never pre-filled:
// the document still requires a human counter-signature, and downstream
// tooling recognizes the tokens at their fixed positions.
const (
	TokenProviderName      = "[PROVIDER_NAME]"
	TokenProviderAddress   = "[PROVIDER_ADDRESS]"
	TokenProviderLicense   = "[PROVIDER_LICENSE]"
	TokenProviderPhone     = "[PROVIDER_PHONE]"
	TokenProviderEmail     = "[PROVIDER_EMAIL]"
	TokenProviderSignature = "[PROVIDER_SIGNATURE]"
	TokenDateSigned        = "[DATE_SIGNED]"
)

// Section is one numbered narrative block of the rendered letter.
type Section struct {
	Title string
	Body  string
}

// LetterLayout is the deterministic print plan for one letter. Building it is
// pure; only the PDF pass below touches fonts and pages.
type LetterLayout struct {
	Heading            string
	PatientLine        string
	Sections           []Section
	RecommendedService string
	StartDate          string
	EndDate            string
	SignerTokens       []string
}

const dateLayout = "January 2, 2006"

// BuildLayout derives the six-part print plan from parsed content. Sections
// with empty bodies are skipped entirely rather than rendered as empty
// headers. The intervention window is today through one year from today.
func BuildLayout(content *types.LetterContent, patient types.PatientInfo, now time.Time) LetterLayout {
	ordered := []Section{
		{Title: "Diagnosis", Body: content.Diagnosis},
		{Title: "Recommended Treatment", Body: content.Treatment},
		{Title: "Clinical Rationale", Body: content.Rationale},
		{Title: "Provider Role", Body: content.RoleStatement},
		{Title: "Conclusion", Body: content.Conclusion},
	}

	sections := make([]Section, 0, len(ordered))
	for _, s := range ordered {
		if s.Body == "" {
			continue
		}
		sections = append(sections, s)
	}

	service := patient.ProductName
	if patient.BusinessName != "" {
		service = fmt.Sprintf("%s, provided by %s", patient.ProductName, patient.BusinessName)
	}

	patientLine := patient.Name
	if len(content.ConditionLabels) > 0 {
		patientLine = fmt.Sprintf("%s (reported: %s)", patient.Name, joinLabels(content.ConditionLabels))
	}

	return LetterLayout{
		Heading:            "Letter of Medical Necessity",
		PatientLine:        patientLine,
		Sections:           sections,
		RecommendedService: service,
		StartDate:          now.Format(dateLayout),
		EndDate:            now.AddDate(1, 0, 0).Format(dateLayout),
		SignerTokens: []string{
			TokenProviderName,
			TokenProviderAddress,
			TokenProviderLicense,
			TokenProviderPhone,
			TokenProviderEmail,
			TokenProviderSignature,
			TokenDateSigned,
		},
	}
}

func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += ", "
		}
		out += l
	}
	return out
}

// pagePlan computes how many form and letter pages survive the cap. The form
// lead page is counted from the start, so trimming removes trailing letter
// pages first and never drops the form while letter content remains.
func pagePlan(formPages, letterPages, maxPages int) (keepForm, keepLetter int) {
	if formPages > 0 {
		keepForm = 1
	}
	keepLetter = letterPages
	if keepForm+keepLetter > maxPages {
		keepLetter = maxPages - keepForm
	}
	if keepLetter < 0 {
		keepLetter = 0
	}
	if keepLetter == 0 && keepForm > maxPages {
		keepForm = maxPages
	}
	return keepForm, keepLetter
}
