package assembly

import (
	"strings"
)

// Ink selects how an overlay is drawn on the administrative form.
type Ink int

const (
	// InkVisible draws the text in legible ink.
	InkVisible Ink = iota
	// InkBackground draws the text in ink matching the page background: the
	// token is present in the byte stream for downstream tooling but is not
	// visually rendered.
	InkBackground
)

// Overlay is one fixed-coordinate text placement on a form's first page.
// Coordinates are in points from the top-left corner, y increasing downward.
// Text may contain {{StartDate}} / {{EndDate}} which are expanded at fill time.
type Overlay struct {
	Text string
	X    float64
	Y    float64
	Size int
	Ink  Ink
}

// Strategy is the fill plan for one administrator's form. Adding a provider
// is a data addition here, not a new code path.
type Strategy struct {
	Name     string
	Overlays []Overlay
}

// identityStrategy copies the form unmodified; it is the fall-through for
// administrators without a dedicated fill plan.
var identityStrategy = Strategy{Name: "identity"}

// Registration binds an administrator to its form template and fill strategy.
type Registration struct {
	FormFile string
	Strategy Strategy
}

// formRegistry maps normalized administrator identity to a known form. Each
// administrator has a distinct field layout, so each carries its own
// coordinate table.
var formRegistry = map[string]Registration{
	"healthequity": {
		FormFile: "healthequity.pdf",
		Strategy: Strategy{
			Name: "healthequity",
			Overlays: []Overlay{
				{Text: "See following pages for diagnosis and treatment.", X: 90, Y: 248, Size: 9, Ink: InkVisible},
				{Text: "See following pages for clinical rationale.", X: 90, Y: 310, Size: 9, Ink: InkVisible},
				{Text: "{{StartDate}}", X: 112, Y: 470, Size: 9, Ink: InkVisible},
				{Text: "{{EndDate}}", X: 330, Y: 470, Size: 9, Ink: InkVisible},
				{Text: TokenProviderName, X: 95, Y: 560, Size: 8, Ink: InkBackground},
				{Text: TokenProviderLicense, X: 330, Y: 560, Size: 8, Ink: InkBackground},
				{Text: TokenProviderSignature, X: 95, Y: 612, Size: 8, Ink: InkBackground},
				{Text: TokenDateSigned, X: 400, Y: 612, Size: 8, Ink: InkBackground},
			},
		},
	},
	"optum": {
		FormFile: "optum.pdf",
		Strategy: Strategy{
			Name: "optum",
			Overlays: []Overlay{
				{Text: "Diagnosis and treatment detail on attached letter.", X: 72, Y: 200, Size: 9, Ink: InkVisible},
				{Text: "{{StartDate}}", X: 150, Y: 396, Size: 9, Ink: InkVisible},
				{Text: "{{EndDate}}", X: 392, Y: 396, Size: 9, Ink: InkVisible},
				{Text: TokenProviderName, X: 72, Y: 640, Size: 8, Ink: InkBackground},
				{Text: TokenProviderPhone, X: 300, Y: 640, Size: 8, Ink: InkBackground},
				{Text: TokenProviderSignature, X: 72, Y: 688, Size: 8, Ink: InkBackground},
				{Text: TokenDateSigned, X: 430, Y: 688, Size: 8, Ink: InkBackground},
			},
		},
	},
	"wex": {
		FormFile: "wex.pdf",
		Strategy: Strategy{
			Name: "wex",
			Overlays: []Overlay{
				{Text: "See attached letter for medical necessity detail.", X: 80, Y: 276, Size: 9, Ink: InkVisible},
				{Text: "{{StartDate}}", X: 130, Y: 430, Size: 9, Ink: InkVisible},
				{Text: TokenProviderName, X: 80, Y: 590, Size: 8, Ink: InkBackground},
				{Text: TokenProviderEmail, X: 320, Y: 590, Size: 8, Ink: InkBackground},
				{Text: TokenProviderSignature, X: 80, Y: 636, Size: 8, Ink: InkBackground},
			},
		},
	},
}

// LookupForm resolves an administrator to its form registration. Unknown
// administrators with a form file present would take the identity strategy;
// administrators with no registration at all get no form page.
func LookupForm(administrator string) (Registration, bool) {
	reg, ok := formRegistry[normalizeAdministrator(administrator)]
	return reg, ok
}

// IdentityStrategy exposes the unmodified-copy strategy for callers that
// recover from a failed fill.
func IdentityStrategy() Strategy {
	return identityStrategy
}

// normalizeAdministrator lowercases and strips non-alphanumerics so
// "Health Equity", "HealthEquity" and "healthequity" all match.
func normalizeAdministrator(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// expandOverlayText substitutes the computed validity dates into an overlay
// entry's text.
func expandOverlayText(text string, layout LetterLayout) string {
	text = strings.ReplaceAll(text, "{{StartDate}}", layout.StartDate)
	text = strings.ReplaceAll(text, "{{EndDate}}", layout.EndDate)
	return text
}
