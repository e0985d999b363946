package assembly

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Page geometry in points (Letter, 612x792).
const (
	pageMarginPt   = 54
	bodyWidthPt    = 612 - 2*pageMarginPt
	lineHeightPt   = 14
	footerYPt      = -40
	headingSizePt  = 16
	sectionSizePt  = 11
	bodySizePt     = 10
	footerSizePt   = 7
	autoBreakPt    = 70
	sectionSpacing = 8
)

// RenderLetterPDF renders the layout into PDF bytes. The letter paginates
// itself freely here; the page cap is applied later, after the form merge.
func RenderLetterPDF(layout LetterLayout) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMarginPt, pageMarginPt, pageMarginPt)
	pdf.SetAutoPageBreak(true, autoBreakPt)

	// Running footer: page number plus the fixed disclaimer, on every page
	// after the first.
	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(footerYPt)
		pdf.SetFont("Helvetica", "I", footerSizePt)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(bodyWidthPt, lineHeightPt,
			fmt.Sprintf("Page %d  -  %s", pdf.PageNo(), DisclaimerLine),
			"", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()

	// Heading
	pdf.SetFont("Helvetica", "B", headingSizePt)
	pdf.CellFormat(bodyWidthPt, lineHeightPt+6, layout.Heading, "", 1, "C", false, 0, "")
	pdf.Ln(sectionSpacing)

	pdf.SetFont("Helvetica", "", bodySizePt)
	if layout.PatientLine != "" {
		pdf.MultiCell(bodyWidthPt, lineHeightPt, "Patient: "+layout.PatientLine, "", "L", false)
		pdf.Ln(sectionSpacing / 2)
	}

	// Numbered narrative sections; empty ones were already dropped by BuildLayout.
	for i, section := range layout.Sections {
		pdf.SetFont("Helvetica", "B", sectionSizePt)
		pdf.MultiCell(bodyWidthPt, lineHeightPt, fmt.Sprintf("%d. %s", i+1, section.Title), "", "L", false)
		pdf.SetFont("Helvetica", "", bodySizePt)
		pdf.MultiCell(bodyWidthPt, lineHeightPt, section.Body, "", "L", false)
		pdf.Ln(sectionSpacing)
	}

	// Recommended service and intervention window.
	pdf.SetFont("Helvetica", "B", sectionSizePt)
	pdf.MultiCell(bodyWidthPt, lineHeightPt, "Recommended Service", "", "L", false)
	pdf.SetFont("Helvetica", "", bodySizePt)
	pdf.MultiCell(bodyWidthPt, lineHeightPt, layout.RecommendedService, "", "L", false)
	pdf.MultiCell(bodyWidthPt, lineHeightPt,
		fmt.Sprintf("Intervention period: %s through %s", layout.StartDate, layout.EndDate), "", "L", false)
	pdf.Ln(sectionSpacing)

	// Signer block: literal substitution markers for the human counter-signer.
	pdf.SetFont("Helvetica", "B", sectionSizePt)
	pdf.MultiCell(bodyWidthPt, lineHeightPt, "Provider (to be completed at signature)", "", "L", false)
	pdf.SetFont("Helvetica", "", bodySizePt)
	signerLines := []string{
		"Name: " + TokenProviderName,
		"Address: " + TokenProviderAddress,
		"License: " + TokenProviderLicense,
		"Phone: " + TokenProviderPhone,
		"Email: " + TokenProviderEmail,
		"Signature: " + TokenProviderSignature,
		"Date: " + TokenDateSigned,
	}
	for _, line := range signerLines {
		pdf.MultiCell(bodyWidthPt, lineHeightPt, line, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &Error{Message: "failed to render letter PDF", Cause: err}
	}
	return buf.Bytes(), nil
}
