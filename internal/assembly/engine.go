package assembly

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/lmn-fulfillment/internal/letter"
	"github.com/jonathan/lmn-fulfillment/internal/observability"
	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// Engine assembles final documents: parse the letter payload, render the
// letter pages, merge the administrator form, enforce the page cap.
type Engine struct {
	// FormsDir holds the administrator form templates (one PDF per provider).
	FormsDir string
	// Now is injectable for deterministic validity dates in tests.
	Now func() time.Time
	// Printer, when set, reports the final document composition (verbose mode).
	Printer *observability.Printer
}

// NewEngine creates an assembly engine reading form templates from formsDir.
func NewEngine(formsDir string) *Engine {
	return &Engine{FormsDir: formsDir, Now: time.Now}
}

// Assemble turns raw letter text into final PDF bytes. Parse failures are
// fatal; everything on the form/merge side degrades through the fallback
// chain merged-then-capped -> letter-only-capped -> full uncapped letter,
// never silently producing an empty document.
func (e *Engine) Assemble(letterText string, patient types.PatientInfo) ([]byte, error) {
	content, err := letter.Parse(letterText)
	if err != nil {
		return nil, err
	}

	layout := BuildLayout(content, patient, e.Now())

	letterPDF, err := RenderLetterPDF(layout)
	if err != nil {
		return nil, err
	}

	formPage := e.prepareFormPage(patient.Administrator, layout)
	doc := e.mergeAndCap(formPage, letterPDF)

	if e.Printer != nil {
		if pages, cerr := pageCount(doc); cerr == nil {
			e.Printer.PrintAssembly(patient.Administrator, formPage != nil, pages)
		}
	}
	return doc, nil
}

// prepareFormPage loads the administrator's form, trims it to its first page
// and applies the fill strategy. Every failure here is absorbed: a fill
// failure falls back to the unmodified form page, a load failure to no form
// page at all.
func (e *Engine) prepareFormPage(administrator string, layout LetterLayout) []byte {
	reg, ok := LookupForm(administrator)
	if !ok {
		log.Printf("[assembly] no form registered for administrator %q, letter only", administrator)
		return nil
	}

	raw, err := os.ReadFile(filepath.Join(e.FormsDir, reg.FormFile))
	if err != nil {
		log.Printf("[assembly] form %s unreadable, proceeding without form: %v", reg.FormFile, err)
		return nil
	}

	page, err := firstPage(raw)
	if err != nil {
		log.Printf("[assembly] failed to extract first page of %s, proceeding without form: %v", reg.FormFile, err)
		return nil
	}

	filled, err := applyStrategy(page, reg.Strategy, layout)
	if err != nil {
		// Unexpected form structure must not abort the pipeline.
		log.Printf("[assembly] fill strategy %q failed, using unmodified form: %v", reg.Strategy.Name, err)
		return page
	}
	return filled
}

// mergeAndCap concatenates form and letter pages and enforces the page cap,
// counted from the start. The cap runs after the merge so the letter's own
// pagination is unaffected by truncation policy.
func (e *Engine) mergeAndCap(formPage, letterPDF []byte) []byte {
	if formPage == nil {
		return e.capLetterOnly(letterPDF)
	}

	merged, err := mergePDFs(formPage, letterPDF)
	if err != nil {
		log.Printf("[assembly] merge failed, falling back to letter only: %v", err)
		return e.capLetterOnly(letterPDF)
	}

	letterPages, err := pageCount(letterPDF)
	if err != nil {
		log.Printf("[assembly] page count failed, falling back to letter only: %v", err)
		return e.capLetterOnly(letterPDF)
	}

	keepForm, keepLetter := pagePlan(1, letterPages, MaxPages)
	total := keepForm + keepLetter
	if letterPages+keepForm <= MaxPages {
		return merged
	}

	capped, err := trimTo(merged, total)
	if err != nil {
		log.Printf("[assembly] cap after merge failed, falling back to letter only: %v", err)
		return e.capLetterOnly(letterPDF)
	}
	log.Printf("[assembly] trimmed merged document to %d pages (form %d, letter %d of %d)",
		total, keepForm, keepLetter, letterPages)
	return capped
}

// capLetterOnly trims the bare letter to the cap; if even that fails, the
// full uncapped letter ships rather than nothing.
func (e *Engine) capLetterOnly(letterPDF []byte) []byte {
	pages, err := pageCount(letterPDF)
	if err != nil {
		log.Printf("[assembly] page count failed, shipping full letter: %v", err)
		return letterPDF
	}
	if pages <= MaxPages {
		return letterPDF
	}

	capped, err := trimTo(letterPDF, MaxPages)
	if err != nil {
		log.Printf("[assembly] cap failed, shipping full uncapped letter: %v", err)
		return letterPDF
	}
	log.Printf("[assembly] trimmed letter from %d to %d pages", pages, MaxPages)
	return capped
}
