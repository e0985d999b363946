// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIntake outputs a human-readable summary of a validated intake record.
func (p *Printer) PrintIntake(record *types.IntakeRecord) {
	if record == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Age:            %d\n", record.Age))
	sb.WriteString(fmt.Sprintf("Sex:            %s\n", record.Sex))
	sb.WriteString(fmt.Sprintf("State:          %s\n", record.State))
	sb.WriteString(fmt.Sprintf("Administrator:  %s\n", record.Administrator))
	sb.WriteString(fmt.Sprintf("Product:        %s\n", record.ProductName))

	if len(record.DiagnosedConditions) > 0 {
		sb.WriteString("\nDiagnosed conditions:\n")
		count := min(len(record.DiagnosedConditions), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", record.DiagnosedConditions[i]))
		}
		if len(record.DiagnosedConditions) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(record.DiagnosedConditions)-maxItemsToShow))
		}
	}

	if record.PreventiveGoals != "" {
		sb.WriteString(fmt.Sprintf("\nPreventive goals: %s\n", preview(record.PreventiveGoals, 40)))
	}

	p.printBox("VALIDATED INTAKE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchResults outputs the reranked knowledge entries for one tool call.
func (p *Printer) PrintSearchResults(query string, results []types.KnowledgeSearchResult) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", query))

	count := min(len(results), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := results[i]
		sb.WriteString(fmt.Sprintf("%d. [%.2f] %s (%s)\n", i+1, r.Score, r.Code, r.Category))
		sb.WriteString(fmt.Sprintf("   %s\n", r.Description))
	}
	if len(results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(results)-maxItemsToShow))
	}

	p.printBox("KNOWLEDGE SEARCH", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLetterContent outputs the parsed letter sections with body previews.
func (p *Printer) PrintLetterContent(content *types.LetterContent) {
	if content == nil {
		return
	}

	var sb strings.Builder
	sections := []struct {
		title string
		body  string
	}{
		{"Diagnosis", content.Diagnosis},
		{"Treatment", content.Treatment},
		{"Rationale", content.Rationale},
		{"Provider Role", content.RoleStatement},
		{"Conclusion", content.Conclusion},
	}
	for _, s := range sections {
		if s.body == "" {
			sb.WriteString(fmt.Sprintf("%-14s (empty)\n", s.title+":"))
			continue
		}
		sb.WriteString(fmt.Sprintf("%-14s %s\n", s.title+":", preview(s.body, 40)))
	}
	if len(content.DiagnosisCodes) > 0 {
		sb.WriteString(fmt.Sprintf("\nCodes: %s\n", strings.Join(content.DiagnosisCodes, ", ")))
	}

	p.printBox("GENERATED LETTER", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAssembly outputs the final document composition.
func (p *Printer) PrintAssembly(administrator string, formIncluded bool, pages int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Administrator:  %s\n", administrator))
	if formIncluded {
		sb.WriteString("Form page:      included\n")
	} else {
		sb.WriteString("Form page:      none\n")
	}
	sb.WriteString(fmt.Sprintf("Total pages:    %d", pages))

	p.printBox("ASSEMBLED DOCUMENT", sb.String())
}

// preview shortens a body to its first n characters for box display.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
