// Package pipeline provides the high-level orchestration for letter fulfillment.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/jonathan/lmn-fulfillment/internal/agent"
	"github.com/jonathan/lmn-fulfillment/internal/assembly"
	"github.com/jonathan/lmn-fulfillment/internal/intake"
	"github.com/jonathan/lmn-fulfillment/internal/knowledge"
	"github.com/jonathan/lmn-fulfillment/internal/letter"
	"github.com/jonathan/lmn-fulfillment/internal/llm"
	"github.com/jonathan/lmn-fulfillment/internal/observability"
	"github.com/jonathan/lmn-fulfillment/internal/signature"
	"github.com/jonathan/lmn-fulfillment/internal/types"
)

// RunOptions holds configuration for running the fulfillment pipeline.
type RunOptions struct {
	IntakeJSON []byte            // Raw intake submission
	Patient    types.PatientInfo // Display and routing fields for the document

	APIKey    string           // Gemini API key
	Knowledge knowledge.Config // Semantic search backends

	FormsDir string // Administrator form templates

	// Counter-signing. When SignerBaseURL is empty the dispatch step is
	// skipped and the assembled PDF is the final artifact.
	SignerBaseURL string
	SignerAPIKey  string
	Signer        signature.Recipient

	Verbose bool
}

// RunResult carries the pipeline outputs upward to the CLI and server.
type RunResult struct {
	LetterText string
	Document   []byte
	DocumentID string // Empty when dispatch was skipped
}

// generator, assembler and dispatcher are the seams the orchestration is
// tested through.
type generator interface {
	Generate(ctx context.Context, record types.IntakeRecord) (string, error)
}

type assembler interface {
	Assemble(letterText string, patient types.PatientInfo) ([]byte, error)
}

type dispatcher interface {
	CreateDocument(ctx context.Context, file []byte, fileName string, recipient signature.Recipient, subject, message string) (string, error)
}

// Deps are the pipeline's collaborators, injected so orchestration can run
// against fakes.
type Deps struct {
	Generator  generator
	Assembler  assembler
	Dispatcher dispatcher // nil skips the dispatch step
	Printer    *observability.Printer
}

// RunPipeline orchestrates the full fulfillment pipeline with production
// collaborators: validate the intake, generate the letter, assemble the
// document, dispatch it for counter-signature.
func RunPipeline(ctx context.Context, opts RunOptions) (*RunResult, error) {
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), opts.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	printer := observability.NewPrinter(os.Stdout)
	ag := agent.New(client, knowledge.NewClient(opts.Knowledge))
	engine := assembly.NewEngine(opts.FormsDir)
	if opts.Verbose {
		ag.SetPrinter(printer)
		engine.Printer = printer
	}

	deps := Deps{
		Generator: ag,
		Assembler: engine,
		Printer:   printer,
	}
	if opts.SignerBaseURL != "" {
		deps.Dispatcher = signature.NewClient(opts.SignerBaseURL, opts.SignerAPIKey)
	}

	return Run(ctx, deps, opts)
}

// Run executes the pipeline steps against the given collaborators.
func Run(ctx context.Context, deps Deps, opts RunOptions) (*RunResult, error) {
	runID := uuid.New()
	fmt.Printf("Starting fulfillment run %s\n", runID)

	totalSteps := 4
	if deps.Dispatcher == nil {
		totalSteps = 3
	}

	fmt.Printf("Step 1/%d: Validating intake submission...\n", totalSteps)
	record, err := intake.Validate(opts.IntakeJSON)
	if err != nil {
		return nil, fmt.Errorf("intake validation failed: %w", err)
	}
	if opts.Verbose && deps.Printer != nil {
		deps.Printer.PrintIntake(record)
	}

	// Routing fields not supplied by the caller come from the intake itself.
	if opts.Patient.Administrator == "" {
		opts.Patient.Administrator = record.Administrator
	}
	if opts.Patient.ProductName == "" {
		opts.Patient.ProductName = record.ProductName
	}
	if opts.Patient.BusinessName == "" {
		opts.Patient.BusinessName = record.BusinessName
	}

	fmt.Printf("Step 2/%d: Generating letter...\n", totalSteps)
	letterText, err := deps.Generator.Generate(ctx, *record)
	if err != nil {
		return nil, fmt.Errorf("letter generation failed: %w", err)
	}
	if opts.Verbose && deps.Printer != nil {
		if content, perr := letter.Parse(letterText); perr == nil {
			deps.Printer.PrintLetterContent(content)
		}
	}

	fmt.Printf("Step 3/%d: Assembling document...\n", totalSteps)
	document, err := deps.Assembler.Assemble(letterText, opts.Patient)
	if err != nil {
		return nil, fmt.Errorf("document assembly failed: %w", err)
	}

	result := &RunResult{LetterText: letterText, Document: document}
	if deps.Dispatcher == nil {
		fmt.Printf("Done: document assembled (%d bytes), dispatch skipped\n", len(document))
		return result, nil
	}

	fmt.Printf("Step 4/%d: Dispatching for counter-signature...\n", totalSteps)
	subject := fmt.Sprintf("Letter of medical necessity for %s", opts.Patient.Name)
	message := "A generated letter of medical necessity is ready for your review and signature."
	documentID, err := deps.Dispatcher.CreateDocument(ctx, document, documentFileName(opts.Patient), opts.Signer, subject, message)
	if err != nil {
		return nil, fmt.Errorf("signature dispatch failed: %w", err)
	}
	result.DocumentID = documentID

	fmt.Printf("Done: document %s dispatched to %s\n", documentID, opts.Signer.Email)
	return result, nil
}

// GenerateLetter runs only the generation stage for a validated intake.
func GenerateLetter(ctx context.Context, deps Deps, record types.IntakeRecord) (string, error) {
	return deps.Generator.Generate(ctx, record)
}

func documentFileName(patient types.PatientInfo) string {
	if patient.Name == "" {
		return "letter-of-medical-necessity.pdf"
	}
	return fmt.Sprintf("lmn-%s.pdf", sanitizeFileName(patient.Name))
}

func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ', r == '-', r == '_':
			out = append(out, '-')
		}
	}
	return string(out)
}
