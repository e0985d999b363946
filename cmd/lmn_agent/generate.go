package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/lmn-fulfillment/internal/config"
	"github.com/jonathan/lmn-fulfillment/internal/knowledge"
	"github.com/jonathan/lmn-fulfillment/internal/pipeline"
	"github.com/jonathan/lmn-fulfillment/internal/signature"
	"github.com/jonathan/lmn-fulfillment/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the fulfillment pipeline for one intake submission",
	Long: `Validates an intake JSON file, generates the letter, assembles the final PDF
document and optionally dispatches it for counter-signature.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values; environment variables fill whatever
remains unset.`,
	RunE: runGenerate,
}

var (
	genConfigPath   string
	genIntake       string
	genOutput       string
	genFormsDir     string
	genAPIKey       string
	genPatientName  string
	genPatientEmail string
	genNoDispatch   bool
	genVerbose      bool
)

func init() {
	generateCmd.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	generateCmd.Flags().StringVarP(&genIntake, "intake", "i", "", "Path to intake JSON file")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Path for the assembled PDF")
	generateCmd.Flags().StringVar(&genFormsDir, "forms-dir", "", "Directory holding administrator form templates")
	generateCmd.Flags().StringVar(&genPatientName, "patient-name", "", "Patient display name")
	generateCmd.Flags().StringVar(&genPatientEmail, "patient-email", "", "Patient email address")
	generateCmd.Flags().BoolVar(&genNoDispatch, "no-dispatch", false, "Skip counter-signature dispatch; stop after assembly")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCmd.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if genConfigPath != "" {
		loadedCfg, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if genVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", genConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("intake") {
		cfg.Intake = genIntake
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = genOutput
	}
	if cmd.Flags().Changed("forms-dir") {
		cfg.FormsDir = genFormsDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = genAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}

	// Step 3: Apply env defaults for unset values
	cfg = cfg.MergeWithDefaults(config.FromEnv())
	cfg = cfg.MergeWithDefaults(config.Config{
		Output:   "letter.pdf",
		FormsDir: "forms",
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 4: Validate required fields
	if cfg.Intake == "" {
		return fmt.Errorf("--intake must be provided (via flag or config)")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("gemini API key must be provided via --api-key flag, config, or GEMINI_API_KEY env var")
	}

	intakeJSON, err := os.ReadFile(cfg.Intake)
	if err != nil {
		return fmt.Errorf("failed to read intake file %s: %w", cfg.Intake, err)
	}

	opts := pipeline.RunOptions{
		IntakeJSON: intakeJSON,
		Patient: types.PatientInfo{
			Name:  genPatientName,
			Email: genPatientEmail,
		},
		APIKey: cfg.APIKey,
		Knowledge: knowledge.Config{
			EmbedURL:    cfg.KnowledgeEmbedURL,
			IndexURL:    cfg.KnowledgeIndexURL,
			RerankURL:   cfg.KnowledgeRerankURL,
			APIKey:      cfg.KnowledgeAPIKey,
			IndexAPIKey: cfg.KnowledgeIndexAPIKey,
		},
		FormsDir: cfg.FormsDir,
		Signer:   signature.Recipient{Name: cfg.SignerName, Email: cfg.SignerEmail},
		Verbose:  cfg.Verbose,
	}
	if !genNoDispatch {
		opts.SignerBaseURL = cfg.SignerBaseURL
		opts.SignerAPIKey = cfg.SignerAPIKey
	}

	result, err := pipeline.RunPipeline(ctx, opts)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfg.Output, result.Document, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", cfg.Output, len(result.Document))
	if result.DocumentID != "" {
		fmt.Printf("Dispatched for signature as document %s\n", result.DocumentID)
	}
	return nil
}
