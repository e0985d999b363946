package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/lmn-fulfillment/internal/agent"
	"github.com/jonathan/lmn-fulfillment/internal/assembly"
	"github.com/jonathan/lmn-fulfillment/internal/config"
	"github.com/jonathan/lmn-fulfillment/internal/knowledge"
	"github.com/jonathan/lmn-fulfillment/internal/llm"
	"github.com/jonathan/lmn-fulfillment/internal/mailer"
	"github.com/jonathan/lmn-fulfillment/internal/observability"
	"github.com/jonathan/lmn-fulfillment/internal/payments"
	"github.com/jonathan/lmn-fulfillment/internal/pipeline"
	"github.com/jonathan/lmn-fulfillment/internal/server"
	"github.com/jonathan/lmn-fulfillment/internal/signature"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the fulfillment pipeline and the signature completion webhook.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	var cfg config.Config
	if serveConfigPath != "" {
		loadedCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
	}
	cfg = cfg.MergeWithDefaults(config.FromEnv())
	cfg = cfg.MergeWithDefaults(config.Config{FormsDir: "forms", SMTPPort: 587})

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("gemini API key must be provided via config or GEMINI_API_KEY env var")
	}
	if cfg.SignerBaseURL == "" {
		return fmt.Errorf("signer base URL must be provided via config or SIGNER_BASE_URL env var")
	}

	client, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	signer := signature.NewClient(cfg.SignerBaseURL, cfg.SignerAPIKey)
	knowledgeClient := knowledge.NewClient(knowledge.Config{
		EmbedURL:    cfg.KnowledgeEmbedURL,
		IndexURL:    cfg.KnowledgeIndexURL,
		RerankURL:   cfg.KnowledgeRerankURL,
		APIKey:      cfg.KnowledgeAPIKey,
		IndexAPIKey: cfg.KnowledgeIndexAPIKey,
	})

	ag := agent.New(client, knowledgeClient)
	engine := assembly.NewEngine(cfg.FormsDir)
	var printer *observability.Printer
	if cfg.Verbose {
		printer = observability.NewPrinter(os.Stdout)
		ag.SetPrinter(printer)
		engine.Printer = printer
	}

	srv := server.New(server.Config{
		Port: servePort,
		PipelineDeps: pipeline.Deps{
			Generator:  ag,
			Assembler:  engine,
			Dispatcher: signer,
			Printer:    printer,
		},
		PipelineOpts: pipeline.RunOptions{
			Signer:  signature.Recipient{Name: cfg.SignerName, Email: cfg.SignerEmail},
			Verbose: cfg.Verbose,
		},
		Contacts: payments.NewStripeRepository(cfg.StripeSecretKey),
		Fetcher:  signer,
		Mail: mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		}),
	})

	return srv.Start()
}
