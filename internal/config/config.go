// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the pipeline configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults, environment
// variables, or must be provided via CLI flags.
type Config struct {
	// Paths
	Intake   string `json:"intake,omitempty"`    // Path to intake JSON file
	Output   string `json:"output,omitempty"`    // Path for the assembled PDF
	FormsDir string `json:"forms_dir,omitempty"` // Directory holding administrator form templates

	// Generation
	APIKey string `json:"api_key,omitempty"` // Gemini API key

	// Knowledge search backends
	KnowledgeEmbedURL    string `json:"knowledge_embed_url,omitempty"`
	KnowledgeIndexURL    string `json:"knowledge_index_url,omitempty"`
	KnowledgeRerankURL   string `json:"knowledge_rerank_url,omitempty"`
	KnowledgeAPIKey      string `json:"knowledge_api_key,omitempty"`
	KnowledgeIndexAPIKey string `json:"knowledge_index_api_key,omitempty"`

	// Counter-signing service
	SignerBaseURL string `json:"signer_base_url,omitempty"`
	SignerAPIKey  string `json:"signer_api_key,omitempty"`
	SignerName    string `json:"signer_name,omitempty"`  // Reviewing provider's name
	SignerEmail   string `json:"signer_email,omitempty"` // Reviewing provider's address

	// Payments
	StripeSecretKey string `json:"stripe_secret_key,omitempty"`

	// Outbound mail
	SMTPHost     string `json:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	SMTPUsername string `json:"smtp_username,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty"`
	MailFrom     string `json:"mail_from,omitempty"`
	MailFromName string `json:"mail_from_name,omitempty"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills a Config from environment variables. File values win over
// env values when both are present, so this is applied as the defaults side
// of the merge.
func FromEnv() Config {
	port := 0
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil {
			port = p
		}
	}
	return Config{
		APIKey:               os.Getenv("GEMINI_API_KEY"),
		KnowledgeEmbedURL:    os.Getenv("KNOWLEDGE_EMBED_URL"),
		KnowledgeIndexURL:    os.Getenv("KNOWLEDGE_INDEX_URL"),
		KnowledgeRerankURL:   os.Getenv("KNOWLEDGE_RERANK_URL"),
		KnowledgeAPIKey:      os.Getenv("KNOWLEDGE_API_KEY"),
		KnowledgeIndexAPIKey: os.Getenv("KNOWLEDGE_INDEX_API_KEY"),
		SignerBaseURL:        os.Getenv("SIGNER_BASE_URL"),
		SignerAPIKey:         os.Getenv("SIGNER_API_KEY"),
		SignerName:           os.Getenv("SIGNER_NAME"),
		SignerEmail:          os.Getenv("SIGNER_EMAIL"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPPort:             port,
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		MailFrom:             os.Getenv("MAIL_FROM"),
		MailFromName:         os.Getenv("MAIL_FROM_NAME"),
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.SMTPPort < 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("config error: 'smtp_port' must be a valid port number")
	}

	if c.FormsDir != "" {
		if _, err := os.Stat(c.FormsDir); os.IsNotExist(err) {
			return fmt.Errorf("config error: forms directory not found: %s", c.FormsDir)
		}
	}

	if c.Intake != "" {
		if _, err := os.Stat(c.Intake); os.IsNotExist(err) {
			return fmt.Errorf("config error: intake file not found: %s", c.Intake)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply env values as defaults for file values,
// and file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Intake == "" {
		result.Intake = defaults.Intake
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.FormsDir == "" {
		result.FormsDir = defaults.FormsDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.KnowledgeEmbedURL == "" {
		result.KnowledgeEmbedURL = defaults.KnowledgeEmbedURL
	}
	if result.KnowledgeIndexURL == "" {
		result.KnowledgeIndexURL = defaults.KnowledgeIndexURL
	}
	if result.KnowledgeRerankURL == "" {
		result.KnowledgeRerankURL = defaults.KnowledgeRerankURL
	}
	if result.KnowledgeAPIKey == "" {
		result.KnowledgeAPIKey = defaults.KnowledgeAPIKey
	}
	if result.KnowledgeIndexAPIKey == "" {
		result.KnowledgeIndexAPIKey = defaults.KnowledgeIndexAPIKey
	}
	if result.SignerBaseURL == "" {
		result.SignerBaseURL = defaults.SignerBaseURL
	}
	if result.SignerAPIKey == "" {
		result.SignerAPIKey = defaults.SignerAPIKey
	}
	if result.SignerName == "" {
		result.SignerName = defaults.SignerName
	}
	if result.SignerEmail == "" {
		result.SignerEmail = defaults.SignerEmail
	}
	if result.StripeSecretKey == "" {
		result.StripeSecretKey = defaults.StripeSecretKey
	}
	if result.SMTPHost == "" {
		result.SMTPHost = defaults.SMTPHost
	}
	if result.SMTPPort == 0 {
		result.SMTPPort = defaults.SMTPPort
	}
	if result.SMTPUsername == "" {
		result.SMTPUsername = defaults.SMTPUsername
	}
	if result.SMTPPassword == "" {
		result.SMTPPassword = defaults.SMTPPassword
	}
	if result.MailFrom == "" {
		result.MailFrom = defaults.MailFrom
	}
	if result.MailFromName == "" {
		result.MailFromName = defaults.MailFromName
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
