// Package main provides the entry point for the letter fulfillment CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lmn_agent",
	Short: "Letter of Medical Necessity fulfillment",
	Long:  "lmn_agent validates patient intake submissions, generates letters of medical necessity with semantic condition-code search, assembles administrator-ready PDF documents, and dispatches them for counter-signature.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
