package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGenerate_RequiresIntake(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	err := runGenerate(generateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--intake")
}

func TestRunGenerate_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	intakePath := filepath.Join(t.TempDir(), "intake.json")
	require.NoError(t, os.WriteFile(intakePath, []byte(`{}`), 0o644))

	generateCmd.Flags().Set("intake", intakePath)
	defer generateCmd.Flags().Set("intake", "")

	err := runGenerate(generateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestRunGenerate_MissingConfigFile(t *testing.T) {
	generateCmd.Flags().Set("config", "/nonexistent/config.json")
	defer generateCmd.Flags().Set("config", "")

	err := runGenerate(generateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
