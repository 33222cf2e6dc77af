package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localagent/agenteval/internal/config"
)

func TestInit_CreatesProjectLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")

	out, err := runCLI(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized evaluation project")

	spec, err := config.LoadFile(filepath.Join(dir, "agenteval.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRoot, spec.Root)
	assert.Equal(t, config.DefaultBaseURL, spec.BaseURL)

	prompt, err := os.ReadFile(filepath.Join(dir, "prompts", "fibonacci.md"))
	require.NoError(t, err)
	assert.Contains(t, string(prompt), "Fibonacci")

	info, err := os.Stat(filepath.Join(dir, "evals"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInit_RefusesToOverwriteConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agenteval.yaml"), []byte("root: custom\n"), 0o644))

	_, err := runCLI(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// The existing config is untouched.
	data, readErr := os.ReadFile(filepath.Join(dir, "agenteval.yaml"))
	require.NoError(t, readErr)
	assert.Equal(t, "root: custom\n", string(data))
}
