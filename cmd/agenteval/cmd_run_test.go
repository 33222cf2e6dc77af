package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localagent/agenteval/internal/agents"
	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/orchestration"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun_RequiresModel(t *testing.T) {
	_, err := runCLI(t, "run", "--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--agent", "vibe", "--prompt-file", "x.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model")
}

func TestRun_RequiresAgents(t *testing.T) {
	_, err := runCLI(t, "run", "--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--model", "m", "--prompt-file", "x.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agents")
}

func TestRun_RequiresPrompts(t *testing.T) {
	_, err := runCLI(t, "run", "--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--model", "m", "--agent", "vibe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no prompt files")
}

func TestRun_MissingPromptFileFailsBeforeAnyWorkspace(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "evals")

	_, err := runCLI(t, "run", "--config", filepath.Join(dir, "none.yaml"),
		"--model", "m", "--agent", "vibe", "--root", root,
		"--prompt-file", filepath.Join(dir, "missing.md"))
	require.Error(t, err)

	// Validation failures must not leave a partially created tree.
	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_UnknownAgentIsConfigError(t *testing.T) {
	dir := t.TempDir()
	prompt := filepath.Join(dir, "p.md")
	require.NoError(t, os.WriteFile(prompt, []byte("task"), 0o644))

	_, err := runCLI(t, "run", "--config", filepath.Join(dir, "none.yaml"),
		"--model", "m", "--agent", "definitely-not-an-agent", "--prompt-file", prompt)
	require.Error(t, err)
	assert.Equal(t, ExitConfig, classify(err))
}

func TestBuildTasks_CrossProduct(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-agent")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	var prompts []string
	for _, name := range []string{"a.md", "b.md"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("task"), 0o644))
		prompts = append(prompts, p)
	}

	reg := agents.NewRegistry()
	reg.Register(agents.Profile{Name: "one", Binary: bin})
	reg.Register(agents.Profile{Name: "two", Binary: bin})

	tasks, err := buildTasks(reg, []string{"one", "two"}, prompts)
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, orchestration.Task{Agent: "one", PromptPath: prompts[0]}, tasks[0])
	assert.Equal(t, orchestration.Task{Agent: "two", PromptPath: prompts[1]}, tasks[3])
}

func TestBuildTasks_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	prompt := filepath.Join(dir, "p.md")
	require.NoError(t, os.WriteFile(prompt, []byte("task"), 0o644))

	reg := agents.NewRegistry()
	reg.Register(agents.Profile{Name: "ghost", Binary: "agenteval-test-no-such-binary"})

	_, err := buildTasks(reg, []string{"ghost"}, []string{prompt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found on PATH")
}

func TestPrintSummary(t *testing.T) {
	now := time.Now().UTC()
	result := &orchestration.BatchResult{
		Model: "test-model",
		Outcomes: []orchestration.RunOutcome{
			{
				RunID: "vibe_test-model_fib",
				Record: &models.RunRecord{
					Status:      models.StatusSuccess,
					StartedAt:   now.Add(-time.Minute),
					CompletedAt: now,
					Script:      models.ScriptExecution{Disposition: models.ScriptExecuted},
				},
			},
			{
				RunID: "claude_test-model_fib",
				Record: &models.RunRecord{
					Status:      models.StatusTimedOut,
					StartedAt:   now.Add(-time.Minute),
					CompletedAt: now,
					Script:      models.ScriptExecution{Disposition: models.ScriptNone},
				},
			},
		},
	}

	out := &bytes.Buffer{}
	printSummary(out, result)

	s := out.String()
	assert.Contains(t, s, "vibe_test-model_fib")
	assert.Contains(t, s, "success")
	assert.Contains(t, s, "timed-out")
	assert.Contains(t, s, "1/2 run(s) succeeded")
}
