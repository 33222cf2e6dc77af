package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/workspace"
)

func writeRun(t *testing.T, root, dirName string, status models.Status, withReport bool) {
	t.Helper()
	dir := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	now := time.Date(2026, 1, 18, 18, 0, 0, 0, time.UTC)
	rec := &models.RunRecord{
		RunID:       dirName,
		Agent:       "vibe",
		AgentBinary: "vibe",
		Model:       "test-model",
		PromptName:  "fib",
		StartedAt:   now,
		CompletedAt: now.Add(time.Minute),
		Status:      status,
		Script:      models.ScriptExecution{Disposition: models.ScriptNone},
	}
	require.NoError(t, rec.Save(filepath.Join(dir, workspace.RecordFilename)))

	if withReport {
		require.NoError(t, os.WriteFile(filepath.Join(dir, workspace.ReportFilename), []byte("<html></html>"), 0o644))
	}
}

func TestScan_SortedAndEnriched(t *testing.T) {
	root := filepath.Join(t.TempDir(), "evals")
	require.NoError(t, os.MkdirAll(root, 0o755))
	writeRun(t, root, "vibe_zmodel_fib", models.StatusSuccess, true)
	writeRun(t, root, "vibe_amodel_fib", models.StatusFailed, true)

	entries, err := NewBuilder(nil, nil).Scan(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "vibe_amodel_fib", entries[0].DirName)
	require.Equal(t, "vibe_zmodel_fib", entries[1].DirName)
	require.Equal(t, "Mistral Vibe", entries[0].AgentDisplay)
	require.Equal(t, models.StatusFailed, entries[0].Status)
	require.Equal(t, "evals/vibe_amodel_fib/summary.html", entries[0].ReportLink)
	require.False(t, entries[0].Degraded)
}

func TestScan_DegradedWithoutRecord(t *testing.T) {
	root := filepath.Join(t.TempDir(), "evals")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "claude_some-model_task"), 0o755))

	entries, err := NewBuilder(nil, nil).Scan(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	require.True(t, e.Degraded)
	require.Equal(t, "Claude Code", e.AgentDisplay)
	require.Equal(t, "some-model_task", e.ModelPrompt)
	require.False(t, e.HasReport)
}

func TestScan_DegradedShortName(t *testing.T) {
	root := filepath.Join(t.TempDir(), "evals")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "leftover"), 0o755))

	entries, err := NewBuilder(nil, nil).Scan(root)
	require.NoError(t, err)
	require.Equal(t, "Unknown", entries[0].AgentDisplay)
	require.Equal(t, "leftover", entries[0].ModelPrompt)
}

func TestScan_IgnoresPlainFiles(t *testing.T) {
	root := filepath.Join(t.TempDir(), "evals")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	entries, err := NewBuilder(nil, nil).Scan(root)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWrite_Idempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "evals")
	require.NoError(t, os.MkdirAll(root, 0o755))
	writeRun(t, root, "vibe_test-model_fib", models.StatusSuccess, true)
	writeRun(t, root, "gemini_test-model_fib", models.StatusTimedOut, false)

	out := DefaultOutputPath(root)
	b := NewBuilder(nil, nil)

	require.NoError(t, b.Write(root, out))
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	require.NoError(t, b.Write(root, out))
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestWrite_EmptyRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "evals")
	require.NoError(t, os.MkdirAll(root, 0o755))

	out := DefaultOutputPath(root)
	require.NoError(t, NewBuilder(nil, nil).Write(root, out))

	page, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(page), "No evaluations found")
}

func TestRender_StatusBadges(t *testing.T) {
	page, err := Render([]Entry{
		{DirName: "a", AgentDisplay: "Gemini CLI", ModelPrompt: "m_p", Status: models.StatusTimedOut, HasReport: true, ReportLink: "evals/a/summary.html"},
		{DirName: "b", AgentDisplay: "Claude Code", ModelPrompt: "m_p", HasReport: false},
	})
	require.NoError(t, err)

	html := string(page)
	require.Contains(t, html, "status-timed-out")
	require.Contains(t, html, "status-missing")
	require.Contains(t, html, "No Report")
}
