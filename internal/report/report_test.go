package report

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/workspace"
)

func testRecord() *models.RunRecord {
	now := time.Now().UTC()
	return &models.RunRecord{
		RunID:       "vibe_test-model_fib",
		Agent:       "vibe",
		AgentBinary: "vibe",
		Model:       "test-model",
		PromptName:  "fib",
		StartedAt:   now.Add(-2 * time.Minute),
		CompletedAt: now,
		Status:      models.StatusSuccess,
		ExitCode:    models.IntPtr(0),
		Script:      models.ScriptExecution{Disposition: models.ScriptNone},
		Metrics: &models.Snapshot{
			Tokens: models.TokenUsage{
				Prompt:     models.IntPtr(1200),
				Completion: models.IntPtr(340),
				Total:      models.IntPtr(1540),
			},
			PromptProcessingSec: models.FloatPtr(6.5),
			TokensPerSec:        models.FloatPtr(12.34),
			WallClockSec:        120,
			Environment:         map[string]string{"System": "linux"},
			Software:            map[string]string{"LM Studio CLI": "v0.0.47"},
			Model:               map[string]string{"Full Name": "test-model"},
		},
	}
}

func generate(t *testing.T, rec *models.RunRecord, files map[string][]byte) string {
	t.Helper()
	ws, err := workspace.Create(t.TempDir(), "vibe_test-model_fib", false)
	require.NoError(t, err)
	for name, content := range files {
		require.NoError(t, ws.WriteFile(name, content))
	}
	require.NoError(t, NewGenerator(nil).Generate(ws, rec, "# Task\n\nWrite *fibonacci*.", "Mistral Vibe"))

	out, err := os.ReadFile(filepath.Join(ws.Dir(), workspace.ReportFilename))
	require.NoError(t, err)
	return string(out)
}

func TestGenerate_FullReport(t *testing.T) {
	html := generate(t, testRecord(), map[string][]byte{
		"fib.py":     []byte("print('fib')\n"),
		"index.html": []byte("<h1>demo</h1>"),
	})

	require.Contains(t, html, "Mistral Vibe")
	require.Contains(t, html, "test-model")
	require.Contains(t, html, "1540")
	require.Contains(t, html, "12.34 tokens/sec")
	// Prompt Markdown is rendered, not shown raw.
	require.Contains(t, html, "<em>fibonacci</em>")
	// Source artifacts are embedded as base64.
	require.Contains(t, html, base64.StdEncoding.EncodeToString([]byte("print('fib')\n")))
	// HTML artifacts get both a preview and a source entry.
	require.Contains(t, html, "Preview")
	require.Contains(t, html, "Source")
}

func TestGenerate_UnknownMetricsShowNA(t *testing.T) {
	rec := testRecord()
	rec.Metrics = &models.Snapshot{WallClockSec: 30}

	html := generate(t, rec, nil)
	require.Contains(t, html, "n/a")
	require.NotContains(t, html, ">0</span>")
}

func TestGenerate_BinaryGarbageArtifact(t *testing.T) {
	garbage := []byte{0x00, 0xff, 0x1b, 0x9c, 0x80, 0x7f}
	html := generate(t, testRecord(), map[string][]byte{"blob.bin": garbage})

	// The report still renders and the artifact is present, base64-encoded.
	require.Contains(t, html, "blob.bin")
	require.Contains(t, html, base64.StdEncoding.EncodeToString(garbage))
}

func TestGenerate_OversizeArtifactSkipped(t *testing.T) {
	big := make([]byte, maxEmbedBytes+1)
	html := generate(t, testRecord(), map[string][]byte{"huge.log": big})

	require.Contains(t, html, "huge.log")
	require.Contains(t, html, "too large to embed")
	require.NotContains(t, html, base64.StdEncoding.EncodeToString(big[:64])+"A")
}

func TestGenerate_PromptEscapesRawHTML(t *testing.T) {
	ws, err := workspace.Create(t.TempDir(), "vibe_m_p", false)
	require.NoError(t, err)
	rec := testRecord()
	require.NoError(t, NewGenerator(nil).Generate(ws, rec, "<script>alert(1)</script>", "Vibe"))

	out, err := os.ReadFile(filepath.Join(ws.Dir(), workspace.ReportFilename))
	require.NoError(t, err)
	require.NotContains(t, string(out), "<script>alert(1)</script>")
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{-1, "0.00 sec"},
		{42.1, "42.10 sec"},
		{60, "1m"},
		{125.5, "2m 5.5s"},
		{3725, "1h 2m 5.0s"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatDuration(tc.seconds), "seconds=%v", tc.seconds)
	}
}

func TestGenerate_ArtifactListExcludesHarnessFiles(t *testing.T) {
	html := generate(t, testRecord(), map[string][]byte{"solution.py": []byte("pass\n")})
	require.NotContains(t, html, ">"+workspace.RecordFilename+"<")
	require.True(t, strings.Contains(html, "solution.py"))
}
