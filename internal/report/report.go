// Package report renders the self-contained summary.html for one run. The
// page embeds every workspace artifact as base64 so it can be opened from
// disk or mailed around without the rest of the directory.
package report

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/workspace"
)

//go:embed templates/summary.html.tmpl
var templateFS embed.FS

var summaryTemplate = template.Must(template.ParseFS(templateFS, "templates/summary.html.tmpl"))

// maxEmbedBytes caps how much of a single artifact gets inlined. Larger
// files get a placeholder entry instead of bloating the page.
const maxEmbedBytes = 2 << 20

// Artifact is one workspace file as it appears in the report sidebar.
type Artifact struct {
	Name    string
	Base64  string
	HTML    bool
	Image   bool
	Skipped string
}

// Data is the view model for the summary template.
type Data struct {
	Title         string
	AgentDisplay  string
	ModelName     string
	Status        models.Status
	DurationHuman string
	PromptHTML    template.HTML
	PromptTimeStr string
	TokensPrompt  string
	TokensOutput  string
	TokensTotal   string
	TokensPerSec  string
	Environment   map[string]string
	Software      map[string]string
	Model         map[string]string
	Warnings      []string
	Artifacts     []Artifact
}

// Generator renders run reports.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a Generator. A nil logger uses slog.Default.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate writes summary.html into the workspace. Individual artifacts
// that cannot be read are listed with an error note; only a failure to
// write the report file itself is returned as an error.
func (g *Generator) Generate(ws *workspace.Workspace, rec *models.RunRecord, promptText, agentDisplay string) error {
	data := g.buildData(ws, rec, promptText, agentDisplay)

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	path := filepath.Join(ws.Dir(), workspace.ReportFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	g.logger.Info("report written", "path", path)
	return nil
}

func (g *Generator) buildData(ws *workspace.Workspace, rec *models.RunRecord, promptText, agentDisplay string) *Data {
	data := &Data{
		Title:        "Evaluation Report: " + rec.Model,
		AgentDisplay: agentDisplay,
		ModelName:    rec.Model,
		Status:       rec.Status,
		PromptHTML:   renderPrompt(promptText),
		TokensPrompt: "n/a",
		TokensOutput: "n/a",
		TokensTotal:  "n/a",
		TokensPerSec: "n/a",
	}

	if snap := rec.Metrics; snap != nil {
		data.DurationHuman = FormatDuration(snap.WallClockSec)
		data.Environment = snap.Environment
		data.Software = snap.Software
		data.Model = snap.Model
		data.Warnings = snap.Warnings
		if snap.Tokens.Prompt != nil {
			data.TokensPrompt = fmt.Sprintf("%d", *snap.Tokens.Prompt)
		}
		if snap.Tokens.Completion != nil {
			data.TokensOutput = fmt.Sprintf("%d", *snap.Tokens.Completion)
		}
		if snap.Tokens.Total != nil {
			data.TokensTotal = fmt.Sprintf("%d", *snap.Tokens.Total)
		}
		if snap.TokensPerSec != nil {
			data.TokensPerSec = fmt.Sprintf("~%.2f tokens/sec", *snap.TokensPerSec)
		}
		if snap.PromptProcessingSec != nil {
			data.PromptTimeStr = FormatDuration(*snap.PromptProcessingSec)
		}
	}

	names, err := ws.Artifacts()
	if err != nil {
		g.logger.Warn("listing artifacts failed", "error", err)
	}
	for _, name := range names {
		data.Artifacts = append(data.Artifacts, g.loadArtifact(ws, name)...)
	}
	return data
}

// loadArtifact returns the sidebar entries for one file. HTML files get two
// entries, a live preview and a source view, matching how a reviewer wants
// to inspect generated pages.
func (g *Generator) loadArtifact(ws *workspace.Workspace, name string) []Artifact {
	lower := strings.ToLower(name)
	isHTML := strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
	isImage := hasAnySuffix(lower, ".png", ".jpg", ".jpeg", ".gif", ".svg")

	if isImage {
		return []Artifact{{Name: name, Image: true}}
	}

	art := Artifact{Name: name, HTML: isHTML}
	info, err := os.Stat(filepath.Join(ws.Dir(), name))
	switch {
	case err != nil:
		art.Skipped = fmt.Sprintf("unreadable: %v", err)
	case info.Size() > maxEmbedBytes:
		art.Skipped = fmt.Sprintf("too large to embed (%d bytes)", info.Size())
	default:
		raw, err := os.ReadFile(filepath.Join(ws.Dir(), name))
		if err != nil {
			art.Skipped = fmt.Sprintf("unreadable: %v", err)
		} else {
			art.Base64 = base64.StdEncoding.EncodeToString(raw)
		}
	}
	if art.Skipped != "" {
		g.logger.Warn("artifact not embedded", "name", name, "reason", art.Skipped)
	}
	return []Artifact{art}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// renderPrompt converts the prompt Markdown to HTML. Goldmark escapes raw
// HTML by default, so agent-authored prompt text cannot inject script into
// the report.
func renderPrompt(promptText string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(promptText), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(promptText) + "</pre>")
	}
	return template.HTML(buf.String())
}

// FormatDuration renders seconds as a short human string, e.g. "42.10 sec"
// or "1h 3m 4.5s".
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		return "0.00 sec"
	}
	if seconds < 60 {
		return fmt.Sprintf("%.2f sec", seconds)
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	rest := seconds - float64(hours*3600+minutes*60)

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if rest > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%.1fs", rest))
	}
	return strings.Join(parts, " ")
}
