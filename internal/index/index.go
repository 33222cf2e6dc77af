// Package index builds the top-level dashboard page linking every run
// report under an evaluations root. Output is deterministic for a given
// tree: entries are sorted by directory name and the page carries no
// timestamps, so rebuilding without new runs is a byte-identical no-op.
package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/localagent/agenteval/internal/agents"
	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/workspace"
)

// IndexFilename is the page written next to the evaluations root.
const IndexFilename = "index.html"

// Entry is one run directory as it appears on the dashboard.
type Entry struct {
	DirName      string
	AgentDisplay string
	ModelPrompt  string
	Status       models.Status
	HasReport    bool
	ReportLink   string
	// Degraded marks directories whose run record was missing or invalid;
	// their metadata is recovered from the directory name alone.
	Degraded bool
}

// Builder scans an evaluations root and writes the dashboard.
type Builder struct {
	registry *agents.Registry
	logger   *slog.Logger
}

// NewBuilder creates a Builder. A nil registry falls back to the built-in
// agent set; a nil logger uses slog.Default.
func NewBuilder(registry *agents.Registry, logger *slog.Logger) *Builder {
	if registry == nil {
		registry = agents.Builtin()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{registry: registry, logger: logger}
}

// Scan collects one entry per run directory under root, sorted by directory
// name. Directories with a broken or absent run record are kept as degraded
// entries rather than dropped; a dashboard that silently hides runs is
// worse than one that flags them.
func (b *Builder) Scan(root string) ([]Entry, error) {
	items, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	rootBase := filepath.Base(root)
	var entries []Entry
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		entries = append(entries, b.scanDir(root, rootBase, item.Name()))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].DirName < entries[j].DirName })
	return entries, nil
}

func (b *Builder) scanDir(root, rootBase, name string) Entry {
	entry := Entry{
		DirName:    name,
		ReportLink: rootBase + "/" + name + "/" + workspace.ReportFilename,
	}

	if _, err := os.Stat(filepath.Join(root, name, workspace.ReportFilename)); err == nil {
		entry.HasReport = true
	}

	rec, err := loadRecord(filepath.Join(root, name))
	if err != nil {
		b.logger.Warn("run record unusable, indexing from directory name", "dir", name, "error", err)
		entry.Degraded = true
		entry.AgentDisplay, entry.ModelPrompt = parseDirName(name, b.registry)
		return entry
	}

	entry.AgentDisplay = b.registry.DisplayName(rec.Agent)
	entry.ModelPrompt = rec.Model + "_" + rec.PromptName
	entry.Status = rec.Status
	return entry
}

func loadRecord(dir string) (*models.RunRecord, error) {
	return models.LoadRunRecord(filepath.Join(dir, workspace.RecordFilename))
}

// parseDirName recovers agent and model/prompt labels from a run directory
// name of the form agent_model_prompt. Both "_" and "-" separators occur in
// older trees.
func parseDirName(name string, registry *agents.Registry) (agentDisplay, modelPrompt string) {
	sep := "_"
	if !strings.Contains(name, "_") {
		sep = "-"
	}
	parts := strings.Split(name, sep)
	if len(parts) < 3 {
		return "Unknown", name
	}
	return registry.DisplayName(parts[0]), strings.Join(parts[1:], sep)
}

// Write renders the dashboard for root and writes it to outPath. Running
// it twice over an unchanged tree produces byte-identical output.
func (b *Builder) Write(root, outPath string) error {
	entries, err := b.Scan(root)
	if err != nil {
		return err
	}
	page, err := Render(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, page, 0o644); err != nil {
		return err
	}
	b.logger.Info("index written", "path", outPath, "runs", len(entries))
	return nil
}

// DefaultOutputPath places index.html beside the evaluations root so the
// relative report links resolve.
func DefaultOutputPath(root string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(root)), IndexFilename)
}
