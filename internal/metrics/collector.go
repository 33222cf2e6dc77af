package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/localagent/agenteval/internal/lmstudio"
	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/workspace"
)

// Collector assembles a metrics snapshot for a finished run.
type Collector struct {
	client *lmstudio.Client
	logger *slog.Logger
}

// NewCollector creates a Collector. A nil logger uses slog.Default.
func NewCollector(client *lmstudio.Client, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{client: client, logger: logger}
}

// Collect reads the workspace's server log and probes the host and tool
// versions. Collection never fails a run: each metric that cannot be
// gathered is left absent and noted in the snapshot's warnings.
func (c *Collector) Collect(ctx context.Context, ws *workspace.Workspace, modelKey, agentBinary string, wallClockSec float64) *models.Snapshot {
	snap := &models.Snapshot{
		WallClockSec: wallClockSec,
		Environment:  EnvironmentInfo(),
		Software:     SoftwareVersions(ctx, c.client, agentBinary),
		Model:        ModelInfo(modelKey, c.client.ModelDetails(ctx)),
	}

	logPath := filepath.Join(ws.Dir(), workspace.ServerLogFilename)
	log, ok := readServerLog(logPath)
	if !ok {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("%s not found; token and throughput metrics unavailable", workspace.ServerLogFilename))
		c.logger.Debug("server log missing", "path", logPath)
		return snap
	}

	snap.Tokens = ParseTokenUsage(log)
	if !snap.Tokens.Known() {
		snap.Warnings = append(snap.Warnings, "no token usage blocks found in server log")
	}

	promptTime, measured := ParsePromptProcessingTime(log)
	if measured {
		snap.PromptProcessingSec = models.FloatPtr(promptTime)
	}
	snap.TokensPerSec = TokensPerSecond(snap.Tokens.Completion, wallClockSec, promptTime)

	return snap
}
