// Package orchestration drives evaluation batches end to end: workspace
// allocation, model loading, agent execution, script verification, metrics
// collection, report generation and sealing.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/localagent/agenteval/internal/agents"
	"github.com/localagent/agenteval/internal/config"
	"github.com/localagent/agenteval/internal/lmstudio"
	"github.com/localagent/agenteval/internal/metrics"
	"github.com/localagent/agenteval/internal/models"
	"github.com/localagent/agenteval/internal/report"
	"github.com/localagent/agenteval/internal/runner"
	"github.com/localagent/agenteval/internal/workspace"
)

// Task names one agent/prompt pairing inside a batch. The model is fixed
// per batch since the server loads one model at a time.
type Task struct {
	Agent      string
	PromptPath string
}

// RunOutcome is the result of one task.
type RunOutcome struct {
	Task      Task
	RunID     string
	Workspace string
	Record    *models.RunRecord
	Err       error
}

// BatchResult aggregates a batch.
type BatchResult struct {
	Model    string
	Outcomes []RunOutcome
}

// Succeeded reports whether every run finished with status success.
func (b *BatchResult) Succeeded() bool {
	for _, o := range b.Outcomes {
		if o.Err != nil || o.Record == nil || o.Record.Status != models.StatusSuccess {
			return false
		}
	}
	return true
}

// RunFailureError reports that one or more runs in a batch did not succeed.
type RunFailureError struct {
	Failed int
	Total  int
}

func (e *RunFailureError) Error() string {
	return fmt.Sprintf("%d of %d runs did not succeed", e.Failed, e.Total)
}

// ProgressListener receives progress updates during a batch.
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

const (
	EventBatchStart    EventType = "batch_start"
	EventModelLoaded   EventType = "model_loaded"
	EventRunStart      EventType = "run_start"
	EventRunComplete   EventType = "run_complete"
	EventBatchComplete EventType = "batch_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType EventType
	RunID     string
	RunNum    int
	TotalRuns int
	Status    models.Status
	Duration  time.Duration
	Err       error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithForce overwrites existing run workspaces instead of failing.
func WithForce(force bool) Option {
	return func(o *Orchestrator) { o.force = force }
}

// WithWorkers sets the number of concurrent runs. Values below 2 run the
// batch sequentially, which is the sensible default against a single local
// model server.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 1 {
			o.workers = n
		}
	}
}

// WithSkipModelLoad assumes the model is already resident on the server.
func WithSkipModelLoad(skip bool) Option {
	return func(o *Orchestrator) { o.skipModelLoad = skip }
}

// WithServerLog toggles capturing the model server log per run.
func WithServerLog(enabled bool) Option {
	return func(o *Orchestrator) { o.serverLog = enabled }
}

// WithEcho mirrors agent output to the given writer as runs execute. Only
// useful for sequential batches.
func WithEcho(w io.Writer) Option {
	return func(o *Orchestrator) { o.echo = w }
}

// Orchestrator runs evaluation batches.
type Orchestrator struct {
	cfg      *config.Config
	client   *lmstudio.Client
	registry *agents.Registry
	runner   *runner.Runner
	logger   *slog.Logger

	force         bool
	workers       int
	skipModelLoad bool
	serverLog     bool
	echo          io.Writer

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// New creates an Orchestrator. A nil registry falls back to the built-in
// agents; a nil logger uses slog.Default.
func New(cfg *config.Config, client *lmstudio.Client, registry *agents.Registry, opts ...Option) *Orchestrator {
	if registry == nil {
		registry = agents.Builtin()
	}
	logger := slog.Default()
	o := &Orchestrator{
		cfg:       cfg,
		client:    client,
		registry:  registry,
		runner:    runner.New(logger),
		logger:    logger,
		workers:   1,
		serverLog: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnProgress registers a progress listener
func (o *Orchestrator) OnProgress(listener ProgressListener) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.listeners = append(o.listeners, listener)
}

func (o *Orchestrator) notifyProgress(event ProgressEvent) {
	o.progressMu.Lock()
	listeners := make([]ProgressListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// RunBatch executes every task against the given model. Individual run
// failures do not stop the batch; they are reported in the result. The
// returned error covers batch-level setup only (model load failure).
func (o *Orchestrator) RunBatch(ctx context.Context, model string, tasks []Task) (*BatchResult, error) {
	o.notifyProgress(ProgressEvent{EventType: EventBatchStart, TotalRuns: len(tasks)})

	if !o.skipModelLoad {
		if err := o.client.LoadModel(ctx, model); err != nil {
			return nil, err
		}
	}
	if err := o.client.WaitReady(ctx, 30*time.Second); err != nil {
		return nil, fmt.Errorf("model server not ready: %w", err)
	}
	o.notifyProgress(ProgressEvent{EventType: EventModelLoaded})

	result := &BatchResult{
		Model:    model,
		Outcomes: make([]RunOutcome, len(tasks)),
	}

	g, runCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, task := range tasks {
		g.Go(func() error {
			result.Outcomes[i] = o.runOne(runCtx, model, task, i+1, len(tasks))
			// Run errors live in the outcome; returning them here would
			// cancel the sibling runs.
			return nil
		})
	}
	_ = g.Wait()

	o.notifyProgress(ProgressEvent{EventType: EventBatchComplete, TotalRuns: len(tasks)})
	return result, nil
}

func (o *Orchestrator) runOne(ctx context.Context, model string, task Task, num, total int) RunOutcome {
	outcome := RunOutcome{Task: task}

	profile, err := o.registry.Resolve(task.Agent)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	promptText, err := os.ReadFile(task.PromptPath)
	if err != nil {
		outcome.Err = fmt.Errorf("reading prompt: %w", err)
		return outcome
	}
	promptStem := strings.TrimSuffix(filepath.Base(task.PromptPath), filepath.Ext(task.PromptPath))

	name := workspace.DirName(profile.Binary, model, promptStem)
	outcome.RunID = name
	o.notifyProgress(ProgressEvent{EventType: EventRunStart, RunID: name, RunNum: num, TotalRuns: total})

	ws, err := workspace.Create(o.cfg.Root(), name, o.force)
	if err != nil {
		outcome.Err = err
		o.notifyProgress(ProgressEvent{EventType: EventRunComplete, RunID: name, RunNum: num, TotalRuns: total, Err: err})
		return outcome
	}
	outcome.Workspace = ws.Dir()

	rec, err := o.executeRun(ctx, ws, profile, model, promptStem, string(promptText))
	outcome.Record = rec
	outcome.Err = err

	event := ProgressEvent{EventType: EventRunComplete, RunID: name, RunNum: num, TotalRuns: total, Err: err}
	if rec != nil {
		event.Status = rec.Status
		event.Duration = rec.Duration()
	}
	o.notifyProgress(event)
	return outcome
}

// executeRun performs the full pipeline inside an allocated workspace. A
// record is returned even on failure so the workspace is always sealed
// with an explanation of what happened.
func (o *Orchestrator) executeRun(ctx context.Context, ws *workspace.Workspace, profile agents.Profile, model, promptStem, promptText string) (*models.RunRecord, error) {
	rec := &models.RunRecord{
		RunID:       ws.Name(),
		Agent:       profile.Name,
		AgentBinary: profile.Binary,
		Model:       model,
		PromptName:  promptStem,
		StartedAt:   time.Now().UTC(),
		Status:      models.StatusRunning,
		Script:      models.ScriptExecution{Disposition: models.ScriptNone},
	}

	if err := ws.WritePrompt(promptText); err != nil {
		return o.finishRun(ctx, ws, rec, profile, promptText, fmt.Errorf("writing prompt: %w", err))
	}

	if cf := profile.ConfigFile; cf != nil {
		data, err := cf.Render(model, o.client.BaseURL())
		if err != nil {
			return o.finishRun(ctx, ws, rec, profile, promptText, fmt.Errorf("rendering %s: %w", cf.Name, err))
		}
		if err := ws.WriteFile(cf.Name, data); err != nil {
			return o.finishRun(ctx, ws, rec, profile, promptText, fmt.Errorf("writing %s: %w", cf.Name, err))
		}
	}

	var logStream *lmstudio.LogStream
	if o.serverLog {
		stream, err := o.client.StartLogStream(ws.Path(workspace.ServerLogFilename))
		if err != nil {
			o.logger.Warn("server log capture unavailable", "error", err)
		} else {
			logStream = stream
		}
	}

	res, runErr := o.runner.Run(ctx, &runner.Request{
		Profile:        profile,
		PromptText:     promptText,
		WorkDir:        ws.Dir(),
		TranscriptPath: ws.Path(workspace.TranscriptFilename),
		Env:            o.client.AgentEnv(),
		Timeout:        o.cfg.Timeout(),
		Headless:       o.cfg.Headless(),
		Echo:           o.echo,
	})

	if logStream != nil {
		if err := logStream.Stop(); err != nil {
			o.logger.Warn("stopping server log stream", "error", err)
		}
	}

	if runErr != nil {
		return o.finishRun(ctx, ws, rec, profile, promptText, runErr)
	}

	rec.Status = res.Status
	rec.ExitCode = res.ExitCode
	rec.Reason = res.Reason

	// Script verification runs even after agent failure: a timed-out agent
	// may still have produced a runnable artifact worth inspecting.
	script, err := ws.DetectEntrypoint()
	if err != nil {
		o.logger.Warn("entrypoint detection failed", "error", err)
	} else {
		rec.Script = ws.ExecuteEntrypoint(ctx, script, o.cfg.ScriptTimeout())
	}

	return o.finishRun(ctx, ws, rec, profile, promptText, nil)
}

// finishRun stamps the record, collects metrics, writes the report and
// seals the workspace. It is the single exit path for executeRun so every
// run leaves a sealed, reported workspace behind.
func (o *Orchestrator) finishRun(ctx context.Context, ws *workspace.Workspace, rec *models.RunRecord, profile agents.Profile, promptText string, runErr error) (*models.RunRecord, error) {
	rec.CompletedAt = time.Now().UTC()
	if runErr != nil && !rec.Status.Terminal() {
		rec.Status = models.StatusFailed
		rec.Reason = runErr.Error()
	}
	if rec.Status == models.StatusRunning {
		rec.Status = models.StatusFailed
	}

	collector := metrics.NewCollector(o.client, o.logger)
	rec.Metrics = collector.Collect(ctx, ws, rec.Model, profile.Binary, rec.CompletedAt.Sub(rec.StartedAt).Seconds())

	gen := report.NewGenerator(o.logger)
	if err := gen.Generate(ws, rec, promptText, o.registry.DisplayName(profile.Name)); err != nil {
		o.logger.Warn("report generation failed", "run", rec.RunID, "error", err)
	}

	if err := ws.Seal(rec); err != nil {
		o.logger.Warn("sealing workspace failed", "run", rec.RunID, "error", err)
	}
	return rec, runErr
}

// ClassifyBatch maps a finished batch to the error the CLI reports. A nil
// return means every run succeeded. Workspace collisions take priority
// only when they account for every failure; otherwise the batch is an
// ordinary run failure.
func ClassifyBatch(result *BatchResult) error {
	var failed, collisions int
	var firstCollision error
	for _, o := range result.Outcomes {
		ok := o.Err == nil && o.Record != nil && o.Record.Status == models.StatusSuccess
		if ok {
			continue
		}
		failed++
		if errors.Is(o.Err, workspace.ErrExists) {
			collisions++
			if firstCollision == nil {
				firstCollision = o.Err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	if collisions == failed {
		return firstCollision
	}
	return &RunFailureError{Failed: failed, Total: len(result.Outcomes)}
}
