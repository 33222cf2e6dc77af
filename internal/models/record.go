// Package models defines the persisted data types shared across the harness:
// the per-run record written into each workspace, the metrics snapshot derived
// from captured logs, and loaders that validate records read back from disk.
package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed-out"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusTimedOut, StatusCancelled:
		return true
	}
	return false
}

// ScriptDisposition records what happened during the post-run artifact
// execution step.
type ScriptDisposition string

const (
	// ScriptExecuted means exactly one entry-point script was found and run.
	ScriptExecuted ScriptDisposition = "executed"
	// ScriptAmbiguous means zero or multiple candidate scripts were found,
	// so the step was skipped. This is not an error.
	ScriptAmbiguous ScriptDisposition = "ambiguous"
	// ScriptNone means no recognized script artifacts were present.
	ScriptNone ScriptDisposition = "none"
	// ScriptFailed means the entry-point script was run but exited nonzero
	// or timed out. The run itself is not failed by this.
	ScriptFailed ScriptDisposition = "failed"
)

// ScriptExecution describes the artifact-execution step of a run.
type ScriptExecution struct {
	Disposition ScriptDisposition `json:"disposition"`
	Entrypoint  string            `json:"entrypoint,omitempty"`
	Candidates  []string          `json:"candidates,omitempty"`
	ExitCode    *int              `json:"exit_code,omitempty"`
}

// RunRecord is the persisted record of one evaluation run. It lives as
// run.json inside the run's workspace and is the sole source the index
// builder and dashboard read from. Once the workspace is sealed the record
// is immutable.
type RunRecord struct {
	RunID       string          `json:"run_id"`
	Agent       string          `json:"agent"`
	AgentBinary string          `json:"agent_binary"`
	Model       string          `json:"model"`
	PromptName  string          `json:"prompt_name"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Status      Status          `json:"status"`
	ExitCode    *int            `json:"exit_code,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Script      ScriptExecution `json:"script"`
	Metrics     *Snapshot       `json:"metrics,omitempty"`
}

// RunID derives the identifier used for both the workspace directory and the
// record from the (agent binary, model, prompt) triple.
func RunID(agentBinary, safeModel, promptStem string) string {
	return fmt.Sprintf("%s_%s_%s", agentBinary, safeModel, promptStem)
}

// Duration returns the wall-clock duration of the run.
func (r *RunRecord) Duration() time.Duration {
	if r.CompletedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Save writes the record as indented JSON to path.
func (r *RunRecord) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run record: %w", err)
	}
	return nil
}

// LoadRunRecord reads and validates a run record from path. Records that do
// not conform to the schema are rejected so that downstream consumers (index
// builder, dashboard) can treat them as degraded rather than trusting
// partially written data.
func LoadRunRecord(path string) (*RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := ValidateRunRecord(data); err != nil {
		return nil, fmt.Errorf("invalid run record %s: %w", path, err)
	}

	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse run record %s: %w", path, err)
	}
	return &rec, nil
}
