package models

// TokenUsage holds token counts extracted from the model server log. Nil
// fields mean the value was never observed; a measured zero is a non-nil
// pointer to zero. Downstream reporting relies on this distinction.
type TokenUsage struct {
	Prompt     *int `json:"prompt,omitempty"`
	Completion *int `json:"completion,omitempty"`
	Total      *int `json:"total,omitempty"`
}

// Known reports whether any token count was observed.
func (u TokenUsage) Known() bool {
	return u.Prompt != nil || u.Completion != nil || u.Total != nil
}

// Snapshot is the immutable metrics record computed once after a run reaches
// a terminal status.
type Snapshot struct {
	Tokens TokenUsage `json:"tokens"`

	// PromptProcessingSec is the total time the server spent in prompt
	// processing, derived from timestamped log lines. Nil when the log
	// contained no such lines.
	PromptProcessingSec *float64 `json:"prompt_processing_sec,omitempty"`

	// TokensPerSec is the generation rate over the wall-clock time minus
	// prompt processing. Nil when completion tokens are unknown.
	TokensPerSec *float64 `json:"tokens_per_sec,omitempty"`

	WallClockSec float64 `json:"wall_clock_sec"`

	// Environment holds hardware/OS strings (machine, cores, OS).
	Environment map[string]string `json:"environment,omitempty"`

	// Software holds version strings for the model host CLI and the agent.
	Software map[string]string `json:"software,omitempty"`

	// Model holds parsed model details (parameters, quantization).
	Model map[string]string `json:"model,omitempty"`

	// Warnings lists non-fatal problems hit while parsing logs. A warning
	// leaves the affected fields unknown, never zeroed.
	Warnings []string `json:"warnings,omitempty"`
}

// IntPtr returns a pointer to v. Convenience for building snapshots.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
