package agents

import (
	"encoding/json"
)

// Builtin returns the registry of agents the harness supports out of the box.
// Invocation details follow each CLI's documented non-interactive mode.
func Builtin() *Registry {
	r := NewRegistry()

	r.Register(Profile{
		Name:        "vibe",
		DisplayName: "Mistral Vibe",
		Binary:      "vibe",
		PromptMode:  PromptArg,
		PromptFlag:  "-p",
	})
	// Historical name for the vibe CLI.
	r.Alias("mistral", "vibe")

	r.Register(Profile{
		Name:        "gemini",
		DisplayName: "Gemini CLI",
		Binary:      "gemini",
		PromptMode:  PromptArg,
		PromptFlag:  "--prompt",
		// --yolo skips tool-use confirmations, required for unattended runs.
		HeadlessArgs: []string{"--yolo"},
	})

	r.Register(Profile{
		Name:         "claude",
		DisplayName:  "Claude Code",
		Binary:       "claude",
		PromptMode:   PromptArg,
		PromptFlag:   "-p",
		HeadlessArgs: []string{"--dangerously-skip-permissions"},
	})

	r.Register(Profile{
		Name:        "opencode",
		DisplayName: "OpenCode CLI",
		Binary:      "opencode",
		PromptMode:  PromptArg,
		PromptFlag:  "-p",
		ConfigFile: &ConfigFileSpec{
			Name:   "opencode.json",
			Render: renderOpenCodeConfig,
		},
	})

	r.Register(Profile{
		Name:         "crush",
		DisplayName:  "Charmbracelet Crush",
		Binary:       "crush",
		PromptMode:   PromptArg,
		ExtraArgs:    []string{"run"},
		HeadlessArgs: []string{"-y"},
	})

	return r
}

// renderOpenCodeConfig points opencode at the local OpenAI-compatible server.
func renderOpenCodeConfig(model, baseURL string) ([]byte, error) {
	cfg := map[string]any{
		"providers": map[string]any{
			"local": map[string]any{
				"type":    "openai",
				"baseUrl": baseURL,
				"model":   model,
			},
		},
		"defaultProvider": "local",
	}
	return json.MarshalIndent(cfg, "", "  ")
}
