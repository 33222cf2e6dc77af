// Package agents maps agent identifiers to the invocation profile of the
// corresponding external CLI. Each supported agent is described by data (a
// capability profile), not a type hierarchy: the profile says how the prompt
// is passed, which flags force non-interactive operation, and whether a
// config file must be generated into the workspace before launch.
package agents

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PromptMode says how prompt text reaches the agent process.
type PromptMode string

const (
	// PromptArg passes the prompt text inline after PromptFlag.
	PromptArg PromptMode = "arg"
	// PromptStdin pipes the prompt file to the agent's stdin.
	PromptStdin PromptMode = "stdin"
)

// ConfigFileSpec describes a config file an agent needs in its working
// directory, rendered before launch with the model key and base URL.
type ConfigFileSpec struct {
	Name string
	// Render produces the file content for the given model and base URL.
	Render func(model, baseURL string) ([]byte, error)
}

// Profile is the capability description of one agent CLI.
type Profile struct {
	// Name is the registry key (e.g. "vibe").
	Name string
	// DisplayName is the human-readable name used in reports.
	DisplayName string
	// Binary is the executable name looked up on PATH.
	Binary string
	// PromptMode selects how the prompt is delivered.
	PromptMode PromptMode
	// PromptFlag is the flag preceding inline prompt text (PromptArg mode).
	PromptFlag string
	// ExtraArgs are fixed arguments placed before the prompt.
	ExtraArgs []string
	// TrailingArgs are fixed arguments placed after the prompt.
	TrailingArgs []string
	// HeadlessArgs are appended when the run is headless.
	HeadlessArgs []string
	// ConfigFile, when non-nil, is written into the workspace before launch.
	ConfigFile *ConfigFileSpec
	// Env holds extra environment variables for the agent process.
	Env map[string]string
}

// CommandLine builds the argv (excluding the binary) for a run.
func (p Profile) CommandLine(promptText string, headless bool) []string {
	args := append([]string{}, p.ExtraArgs...)
	if p.PromptMode == PromptArg {
		if p.PromptFlag != "" {
			args = append(args, p.PromptFlag)
		}
		args = append(args, promptText)
	}
	args = append(args, p.TrailingArgs...)
	if headless {
		args = append(args, p.HeadlessArgs...)
	}
	return args
}

// Registry resolves agent identifiers (including aliases) to profiles.
type Registry struct {
	profiles map[string]Profile
	aliases  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]Profile),
		aliases:  make(map[string]string),
	}
}

// Register adds or replaces a profile.
func (r *Registry) Register(p Profile) {
	r.profiles[strings.ToLower(p.Name)] = p
}

// Alias maps an alternate identifier to a registered profile name.
func (r *Registry) Alias(alias, target string) {
	r.aliases[strings.ToLower(alias)] = strings.ToLower(target)
}

// Resolve returns the profile for name, following aliases.
func (r *Registry) Resolve(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	p, ok := r.profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("unknown agent %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names returns all registered profile names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// titleCaser renders fallback display names for agents the registry does not
// know about (e.g. directories created by a newer build).
var titleCaser = cases.Title(language.English)

// DisplayName returns the human-readable name for an agent identifier,
// falling back to a title-cased form of the raw name.
func (r *Registry) DisplayName(name string) string {
	if p, err := r.Resolve(name); err == nil && p.DisplayName != "" {
		return p.DisplayName
	}
	return titleCaser.String(strings.ToLower(name))
}
