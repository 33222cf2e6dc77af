package agents

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// fileSpec is the top-level structure of an agents.yaml file.
type fileSpec struct {
	Agents map[string]agentEntry `yaml:"agents"`
}

// agentEntry describes one agent in agents.yaml. The options map carries
// invocation details and is decoded separately so unknown keys are reported
// instead of silently dropped.
type agentEntry struct {
	DisplayName string         `yaml:"display_name,omitempty"`
	Binary      string         `yaml:"binary,omitempty"`
	AliasFor    string         `yaml:"alias_for,omitempty"`
	Options     map[string]any `yaml:"options,omitempty"`
}

// profileOptions are the tunable invocation details accepted under options.
type profileOptions struct {
	PromptFlag   string            `mapstructure:"prompt_flag"`
	PromptStdin  bool              `mapstructure:"prompt_stdin"`
	ExtraArgs    []string          `mapstructure:"extra_args"`
	TrailingArgs []string          `mapstructure:"trailing_args"`
	HeadlessArgs []string          `mapstructure:"headless_args"`
	Env          map[string]string `mapstructure:"env"`
}

// LoadFile merges agent definitions from a YAML file into the registry.
// Entries for existing names override the builtin profile field-by-field;
// new names create profiles from scratch.
func LoadFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading agents file: %w", err)
	}

	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("parsing agents file %s: %w", path, err)
	}

	for name, entry := range spec.Agents {
		if entry.AliasFor != "" {
			r.Alias(name, entry.AliasFor)
			continue
		}

		// Start from the existing profile when overriding a known agent.
		profile, err := r.Resolve(name)
		if err != nil {
			profile = Profile{Name: name, Binary: name, PromptMode: PromptArg}
		}
		profile.Name = name

		if entry.DisplayName != "" {
			profile.DisplayName = entry.DisplayName
		}
		if entry.Binary != "" {
			profile.Binary = entry.Binary
		}

		if len(entry.Options) > 0 {
			if err := applyOptions(&profile, entry.Options); err != nil {
				return fmt.Errorf("agent %q: %w", name, err)
			}
		}

		r.Register(profile)
	}

	return nil
}

func applyOptions(profile *Profile, options map[string]any) error {
	var opts profileOptions
	var meta mapstructure.Metadata

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &opts,
		Metadata: &meta,
	})
	if err != nil {
		return fmt.Errorf("building options decoder: %w", err)
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}
	if len(meta.Unused) > 0 {
		return fmt.Errorf("unknown option keys: %v", meta.Unused)
	}

	if opts.PromptFlag != "" {
		profile.PromptFlag = opts.PromptFlag
	}
	if opts.PromptStdin {
		profile.PromptMode = PromptStdin
		profile.PromptFlag = ""
	}
	if opts.ExtraArgs != nil {
		profile.ExtraArgs = opts.ExtraArgs
	}
	if opts.TrailingArgs != nil {
		profile.TrailingArgs = opts.TrailingArgs
	}
	if opts.HeadlessArgs != nil {
		profile.HeadlessArgs = opts.HeadlessArgs
	}
	if opts.Env != nil {
		profile.Env = opts.Env
	}

	return nil
}
