// Package config carries the resolved harness configuration: the evaluation
// root, the model host base URL, and run defaults. Values come from an
// optional agenteval.yaml plus CLI flags; flags win.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the LM Studio OpenAI-compatible endpoint.
const DefaultBaseURL = "http://localhost:1234/v1"

// DefaultRoot is the evaluation root directory, relative to the CWD.
const DefaultRoot = "evals"

// DefaultTimeout bounds a single agent run.
const DefaultTimeout = 10 * time.Minute

// DefaultScriptTimeout bounds execution of a generated entry-point script.
const DefaultScriptTimeout = 5 * time.Minute

// Config is the resolved harness configuration. Construct with New; read
// through accessors so defaults apply uniformly.
type Config struct {
	root          string
	baseURL       string
	timeout       time.Duration
	scriptTimeout time.Duration
	headless      bool
	agentsFile    string
	verbose       bool
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithBaseURL overrides the model host base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout sets the per-run wall-clock timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithScriptTimeout sets the timeout for generated-script execution.
func WithScriptTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.scriptTimeout = d
		}
	}
}

// WithHeadless toggles non-interactive agent invocation.
func WithHeadless(headless bool) Option {
	return func(c *Config) { c.headless = headless }
}

// WithAgentsFile points at an agents.yaml with profile overrides.
func WithAgentsFile(path string) Option {
	return func(c *Config) { c.agentsFile = path }
}

// WithVerbose enables verbose progress output.
func WithVerbose(v bool) Option {
	return func(c *Config) { c.verbose = v }
}

// New builds a Config rooted at root (empty means DefaultRoot).
func New(root string, opts ...Option) *Config {
	c := &Config{
		root:          root,
		baseURL:       DefaultBaseURL,
		timeout:       DefaultTimeout,
		scriptTimeout: DefaultScriptTimeout,
		headless:      true,
	}
	if c.root == "" {
		c.root = DefaultRoot
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Config) Root() string                 { return c.root }
func (c *Config) BaseURL() string              { return c.baseURL }
func (c *Config) Timeout() time.Duration       { return c.timeout }
func (c *Config) ScriptTimeout() time.Duration { return c.scriptTimeout }
func (c *Config) Headless() bool               { return c.headless }
func (c *Config) AgentsFile() string           { return c.agentsFile }
func (c *Config) Verbose() bool                { return c.verbose }

// FileSpec is the agenteval.yaml on-disk format.
type FileSpec struct {
	Root           string `yaml:"root,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSec     int    `yaml:"timeout_seconds,omitempty"`
	ScriptTimeout  int    `yaml:"script_timeout_seconds,omitempty"`
	AgentsFile     string `yaml:"agents_file,omitempty"`
	DefaultAgent   string `yaml:"default_agent,omitempty"`
	DefaultModel   string `yaml:"default_model,omitempty"`
	DefaultHeadful bool   `yaml:"headful,omitempty"`
}

// LoadFile reads an agenteval.yaml. A missing file is not an error; the
// zero FileSpec is returned so flag defaults apply.
func LoadFile(path string) (*FileSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileSpec{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var spec FileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &spec, nil
}

// Options converts a FileSpec to construction options.
func (f *FileSpec) Options() []Option {
	var opts []Option
	if f.BaseURL != "" {
		opts = append(opts, WithBaseURL(f.BaseURL))
	}
	if f.TimeoutSec > 0 {
		opts = append(opts, WithTimeout(time.Duration(f.TimeoutSec)*time.Second))
	}
	if f.ScriptTimeout > 0 {
		opts = append(opts, WithScriptTimeout(time.Duration(f.ScriptTimeout)*time.Second))
	}
	if f.AgentsFile != "" {
		opts = append(opts, WithAgentsFile(f.AgentsFile))
	}
	if f.DefaultHeadful {
		opts = append(opts, WithHeadless(false))
	}
	return opts
}

// Save writes the config to path as YAML.
func (f *FileSpec) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
