// Package wizard collects harness settings interactively for agenteval
// init.
package wizard

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/localagent/agenteval/internal/agents"
	"github.com/localagent/agenteval/internal/config"
)

// RunSetupWizard runs an interactive huh form and returns the resulting
// config file spec.
func RunSetupWizard(in io.Reader, out io.Writer, registry *agents.Registry) (*config.FileSpec, error) {
	if registry == nil {
		registry = agents.Builtin()
	}

	var (
		root       = config.DefaultRoot
		baseURL    = config.DefaultBaseURL
		agent      string
		model      string
		timeoutRaw = strconv.Itoa(int(config.DefaultTimeout.Seconds()))
	)

	var agentOptions []huh.Option[string]
	for _, name := range registry.Names() {
		agentOptions = append(agentOptions, huh.NewOption(registry.DisplayName(name), name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Evaluations directory").
				Description("Where run workspaces are created").
				Value(&root).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("directory is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Model server base URL").
				Description("OpenAI-compatible endpoint of the local model server").
				Value(&baseURL).
				Validate(func(s string) error {
					u, err := url.Parse(strings.TrimSpace(s))
					if err != nil || u.Scheme == "" || u.Host == "" {
						return fmt.Errorf("must be a full URL, e.g. %s", config.DefaultBaseURL)
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Default agent").
				Options(agentOptions...).
				Value(&agent),
			huh.NewInput().
				Title("Default model key").
				Description("Model identifier as known to the server, e.g. mistralai/devstral-small").
				Placeholder("mistralai/devstral-small").
				Value(&model),
			huh.NewInput().
				Title("Run timeout (seconds)").
				Value(&timeoutRaw).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("must be a positive number of seconds")
					}
					return nil
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	timeoutSec, _ := strconv.Atoi(strings.TrimSpace(timeoutRaw))
	return &config.FileSpec{
		Root:         strings.TrimSpace(root),
		BaseURL:      strings.TrimSpace(baseURL),
		TimeoutSec:   timeoutSec,
		DefaultAgent: agent,
		DefaultModel: strings.TrimSpace(model),
	}, nil
}
