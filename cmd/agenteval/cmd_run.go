package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/localagent/agenteval/internal/agents"
	"github.com/localagent/agenteval/internal/config"
	"github.com/localagent/agenteval/internal/index"
	"github.com/localagent/agenteval/internal/lmstudio"
	"github.com/localagent/agenteval/internal/orchestration"
)

type runFlags struct {
	model         string
	agentNames    []string
	promptFiles   []string
	root          string
	baseURL       string
	agentsFile    string
	timeoutSec    int
	scriptSec     int
	headful       bool
	force         bool
	parallel      bool
	workers       int
	skipModelLoad bool
	noServerLog   bool
	noIndex       bool
	open          bool
	verbose       bool
}

func newRunCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run agents against a local model",
		Long: `Run one or more agent CLIs against a model served by LM Studio.

Every agent is paired with every prompt file; each pairing gets an
isolated workspace under the evaluations root named
{agent}_{model}_{prompt}. The workspace collects the prompt, the full
agent transcript, the model server log, the execution output of any
generated script, a machine-readable run record and a self-contained
HTML report. After the batch, the dashboard index is rebuilt.`,
		Example: `  agenteval run --model mistralai/devstral-small --agent vibe --prompt-file prompts/fib.md
  agenteval run --model qwen3-8b --agent claude --agent gemini --prompt-file prompts/fib.md --force
  agenteval run --model qwen3-8b --agent crush --prompt-file a.md --prompt-file b.md --parallel --workers 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommandE(cmd, &flags)
		},
	}

	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "Model key to load and evaluate (required unless set in config)")
	cmd.Flags().StringArrayVarP(&flags.agentNames, "agent", "a", nil, "Agent to run (can be repeated)")
	cmd.Flags().StringArrayVarP(&flags.promptFiles, "prompt-file", "p", nil, "Prompt file (can be repeated)")
	cmd.Flags().StringVar(&flags.root, "root", "", "Evaluations root directory (default: evals)")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Model server base URL (default: "+config.DefaultBaseURL+")")
	cmd.Flags().StringVar(&flags.agentsFile, "agents-file", "", "agents.yaml with custom agent profiles")
	cmd.Flags().IntVar(&flags.timeoutSec, "timeout", 0, "Per-run timeout in seconds (default: 600)")
	cmd.Flags().IntVar(&flags.scriptSec, "script-timeout", 0, "Generated-script timeout in seconds (default: 300)")
	cmd.Flags().BoolVar(&flags.headful, "headful", false, "Run agents interactively instead of headless")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Overwrite existing run workspaces")
	cmd.Flags().BoolVar(&flags.parallel, "parallel", false, "Run tasks concurrently")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().BoolVar(&flags.skipModelLoad, "skip-model-load", false, "Assume the model is already loaded")
	cmd.Flags().BoolVar(&flags.noServerLog, "no-server-log", false, "Skip capturing the model server log")
	cmd.Flags().BoolVar(&flags.noIndex, "no-index", false, "Skip rebuilding the dashboard index after the batch")
	cmd.Flags().BoolVar(&flags.open, "open", false, "Open the dashboard index in a browser afterwards")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Stream agent output to the terminal")

	return cmd
}

func runCommandE(cmd *cobra.Command, flags *runFlags) error {
	fileSpec, err := config.LoadFile(configFlag)
	if err != nil {
		return err
	}

	// Config-file defaults fill in what the flags left empty.
	if flags.model == "" {
		flags.model = fileSpec.DefaultModel
	}
	if len(flags.agentNames) == 0 && fileSpec.DefaultAgent != "" {
		flags.agentNames = []string{fileSpec.DefaultAgent}
	}
	if flags.root == "" {
		flags.root = fileSpec.Root
	}

	if flags.model == "" {
		return fmt.Errorf("no model specified: use --model or set default_model in %s", configFlag)
	}
	if len(flags.agentNames) == 0 {
		return fmt.Errorf("no agents specified: use --agent at least once")
	}
	if len(flags.promptFiles) == 0 {
		return fmt.Errorf("no prompt files specified: use --prompt-file at least once")
	}

	opts := fileSpec.Options()
	if flags.baseURL != "" {
		opts = append(opts, config.WithBaseURL(flags.baseURL))
	}
	if flags.timeoutSec > 0 {
		opts = append(opts, config.WithTimeout(time.Duration(flags.timeoutSec)*time.Second))
	}
	if flags.scriptSec > 0 {
		opts = append(opts, config.WithScriptTimeout(time.Duration(flags.scriptSec)*time.Second))
	}
	if flags.headful {
		opts = append(opts, config.WithHeadless(false))
	}
	if flags.agentsFile != "" {
		opts = append(opts, config.WithAgentsFile(flags.agentsFile))
	}
	opts = append(opts, config.WithVerbose(flags.verbose))
	cfg := config.New(flags.root, opts...)

	registry := agents.Builtin()
	if cfg.AgentsFile() != "" {
		if err := agents.LoadFile(registry, cfg.AgentsFile()); err != nil {
			return err
		}
	}

	tasks, err := buildTasks(registry, flags.agentNames, flags.promptFiles)
	if err != nil {
		return err
	}

	workers := 1
	if flags.parallel {
		workers = 4
		if flags.workers > 0 {
			workers = flags.workers
		}
	}

	orchOpts := []orchestration.Option{
		orchestration.WithForce(flags.force),
		orchestration.WithWorkers(workers),
		orchestration.WithSkipModelLoad(flags.skipModelLoad),
		orchestration.WithServerLog(!flags.noServerLog),
	}
	if flags.verbose && workers == 1 {
		// Interleaved output from parallel runs is unreadable; echo only
		// applies to sequential batches.
		orchOpts = append(orchOpts, orchestration.WithEcho(cmd.OutOrStdout()))
	}

	client := lmstudio.NewClient(cfg.BaseURL())
	orch := orchestration.New(cfg, client, registry, orchOpts...)

	reporter := newProgressReporter(cmd.OutOrStdout())
	orch.OnProgress(reporter.handle)

	result, err := orch.RunBatch(cmd.Context(), flags.model, tasks)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)

	if !flags.noIndex {
		indexPath := index.DefaultOutputPath(cfg.Root())
		if err := index.NewBuilder(registry, nil).Write(cfg.Root(), indexPath); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: index rebuild failed: %v\n", err)
		} else if flags.open {
			if err := openBrowser(indexPath); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: opening browser: %v\n", err)
			}
		}
	}

	return orchestration.ClassifyBatch(result)
}

// buildTasks pairs every agent with every prompt file and validates both
// sides up front. Nothing touches the filesystem until validation passes,
// so a typo never leaves a half-created workspace behind.
func buildTasks(registry *agents.Registry, agentNames, promptFiles []string) ([]orchestration.Task, error) {
	for _, path := range promptFiles {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("prompt file %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("prompt file %s is a directory", path)
		}
	}

	var tasks []orchestration.Task
	for _, name := range agentNames {
		profile, err := registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		if _, err := exec.LookPath(profile.Binary); err != nil {
			return nil, fmt.Errorf("agent %s: binary %q not found on PATH", profile.Name, profile.Binary)
		}
		for _, prompt := range promptFiles {
			tasks = append(tasks, orchestration.Task{Agent: profile.Name, PromptPath: prompt})
		}
	}
	return tasks, nil
}
