package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/localagent/agenteval/internal/config"
	"github.com/localagent/agenteval/internal/wizard"
)

const examplePrompt = `# Fibonacci

Write a single, self-contained script that prints the first ten numbers
of the Fibonacci sequence as a comma-separated list, starting from 0.
`

func newInitCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize an evaluation project",
		Long: `Initialize a directory for agent evaluations.

Creates an agenteval.yaml config file, a prompts/ directory with an
example prompt, and the evaluations root.

Use --interactive to run a guided wizard that collects the model server
endpoint and run defaults.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the guided setup wizard")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive bool) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	spec := &config.FileSpec{
		Root:       config.DefaultRoot,
		BaseURL:    config.DefaultBaseURL,
		TimeoutSec: int(config.DefaultTimeout.Seconds()),
	}
	if interactive {
		collected, err := wizard.RunSetupWizard(cmd.InOrStdin(), cmd.OutOrStdout(), nil)
		if err != nil {
			return err
		}
		spec = collected
	}

	configPath := filepath.Join(dir, "agenteval.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if err := spec.Save(configPath); err != nil {
		return err
	}

	promptsDir := filepath.Join(dir, "prompts")
	if err := os.MkdirAll(promptsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create prompts directory: %w", err)
	}
	promptPath := filepath.Join(promptsDir, "fibonacci.md")
	if _, err := os.Stat(promptPath); os.IsNotExist(err) {
		if err := os.WriteFile(promptPath, []byte(examplePrompt), 0o644); err != nil {
			return fmt.Errorf("failed to write example prompt: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, spec.Root), 0o755); err != nil {
		return fmt.Errorf("failed to create evaluations root: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized evaluation project in %s\n", dir)
	fmt.Fprintf(out, "  %s\n", configPath)
	fmt.Fprintf(out, "  %s\n", promptPath)
	fmt.Fprintf(out, "  %s%c\n", filepath.Join(dir, spec.Root), os.PathSeparator)
	fmt.Fprintln(out, "\nNext: agenteval run --model <model-key> --agent vibe --prompt-file "+promptPath)
	return nil
}
