package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// configFlag is shared by subcommands that read the optional agenteval.yaml
// config file.
var configFlag string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenteval",
		Short: "agenteval - evaluate coding agent CLIs against local models",
		Long: `agenteval runs coding agent CLIs (Claude Code, Gemini CLI, Mistral Vibe,
OpenCode, Crush) against models served locally by LM Studio, captures
transcripts and server logs, verifies generated scripts, and produces
self-contained HTML reports plus a dashboard index.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&configFlag, "config", "agenteval.yaml", "Path to the optional config file")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newBuildIndexCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
