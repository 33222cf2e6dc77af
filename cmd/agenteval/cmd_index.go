package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localagent/agenteval/internal/agents"
	"github.com/localagent/agenteval/internal/config"
	"github.com/localagent/agenteval/internal/index"
)

func newBuildIndexCommand() *cobra.Command {
	var (
		root   string
		output string
		open   bool
	)

	cmd := &cobra.Command{
		Use:   "build-index",
		Short: "Rebuild the dashboard index from existing runs",
		Long: `Scan the evaluations root and rebuild index.html.

Every run directory becomes a card linking to its report. Directories
without a readable run record are still listed, reconstructed from the
directory name. Rebuilding over an unchanged tree produces identical
output, so the command is safe to run from cron or CI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileSpec, err := config.LoadFile(configFlag)
			if err != nil {
				return err
			}
			if root == "" {
				root = fileSpec.Root
			}
			if root == "" {
				root = config.DefaultRoot
			}

			registry := agents.Builtin()
			agentsFile := fileSpec.AgentsFile
			if agentsFile != "" {
				if err := agents.LoadFile(registry, agentsFile); err != nil {
					return err
				}
			}

			if output == "" {
				output = index.DefaultOutputPath(root)
			}
			if err := index.NewBuilder(registry, nil).Write(root, output); err != nil {
				return fmt.Errorf("building index for %s: %w", root, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index written to %s\n", output)

			if open {
				if err := openBrowser(output); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: opening browser: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Evaluations root directory (default: evals)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: index.html beside the root)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the index in a browser afterwards")

	return cmd
}
