package main

import (
	"github.com/spf13/cobra"

	"github.com/localagent/agenteval/internal/config"
	"github.com/localagent/agenteval/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var (
		port      int
		root      string
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and reports over HTTP",
		Long: `Start a local HTTP server over the evaluations root.

The dashboard is re-rendered on every request, so new runs appear on
reload without rebuilding the index. Run records are exposed as JSON
under /api/runs for tooling.`,
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

			srv, err := webserver.New(webserver.Config{
				Port:      port,
				Root:      root,
				NoBrowser: noBrowser,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 3000, "Port to listen on")
	cmd.Flags().StringVar(&root, "root", "", "Evaluations root directory (default: evals)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open a browser")

	return cmd
}
