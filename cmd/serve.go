package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/justworkflowit/workflow-deployer/internal/server"
)

var serveAddr string

// serveCmd runs the deployer as a long-lived HTTP service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lifecycle requests over HTTP",
	Long: `Starts an HTTP server that accepts lifecycle requests on POST /invoke and
reports reconciliation counters on GET /metrics.

Overlapping Create and Update requests share one reconciliation pass. The
server stops gracefully on SIGINT or SIGTERM and notifies systemd of its
readiness when run as a notify service.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	defer func() { _ = application.Shutdown(context.WithoutCancel(cmd.Context())) }()

	return application.Serve(cmd.Context(), serveAddr)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "Listen address")
}
