package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/justworkflowit/workflow-deployer/internal/formatting"
	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
)

var (
	statusOutput    string
	statusNoHeaders bool
	statusColor     bool
	statusServer    string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the registry state of the configured definitions",
	Long: `Reads every configured definition and shows which workflow it maps to and
which version is currently live. Nothing is registered or promoted.

With --server the command instead shows the reconciliation counters of a
running 'serve' instance.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(statusOutput)
	if err != nil {
		return err
	}
	formatter := formatting.New(formatting.Options{
		Format:    format,
		NoHeaders: statusNoHeaders,
		Color:     statusColor,
		Output:    cmd.OutOrStdout(),
	})

	if statusServer != "" {
		summary, err := fetchMetrics(cmd, statusServer)
		if err != nil {
			return err
		}
		return formatter.FormatMetrics(summary)
	}

	application, err := newApplication()
	if err != nil {
		return err
	}
	defer func() { _ = application.Shutdown(cmd.Context()) }()

	statuses, err := application.Inspect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to inspect deployment: %w", err)
	}
	return formatter.FormatStatus(statuses)
}

func fetchMetrics(cmd *cobra.Command, base string) (reconciler.MetricsSummary, error) {
	var summary reconciler.MetricsSummary

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimSuffix(base, "/")+"/metrics", nil)
	if err != nil {
		return summary, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return summary, fmt.Errorf("failed to reach %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return summary, fmt.Errorf("metrics request to %s failed: %s", base, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return summary, fmt.Errorf("invalid metrics response: %w", err)
	}
	return summary, nil
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table, json, yaml)")
	statusCmd.Flags().BoolVar(&statusNoHeaders, "no-headers", false, "Suppress header row in table output")
	statusCmd.Flags().BoolVar(&statusColor, "color", false, "Colorize table output")
	statusCmd.Flags().StringVar(&statusServer, "server", "", "Show counters of a running serve instance at this URL")
}
