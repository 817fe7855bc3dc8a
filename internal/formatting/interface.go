// Package formatting renders deployment status and metrics for the command
// line in table, JSON or YAML form.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat converts a format name into an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (table, json, yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format    OutputFormat
	NoHeaders bool      // Suppress the table header row
	Color     bool      // Enable colored output
	Output    io.Writer // Defaults to stdout
}

// Formatter renders deployer data.
type Formatter interface {
	FormatStatus(statuses []reconciler.KeyStatus) error
	FormatMetrics(summary reconciler.MetricsSummary) error
}

// New creates the formatter selected by options.Format.
func New(options Options) Formatter {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options}
	case FormatYAML:
		return &YAMLFormatter{options: options}
	default:
		return &TableFormatter{options: options}
	}
}
