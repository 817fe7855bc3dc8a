package formatting

import (
	"fmt"

	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
)

// JSONFormatter provides JSON output formatting
type JSONFormatter struct {
	options Options
}

// FormatStatus writes the statuses as a JSON array.
func (f *JSONFormatter) FormatStatus(statuses []reconciler.KeyStatus) error {
	if statuses == nil {
		statuses = []reconciler.KeyStatus{}
	}
	_, err := fmt.Fprintln(f.options.Output, PrettyJSON(statuses))
	return err
}

// FormatMetrics writes the summary as a JSON object.
func (f *JSONFormatter) FormatMetrics(summary reconciler.MetricsSummary) error {
	_, err := fmt.Fprintln(f.options.Output, PrettyJSON(summary))
	return err
}
