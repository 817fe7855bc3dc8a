package formatting

import (
	"gopkg.in/yaml.v3"

	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// FormatStatus writes the statuses as a YAML sequence.
func (f *YAMLFormatter) FormatStatus(statuses []reconciler.KeyStatus) error {
	if statuses == nil {
		statuses = []reconciler.KeyStatus{}
	}
	return f.encode(statuses)
}

// FormatMetrics writes the summary as a YAML mapping.
func (f *YAMLFormatter) FormatMetrics(summary reconciler.MetricsSummary) error {
	return f.encode(summary)
}

func (f *YAMLFormatter) encode(data interface{}) error {
	enc := yaml.NewEncoder(f.options.Output)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}
