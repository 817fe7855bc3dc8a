package formatting

import (
	"fmt"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// FormatStatus renders one row per definition key.
func (f *TableFormatter) FormatStatus(statuses []reconciler.KeyStatus) error {
	if len(statuses) == 0 {
		_, err := fmt.Fprint(f.options.Output, f.formatEmptyMessage("No workflow definitions configured"))
		return err
	}

	t := f.createTable()
	if !f.options.NoHeaders {
		t.AppendHeader(table.Row{f.header("KEY"), f.header("WORKFLOW"), f.header("WORKFLOW ID"), f.header("LIVE VERSION"), f.header("STATE")})
	}
	for _, s := range statuses {
		t.AppendRow(table.Row{s.Key, s.WorkflowName, orDash(s.WorkflowID), orDash(s.LiveVersionID), f.state(s)})
	}
	t.Render()
	return nil
}

// FormatMetrics renders the counters as key-value pairs.
func (f *TableFormatter) FormatMetrics(summary reconciler.MetricsSummary) error {
	t := f.createTable()
	if !f.options.NoHeaders {
		t.AppendHeader(table.Row{f.header("METRIC"), f.header("VALUE")})
	}
	t.AppendRows([]table.Row{
		{"Passes started", summary.PassesStarted},
		{"Passes succeeded", summary.PassesSucceeded},
		{"Passes failed", summary.PassesFailed},
		{"Workflows created", summary.WorkflowsCreated},
		{"Versions registered", summary.VersionsRegistered},
		{"Promotions", summary.Promotions},
		{"Already live", summary.PromotionsSkipped},
	})

	steps := make([]string, 0, len(summary.FailuresByStep))
	for step := range summary.FailuresByStep {
		steps = append(steps, string(step))
	}
	sort.Strings(steps)
	for _, step := range steps {
		t.AppendRow(table.Row{"Failures at " + step, summary.FailuresByStep[reconciler.Step(step)]})
	}

	t.AppendRow(table.Row{"Last pass", formatTime(summary.LastPassAt)})
	t.AppendRow(table.Row{"Last success", formatTime(summary.LastSuccessAt)})
	t.AppendRow(table.Row{"Last failure", formatTime(summary.LastFailureAt)})
	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Output)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	if !f.options.Color {
		return s
	}
	return text.FgHiCyan.Sprint(s)
}

func (f *TableFormatter) state(s reconciler.KeyStatus) string {
	var state string
	var color text.Color
	switch {
	case s.Error != "":
		state, color = "Error: "+truncate(s.Error, 80), text.FgRed
	case s.WorkflowID == "":
		state, color = "Not registered", text.FgYellow
	case s.LiveVersionID == "":
		state, color = "No live version", text.FgYellow
	default:
		state, color = "Live", text.FgGreen
	}
	if !f.options.Color {
		return state
	}
	return color.Sprint(state)
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(message string) string {
	if !f.options.Color {
		return message + "\n"
	}
	return text.FgYellow.Sprint(message) + "\n"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
