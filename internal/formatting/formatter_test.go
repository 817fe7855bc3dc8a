package formatting

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
)

var testStatuses = []reconciler.KeyStatus{
	{Key: "orders.json", WorkflowName: "orders", WorkflowID: "wf-1", LiveVersionID: "v-3"},
	{Key: "invoices.json", WorkflowName: "invoices"},
	{Key: "broken.json", Error: "definition \"broken.json\" unavailable"},
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]OutputFormat{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestTableFormatter_FormatStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatTable, Output: &buf}).FormatStatus(testStatuses))

	out := buf.String()
	assert.Contains(t, out, "LIVE VERSION")
	assert.Contains(t, out, "orders.json")
	assert.Contains(t, out, "v-3")
	assert.Contains(t, out, "Live")
	assert.Contains(t, out, "Not registered")
	assert.Contains(t, out, "Error: definition")
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Output: &buf, NoHeaders: true}).FormatStatus(testStatuses[:1]))
	assert.NotContains(t, buf.String(), "LIVE VERSION")
	assert.Contains(t, buf.String(), "orders.json")
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Output: &buf}).FormatStatus(nil))
	assert.Equal(t, "No workflow definitions configured\n", buf.String())
}

func TestTableFormatter_FormatMetrics(t *testing.T) {
	var buf bytes.Buffer
	summary := reconciler.MetricsSummary{
		PassesStarted:  2,
		PassesFailed:   1,
		FailuresByStep: map[reconciler.Step]int64{reconciler.StepRegister: 1},
		LastPassAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, New(Options{Output: &buf}).FormatMetrics(summary))

	out := buf.String()
	assert.Contains(t, out, "Failures at register")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
	assert.Contains(t, out, "never")
}

func TestJSONFormatter_FormatStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatJSON, Output: &buf}).FormatStatus(testStatuses))

	var decoded []reconciler.KeyStatus
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testStatuses, decoded)
}

func TestJSONFormatter_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatJSON, Output: &buf}).FormatStatus(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_FormatStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatYAML, Output: &buf}).FormatStatus(testStatuses))

	var decoded []reconciler.KeyStatus
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testStatuses, decoded)
	assert.Contains(t, buf.String(), "liveVersionId: v-3")
}

func TestYAMLFormatter_FormatMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(Options{Format: FormatYAML, Output: &buf}).FormatMetrics(reconciler.MetricsSummary{Promotions: 4}))
	assert.Contains(t, buf.String(), "promotions: 4")
}
