package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justworkflowit/workflow-deployer/internal/app"
	"github.com/justworkflowit/workflow-deployer/internal/lifecycle"
	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
	"github.com/justworkflowit/workflow-deployer/internal/testing/mock"
)

// setupDeployer points the configuration at a temporary definition directory
// and a fake registry server.
func setupDeployer(t *testing.T, keys string) *mock.Registry {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.json"), []byte(`{"workflowName":"orders"}`), 0644))

	reg := mock.NewContentAddressedRegistry()
	srv := mock.NewRegistryServer(reg)
	t.Cleanup(srv.Close)

	t.Setenv("DEPLOYER_STORAGE_DIR", dir)
	t.Setenv("DEPLOYER_ORGANIZATION_ID", "org-1")
	t.Setenv("DEPLOYER_CREDENTIAL_SECRET", "deployer/registry")
	t.Setenv("DEPLOYER_REGISTRY_BASE_URL", srv.URL)
	t.Setenv("DEPLOYER_DEFINITION_KEYS", keys)
	t.Setenv("DEPLOYER_RETRY_BASE_DELAY", "1")

	appOptions = []app.ServiceOption{app.WithResolver(mock.NewResolver("token"))}
	t.Cleanup(func() { appOptions = nil })
	return reg
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	handleInput, handleRequestType = "", ""
	statusOutput, statusNoHeaders, statusColor, statusServer = "table", false, false, ""

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

func decodeResult(t *testing.T, out string) lifecycle.Result {
	t.Helper()
	var result lifecycle.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	return result
}

func TestHandle_RequestFromStdin(t *testing.T) {
	reg := setupDeployer(t, `["orders.json"]`)

	out, err := execute(t, `{"RequestType":"Create","ResourceProperties":{"timestamp":"1"}}`, "handle")
	require.NoError(t, err)

	result := decodeResult(t, out)
	assert.Equal(t, lifecycle.StatusSuccess, result.Status)
	assert.Equal(t, lifecycle.DefaultPhysicalResourceID, result.PhysicalResourceID)
	assert.Contains(t, result.Data[lifecycle.DataMessage], "1 created")
	require.Len(t, reg.Workflows(), 1)
	assert.Equal(t, "orders", reg.Workflows()[0].Name)
}

func TestHandle_RequestFromFile(t *testing.T) {
	setupDeployer(t, `["orders.json"]`)
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"requestType":"Delete"}`), 0644))

	out, err := execute(t, "", "handle", "--input", path)
	require.NoError(t, err)
	assert.Contains(t, decodeResult(t, out).Data[lifecycle.DataMessage], "retained")
}

func TestHandle_RequestTypeFlag(t *testing.T) {
	reg := setupDeployer(t, `["orders.json"]`)

	out, err := execute(t, "", "handle", "--request-type", "Update")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusSuccess, decodeResult(t, out).Status)
	assert.Len(t, reg.Workflows(), 1)
}

func TestHandle_FailureExitsNonZero(t *testing.T) {
	setupDeployer(t, `["orders.json","missing.json"]`)

	out, err := execute(t, `{"RequestType":"Update"}`, "handle")
	require.Error(t, err)
	assert.Equal(t, ExitCodeError, getExitCode(err))

	result := decodeResult(t, out)
	assert.Equal(t, lifecycle.StatusFailed, result.Status)
	assert.Contains(t, result.Reason, "missing.json")
}

func TestHandle_IgnoredFailureSucceeds(t *testing.T) {
	setupDeployer(t, `["missing.json"]`)
	t.Setenv("DEPLOYER_IGNORE_FAILURES", "true")

	out, err := execute(t, `{"RequestType":"Update"}`, "handle")
	require.NoError(t, err)

	result := decodeResult(t, out)
	assert.Equal(t, lifecycle.StatusSuccess, result.Status)
	assert.Equal(t, "true", result.Data[lifecycle.DataIgnoredFailure])
}

func TestHandle_InvalidConfiguration(t *testing.T) {
	setupDeployer(t, `["orders.json"]`)
	t.Setenv("DEPLOYER_ORGANIZATION_ID", "")

	_, err := execute(t, `{"RequestType":"Create"}`, "handle")
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfig, getExitCode(err))
}

func TestHandle_MalformedRequest(t *testing.T) {
	setupDeployer(t, `["orders.json"]`)

	_, err := execute(t, `not json`, "handle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid lifecycle request")
}

func TestStatus_JSON(t *testing.T) {
	setupDeployer(t, `["orders.json"]`)

	_, err := execute(t, "", "handle", "--request-type", "Create")
	require.NoError(t, err)

	out, err := execute(t, "", "status", "-o", "json")
	require.NoError(t, err)

	var statuses []reconciler.KeyStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses), out)
	require.Len(t, statuses, 1)
	assert.Equal(t, "orders", statuses[0].WorkflowName)
	assert.NotEmpty(t, statuses[0].LiveVersionID)
}

func TestStatus_ServerMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics", r.URL.Path)
		_ = json.NewEncoder(w).Encode(reconciler.MetricsSummary{PassesStarted: 7})
	}))
	defer srv.Close()

	out, err := execute(t, "", "status", "--server", srv.URL, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "passesStarted: 7")
}

func TestStatus_InvalidOutput(t *testing.T) {
	_, err := execute(t, "", "status", "-o", "xml")
	require.Error(t, err)
}
