package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
	"github.com/justworkflowit/workflow-deployer/internal/registry"
	"github.com/justworkflowit/workflow-deployer/internal/retry"
	"github.com/justworkflowit/workflow-deployer/internal/secrets"
	"github.com/justworkflowit/workflow-deployer/internal/testing/mock"
)

const testOrg = "org-1"

type harness struct {
	source    *mock.Source
	registry  *mock.Registry
	resolver  *mock.Resolver
	factories int
	handler   *Handler
}

func newHarness(t *testing.T, credential string, cfg Config) *harness {
	t.Helper()

	h := &harness{
		source: mock.NewSource(map[string]string{
			"orders.json":   `{"workflowName":"orders","steps":[]}`,
			"invoices.json": `{"workflowName":"invoices","steps":[]}`,
		}),
		registry: mock.NewRegistry(),
		resolver: mock.NewResolver(credential),
	}
	policy := retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
	cfg.Credential = secrets.Reference{Namespace: "default", Name: "registry", Key: secrets.DefaultKey}
	h.handler = NewHandler(cfg, h.resolver, func(_ context.Context, cred string) (Deployer, error) {
		h.factories++
		assert.Equal(t, credential, cred)
		return reconciler.New(testOrg, h.source, h.registry, policy), nil
	})
	return h
}

func TestHandle_CreateDeploysDefinitions(t *testing.T) {
	h := newHarness(t, "real-key", Config{DefinitionKeys: []string{"orders.json", "invoices.json"}})

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: RequestCreate})
	require.NoError(t, err)

	assert.Equal(t, DefaultPhysicalResourceID, resp.PhysicalResourceID)
	assert.Equal(t, "Deployed 2 workflow definition(s): 2 created, 2 promoted, 0 already live", resp.Message())
	assert.NotContains(t, resp.Data, DataPlaceholderDetected)
	assert.NotContains(t, resp.Data, DataIgnoredFailure)
	assert.Equal(t, []string{"orders.json", "invoices.json"}, h.source.Reads())
	assert.Len(t, h.registry.Workflows(), 2)
	assert.Equal(t, 1, h.resolver.Calls())
}

func TestHandle_UpdateBehavesLikeCreate(t *testing.T) {
	h := newHarness(t, "real-key", Config{DefinitionKeys: []string{"orders.json"}})
	h.registry.AddWorkflow("wf-1", "Orders")

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: RequestUpdate})
	require.NoError(t, err)

	assert.Equal(t, "Deployed 1 workflow definition(s): 0 created, 1 promoted, 0 already live", resp.Message())
	assert.Equal(t, 0, h.registry.CallCount(mock.MethodRegisterWorkflow))
	assert.NotEmpty(t, h.registry.Live("wf-1"))
}

func TestHandle_PlaceholderSkipsAllRemoteWork(t *testing.T) {
	for _, rt := range []RequestType{RequestCreate, RequestUpdate, RequestDelete, "Bogus"} {
		t.Run(string(rt), func(t *testing.T) {
			h := newHarness(t, secrets.PlaceholderCredential, Config{DefinitionKeys: []string{"orders.json"}})

			resp, err := h.handler.Handle(context.Background(), Request{RequestType: rt})
			require.NoError(t, err)

			assert.Equal(t, "true", resp.Data[DataPlaceholderDetected])
			assert.Equal(t, DefaultPhysicalResourceID, resp.PhysicalResourceID)
			assert.Equal(t, 0, h.factories)
			assert.Empty(t, h.source.Reads())
			assert.Empty(t, h.registry.Calls())
		})
	}
}

func TestHandle_EmptyKeysIsNoOp(t *testing.T) {
	h := newHarness(t, "real-key", Config{})

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: RequestCreate})
	require.NoError(t, err)

	assert.Equal(t, "No workflow definitions configured; nothing to do", resp.Message())
	assert.Equal(t, 0, h.factories)
	assert.Empty(t, h.registry.Calls())
}

func TestHandle_DeleteRetainsRegisteredState(t *testing.T) {
	h := newHarness(t, "real-key", Config{DefinitionKeys: []string{"orders.json"}})
	h.registry.AddWorkflow("wf-1", "orders")
	h.registry.SetLive("wf-1", "v-1")

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: RequestDelete})
	require.NoError(t, err)

	assert.Contains(t, resp.Message(), "retained")
	assert.Equal(t, 0, h.factories)
	assert.Empty(t, h.registry.Calls())
	assert.Equal(t, "v-1", h.registry.Live("wf-1"))
}

func TestHandle_UnknownRequestType(t *testing.T) {
	h := newHarness(t, "real-key", Config{DefinitionKeys: []string{"orders.json"}})

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: "Rollback"})

	var unsupported *UnsupportedRequestTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, RequestType("Rollback"), unsupported.RequestType)
	assert.Equal(t, DefaultPhysicalResourceID, resp.PhysicalResourceID)
	assert.Empty(t, h.registry.Calls())
}

func TestHandle_SecretFailureIsNotContained(t *testing.T) {
	h := newHarness(t, "real-key", Config{DefinitionKeys: []string{"orders.json"}, IgnoreFailures: true})
	h.resolver = mock.NewFailingResolver(errors.New("access denied"))
	h.handler.resolver = h.resolver

	_, err := h.handler.Handle(context.Background(), Request{RequestType: RequestCreate})

	var secretErr *secrets.SecretUnavailableError
	require.ErrorAs(t, err, &secretErr)
	assert.Equal(t, 0, h.factories)
	assert.Empty(t, h.source.Reads())
}

func TestHandle_FailurePropagatesByDefault(t *testing.T) {
	h := newHarness(t, "real-key", Config{DefinitionKeys: []string{"orders.json"}})
	h.registry.FailAlways(mock.MethodRegisterWorkflowVersion, mock.ClientError("RegisterWorkflowVersion"))

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: RequestCreate})
	require.Error(t, err)

	var keyErr *reconciler.KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, reconciler.StepRegister, keyErr.Step)
	assert.Equal(t, registry.KindClient, registry.KindOf(err))
	assert.Equal(t, DefaultPhysicalResourceID, resp.PhysicalResourceID)
	assert.NotContains(t, resp.Data, DataIgnoredFailure)
}

func TestHandle_FailureContainedWhenIgnoring(t *testing.T) {
	h := newHarness(t, "real-key", Config{
		DefinitionKeys: []string{"orders.json", "missing.json", "invoices.json"},
		IgnoreFailures: true,
	})

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: RequestCreate})
	require.NoError(t, err)

	assert.Equal(t, "true", resp.Data[DataIgnoredFailure])
	assert.Contains(t, resp.Data[DataError], "missing.json")
	// The pass still stops at the failing key.
	assert.Equal(t, []string{"orders.json", "missing.json"}, h.source.Reads())
	require.Len(t, h.registry.Workflows(), 1)
	assert.Equal(t, "orders", h.registry.Workflows()[0].Name)
}

func TestHandle_ServerErrorContainedAfterRetries(t *testing.T) {
	h := newHarness(t, "real-key", Config{DefinitionKeys: []string{"orders.json"}, IgnoreFailures: true})
	h.registry.FailAlways(mock.MethodRegisterWorkflowVersion, mock.ServerError("RegisterWorkflowVersion"))

	resp, err := h.handler.Handle(context.Background(), Request{RequestType: RequestCreate})
	require.NoError(t, err)

	assert.Equal(t, DefaultPhysicalResourceID, resp.PhysicalResourceID)
	assert.Equal(t, "true", resp.Data[DataIgnoredFailure])
	assert.Contains(t, resp.Data[DataError], "internal server error")
	assert.Equal(t, 3, h.registry.CallCount(mock.MethodRegisterWorkflowVersion))
	assert.Equal(t, 0, h.registry.CallCount(mock.MethodSetLiveTag))
}

func TestHandle_FactoryFailureIsContained(t *testing.T) {
	resolver := mock.NewResolver("real-key")
	handler := NewHandler(Config{DefinitionKeys: []string{"orders.json"}, IgnoreFailures: true}, resolver,
		func(context.Context, string) (Deployer, error) {
			return nil, errors.New("invalid registry url")
		})

	resp, err := handler.Handle(context.Background(), Request{RequestType: RequestCreate})
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Data[DataIgnoredFailure])
	assert.Contains(t, resp.Data[DataError], "invalid registry url")
}

func TestHandle_PhysicalResourceIDIsStable(t *testing.T) {
	h := newHarness(t, "real-key", Config{
		PhysicalResourceID: "MyDeployment",
		DefinitionKeys:     []string{"orders.json"},
	})

	for _, rt := range []RequestType{RequestCreate, RequestUpdate, RequestUpdate, RequestDelete} {
		resp, err := h.handler.Handle(context.Background(), Request{RequestType: rt})
		require.NoError(t, err)
		assert.Equal(t, "MyDeployment", resp.PhysicalResourceID)
	}
	assert.Equal(t, "MyDeployment", h.handler.PhysicalResourceID())
}

func TestRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  RequestType
		wantStamp string
	}{
		{
			name:      "trigger envelope",
			input:     `{"RequestType":"Update","ResourceProperties":{"timestamp":"1700000000"}}`,
			wantType:  RequestUpdate,
			wantStamp: "1700000000",
		},
		{
			name:      "camel case",
			input:     `{"requestType":"Create","properties":{"timestamp":"42"}}`,
			wantType:  RequestCreate,
			wantStamp: "42",
		},
		{
			name:     "no properties",
			input:    `{"RequestType":"Delete"}`,
			wantType: RequestDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Request
			require.NoError(t, json.Unmarshal([]byte(tt.input), &req))
			assert.Equal(t, tt.wantType, req.RequestType)
			assert.Equal(t, tt.wantStamp, req.Properties.Timestamp)
		})
	}
}

func TestResponse_MarshalJSON(t *testing.T) {
	resp := Response{PhysicalResourceID: "id", Data: map[string]string{DataMessage: "ok"}}

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"PhysicalResourceId":"id","Data":{"message":"ok"}}`, string(out))
}

func TestNewResult(t *testing.T) {
	ok := NewResult(Response{PhysicalResourceID: "id", Data: map[string]string{DataMessage: "done"}}, nil)
	assert.Equal(t, StatusSuccess, ok.Status)
	assert.Empty(t, ok.Reason)
	assert.Equal(t, "done", ok.Data[DataMessage])

	failed := NewResult(Response{PhysicalResourceID: "id"}, errors.New("boom"))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "boom", failed.Reason)
	assert.Equal(t, "id", failed.PhysicalResourceID)
}
