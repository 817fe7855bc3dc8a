// Package lifecycle is the invocation entry point of the deployer.
//
// A Handler turns a Create, Update or Delete request into a Response. It
// resolves the registry credential, skips all remote work while the
// credential is still the bootstrap placeholder, and applies the failure
// containment policy around the reconciliation pass.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
	"github.com/justworkflowit/workflow-deployer/internal/secrets"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// Deployer runs a reconciliation pass.
type Deployer interface {
	Reconcile(ctx context.Context, keys []string) (reconciler.PassResult, error)
}

// DeployerFactory builds the deployer for one invocation from the resolved
// credential.
type DeployerFactory func(ctx context.Context, credential string) (Deployer, error)

// Config holds the handler settings.
type Config struct {
	// PhysicalResourceID is reported on every response.
	PhysicalResourceID string

	// Credential locates the registry credential in the secret store.
	Credential secrets.Reference

	// DefinitionKeys are reconciled in order.
	DefinitionKeys []string

	// IgnoreFailures turns reconciliation failures into successful responses
	// that carry the error.
	IgnoreFailures bool
}

// Handler processes lifecycle requests.
type Handler struct {
	cfg         Config
	resolver    secrets.Resolver
	newDeployer DeployerFactory
}

// NewHandler creates a Handler.
func NewHandler(cfg Config, resolver secrets.Resolver, newDeployer DeployerFactory) *Handler {
	if cfg.PhysicalResourceID == "" {
		cfg.PhysicalResourceID = DefaultPhysicalResourceID
	}
	return &Handler{cfg: cfg, resolver: resolver, newDeployer: newDeployer}
}

// PhysicalResourceID returns the id reported on every response.
func (h *Handler) PhysicalResourceID() string {
	return h.cfg.PhysicalResourceID
}

// Handle processes one request. A returned error means the invocation failed
// and must be reported as such to the trigger; the Response still carries
// the physical resource id.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	invocationID := uuid.NewString()
	logging.Info("Lifecycle", "Invocation %s: %s request (timestamp %q)", invocationID, req.RequestType, req.Properties.Timestamp)

	credential, err := h.resolver.Resolve(ctx, h.cfg.Credential)
	if err != nil {
		logging.Error("Lifecycle", err, "Invocation %s: failed to resolve registry credential", invocationID)
		return h.response(""), err
	}
	if secrets.IsPlaceholder(credential) {
		logging.Warn("Lifecycle", "Invocation %s: credential %s still holds the placeholder, skipping deployment", invocationID, h.cfg.Credential)
		resp := h.response("Registry credential is a placeholder; workflow deployment skipped")
		resp.Data[DataPlaceholderDetected] = "true"
		return resp, nil
	}

	switch req.RequestType {
	case RequestCreate, RequestUpdate:
		if len(h.cfg.DefinitionKeys) == 0 {
			logging.Info("Lifecycle", "Invocation %s: no workflow definitions configured", invocationID)
			return h.response("No workflow definitions configured; nothing to do"), nil
		}
		return h.deploy(ctx, invocationID, credential)

	case RequestDelete:
		logging.Info("Lifecycle", "Invocation %s: delete acknowledged, registered workflow versions are retained", invocationID)
		return h.response("Delete acknowledged; registered workflow versions are retained"), nil

	default:
		err := &UnsupportedRequestTypeError{RequestType: req.RequestType}
		logging.Error("Lifecycle", err, "Invocation %s rejected", invocationID)
		return h.response(""), err
	}
}

// deploy runs the pass and applies failure containment.
func (h *Handler) deploy(ctx context.Context, invocationID, credential string) (Response, error) {
	pass, err := h.reconcile(ctx, credential)
	if err == nil {
		return h.response(pass.Summary()), nil
	}

	logging.Error("Lifecycle", err, "Invocation %s: workflow deployment failed", invocationID)
	if !h.cfg.IgnoreFailures {
		return h.response(""), fmt.Errorf("workflow deployment failed: %w", err)
	}

	logging.Warn("Lifecycle", "Invocation %s: ignoring deployment failure as configured", invocationID)
	resp := h.response("Workflow deployment failed; failure ignored as configured")
	resp.Data[DataIgnoredFailure] = "true"
	resp.Data[DataError] = err.Error()
	return resp, nil
}

func (h *Handler) reconcile(ctx context.Context, credential string) (reconciler.PassResult, error) {
	deployer, err := h.newDeployer(ctx, credential)
	if err != nil {
		return reconciler.PassResult{}, fmt.Errorf("failed to initialize deployment: %w", err)
	}
	return deployer.Reconcile(ctx, h.cfg.DefinitionKeys)
}

func (h *Handler) response(message string) Response {
	data := map[string]string{}
	if message != "" {
		data[DataMessage] = message
	}
	return Response{PhysicalResourceID: h.cfg.PhysicalResourceID, Data: data}
}
