package mock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/justworkflowit/workflow-deployer/internal/registry"
)

// Registry method names used for call recording and error injection.
const (
	MethodListWorkflows           = "ListWorkflows"
	MethodRegisterWorkflow        = "RegisterWorkflow"
	MethodRegisterWorkflowVersion = "RegisterWorkflowVersion"
	MethodGetLiveVersion          = "GetLiveVersion"
	MethodSetLiveTag              = "SetLiveTag"
)

// Call is one recorded registry call.
type Call struct {
	Method     string
	OrgID      string
	WorkflowID string
	Argument   string
}

// Registry is an in-memory registry.Client.
type Registry struct {
	mu sync.Mutex

	workflows []registry.Workflow
	versions  map[string][]registry.WorkflowVersion
	live      map[string]string
	calls     []Call
	nextID    int

	// contentAddressed derives version ids from the definition content, so
	// registering identical content twice yields the same id.
	contentAddressed bool

	failNext   map[string][]error
	failAlways map[string]error
}

// NewRegistry creates an empty registry that assigns sequential version ids.
func NewRegistry() *Registry {
	return &Registry{
		versions:   make(map[string][]registry.WorkflowVersion),
		live:       make(map[string]string),
		failNext:   make(map[string][]error),
		failAlways: make(map[string]error),
	}
}

// NewContentAddressedRegistry creates a registry whose version ids are
// derived from the definition content.
func NewContentAddressedRegistry() *Registry {
	r := NewRegistry()
	r.contentAddressed = true
	return r
}

// AddWorkflow seeds an existing workflow.
func (r *Registry) AddWorkflow(workflowID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows = append(r.workflows, registry.Workflow{WorkflowID: workflowID, Name: name})
}

// SetLive seeds the live pointer of a workflow.
func (r *Registry) SetLive(workflowID, versionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[workflowID] = versionID
}

// FailNext makes the next len(errs) calls of method fail with errs in order.
func (r *Registry) FailNext(method string, errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext[method] = append(r.failNext[method], errs...)
}

// FailAlways makes every call of method fail with err.
func (r *Registry) FailAlways(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAlways[method] = err
}

// Calls returns a copy of the recorded calls.
func (r *Registry) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns how many times method was called.
func (r *Registry) CallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Workflows returns a copy of the registered workflows.
func (r *Registry) Workflows() []registry.Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]registry.Workflow, len(r.workflows))
	copy(out, r.workflows)
	return out
}

// Versions returns the versions registered for a workflow.
func (r *Registry) Versions(workflowID string) []registry.WorkflowVersion {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]registry.WorkflowVersion, len(r.versions[workflowID]))
	copy(out, r.versions[workflowID])
	return out
}

// Live returns the live version id of a workflow, or "".
func (r *Registry) Live(workflowID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[workflowID]
}

// record logs the call and returns the injected error, if any. Callers hold mu.
func (r *Registry) record(c Call) error {
	r.calls = append(r.calls, c)
	if queued := r.failNext[c.Method]; len(queued) > 0 {
		r.failNext[c.Method] = queued[1:]
		return queued[0]
	}
	return r.failAlways[c.Method]
}

// ListWorkflows implements registry.Client.
func (r *Registry) ListWorkflows(_ context.Context, orgID string) ([]registry.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Method: MethodListWorkflows, OrgID: orgID}); err != nil {
		return nil, err
	}
	out := make([]registry.Workflow, len(r.workflows))
	copy(out, r.workflows)
	return out, nil
}

// RegisterWorkflow implements registry.Client.
func (r *Registry) RegisterWorkflow(_ context.Context, orgID, name string) (registry.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Method: MethodRegisterWorkflow, OrgID: orgID, Argument: name}); err != nil {
		return registry.Workflow{}, err
	}
	r.nextID++
	wf := registry.Workflow{WorkflowID: fmt.Sprintf("wf-%d", r.nextID), Name: name}
	r.workflows = append(r.workflows, wf)
	return wf, nil
}

// RegisterWorkflowVersion implements registry.Client.
func (r *Registry) RegisterWorkflowVersion(_ context.Context, orgID, workflowID, definition string) (registry.WorkflowVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Method: MethodRegisterWorkflowVersion, OrgID: orgID, WorkflowID: workflowID, Argument: definition}); err != nil {
		return registry.WorkflowVersion{}, err
	}

	var versionID string
	if r.contentAddressed {
		sum := sha256.Sum256([]byte(workflowID + "\x00" + definition))
		versionID = "v-" + hex.EncodeToString(sum[:6])
	} else {
		r.nextID++
		versionID = fmt.Sprintf("v-%d", r.nextID)
	}

	v := registry.WorkflowVersion{VersionID: versionID, WorkflowID: workflowID, Definition: definition}
	r.versions[workflowID] = append(r.versions[workflowID], v)
	return v, nil
}

// GetLiveVersion implements registry.Client.
func (r *Registry) GetLiveVersion(_ context.Context, orgID, workflowID string) (*registry.WorkflowVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Method: MethodGetLiveVersion, OrgID: orgID, WorkflowID: workflowID}); err != nil {
		return nil, err
	}
	versionID, ok := r.live[workflowID]
	if !ok {
		return nil, registry.NewStatusError(MethodGetLiveVersion, 404, 0, "client", "no version tagged "+registry.LiveTag)
	}
	return &registry.WorkflowVersion{VersionID: versionID, WorkflowID: workflowID}, nil
}

// SetLiveTag implements registry.Client.
func (r *Registry) SetLiveTag(_ context.Context, orgID, workflowID, versionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Method: MethodSetLiveTag, OrgID: orgID, WorkflowID: workflowID, Argument: versionID}); err != nil {
		return err
	}
	r.live[workflowID] = versionID
	return nil
}

// ServerError returns a retryable registry error.
func ServerError(operation string) error {
	return registry.NewStatusError(operation, 500, 0, registry.FaultServer, "internal server error")
}

// ClientError returns a non-retryable registry error.
func ClientError(operation string) error {
	return registry.NewStatusError(operation, 400, 0, "client", "validation failed")
}
