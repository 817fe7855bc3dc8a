package registry

import "context"

// LiveTag is the symbolic tag pointing at the version of a workflow that is
// currently active.
const LiveTag = "$LIVE"

// Workflow is a named workflow registered within an organization.
type Workflow struct {
	WorkflowID string `json:"workflowId" yaml:"workflowId"`
	Name       string `json:"name" yaml:"name"`
}

// WorkflowVersion is one registered revision of a workflow definition.
type WorkflowVersion struct {
	VersionID  string `json:"versionId" yaml:"versionId"`
	WorkflowID string `json:"workflowId" yaml:"workflowId"`
	Definition string `json:"definition,omitempty" yaml:"-"`
}

// Client is the capability interface of the workflow registry.
//
// Implementations must not retry on their own; retry decisions belong to the
// caller.
type Client interface {
	// ListWorkflows returns every workflow registered for the organization.
	ListWorkflows(ctx context.Context, orgID string) ([]Workflow, error)

	// RegisterWorkflow creates a new, empty workflow with the given name.
	RegisterWorkflow(ctx context.Context, orgID, name string) (Workflow, error)

	// RegisterWorkflowVersion stores a new version of the workflow definition.
	RegisterWorkflowVersion(ctx context.Context, orgID, workflowID, definition string) (WorkflowVersion, error)

	// GetLiveVersion returns the version currently tagged LiveTag. When no
	// version has been promoted yet it returns an *Error of KindNotFound.
	GetLiveVersion(ctx context.Context, orgID, workflowID string) (*WorkflowVersion, error)

	// SetLiveTag points LiveTag at the given version.
	SetLiveTag(ctx context.Context, orgID, workflowID, versionID string) error
}
