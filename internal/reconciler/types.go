package reconciler

import "fmt"

// Step identifies a stage of reconciling one definition.
type Step string

// Steps in the order a definition passes through them. KeyError.Step and the
// per-step failure counters use these values.
const (
	// StepRead fetches the definition blob from the source.
	StepRead Step = "read"
	// StepParse decodes the blob and extracts the workflow name.
	StepParse Step = "parse"
	// StepList looks the workflow up by name.
	StepList Step = "list"
	// StepCreate registers a workflow that does not exist yet.
	StepCreate Step = "create"
	// StepRegister registers the definition as a new version.
	StepRegister Step = "register"
	// StepGetLive reads the currently live version.
	StepGetLive Step = "get-live"
	// StepSetLive moves the live tag to the new version.
	StepSetLive Step = "set-live"
)

// KeyResult describes what a pass did for one definition key.
type KeyResult struct {
	Key                   string `json:"key" yaml:"key"`
	WorkflowName          string `json:"workflowName" yaml:"workflowName"`
	WorkflowID            string `json:"workflowId" yaml:"workflowId"`
	VersionID             string `json:"versionId" yaml:"versionId"`
	PreviousLiveVersionID string `json:"previousLiveVersionId,omitempty" yaml:"previousLiveVersionId,omitempty"`
	Created               bool   `json:"created" yaml:"created"`
	Promoted              bool   `json:"promoted" yaml:"promoted"`
}

// PassResult collects the results of a completed pass.
type PassResult struct {
	Results []KeyResult `json:"results" yaml:"results"`
}

// Summary returns a one-line description suitable for a lifecycle response.
func (p PassResult) Summary() string {
	var created, promoted int
	for _, r := range p.Results {
		if r.Created {
			created++
		}
		if r.Promoted {
			promoted++
		}
	}
	return fmt.Sprintf("Deployed %d workflow definition(s): %d created, %d promoted, %d already live",
		len(p.Results), created, promoted, len(p.Results)-promoted)
}

// KeyStatus is the read-only view of one definition produced by Inspect.
type KeyStatus struct {
	Key           string `json:"key" yaml:"key"`
	WorkflowName  string `json:"workflowName" yaml:"workflowName"`
	WorkflowID    string `json:"workflowId,omitempty" yaml:"workflowId,omitempty"`
	LiveVersionID string `json:"liveVersionId,omitempty" yaml:"liveVersionId,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// KeyError wraps the failure of one definition key.
type KeyError struct {
	Key   string
	Index int
	Step  Step
	Err   error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("definition %d (%s) failed at %s: %v", e.Index+1, e.Key, e.Step, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}
