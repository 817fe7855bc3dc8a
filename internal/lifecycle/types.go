package lifecycle

import (
	"encoding/json"
	"fmt"
)

// RequestType is the lifecycle signal driving an invocation.
type RequestType string

// Request types sent by the deployment trigger. Create and Update both run a
// reconciliation pass; Delete leaves registered workflows in place.
const (
	RequestCreate RequestType = "Create"
	RequestUpdate RequestType = "Update"
	RequestDelete RequestType = "Delete"
)

// Response data keys.
const (
	DataMessage             = "message"
	DataPlaceholderDetected = "placeholderDetected"
	DataIgnoredFailure      = "ignoredFailure"
	DataError               = "error"
)

// DefaultPhysicalResourceID identifies the managed deployment when no other
// id is configured.
const DefaultPhysicalResourceID = "JustWorkflowItWorkflowDeployment"

// Properties are the resource properties passed with a request.
type Properties struct {
	// Timestamp changes on every deployment so the trigger always issues an
	// Update; it carries no other meaning.
	Timestamp string `json:"timestamp,omitempty"`
}

// Request is one lifecycle invocation.
type Request struct {
	RequestType RequestType `json:"RequestType"`
	Properties  Properties  `json:"ResourceProperties"`
}

// UnmarshalJSON accepts both the trigger's PascalCase envelope and the
// camelCase form.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		RequestType        RequestType `json:"RequestType"`
		RequestTypeLower   RequestType `json:"requestType"`
		ResourceProperties *Properties `json:"ResourceProperties"`
		Properties         *Properties `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.RequestType = raw.RequestType
	if r.RequestType == "" {
		r.RequestType = raw.RequestTypeLower
	}
	switch {
	case raw.ResourceProperties != nil:
		r.Properties = *raw.ResourceProperties
	case raw.Properties != nil:
		r.Properties = *raw.Properties
	default:
		r.Properties = Properties{}
	}
	return nil
}

// Response is the outcome reported back to the trigger.
type Response struct {
	PhysicalResourceID string            `json:"PhysicalResourceId"`
	Data               map[string]string `json:"Data"`
}

// Message returns the response message.
func (r Response) Message() string {
	return r.Data[DataMessage]
}

// UnsupportedRequestTypeError reports an unknown lifecycle signal.
type UnsupportedRequestTypeError struct {
	RequestType RequestType
}

func (e *UnsupportedRequestTypeError) Error() string {
	return fmt.Sprintf("unsupported lifecycle request type %q", e.RequestType)
}

// Status is the outcome reported to the trigger.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Result is a Response together with its outcome, in the shape the trigger
// expects.
type Result struct {
	Status             Status            `json:"Status"`
	Reason             string            `json:"Reason,omitempty"`
	PhysicalResourceID string            `json:"PhysicalResourceId"`
	Data               map[string]string `json:"Data,omitempty"`
}

// NewResult combines the return values of Handler.Handle.
func NewResult(resp Response, err error) Result {
	r := Result{
		Status:             StatusSuccess,
		PhysicalResourceID: resp.PhysicalResourceID,
		Data:               resp.Data,
	}
	if err != nil {
		r.Status = StatusFailed
		r.Reason = err.Error()
	}
	return r
}
