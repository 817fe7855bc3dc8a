package reconciler

import (
	"encoding/json"
	"fmt"

	"github.com/justworkflowit/workflow-deployer/internal/source"
)

// WorkflowNameField is the definition field naming the target workflow.
const WorkflowNameField = "workflowName"

// Definition is a parsed definition blob.
type Definition struct {
	Key          string
	WorkflowName string
	// Raw is the blob content as registered with the registry.
	Raw string
}

// ParseError reports a definition that is not a JSON object.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("definition %s is not a valid JSON object: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a definition without a usable required field.
type MissingFieldError struct {
	Key   string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("definition %s is missing a non-empty string %q", e.Key, e.Field)
}

// ParseDefinition validates a blob and extracts its workflow name.
func ParseDefinition(blob source.DefinitionBlob) (Definition, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(blob.RawContent, &fields); err != nil {
		return Definition{}, &ParseError{Key: blob.Key, Err: err}
	}
	if fields == nil {
		return Definition{}, &ParseError{Key: blob.Key, Err: fmt.Errorf("expected an object, got null")}
	}

	rawName, ok := fields[WorkflowNameField]
	if !ok {
		return Definition{}, &MissingFieldError{Key: blob.Key, Field: WorkflowNameField}
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil || name == "" {
		return Definition{}, &MissingFieldError{Key: blob.Key, Field: WorkflowNameField}
	}

	return Definition{
		Key:          blob.Key,
		WorkflowName: name,
		Raw:          string(blob.RawContent),
	}, nil
}
