package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a registry failure.
type Kind string

const (
	// KindServer is a server-side failure (5xx or a server fault indicator).
	KindServer Kind = "server"

	// KindClient is a request the registry rejected and will keep rejecting.
	KindClient Kind = "client"

	// KindNotFound means the addressed entity does not exist. For
	// GetLiveVersion it means no version is live yet.
	KindNotFound Kind = "not_found"

	// KindTransport is a failure before any response was received.
	KindTransport Kind = "transport"
)

// FaultServer is the fault indicator value the registry uses for failures on
// its side.
const FaultServer = "server"

// Error is the single error type returned by registry clients.
type Error struct {
	// Kind is the classification of the failure.
	Kind Kind

	// Operation names the client call that failed, e.g. "ListWorkflows".
	Operation string

	// Message is the human readable description.
	Message string

	// StatusCode is the HTTP status of the response, when one was received.
	StatusCode int

	// FallbackStatusCode is the status reported inside the error payload.
	// It is consulted when StatusCode is absent.
	FallbackStatusCode int

	// Fault is the fault indicator from the error payload ("server" or "client").
	Fault string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	status := e.Status()
	switch {
	case e.Operation != "" && status > 0:
		return fmt.Sprintf("registry %s failed (%s, status %d): %s", e.Operation, e.Kind, status, e.Message)
	case e.Operation != "":
		return fmt.Sprintf("registry %s failed (%s): %s", e.Operation, e.Kind, e.Message)
	default:
		return fmt.Sprintf("registry error (%s): %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the primary status code, falling back to the payload status.
func (e *Error) Status() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return e.FallbackStatusCode
}

// Retryable reports whether the failure is worth another attempt: a status of
// 500 or above, or a server fault indicator.
func (e *Error) Retryable() bool {
	if e.Status() >= http.StatusInternalServerError {
		return true
	}
	return e.Fault == FaultServer
}

// Classify derives the Kind for a response status and fault indicator.
func Classify(statusCode, fallbackStatusCode int, fault string) Kind {
	status := statusCode
	if status <= 0 {
		status = fallbackStatusCode
	}
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= http.StatusInternalServerError, fault == FaultServer:
		return KindServer
	case status > 0:
		return KindClient
	default:
		return KindTransport
	}
}

// NewStatusError builds an *Error from a response status and the optional
// payload fields, classifying it with Classify.
func NewStatusError(operation string, statusCode, fallbackStatusCode int, fault, message string) *Error {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return &Error{
		Kind:               Classify(statusCode, fallbackStatusCode, fault),
		Operation:          operation,
		Message:            message,
		StatusCode:         statusCode,
		FallbackStatusCode: fallbackStatusCode,
		Fault:              fault,
	}
}

// NewTransportError wraps a failure that happened before a response arrived.
func NewTransportError(operation string, err error) *Error {
	return &Error{
		Kind:      KindTransport,
		Operation: operation,
		Message:   err.Error(),
		Err:       err,
	}
}

// IsRetryable reports whether err is, or wraps, a retryable *Error.
func IsRetryable(err error) bool {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr.Retryable()
	}
	return false
}

// IsNotFound reports whether err is, or wraps, an *Error of KindNotFound.
func IsNotFound(err error) bool {
	var regErr *Error
	return errors.As(err, &regErr) && regErr.Kind == KindNotFound
}

// KindOf returns the Kind of err, or the empty Kind when err is not a
// registry error.
func KindOf(err error) Kind {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr.Kind
	}
	return ""
}
