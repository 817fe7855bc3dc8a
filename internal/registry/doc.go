// Package registry defines the boundary between the deployer and the remote
// workflow registry.
//
// The Client interface is the only surface the reconciler depends on. Every
// implementation must report failures as *Error values carrying one of the
// Kind constants so callers can classify them with IsRetryable and
// IsNotFound instead of inspecting transport details.
//
// HTTPClient is the production implementation. It speaks JSON over HTTP,
// authenticates with a bearer credential and maps HTTP statuses and error
// payloads into the closed taxonomy before returning. It never retries.
package registry
