// Package reconciler deploys workflow definitions to the workflow registry.
//
// # Overview
//
// A reconciliation pass walks the configured definition keys in order and,
// for each key:
//
//  1. Reads and parses the definition blob.
//  2. Finds the workflow by case-insensitive name, creating it on a miss.
//  3. Registers a new version through the retry policy.
//  4. Reads the version currently tagged $LIVE.
//  5. Moves the $LIVE tag to the new version unless it already points there.
//
// # Failure Semantics
//
// Processing is sequential and stops at the first error. Keys processed
// before the failure keep their effects; nothing is rolled back. Every step is
// safe to repeat, so re-running the whole pass converges.
//
// Errors are returned as *KeyError values wrapping the underlying typed
// error (*ParseError, *MissingFieldError, *source.SourceUnavailableError or
// *registry.Error), so callers can still classify them with errors.As.
//
// # Observability
//
// Each pass and each key is traced with OpenTelemetry spans, and outcomes are
// counted in Metrics.
package reconciler
