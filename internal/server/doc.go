// Package server exposes the lifecycle handler over HTTP for long-running
// deployments.
//
// # Endpoints
//
//   - POST /invoke - process a lifecycle request, body as accepted by
//     lifecycle.Request, response a lifecycle.Result
//   - GET /metrics - reconciliation counters as JSON
//   - GET /healthz - liveness
//
// Concurrent Create and Update requests share a single reconciliation pass,
// so two overlapping invocations can never create the same workflow twice.
// When started under systemd the server reports readiness once it listens.
package server
