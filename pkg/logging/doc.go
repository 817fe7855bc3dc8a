// Package logging provides subsystem-tagged structured logging for the
// workflow deployer.
//
// The package wraps Go's slog package behind a small set of helpers so every
// component logs the same way:
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stdout)
//	logging.Info("Reconciler", "Registered version %s for workflow %s", versionID, workflowID)
//	logging.Error("Lifecycle", err, "Deployment failed")
//
// # Subsystems
//
// Each entry carries a "subsystem" attribute naming the emitting component:
//
//   - Bootstrap: process start-up and wiring
//   - Config: configuration loading and validation
//   - Lifecycle: lifecycle request handling and failure containment
//   - Reconciler: the per-definition deployment pass
//   - Registry: workflow registry HTTP traffic
//   - Retry: retry decisions and backoff delays
//   - Secrets: credential resolution
//   - Source: definition source reads
//
// # Formats
//
// Text output is meant for the CLI. JSON output is meant for hosted
// invocations, where log lines are shipped to an aggregator.
//
// # Controller-Runtime Integration
//
// Init also installs the handler as the controller-runtime logger so the
// Kubernetes client used for secret resolution logs through the same sink.
//
// Logging is safe for concurrent use.
package logging
