// Package app wires the deployer together.
//
// NewApplication loads the configuration, sets up tracing and builds the
// long-lived collaborators: the definition source, the credential resolver,
// the shared metrics and the lifecycle handler. The registry client is not
// among them. It is created for each invocation from the credential resolved
// for that invocation.
//
// Example usage:
//
//	cfg := app.NewConfig("/etc/deployer/config.yaml", false)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	defer application.Shutdown(context.Background())
//	resp, err := application.Handle(ctx, req)
package app
