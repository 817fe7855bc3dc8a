package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/justworkflowit/workflow-deployer/internal/server"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// Serve runs the HTTP front end until ctx is cancelled or the process
// receives SIGINT or SIGTERM.
func (a *Application) Serve(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Serve", "Serving lifecycle requests for organization %s", a.config.Deployer.OrganizationID)
	return a.NewServer(addr).Run(ctx)
}

// NewServer creates the HTTP front end without starting it.
func (a *Application) NewServer(addr string) *server.Server {
	return server.New(addr, a.services.Handler, a.services.Metrics)
}
