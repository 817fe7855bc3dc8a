package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/justworkflowit/workflow-deployer/internal/config"
	"github.com/justworkflowit/workflow-deployer/internal/lifecycle"
	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
	"github.com/justworkflowit/workflow-deployer/internal/secrets"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// ErrPlaceholderCredential is returned by read-only operations while the
// registry credential still holds the bootstrap placeholder.
var ErrPlaceholderCredential = errors.New("registry credential is still the bootstrap placeholder")

// Application is the bootstrapped deployer.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the configuration, unless cfg.Deployer is already
// set, and initializes the services.
func NewApplication(cfg *Config, opts ...ServiceOption) (*Application, error) {
	if cfg.Deployer == nil {
		loader := cfg.Loader
		if loader == nil {
			loader = config.NewLoader()
		}
		deployer, err := loader.Load(cfg.ConfigFile)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load deployer configuration")
			return nil, fmt.Errorf("failed to load deployer configuration: %w", err)
		}
		cfg.Deployer = deployer
	} else if err := cfg.Deployer.Validate(); err != nil {
		return nil, err
	}

	services, err := InitializeServices(cfg, opts...)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Handle processes one lifecycle request.
func (a *Application) Handle(ctx context.Context, req lifecycle.Request) (lifecycle.Response, error) {
	return a.services.Handler.Handle(ctx, req)
}

// Inspect reports the registry state of every configured definition without
// changing it.
func (a *Application) Inspect(ctx context.Context) ([]reconciler.KeyStatus, error) {
	credential, err := a.services.Resolver.Resolve(ctx, a.services.credential)
	if err != nil {
		return nil, err
	}
	if secrets.IsPlaceholder(credential) {
		return nil, ErrPlaceholderCredential
	}

	r, err := a.services.NewReconciler(ctx, credential)
	if err != nil {
		return nil, err
	}
	return r.Inspect(ctx, a.config.Deployer.DefinitionKeys)
}

// Metrics returns the counters shared by all invocations.
func (a *Application) Metrics() *reconciler.Metrics {
	return a.services.Metrics
}

// Config returns the loaded deployer configuration.
func (a *Application) Config() *config.Config {
	return a.config.Deployer
}

// Shutdown flushes pending spans.
func (a *Application) Shutdown(ctx context.Context) error {
	return a.services.Tracing.Shutdown(ctx)
}
