package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/justworkflowit/workflow-deployer/internal/config"
	"github.com/justworkflowit/workflow-deployer/internal/lifecycle"
	"github.com/justworkflowit/workflow-deployer/internal/reconciler"
	"github.com/justworkflowit/workflow-deployer/internal/registry"
	"github.com/justworkflowit/workflow-deployer/internal/secrets"
	"github.com/justworkflowit/workflow-deployer/internal/source"
	"github.com/justworkflowit/workflow-deployer/internal/tracing"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// Services holds the collaborators shared by all invocations.
type Services struct {
	Source   source.Reader
	Resolver secrets.Resolver
	Metrics  *reconciler.Metrics
	Tracing  *tracing.Provider
	Handler  *lifecycle.Handler

	deployer   *config.Config
	credential secrets.Reference
	registry   []registry.HTTPOption
}

// ServiceOption replaces a default collaborator.
type ServiceOption func(*Services)

// WithSource reads definitions from src instead of the configured storage.
func WithSource(src source.Reader) ServiceOption {
	return func(s *Services) {
		s.Source = src
	}
}

// WithResolver resolves credentials with r instead of the Kubernetes API.
func WithResolver(r secrets.Resolver) ServiceOption {
	return func(s *Services) {
		s.Resolver = r
	}
}

// WithRegistryHTTPClient sends registry requests through c.
func WithRegistryHTTPClient(c *http.Client) ServiceOption {
	return func(s *Services) {
		s.registry = append(s.registry, registry.WithBaseHTTPClient(c))
	}
}

// InitializeServices creates the collaborators for cfg.Deployer.
//
// Initialization order:
//  1. Tracing provider
//  2. Definition source (directory or bucket)
//  3. Credential resolver
//  4. Lifecycle handler with a per-invocation reconciler factory
func InitializeServices(cfg *Config, opts ...ServiceOption) (*Services, error) {
	d := cfg.Deployer
	ref, err := d.CredentialReference()
	if err != nil {
		return nil, err
	}

	s := &Services{
		Metrics:    reconciler.NewMetrics(),
		deployer:   d,
		credential: ref,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Tracing, err = tracing.NewProvider(tracing.Config{Enabled: cfg.Trace})
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	if s.Source == nil {
		if s.Source, err = newSource(d.Storage); err != nil {
			return nil, err
		}
	}

	if s.Resolver == nil {
		resolver, err := secrets.NewKubernetesResolverFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create Kubernetes client for secret resolution: %w", err)
		}
		s.Resolver = resolver
	}

	userAgent := "workflow-deployer"
	if cfg.Version != "" {
		userAgent += "/" + cfg.Version
	}
	s.registry = append(s.registry, registry.WithTimeout(d.RegistryTimeout), registry.WithUserAgent(userAgent))

	s.Handler = lifecycle.NewHandler(lifecycle.Config{
		PhysicalResourceID: d.PhysicalResourceID,
		Credential:         ref,
		DefinitionKeys:     d.DefinitionKeys,
		IgnoreFailures:     d.IgnoreFailures,
	}, s.Resolver, func(ctx context.Context, credential string) (lifecycle.Deployer, error) {
		return s.NewReconciler(ctx, credential)
	})

	logging.Info("Bootstrap", "Initialized deployer for organization %s with %d definition key(s)", d.OrganizationID, len(d.DefinitionKeys))
	return s, nil
}

// NewReconciler builds a reconciler whose registry client authenticates with
// credential.
func (s *Services) NewReconciler(ctx context.Context, credential string) (*reconciler.Reconciler, error) {
	client, err := registry.NewHTTPClient(ctx, s.deployer.RegistryBaseURL, credential, s.registry...)
	if err != nil {
		return nil, err
	}
	return reconciler.New(s.deployer.OrganizationID, s.Source, client, s.deployer.RetryPolicy(),
		reconciler.WithMetrics(s.Metrics),
		reconciler.WithTracerProvider(s.Tracing.TracerProvider()),
	), nil
}

func newSource(storage config.StorageConfig) (source.Reader, error) {
	if storage.UsesDirectory() {
		logging.Info("Bootstrap", "Reading workflow definitions from directory %s", storage.Dir)
		return source.NewFilesystemReader(storage.Dir)
	}
	logging.Info("Bootstrap", "Reading workflow definitions from bucket %s at %s", storage.Bucket, storage.Endpoint)
	return source.NewMinioReader(storage.Minio())
}
