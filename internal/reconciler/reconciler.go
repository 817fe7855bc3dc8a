package reconciler

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/justworkflowit/workflow-deployer/internal/registry"
	"github.com/justworkflowit/workflow-deployer/internal/retry"
	"github.com/justworkflowit/workflow-deployer/internal/source"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

const tracerName = "github.com/justworkflowit/workflow-deployer/internal/reconciler"

// Reconciler deploys definitions for one organization.
type Reconciler struct {
	orgID    string
	source   source.Reader
	registry registry.Client
	policy   retry.Policy
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMetrics records pass outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithTracerProvider traces passes with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Reconciler) {
		r.tracer = tp.Tracer(tracerName)
	}
}

// New creates a Reconciler.
func New(orgID string, src source.Reader, reg registry.Client, policy retry.Policy, opts ...Option) *Reconciler {
	r := &Reconciler{
		orgID:    orgID,
		source:   src,
		registry: reg,
		policy:   policy,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs one pass over keys in order and stops at the first failure.
// The returned PassResult holds the keys completed before any failure.
func (r *Reconciler) Reconcile(ctx context.Context, keys []string) (PassResult, error) {
	ctx, span := r.tracer.Start(ctx, "reconcile.pass", trace.WithAttributes(
		attribute.String("organization.id", r.orgID),
		attribute.Int("definitions.count", len(keys)),
	))
	defer span.End()

	r.metrics.recordPassStart(len(keys))
	logging.Info("Reconciler", "Starting reconciliation of %d definition(s) for organization %s", len(keys), r.orgID)

	var pass PassResult
	for i, key := range keys {
		result, err := r.reconcileKey(ctx, i, key)
		if err != nil {
			var keyErr *KeyError
			if errors.As(err, &keyErr) {
				r.metrics.recordPassFailure(keyErr.Step)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logging.Error("Reconciler", err, "Reconciliation aborted at definition %d of %d; %d remaining definition(s) skipped",
				i+1, len(keys), len(keys)-i-1)
			return pass, err
		}
		r.metrics.recordKey(result)
		pass.Results = append(pass.Results, result)
	}

	r.metrics.recordPassSuccess()
	logging.Info("Reconciler", "%s", pass.Summary())
	return pass, nil
}

func (r *Reconciler) reconcileKey(ctx context.Context, index int, key string) (KeyResult, error) {
	ctx, span := r.tracer.Start(ctx, "reconcile.definition", trace.WithAttributes(
		attribute.String("definition.key", key),
		attribute.Int("definition.index", index),
	))
	defer span.End()

	fail := func(step Step, err error) (KeyResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(step))
		return KeyResult{}, &KeyError{Key: key, Index: index, Step: step, Err: err}
	}

	blob, err := r.source.Read(ctx, key)
	if err != nil {
		return fail(StepRead, err)
	}
	def, err := ParseDefinition(blob)
	if err != nil {
		return fail(StepParse, err)
	}
	span.SetAttributes(attribute.String("workflow.name", def.WorkflowName))

	result := KeyResult{Key: key, WorkflowName: def.WorkflowName}

	workflowID, found, err := r.findWorkflow(ctx, def.WorkflowName)
	if err != nil {
		return fail(StepList, err)
	}
	if !found {
		logging.Info("Reconciler", "Workflow %q not found, creating it", def.WorkflowName)
		created, err := r.registry.RegisterWorkflow(ctx, r.orgID, def.WorkflowName)
		if err != nil {
			return fail(StepCreate, err)
		}
		workflowID = created.WorkflowID
		result.Created = true
	}
	result.WorkflowID = workflowID
	span.SetAttributes(attribute.String("workflow.id", workflowID))

	var version registry.WorkflowVersion
	err = r.policy.Do(ctx, "RegisterWorkflowVersion", func(ctx context.Context) error {
		v, err := r.registry.RegisterWorkflowVersion(ctx, r.orgID, workflowID, def.Raw)
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return fail(StepRegister, err)
	}
	result.VersionID = version.VersionID
	logging.Info("Reconciler", "Registered version %s for workflow %q (%s)", version.VersionID, def.WorkflowName, workflowID)

	live, err := r.liveVersion(ctx, workflowID)
	if err != nil {
		return fail(StepGetLive, err)
	}
	if live != nil {
		result.PreviousLiveVersionID = live.VersionID
	}

	if live != nil && live.VersionID == version.VersionID {
		logging.Info("Reconciler", "Version %s of workflow %q is already live", version.VersionID, def.WorkflowName)
		return result, nil
	}

	if err := r.registry.SetLiveTag(ctx, r.orgID, workflowID, version.VersionID); err != nil {
		return fail(StepSetLive, err)
	}
	result.Promoted = true
	span.SetAttributes(attribute.Bool("workflow.promoted", true))
	logging.Info("Reconciler", "Promoted version %s of workflow %q to %s", version.VersionID, def.WorkflowName, registry.LiveTag)

	return result, nil
}

// findWorkflow looks the workflow up by case-insensitive name.
func (r *Reconciler) findWorkflow(ctx context.Context, name string) (string, bool, error) {
	workflows, err := r.registry.ListWorkflows(ctx, r.orgID)
	if err != nil {
		return "", false, err
	}
	for _, wf := range workflows {
		if strings.EqualFold(wf.Name, name) {
			return wf.WorkflowID, true, nil
		}
	}
	return "", false, nil
}

// liveVersion returns the live version, or nil when none has been promoted.
func (r *Reconciler) liveVersion(ctx context.Context, workflowID string) (*registry.WorkflowVersion, error) {
	live, err := r.registry.GetLiveVersion(ctx, r.orgID, workflowID)
	if err != nil {
		if registry.IsNotFound(err) {
			logging.Debug("Reconciler", "Workflow %s has no live version yet", workflowID)
			return nil, nil
		}
		return nil, err
	}
	return live, nil
}

// Inspect reports, without changing anything, which workflow and live version
// each key currently maps to. Unlike Reconcile it continues past failing keys
// and records their errors.
func (r *Reconciler) Inspect(ctx context.Context, keys []string) ([]KeyStatus, error) {
	ctx, span := r.tracer.Start(ctx, "reconcile.inspect")
	defer span.End()

	workflows, err := r.registry.ListWorkflows(ctx, r.orgID)
	if err != nil {
		return nil, err
	}

	statuses := make([]KeyStatus, 0, len(keys))
	for _, key := range keys {
		status := KeyStatus{Key: key}

		blob, err := r.source.Read(ctx, key)
		if err == nil {
			var def Definition
			def, err = ParseDefinition(blob)
			status.WorkflowName = def.WorkflowName
		}
		if err != nil {
			status.Error = err.Error()
			statuses = append(statuses, status)
			continue
		}

		for _, wf := range workflows {
			if strings.EqualFold(wf.Name, status.WorkflowName) {
				status.WorkflowID = wf.WorkflowID
				break
			}
		}
		if status.WorkflowID != "" {
			live, err := r.liveVersion(ctx, status.WorkflowID)
			if err != nil {
				status.Error = err.Error()
			} else if live != nil {
				status.LiveVersionID = live.VersionID
			}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
