package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/fluxionhq/fluxion/pkg/eventbus"
	"github.com/fluxionhq/fluxion/pkg/events"
	"github.com/fluxionhq/fluxion/pkg/executor"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/otelhelper"
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/registry"
)

const (
	// DefaultExecutionTimeout bounds the wall-clock time of a single run.
	DefaultExecutionTimeout = 5 * time.Minute

	// DefaultMaxConcurrentExecutions caps in-flight runs across all
	// workflows.
	DefaultMaxConcurrentExecutions = 64
)

// Execution runs deployed workflows on behalf of authenticated callers.
type Execution struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	tracer      trace.Tracer
	admission   *semaphore.Weighted
	timeout     time.Duration
}

// ExecutionOption customizes an Execution service.
type ExecutionOption func(*Execution)

// WithTimeout overrides the per-run wall-clock bound.
func WithTimeout(timeout time.Duration) ExecutionOption {
	return func(e *Execution) {
		e.timeout = timeout
	}
}

// WithMaxConcurrent overrides the global in-flight execution ceiling.
func WithMaxConcurrent(limit int64) ExecutionOption {
	return func(e *Execution) {
		e.admission = semaphore.NewWeighted(limit)
	}
}

func NewExecution(store persistence.Persistence, reg *registry.Registry, bus eventbus.EventBus, logger *slog.Logger, opts ...ExecutionOption) *Execution {
	execution := &Execution{
		persistence: store,
		registry:    reg,
		eventBus:    bus,
		logger:      logger,
		tracer:      otel.Tracer("fluxion.execution"),
		admission:   semaphore.NewWeighted(DefaultMaxConcurrentExecutions),
		timeout:     DefaultExecutionTimeout,
	}

	for _, opt := range opts {
		opt(execution)
	}

	return execution
}

// ExecuteResult carries the outcome of one run.
type ExecuteResult struct {
	ExecutionID string
	Outputs     map[string]any
	DurationMs  int64
}

// Execute authenticates the caller, validates the input fields against the
// stored schema, and runs the workflow graph under the admission ceiling and
// the wall-clock timeout. Authentication failures never create an execution
// record.
func (e *Execution) Execute(ctx context.Context, slug, apiKey string, fields map[string]any) (*ExecuteResult, error) {
	workflow, err := e.persistence.DeploymentBySlug(ctx, slug)
	if err != nil {
		if persistence.IsDeploymentNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to load deployment: %w", err)
	}

	if err := VerifyAPIKey(workflow.APIKeyHash, apiKey); err != nil {
		return nil, err
	}

	if !workflow.IsActive {
		return nil, ErrWorkflowInactive
	}

	if err := e.validateInputs(workflow, fields); err != nil {
		return nil, err
	}

	if err := e.admission.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to admit execution: %w", err)
	}
	defer e.admission.Release(1)

	return e.run(ctx, workflow, fields)
}

// validateInputs checks the request fields against the stored input schema.
func (e *Execution) validateInputs(workflow *models.DeployedWorkflow, fields map[string]any) error {
	if workflow.Schema == nil || workflow.Schema.Input == nil {
		return nil
	}

	schemaJSON, err := json.Marshal(workflow.Schema.Input)
	if err != nil {
		return fmt.Errorf("failed to encode input schema: %w", err)
	}

	if fields == nil {
		fields = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(fields),
	)
	if err != nil {
		return fmt.Errorf("failed to validate inputs: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, issue := range result.Errors() {
		details = append(details, issue.String())
	}

	return NewValidationError("Execute", "INVALID_INPUTS", strings.Join(details, "; "), ErrInvalidInputs)
}

func (e *Execution) run(ctx context.Context, workflow *models.DeployedWorkflow, fields map[string]any) (*ExecuteResult, error) {
	executionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate execution id: %w", err)
	}

	runRegistry, err := e.registry.WithCustomNodes(workflow.CustomNodes)
	if err != nil {
		return nil, NewValidationError("Execute", "INVALID_CUSTOM_NODE", err.Error(), ErrInvalidRequest)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	runCtx, span := otelhelper.StartSpan(runCtx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowSlugKey, workflow.Slug),
		attribute.String(otelhelper.ExecutionIDKey, executionID.String()),
	)
	defer span.End()

	execCtx := models.NewExecutionContext(executionID.String(), workflow.ID)
	started := time.Now()

	e.logger.InfoContext(ctx, "Execution started",
		"execution_id", execCtx.ID, "workflow_id", workflow.ID, "slug", workflow.Slug)

	e.publish(ctx, workflow.ID, events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent, workflow.ID),
		ExecutionID:  execCtx.ID,
		WorkflowSlug: workflow.Slug,
		Inputs:       fields,
	})

	nodeInputs := e.mapRequestFields(workflow, fields)

	// The record exists in the running state for the duration of the run and
	// is committed once at completion, together with the counter bump.
	record := &models.ExecutionRecord{
		ID:         execCtx.ID,
		WorkflowID: workflow.ID,
		Inputs:     fields,
		Status:     models.ExecutionStatusRunning,
	}

	runner := executor.NewExecutor(runRegistry, e.logger)
	rawOutputs, runErr := runner.Run(runCtx, workflow.Graph, execCtx, nodeInputs)

	durationMs := time.Since(started).Milliseconds()
	record.DurationMs = durationMs

	if runErr != nil {
		otelhelper.SetError(span, runErr)

		// Only the run context expiring counts as an execution timeout. A
		// node's own client timeout also surfaces context.DeadlineExceeded
		// through the error chain, but that is a node failure.
		timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

		return nil, e.finishFailed(ctx, workflow, record, runErr, timedOut)
	}

	record.Status = models.ExecutionStatusSuccess
	record.Outputs = e.mapOutputFields(workflow, rawOutputs)

	if err := e.persistence.RecordExecution(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	e.logger.InfoContext(ctx, "Execution completed",
		"execution_id", record.ID, "workflow_id", workflow.ID, "duration_ms", durationMs)

	e.publish(ctx, workflow.ID, events.ExecutionCompleted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent, workflow.ID),
		ExecutionID: record.ID,
		DurationMs:  durationMs,
		Outputs:     record.Outputs,
	})

	return &ExecuteResult{ExecutionID: record.ID, Outputs: record.Outputs, DurationMs: durationMs}, nil
}

// finishFailed records a failed or timed-out run. The record write happens
// after the run, so a stuck node never holds a storage transaction open.
func (e *Execution) finishFailed(ctx context.Context, workflow *models.DeployedWorkflow, record *models.ExecutionRecord, runErr error, timedOut bool) error {
	if timedOut {
		record.Status = models.ExecutionStatusTimeout
		record.ErrorMessage = ErrExecutionTimeout.Error()
	} else {
		record.Status = models.ExecutionStatusError
		record.ErrorMessage = runErr.Error()
	}

	if err := e.persistence.RecordExecution(ctx, record); err != nil {
		e.logger.ErrorContext(ctx, "Failed to record failed execution",
			"execution_id", record.ID, "workflow_id", workflow.ID, "error", err)

		return fmt.Errorf("failed to record execution: %w", err)
	}

	if timedOut {
		e.logger.WarnContext(ctx, "Execution timed out",
			"execution_id", record.ID, "workflow_id", workflow.ID, "timeout", e.timeout)

		e.publish(ctx, workflow.ID, events.ExecutionTimeout{
			BaseEvent:      events.NewBaseEvent(events.ExecutionTimeoutEvent, workflow.ID),
			ExecutionID:    record.ID,
			DurationMs:     record.DurationMs,
			TimeoutLimitMs: e.timeout.Milliseconds(),
		})

		return fmt.Errorf("%w after %s", ErrExecutionTimeout, e.timeout)
	}

	e.logger.ErrorContext(ctx, "Execution failed",
		"execution_id", record.ID, "workflow_id", workflow.ID, "error", runErr)

	failed := events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, workflow.ID),
		ExecutionID: record.ID,
		DurationMs:  record.DurationMs,
		Error:       runErr.Error(),
	}

	var nodeErr *executor.NodeError
	if errors.As(runErr, &nodeErr) {
		failed.NodeID = nodeErr.NodeID
	}

	e.publish(ctx, workflow.ID, failed)

	return runErr
}

// mapRequestFields translates request field names to input node ids via the
// mapping stored at deploy time. The mapping is used verbatim, never
// recomputed from the graph.
func (e *Execution) mapRequestFields(workflow *models.DeployedWorkflow, fields map[string]any) map[string]any {
	nodeInputs := make(map[string]any, len(fields))

	if workflow.Schema == nil {
		return nodeInputs
	}

	for field, nodeID := range workflow.Schema.InputFields {
		if value, ok := fields[field]; ok {
			nodeInputs[nodeID] = value
		}
	}

	return nodeInputs
}

// mapOutputFields translates output node ids back to field names.
func (e *Execution) mapOutputFields(workflow *models.DeployedWorkflow, rawOutputs map[string]any) map[string]any {
	if workflow.Schema == nil {
		return rawOutputs
	}

	outputs := make(map[string]any, len(workflow.Schema.OutputFields))

	for field, nodeID := range workflow.Schema.OutputFields {
		outputs[field] = rawOutputs[nodeID]
	}

	return outputs
}

// History lists a workflow's execution records after authenticating the
// caller with the workflow's key.
func (e *Execution) History(ctx context.Context, slug, apiKey string, opts persistence.ListOptions) ([]*models.ExecutionRecord, error) {
	workflow, err := e.persistence.DeploymentBySlug(ctx, slug)
	if err != nil {
		if persistence.IsDeploymentNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to load deployment: %w", err)
	}

	if err := VerifyAPIKey(workflow.APIKeyHash, apiKey); err != nil {
		return nil, err
	}

	records, err := e.persistence.Executions(ctx, workflow.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return records, nil
}

func (e *Execution) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
