package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/fluxionhq/fluxion/pkg/eventbus"
	"github.com/fluxionhq/fluxion/pkg/events"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/registry"
	"github.com/fluxionhq/fluxion/pkg/schema"
)

// Deployment owns the lifecycle of deployed workflows: creation, lookup, key
// rotation, and soft deletion.
type Deployment struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewDeployment(store persistence.Persistence, reg *registry.Registry, bus eventbus.EventBus, logger *slog.Logger) *Deployment {
	return &Deployment{
		persistence: store,
		registry:    reg,
		eventBus:    bus,
		validator:   validator.New(),
		logger:      logger,
	}
}

// HealthCheck checks the health of the persistence layer.
func (d *Deployment) HealthCheck(ctx context.Context) (string, bool) {
	if d.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := d.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// DeployRequest carries everything needed to deploy a graph.
type DeployRequest struct {
	Name        string                 `json:"name"        validate:"required"`
	Slug        string                 `json:"slug,omitempty"`
	Description string                 `json:"description,omitempty"`
	Owner       string                 `json:"owner,omitempty"`
	Graph       *models.Graph          `json:"graph"       validate:"required"`
	CustomNodes []models.CustomNodeDef `json:"customNodes,omitempty"`
}

// DeployResult is the response to a successful deploy. APIKey carries the
// plaintext key; it is not retrievable afterwards, only rotatable.
type DeployResult struct {
	Workflow *models.DeployedWorkflow
	APIKey   string
}

// Deploy validates the graph, reserves a slug, generates the field schema,
// mints an API key, and persists the deployment.
func (d *Deployment) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	if err := d.validateDeployRequest(ctx, &req); err != nil {
		return nil, err
	}

	slug, err := d.resolveSlug(ctx, req)
	if err != nil {
		return nil, err
	}

	plaintext, hash, err := GenerateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("failed to mint API key: %w", err)
	}

	workflow := &models.DeployedWorkflow{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Owner:       req.Owner,
		Graph:       req.Graph,
		CustomNodes: req.CustomNodes,
		Schema:      schema.Generate(req.Graph),
		APIKeyHash:  hash,
		IsActive:    true,
	}

	if err := d.persistence.SaveDeployment(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save deployment: %w", err)
	}

	d.logger.InfoContext(ctx, "Workflow deployed", "workflow_id", workflow.ID, "slug", workflow.Slug)

	d.publish(ctx, workflow.ID, events.WorkflowDeployed{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeployedEvent, workflow.ID),
		Slug:      workflow.Slug,
		Name:      workflow.Name,
	})

	return &DeployResult{Workflow: workflow, APIKey: plaintext}, nil
}

func (d *Deployment) validateDeployRequest(ctx context.Context, req *DeployRequest) error {
	if err := d.validator.Struct(req); err != nil {
		if req.Name == "" {
			return NewValidationError("Deploy", "NAME_REQUIRED", "workflow name is required", ErrWorkflowNameRequired)
		}

		if req.Graph == nil {
			return NewValidationError("Deploy", "GRAPH_REQUIRED", "workflow graph is required", ErrGraphRequired)
		}

		return NewValidationError("Deploy", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	if err := req.Graph.Validate(); err != nil {
		return NewValidationError("Deploy", "INVALID_GRAPH", err.Error(), errors.Join(ErrInvalidRequest, err))
	}

	// Custom definitions must produce valid factories before anything is
	// persisted. The run-scoped registry is rebuilt on every execution.
	if _, err := d.registry.WithCustomNodes(req.CustomNodes); err != nil {
		return NewValidationError("Deploy", "INVALID_CUSTOM_NODE", err.Error(), ErrInvalidRequest)
	}

	for _, node := range req.Graph.Nodes {
		if node.IsInputNode() || node.IsOutputNode() || d.registry.HasNodeType(node.Type) {
			continue
		}

		if hasCustomType(req.CustomNodes, node.Type) {
			continue
		}

		return NewValidationError("Deploy", "UNKNOWN_NODE_TYPE",
			fmt.Sprintf("node %s references unknown type %q", node.ID, node.Type), ErrInvalidRequest)
	}

	return nil
}

func hasCustomType(defs []models.CustomNodeDef, nodeType string) bool {
	for _, def := range defs {
		if def.Type == nodeType {
			return true
		}
	}

	return false
}

// resolveSlug honors an explicitly requested slug verbatim when it is free,
// and otherwise derives one from the name with numeric-suffix disambiguation.
func (d *Deployment) resolveSlug(ctx context.Context, req DeployRequest) (string, error) {
	if req.Slug != "" {
		exists, err := d.persistence.SlugExists(ctx, req.Slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug availability: %w", err)
		}

		if exists {
			return "", &ServiceError{Op: "Deploy", Code: "SLUG_TAKEN", Message: fmt.Sprintf("slug %q is already taken", req.Slug), Err: ErrSlugTaken}
		}

		return req.Slug, nil
	}

	return uniqueSlug(ctx, d.persistence, Slugify(req.Name))
}

// List returns deployments, newest first.
func (d *Deployment) List(ctx context.Context, opts persistence.ListOptions) ([]*models.DeployedWorkflow, error) {
	deployments, err := d.persistence.Deployments(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	return deployments, nil
}

// GetBySlug returns a deployment by slug.
func (d *Deployment) GetBySlug(ctx context.Context, slug string) (*models.DeployedWorkflow, error) {
	workflow, err := d.persistence.DeploymentBySlug(ctx, slug)
	if err != nil {
		if persistence.IsDeploymentNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, err
	}

	return workflow, nil
}

// GetByID returns a deployment by id.
func (d *Deployment) GetByID(ctx context.Context, id string) (*models.DeployedWorkflow, error) {
	workflow, err := d.persistence.DeploymentByID(ctx, id)
	if err != nil {
		if persistence.IsDeploymentNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, err
	}

	return workflow, nil
}

// RegenerateKey rotates the API key of a deployment. The caller must present
// the current key; the new plaintext key is returned exactly once.
func (d *Deployment) RegenerateKey(ctx context.Context, id, currentKey string) (string, error) {
	workflow, err := d.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if err := VerifyAPIKey(workflow.APIKeyHash, currentKey); err != nil {
		return "", err
	}

	plaintext, hash, err := GenerateAPIKey()
	if err != nil {
		return "", fmt.Errorf("failed to mint API key: %w", err)
	}

	workflow.APIKeyHash = hash

	if err := d.persistence.SaveDeployment(ctx, workflow); err != nil {
		return "", fmt.Errorf("failed to save rotated key: %w", err)
	}

	d.logger.InfoContext(ctx, "API key rotated", "workflow_id", workflow.ID, "slug", workflow.Slug)

	d.publish(ctx, workflow.ID, events.WorkflowKeyRotated{
		BaseEvent: events.NewBaseEvent(events.WorkflowKeyRotatedEvent, workflow.ID),
		Slug:      workflow.Slug,
	})

	return plaintext, nil
}

// Deactivate soft-deletes a deployment after authenticating the caller. The
// slug stays reserved and execution history stays reachable.
func (d *Deployment) Deactivate(ctx context.Context, id, apiKey string) error {
	workflow, err := d.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := VerifyAPIKey(workflow.APIKeyHash, apiKey); err != nil {
		return err
	}

	if err := d.persistence.DeactivateDeployment(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate deployment: %w", err)
	}

	d.logger.InfoContext(ctx, "Workflow deactivated", "workflow_id", workflow.ID, "slug", workflow.Slug)

	d.publish(ctx, workflow.ID, events.WorkflowDeactivated{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeactivatedEvent, workflow.ID),
		Slug:      workflow.Slug,
	})

	return nil
}

func (d *Deployment) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.eventBus == nil {
		return
	}

	if err := d.eventBus.Publish(ctx, key, event); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
