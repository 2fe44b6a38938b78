// Package persistence provides the data storage abstraction for deployed
// workflows and execution records.
package persistence

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// ListOptions paginate list queries. A zero Limit means no limit.
type ListOptions struct {
	Limit  int
	Offset int
	Owner  string
}

type Persistence interface {
	Deployments(ctx context.Context, opts ListOptions) ([]*models.DeployedWorkflow, error)
	SaveDeployment(ctx context.Context, workflow *models.DeployedWorkflow) error
	DeploymentByID(ctx context.Context, id string) (*models.DeployedWorkflow, error)
	DeploymentBySlug(ctx context.Context, slug string) (*models.DeployedWorkflow, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	DeactivateDeployment(ctx context.Context, id string) error

	// RecordExecution persists the record and bumps the workflow's counters
	// in one commit. Each execution commits independently.
	RecordExecution(ctx context.Context, record *models.ExecutionRecord) error
	Executions(ctx context.Context, workflowID string, opts ListOptions) ([]*models.ExecutionRecord, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
