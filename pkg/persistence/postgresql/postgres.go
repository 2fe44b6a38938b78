// Package postgresql provides PostgreSQL persistence for deployments and
// execution records.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	deploymentRepo *DeploymentRepository
	executionRepo  *ExecutionRepository
}

// NewPersistence connects, runs pending migrations and returns the store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		deploymentRepo: NewDeploymentRepository(database, logger),
		executionRepo:  NewExecutionRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Deployments lists deployments, newest first.
func (p *Persistence) Deployments(ctx context.Context, opts persistence.ListOptions) ([]*models.DeployedWorkflow, error) {
	return p.deploymentRepo.List(ctx, opts)
}

// SaveDeployment creates or replaces a deployment.
func (p *Persistence) SaveDeployment(ctx context.Context, workflow *models.DeployedWorkflow) error {
	return p.deploymentRepo.Save(ctx, workflow)
}

// DeploymentByID returns a deployment by its id.
func (p *Persistence) DeploymentByID(ctx context.Context, id string) (*models.DeployedWorkflow, error) {
	return p.deploymentRepo.GetByID(ctx, id)
}

// DeploymentBySlug returns a deployment by its slug.
func (p *Persistence) DeploymentBySlug(ctx context.Context, slug string) (*models.DeployedWorkflow, error) {
	return p.deploymentRepo.GetBySlug(ctx, slug)
}

// SlugExists reports whether the slug is taken, active or not.
func (p *Persistence) SlugExists(ctx context.Context, slug string) (bool, error) {
	return p.deploymentRepo.SlugExists(ctx, slug)
}

// DeactivateDeployment soft-deletes a deployment.
func (p *Persistence) DeactivateDeployment(ctx context.Context, id string) error {
	return p.deploymentRepo.Deactivate(ctx, id)
}

// RecordExecution persists the record and bumps the workflow counters in one
// transaction.
func (p *Persistence) RecordExecution(ctx context.Context, record *models.ExecutionRecord) error {
	return p.executionRepo.Record(ctx, record)
}

// Executions lists a workflow's execution records, newest first.
func (p *Persistence) Executions(ctx context.Context, workflowID string, opts persistence.ListOptions) ([]*models.ExecutionRecord, error) {
	return p.executionRepo.List(ctx, workflowID, opts)
}
