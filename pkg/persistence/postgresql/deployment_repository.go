package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
)

// DeploymentRepository handles deployed-workflow database operations.
type DeploymentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDeploymentRepository creates a new deployment repository.
func NewDeploymentRepository(db *sql.DB, logger *slog.Logger) *DeploymentRepository {
	return &DeploymentRepository{db: db, logger: logger}
}

const deploymentColumns = `
	id
  , name
  , slug
  , description
  , owner
  , graph
  , custom_nodes
  , schema
  , api_key_hash
  , is_active
  , execution_count
  , last_executed_at
  , created_at
  , updated_at
`

// Save creates or replaces a deployment. A missing id is generated as a v7
// UUID so ids sort by creation time.
func (r *DeploymentRepository) Save(ctx context.Context, workflow *models.DeployedWorkflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewDeploymentError("Save", workflow.Slug, err)
		}

		workflow.ID = id.String()
	}

	graphJSON, err := json.Marshal(workflow.Graph)
	if err != nil {
		return persistence.NewDeploymentError("Save", workflow.ID, err)
	}

	customNodesJSON, err := json.Marshal(workflow.CustomNodes)
	if err != nil {
		return persistence.NewDeploymentError("Save", workflow.ID, err)
	}

	schemaJSON, err := json.Marshal(workflow.Schema)
	if err != nil {
		return persistence.NewDeploymentError("Save", workflow.ID, err)
	}

	query := `
		INSERT INTO deployed_workflows (
			id, name, slug, description, owner, graph, custom_nodes, schema,
			api_key_hash, is_active, execution_count, last_executed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			owner = EXCLUDED.owner,
			graph = EXCLUDED.graph,
			custom_nodes = EXCLUDED.custom_nodes,
			schema = EXCLUDED.schema,
			api_key_hash = EXCLUDED.api_key_hash,
			is_active = EXCLUDED.is_active,
			execution_count = EXCLUDED.execution_count,
			last_executed_at = EXCLUDED.last_executed_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID, workflow.Name, workflow.Slug, workflow.Description,
		workflow.Owner, graphJSON, customNodesJSON, schemaJSON,
		workflow.APIKeyHash, workflow.IsActive, workflow.ExecutionCount,
		workflow.LastExecutedAt, workflow.CreatedAt, workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewDeploymentError("Save", workflow.ID, err)
	}

	return nil
}

// GetByID returns a deployment by its id.
func (r *DeploymentRepository) GetByID(ctx context.Context, id string) (*models.DeployedWorkflow, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployed_workflows WHERE id = $1`

	deployment, err := r.scanDeployment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDeploymentError("GetByID", id, persistence.ErrDeploymentNotFound)
		}

		return nil, persistence.NewDeploymentError("GetByID", id, err)
	}

	return deployment, nil
}

// GetBySlug returns a deployment by its slug.
func (r *DeploymentRepository) GetBySlug(ctx context.Context, slug string) (*models.DeployedWorkflow, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployed_workflows WHERE slug = $1`

	deployment, err := r.scanDeployment(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewDeploymentError("GetBySlug", slug, persistence.ErrDeploymentNotFound)
		}

		return nil, persistence.NewDeploymentError("GetBySlug", slug, err)
	}

	return deployment, nil
}

// SlugExists reports whether the slug is taken by any deployment. Inactive
// deployments keep their slug reserved.
func (r *DeploymentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool

	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM deployed_workflows WHERE slug = $1)", slug,
	).Scan(&exists)
	if err != nil {
		return false, persistence.NewDeploymentError("SlugExists", slug, err)
	}

	return exists, nil
}

// List returns deployments, newest first, honoring pagination and owner
// filtering.
func (r *DeploymentRepository) List(ctx context.Context, opts persistence.ListOptions) ([]*models.DeployedWorkflow, error) {
	query := `SELECT ` + deploymentColumns + `
		FROM deployed_workflows
		WHERE ($1 = '' OR owner = $1)
		ORDER BY created_at DESC
		LIMIT CASE WHEN $2 > 0 THEN $2 ELSE NULL END
		OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, opts.Owner, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	deployments := make([]*models.DeployedWorkflow, 0)

	for rows.Next() {
		deployment, err := r.scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}

		deployments = append(deployments, deployment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating deployments: %w", err)
	}

	return deployments, nil
}

// Deactivate soft-deletes a deployment. The row stays so the slug remains
// reserved and execution history stays reachable.
func (r *DeploymentRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE deployed_workflows SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id,
	)
	if err != nil {
		return persistence.NewDeploymentError("Deactivate", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewDeploymentError("Deactivate", id, err)
	}

	if affected == 0 {
		return persistence.NewDeploymentError("Deactivate", id, persistence.ErrDeploymentNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DeploymentRepository) scanDeployment(row rowScanner) (*models.DeployedWorkflow, error) {
	var (
		deployment      models.DeployedWorkflow
		graphJSON       []byte
		customNodesJSON []byte
		schemaJSON      []byte
		lastExecutedAt  sql.NullTime
	)

	err := row.Scan(
		&deployment.ID, &deployment.Name, &deployment.Slug,
		&deployment.Description, &deployment.Owner,
		&graphJSON, &customNodesJSON, &schemaJSON,
		&deployment.APIKeyHash, &deployment.IsActive,
		&deployment.ExecutionCount, &lastExecutedAt,
		&deployment.CreatedAt, &deployment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(graphJSON, &deployment.Graph); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	if err := json.Unmarshal(customNodesJSON, &deployment.CustomNodes); err != nil {
		return nil, fmt.Errorf("failed to decode custom nodes: %w", err)
	}

	if err := json.Unmarshal(schemaJSON, &deployment.Schema); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	if lastExecutedAt.Valid {
		deployment.LastExecutedAt = &lastExecutedAt.Time
	}

	return &deployment, nil
}
