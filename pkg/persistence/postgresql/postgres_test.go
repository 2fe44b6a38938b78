//go:build integration
// +build integration

package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"execution_records", "deployed_workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("fluxion_test"),
			postgres.WithUsername("fluxion"),
			postgres.WithPassword("fluxion"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func testDeployment(name, slug string) *models.DeployedWorkflow {
	return &models.DeployedWorkflow{
		Name:        name,
		Slug:        slug,
		Description: "test deployment",
		Owner:       "test-user",
		Graph: &models.Graph{
			Nodes: []*models.Node{
				{ID: "in", Type: models.NodeTypeInput, Name: "Message"},
				{ID: "out", Type: models.NodeTypeOutput, Name: "Echo"},
			},
			Connections: []*models.Connection{
				{SourceID: "in", TargetID: "out"},
			},
		},
		Schema: &models.WorkflowSchema{
			Input:        &models.JSONSchema{Type: "object"},
			Output:       &models.JSONSchema{Type: "object"},
			InputFields:  map[string]string{"message": "in"},
			OutputFields: map[string]string{"echo": "out"},
		},
		APIKeyHash: "$2a$10$fakehashfortesting",
		IsActive:   true,
	}
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'deployed_workflows')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "deployed_workflows table should exist")

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'execution_records')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "execution_records table should exist")

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	err := store.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestNewPersistence_SaveAndRetrieveDeployment(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	deployment := testDeployment("Echo Workflow", "echo-workflow")

	err := store.SaveDeployment(ctx, deployment)
	require.NoError(t, err)
	assert.NotEmpty(t, deployment.ID)
	assert.False(t, deployment.CreatedAt.IsZero())
	assert.False(t, deployment.UpdatedAt.IsZero())

	retrieved, err := store.DeploymentByID(ctx, deployment.ID)
	require.NoError(t, err)

	assert.Equal(t, deployment.ID, retrieved.ID)
	assert.Equal(t, "Echo Workflow", retrieved.Name)
	assert.Equal(t, "echo-workflow", retrieved.Slug)
	assert.Equal(t, deployment.APIKeyHash, retrieved.APIKeyHash)
	assert.True(t, retrieved.IsActive)
	require.NotNil(t, retrieved.Graph)
	assert.Len(t, retrieved.Graph.Nodes, 2)
	require.NotNil(t, retrieved.Schema)
	assert.Equal(t, "in", retrieved.Schema.InputFields["message"])

	bySlug, err := store.DeploymentBySlug(ctx, "echo-workflow")
	require.NoError(t, err)
	assert.Equal(t, deployment.ID, bySlug.ID)

	_, err = store.DeploymentByID(ctx, uuid.NewString())
	require.Error(t, err)
	assert.True(t, persistence.IsDeploymentNotFound(err))
}

func TestNewPersistence_SlugExists(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	deployment := testDeployment("Echo Workflow", "echo-workflow")
	require.NoError(t, store.SaveDeployment(ctx, deployment))

	exists, err := store.SlugExists(ctx, "echo-workflow")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.SlugExists(ctx, "other-slug")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deactivated deployments keep their slug reserved.
	require.NoError(t, store.DeactivateDeployment(ctx, deployment.ID))

	exists, err = store.SlugExists(ctx, "echo-workflow")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewPersistence_ListDeployments(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	first := testDeployment("First", "first")
	require.NoError(t, store.SaveDeployment(ctx, first))

	second := testDeployment("Second", "second")
	second.Owner = "another-user"
	require.NoError(t, store.SaveDeployment(ctx, second))

	all, err := store.Deployments(ctx, persistence.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := store.Deployments(ctx, persistence.ListOptions{Owner: "another-user"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "second", filtered[0].Slug)

	limited, err := store.Deployments(ctx, persistence.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNewPersistence_RecordExecution(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	deployment := testDeployment("Echo Workflow", "echo-workflow")
	require.NoError(t, store.SaveDeployment(ctx, deployment))

	record := &models.ExecutionRecord{
		WorkflowID: deployment.ID,
		Inputs:     map[string]any{"message": "hi"},
		Outputs:    map[string]any{"echo": "hi"},
		Status:     models.ExecutionStatusSuccess,
		DurationMs: 12,
	}

	err := store.RecordExecution(ctx, record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)

	records, err := store.Executions(ctx, deployment.ID, persistence.ListOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ExecutionStatusSuccess, records[0].Status)
	assert.Equal(t, "hi", records[0].Inputs["message"])

	// Counters were bumped in the same commit.
	retrieved, err := store.DeploymentByID(ctx, deployment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), retrieved.ExecutionCount)
	require.NotNil(t, retrieved.LastExecutedAt)
}

func TestNewPersistence_DeactivateDeployment(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	deployment := testDeployment("Echo Workflow", "echo-workflow")
	require.NoError(t, store.SaveDeployment(ctx, deployment))

	err := store.DeactivateDeployment(ctx, deployment.ID)
	require.NoError(t, err)

	retrieved, err := store.DeploymentByID(ctx, deployment.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.IsActive)

	err = store.DeactivateDeployment(ctx, uuid.NewString())
	require.Error(t, err)
	assert.True(t, persistence.IsDeploymentNotFound(err))
}
