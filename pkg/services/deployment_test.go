package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/log"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/persistence/file"
	"github.com/fluxionhq/fluxion/pkg/registry"
)

func newTestDeployment(t *testing.T) *Deployment {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	logger := log.WithModule("deployment-test")

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes(nil, nil)

	return NewDeployment(store, reg, nil, logger)
}

func echoGraph() *models.Graph {
	return &models.Graph{
		Nodes: []*models.Node{
			{ID: "in", Type: models.NodeTypeInput, Name: "Message"},
			{ID: "out", Type: models.NodeTypeOutput, Name: "Echo"},
		},
		Connections: []*models.Connection{
			{SourceID: "in", TargetID: "out"},
		},
	}
}

func TestDeployment_Deploy(t *testing.T) {
	service := newTestDeployment(t)

	result, err := service.Deploy(t.Context(), DeployRequest{
		Name:  "Echo Workflow",
		Graph: echoGraph(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Workflow.ID)
	assert.Equal(t, "echo-workflow", result.Workflow.Slug)
	assert.True(t, result.Workflow.IsActive)

	// Plaintext key comes back once; only the hash is stored.
	assert.NotEmpty(t, result.APIKey)
	assert.NotEqual(t, result.APIKey, result.Workflow.APIKeyHash)
	assert.NoError(t, VerifyAPIKey(result.Workflow.APIKeyHash, result.APIKey))

	require.NotNil(t, result.Workflow.Schema)
	assert.Equal(t, "in", result.Workflow.Schema.InputFields["message"])
	assert.Equal(t, "out", result.Workflow.Schema.OutputFields["echo"])
}

func TestDeployment_DeploySlugCollision(t *testing.T) {
	service := newTestDeployment(t)

	first, err := service.Deploy(t.Context(), DeployRequest{Name: "Report", Graph: echoGraph()})
	require.NoError(t, err)
	assert.Equal(t, "report", first.Workflow.Slug)

	second, err := service.Deploy(t.Context(), DeployRequest{Name: "Report", Graph: echoGraph()})
	require.NoError(t, err)
	assert.Equal(t, "report-1", second.Workflow.Slug)

	third, err := service.Deploy(t.Context(), DeployRequest{Name: "Report", Graph: echoGraph()})
	require.NoError(t, err)
	assert.Equal(t, "report-2", third.Workflow.Slug)
}

func TestDeployment_DeployExplicitSlug(t *testing.T) {
	service := newTestDeployment(t)

	result, err := service.Deploy(t.Context(), DeployRequest{
		Name:  "Report",
		Slug:  "my-custom-slug",
		Graph: echoGraph(),
	})
	require.NoError(t, err)
	assert.Equal(t, "my-custom-slug", result.Workflow.Slug)

	// An explicitly requested slug is never disambiguated.
	_, err = service.Deploy(t.Context(), DeployRequest{
		Name:  "Another",
		Slug:  "my-custom-slug",
		Graph: echoGraph(),
	})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestDeployment_DeployValidation(t *testing.T) {
	service := newTestDeployment(t)

	_, err := service.Deploy(t.Context(), DeployRequest{Graph: echoGraph()})
	assert.ErrorIs(t, err, ErrWorkflowNameRequired)

	_, err = service.Deploy(t.Context(), DeployRequest{Name: "No Graph"})
	assert.ErrorIs(t, err, ErrGraphRequired)

	cyclic := echoGraph()
	cyclic.Connections = append(cyclic.Connections, &models.Connection{SourceID: "out", TargetID: "in"})

	_, err = service.Deploy(t.Context(), DeployRequest{Name: "Cyclic", Graph: cyclic})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	unknown := echoGraph()
	unknown.Nodes = append(unknown.Nodes, &models.Node{ID: "x", Type: "mystery"})
	unknown.Connections = append(unknown.Connections, &models.Connection{SourceID: "in", TargetID: "x"})

	_, err = service.Deploy(t.Context(), DeployRequest{Name: "Unknown", Graph: unknown})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDeployment_RegenerateKey(t *testing.T) {
	service := newTestDeployment(t)

	result, err := service.Deploy(t.Context(), DeployRequest{Name: "Echo", Graph: echoGraph()})
	require.NoError(t, err)

	oldKey := result.APIKey

	newKey, err := service.RegenerateKey(t.Context(), result.Workflow.ID, oldKey)
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, newKey)

	// The old key stops authenticating once rotated.
	_, err = service.RegenerateKey(t.Context(), result.Workflow.ID, oldKey)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = service.RegenerateKey(t.Context(), result.Workflow.ID, newKey)
	assert.NoError(t, err)
}

func TestDeployment_Deactivate(t *testing.T) {
	service := newTestDeployment(t)

	result, err := service.Deploy(t.Context(), DeployRequest{Name: "Echo", Graph: echoGraph()})
	require.NoError(t, err)

	err = service.Deactivate(t.Context(), result.Workflow.ID, "wrong-key")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	err = service.Deactivate(t.Context(), result.Workflow.ID, result.APIKey)
	require.NoError(t, err)

	workflow, err := service.GetByID(t.Context(), result.Workflow.ID)
	require.NoError(t, err)
	assert.False(t, workflow.IsActive)

	// The slug stays reserved, so a same-name deploy gets a suffix.
	again, err := service.Deploy(t.Context(), DeployRequest{Name: "Echo", Graph: echoGraph()})
	require.NoError(t, err)
	assert.Equal(t, "echo-1", again.Workflow.Slug)
}

func TestDeployment_ListAndGet(t *testing.T) {
	service := newTestDeployment(t)

	result, err := service.Deploy(t.Context(), DeployRequest{Name: "Echo", Owner: "ada", Graph: echoGraph()})
	require.NoError(t, err)

	deployments, err := service.List(t.Context(), persistence.ListOptions{Owner: "ada"})
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	assert.Equal(t, result.Workflow.ID, deployments[0].ID)

	bySlug, err := service.GetBySlug(t.Context(), "echo")
	require.NoError(t, err)
	assert.Equal(t, result.Workflow.ID, bySlug.ID)

	_, err = service.GetBySlug(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}
