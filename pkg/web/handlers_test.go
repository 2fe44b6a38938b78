package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxionhq/fluxion/pkg/log"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/persistence/file"
	"github.com/fluxionhq/fluxion/pkg/ratelimit"
	"github.com/fluxionhq/fluxion/pkg/registry"
	"github.com/fluxionhq/fluxion/pkg/services"
	"github.com/fluxionhq/fluxion/pkg/web"
)

func setupTestApp(t *testing.T, requestsPerMinute int) *fiber.App {
	t.Helper()

	app, _ := setupTestAppWithRoot(t, requestsPerMinute)

	return app
}

func setupTestAppWithRoot(t *testing.T, requestsPerMinute int) (*fiber.App, string) {
	t.Helper()

	root := t.TempDir()

	store, err := file.NewPersistence(root)
	require.NoError(t, err)

	logger := log.WithModule("web-test")

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes(nil, nil)

	deploymentService := services.NewDeployment(store, reg, nil, logger)
	executionService := services.NewExecution(store, reg, nil, logger)
	limiter := ratelimit.NewMemoryLimiter(requestsPerMinute)

	handlers := web.NewAPIHandlers(deploymentService, executionService, limiter,
		validator.New(validator.WithRequiredStructEnabled()), reg, logger)

	app := fiber.New()

	app.Post("/deploy", handlers.Deploy)
	app.Get("/deployments", handlers.GetDeployments)

	w := app.Group("/workflows")
	w.Get("/:slug", handlers.GetWorkflow)
	w.Get("/:slug/schema", handlers.GetSchema)
	w.Get("/:slug/docs", handlers.GetDocs)
	w.Post("/:slug/execute", handlers.Execute)
	w.Get("/:slug/executions", handlers.GetExecutions)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/regenerate-key", handlers.RegenerateKey)

	app.Get("/health", handlers.HealthCheck)

	return app, root
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

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewBuffer(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	_ = resp.Body.Close()

	return resp, raw
}

func deployEcho(t *testing.T, app *fiber.App) web.DeployResponse {
	t.Helper()

	resp, raw := doJSON(t, app, http.MethodPost, "/deploy", "", web.DeployRequestBody{
		Name:  "Echo Workflow",
		Graph: echoGraph(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var deployed web.DeployResponse
	require.NoError(t, json.Unmarshal(raw, &deployed))

	return deployed
}

func TestDeploy(t *testing.T) {
	app := setupTestApp(t, 60)

	deployed := deployEcho(t, app)

	assert.NotEmpty(t, deployed.ID)
	assert.Equal(t, "echo-workflow", deployed.Slug)
	assert.Contains(t, deployed.Endpoint, "/workflows/echo-workflow/execute")
	assert.Contains(t, deployed.DocsURL, "/workflows/echo-workflow/docs")
	assert.NotEmpty(t, deployed.APIKey)
	require.NotNil(t, deployed.Schema)
	assert.Equal(t, "in", deployed.Schema.InputFields["message"])
}

func TestDeployValidation(t *testing.T) {
	app := setupTestApp(t, 60)

	resp, _ := doJSON(t, app, http.MethodPost, "/deploy", "", web.DeployRequestBody{Graph: echoGraph()})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/deploy", "", web.DeployRequestBody{Name: "No Graph Workflow"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeployExplicitSlugConflict(t *testing.T) {
	app := setupTestApp(t, 60)

	resp, _ := doJSON(t, app, http.MethodPost, "/deploy", "", web.DeployRequestBody{
		Name: "First Workflow", Slug: "mine", Graph: echoGraph(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/deploy", "", web.DeployRequestBody{
		Name: "Second Workflow", Slug: "mine", Graph: echoGraph(),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetWorkflow(t *testing.T) {
	app := setupTestApp(t, 60)
	deployEcho(t, app)

	resp, raw := doJSON(t, app, http.MethodGet, "/workflows/echo-workflow", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow web.WorkflowResponse
	require.NoError(t, json.Unmarshal(raw, &workflow))
	assert.Equal(t, "Echo Workflow", workflow.Name)
	assert.True(t, workflow.IsActive)

	// The key hash never appears in responses.
	assert.NotContains(t, string(raw), "api_key_hash")

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSchema(t *testing.T) {
	app := setupTestApp(t, 60)
	deployEcho(t, app)

	resp, raw := doJSON(t, app, http.MethodGet, "/workflows/echo-workflow/schema", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])

	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/workflows/echo-workflow/execute")
}

func TestGetDocs(t *testing.T) {
	app := setupTestApp(t, 60)
	deployEcho(t, app)

	resp, raw := doJSON(t, app, http.MethodGet, "/workflows/echo-workflow/docs", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(raw), "swagger-ui")
}

func TestExecute(t *testing.T) {
	app := setupTestApp(t, 60)
	deployed := deployEcho(t, app)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute", deployed.APIKey,
		map[string]any{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var result web.ExecuteResponse
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Outputs["echo"])
	assert.NotEmpty(t, result.Metadata.ExecutionID)
}

func TestExecuteAuth(t *testing.T) {
	app := setupTestApp(t, 60)
	deployEcho(t, app)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute", "",
		map[string]any{"message": "hi"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var failure web.ExecuteErrorResponse
	require.NoError(t, json.Unmarshal(raw, &failure))
	assert.False(t, failure.Success)
	assert.NotEmpty(t, failure.Error)
	assert.False(t, failure.Timestamp.IsZero())

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute",
		models.APIKeyPrefix+"bogus", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExecuteInvalidInputs(t *testing.T) {
	app := setupTestApp(t, 60)
	deployed := deployEcho(t, app)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute", deployed.APIKey,
		map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var failure web.ExecuteErrorResponse
	require.NoError(t, json.Unmarshal(raw, &failure))
	assert.False(t, failure.Success)
}

func TestExecuteInternalErrorIsOpaque(t *testing.T) {
	app, root := setupTestAppWithRoot(t, 60)
	deployed := deployEcho(t, app)

	// Plant a file where the execution-record directory belongs so the
	// record write fails with a path-carrying storage error.
	blocker := filepath.Join(root, "executions", deployed.ID)
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute",
		deployed.APIKey, map[string]any{"message": "hi"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode, string(raw))

	var envelope web.ExecuteErrorResponse
	require.NoError(t, json.Unmarshal(raw, &envelope))

	assert.False(t, envelope.Success)
	assert.Equal(t, "execution failed", envelope.Error)
	assert.NotContains(t, string(raw), root)
}

func TestExecuteRateLimited(t *testing.T) {
	app := setupTestApp(t, 1)
	deployed := deployEcho(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute", deployed.APIKey,
		map[string]any{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute", deployed.APIKey,
		map[string]any{"message": "hi"})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var failure web.ExecuteErrorResponse
	require.NoError(t, json.Unmarshal(raw, &failure))
	assert.False(t, failure.Success)
}

func TestGetExecutions(t *testing.T) {
	app := setupTestApp(t, 60)
	deployed := deployEcho(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute", deployed.APIKey,
		map[string]any{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodGet, "/workflows/echo-workflow/executions", deployed.APIKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Executions []models.ExecutionRecord `json:"executions"`
	}
	require.NoError(t, json.Unmarshal(raw, &listing))
	require.Len(t, listing.Executions, 1)
	assert.Equal(t, models.ExecutionStatusSuccess, listing.Executions[0].Status)

	resp, _ = doJSON(t, app, http.MethodGet, "/workflows/echo-workflow/executions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegenerateKeyAndDelete(t *testing.T) {
	app := setupTestApp(t, 60)
	deployed := deployEcho(t, app)

	resp, raw := doJSON(t, app, http.MethodPost, "/workflows/"+deployed.ID+"/regenerate-key", deployed.APIKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated web.RegenerateKeyResponse
	require.NoError(t, json.Unmarshal(raw, &rotated))
	assert.NotEqual(t, deployed.APIKey, rotated.APIKey)

	// The old key no longer authenticates anything.
	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+deployed.ID+"/regenerate-key", deployed.APIKey, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/workflows/"+deployed.ID, rotated.APIKey, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/workflows/echo-workflow/execute", rotated.APIKey,
		map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app := setupTestApp(t, 60)

	resp, raw := doJSON(t, app, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.Equal(t, "healthy", health["status"])
}
