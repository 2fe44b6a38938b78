package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/fluxionhq/fluxion/pkg/executor"
	"github.com/fluxionhq/fluxion/pkg/persistence"
	"github.com/fluxionhq/fluxion/pkg/ratelimit"
	"github.com/fluxionhq/fluxion/pkg/registry"
	"github.com/fluxionhq/fluxion/pkg/schema"
	"github.com/fluxionhq/fluxion/pkg/services"
)

type APIHandlers struct {
	deploymentService *services.Deployment
	executionService  *services.Execution
	limiter           ratelimit.Limiter
	validator         *validator.Validate
	registry          *registry.Registry
	logger            *slog.Logger
}

func NewAPIHandlers(
	deploymentService *services.Deployment,
	executionService *services.Execution,
	limiter ratelimit.Limiter,
	validator *validator.Validate,
	registry *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		deploymentService: deploymentService,
		executionService:  executionService,
		limiter:           limiter,
		validator:         validator,
		registry:          registry,
		logger:            logger,
	}
}

// bearerToken extracts the API key from the Authorization header.
func bearerToken(c fiber.Ctx) string {
	header := c.Get("Authorization")

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}

	return strings.TrimSpace(token)
}

func (h *APIHandlers) Deploy(c fiber.Ctx) error {
	var req DeployRequestBody
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.deploymentService.Deploy(c.Context(), services.DeployRequest{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Owner:       req.Owner,
		Graph:       req.Graph,
		CustomNodes: req.CustomNodes,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	base := c.BaseURL()

	return c.Status(fiber.StatusCreated).JSON(DeployResponse{
		ID:       result.Workflow.ID,
		Slug:     result.Workflow.Slug,
		Endpoint: fmt.Sprintf("%s/workflows/%s/execute", base, result.Workflow.Slug),
		APIKey:   result.APIKey,
		Schema:   result.Workflow.Schema,
		DocsURL:  fmt.Sprintf("%s/workflows/%s/docs", base, result.Workflow.Slug),
	})
}

func (h *APIHandlers) GetDeployments(c fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	deployments, err := h.deploymentService.List(c.Context(), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	responses := make([]WorkflowResponse, 0, len(deployments))
	for _, deployment := range deployments {
		responses = append(responses, TransformWorkflowResponse(deployment))
	}

	return c.JSON(fiber.Map{
		"deployments": responses,
		"pagination": fiber.Map{
			"limit":  opts.Limit,
			"offset": opts.Offset,
		},
	})
}

func parseListOptions(c fiber.Ctx) (persistence.ListOptions, error) {
	opts := persistence.ListOptions{Owner: c.Query("userId")}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return opts, err
		}

		opts.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return opts, err
		}

		opts.Offset = offset
	}

	return opts, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return badRequest(c, "Workflow slug is required")
	}

	workflow, err := h.deploymentService.GetBySlug(c.Context(), slug)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformWorkflowResponse(workflow))
}

func (h *APIHandlers) GetSchema(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return badRequest(c, "Workflow slug is required")
	}

	workflow, err := h.deploymentService.GetBySlug(c.Context(), slug)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(schema.RenderOpenAPI(workflow, c.BaseURL()))
}

func (h *APIHandlers) GetDocs(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return badRequest(c, "Workflow slug is required")
	}

	workflow, err := h.deploymentService.GetBySlug(c.Context(), slug)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	return c.SendString(renderDocsPage(workflow.Name, fmt.Sprintf("%s/workflows/%s/schema", c.BaseURL(), slug)))
}

func (h *APIHandlers) Execute(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return executeError(c, http.StatusBadRequest, "workflow slug is required")
	}

	apiKey := bearerToken(c)
	if apiKey == "" {
		return executeError(c, http.StatusUnauthorized, "missing bearer token")
	}

	allowed, err := h.limiter.Allow(c.Context(), apiKey)
	if err != nil {
		return executeError(c, http.StatusInternalServerError, "rate limiter unavailable")
	}

	if !allowed {
		return executeError(c, http.StatusTooManyRequests, services.ErrRateLimited.Error())
	}

	fields := map[string]any{}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&fields); err != nil {
			return executeError(c, http.StatusBadRequest, "invalid JSON body")
		}
	}

	result, err := h.executionService.Execute(c.Context(), slug, apiKey, fields)
	if err != nil {
		return h.executeFailure(c, err)
	}

	return c.JSON(ExecuteResponse{
		Success: true,
		Outputs: result.Outputs,
		Metadata: ExecuteMetadata{
			ExecutionID: result.ExecutionID,
			DurationMs:  result.DurationMs,
		},
	})
}

// executeFailure maps service errors onto the execute envelope with the
// matching status code. Node failures and timeouts surface their message;
// unexpected errors stay opaque.
func (h *APIHandlers) executeFailure(c fiber.Ctx, err error) error {
	switch {
	case services.IsNotFoundError(err):
		return executeError(c, http.StatusNotFound, "workflow not found")
	case errors.Is(err, services.ErrWorkflowInactive):
		return executeError(c, http.StatusForbidden, err.Error())
	case services.IsAuthError(err):
		return executeError(c, http.StatusUnauthorized, "invalid API key")
	case services.IsValidationError(err):
		return executeError(c, http.StatusBadRequest, err.Error())
	case services.IsTimeoutError(err):
		return executeError(c, http.StatusGatewayTimeout, err.Error())
	default:
		// Node failures carry a caller-meaningful message. Anything else is
		// an internal fault whose detail belongs in the log, not the body.
		var nodeErr *executor.NodeError
		if errors.As(err, &nodeErr) {
			return executeError(c, http.StatusInternalServerError, "execution failed: "+err.Error())
		}

		h.logger.ErrorContext(c.Context(), "Execution failed internally", "error", err)

		return executeError(c, http.StatusInternalServerError, "execution failed")
	}
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return badRequest(c, "Workflow slug is required")
	}

	apiKey := bearerToken(c)
	if apiKey == "" {
		return unauthorized(c, "missing bearer token")
	}

	opts, err := parseListOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	records, err := h.executionService.History(c.Context(), slug, apiKey, opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": records,
		"pagination": fiber.Map{
			"limit":  opts.Limit,
			"offset": opts.Offset,
		},
	})
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	apiKey := bearerToken(c)
	if apiKey == "" {
		return unauthorized(c, "missing bearer token")
	}

	if err := h.deploymentService.Deactivate(c.Context(), id, apiKey); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RegenerateKey(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	apiKey := bearerToken(c)
	if apiKey == "" {
		return unauthorized(c, "missing bearer token")
	}

	newKey, err := h.deploymentService.RegenerateKey(c.Context(), id, apiKey)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RegenerateKeyResponse{APIKey: newKey})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.deploymentService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Fluxion API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Fluxion API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
