package schema

import (
	"fmt"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// RenderOpenAPI embeds the workflow schema into a complete OpenAPI 3 document
// describing the execution endpoint, secured by a bearer key.
func RenderOpenAPI(workflow *models.DeployedWorkflow, baseURL string) map[string]any {
	executePath := fmt.Sprintf("/workflows/%s/execute", workflow.Slug)

	successEnvelope := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"success": map[string]any{"type": "boolean", "example": true},
			"outputs": workflow.Schema.Output,
			"metadata": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"executionId": map[string]any{"type": "string"},
					"durationMs":  map[string]any{"type": "number"},
				},
			},
		},
	}

	errorEnvelope := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"success":   map[string]any{"type": "boolean", "example": false},
			"error":     map[string]any{"type": "string"},
			"timestamp": map[string]any{"type": "string", "format": "date-time"},
		},
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       workflow.Name,
			"description": workflow.Description,
			"version":     "1.0.0",
		},
		"servers": []map[string]any{
			{"url": baseURL},
		},
		"paths": map[string]any{
			executePath: map[string]any{
				"post": map[string]any{
					"summary":     "Execute " + workflow.Name,
					"operationId": "execute-" + workflow.Slug,
					"security":    []map[string]any{{"bearerAuth": []string{}}},
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": workflow.Schema.Input,
							},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Execution completed",
							"content": map[string]any{
								"application/json": map[string]any{"schema": successEnvelope},
							},
						},
						"400": map[string]any{
							"description": "Input failed schema validation",
							"content": map[string]any{
								"application/json": map[string]any{"schema": errorEnvelope},
							},
						},
						"401": map[string]any{
							"description": "Missing or invalid API key",
							"content": map[string]any{
								"application/json": map[string]any{"schema": errorEnvelope},
							},
						},
						"429": map[string]any{
							"description": "Rate limit exceeded",
							"content": map[string]any{
								"application/json": map[string]any{"schema": errorEnvelope},
							},
						},
						"500": map[string]any{
							"description": "Execution failed",
							"content": map[string]any{
								"application/json": map[string]any{"schema": errorEnvelope},
							},
						},
					},
				},
			},
		},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}
