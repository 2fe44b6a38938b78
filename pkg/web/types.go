// Package web provides the HTTP surface for deploying and executing
// workflows.
package web

import (
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// DeployRequestBody is the request body for deploying a workflow graph.
type DeployRequestBody struct {
	Name        string                 `json:"name"        validate:"required,min=3"`
	Slug        string                 `json:"slug,omitempty"`
	Description string                 `json:"description,omitempty"`
	Owner       string                 `json:"owner,omitempty"`
	Graph       *models.Graph          `json:"graph"       validate:"required"`
	CustomNodes []models.CustomNodeDef `json:"customNodes,omitempty"`
}

// DeployResponse is returned on a successful deploy. The API key is shown
// exactly once.
type DeployResponse struct {
	ID       string                 `json:"id"`
	Slug     string                 `json:"slug"`
	Endpoint string                 `json:"endpoint"`
	APIKey   string                 `json:"apiKey"`
	Schema   *models.WorkflowSchema `json:"schema"`
	DocsURL  string                 `json:"docsUrl"`
}

// WorkflowResponse exposes deployment metadata without the key hash.
type WorkflowResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Slug           string                 `json:"slug"`
	Description    string                 `json:"description,omitempty"`
	Owner          string                 `json:"owner,omitempty"`
	Schema         *models.WorkflowSchema `json:"schema,omitempty"`
	IsActive       bool                   `json:"isActive"`
	ExecutionCount int64                  `json:"executionCount"`
	LastExecutedAt *time.Time             `json:"lastExecutedAt,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// TransformWorkflowResponse maps a deployment onto its public shape.
func TransformWorkflowResponse(workflow *models.DeployedWorkflow) WorkflowResponse {
	return WorkflowResponse{
		ID:             workflow.ID,
		Name:           workflow.Name,
		Slug:           workflow.Slug,
		Description:    workflow.Description,
		Owner:          workflow.Owner,
		Schema:         workflow.Schema,
		IsActive:       workflow.IsActive,
		ExecutionCount: workflow.ExecutionCount,
		LastExecutedAt: workflow.LastExecutedAt,
		CreatedAt:      workflow.CreatedAt,
		UpdatedAt:      workflow.UpdatedAt,
	}
}

// ExecuteMetadata accompanies successful execution responses.
type ExecuteMetadata struct {
	ExecutionID string `json:"executionId"`
	DurationMs  int64  `json:"durationMs"`
}

// ExecuteResponse is the success envelope of the execute endpoint.
type ExecuteResponse struct {
	Success  bool            `json:"success"`
	Outputs  map[string]any  `json:"outputs"`
	Metadata ExecuteMetadata `json:"metadata"`
}

// ExecuteErrorResponse is the failure envelope of the execute endpoint. The
// execute surface never speaks RFC-7807; callers integrate against this fixed
// shape.
type ExecuteErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// RegenerateKeyResponse carries the rotated plaintext key, shown exactly
// once.
type RegenerateKeyResponse struct {
	APIKey string `json:"apiKey"`
}
