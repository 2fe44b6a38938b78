package models

import "time"

// ExecutionStatus is the lifecycle state of one execution record.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusError   ExecutionStatus = "error"
	ExecutionStatusTimeout ExecutionStatus = "timeout"
)

// APIKeyPrefix is the fixed textual prefix of workflow API keys, so they are
// distinguishable from other credential types in logs and support tickets.
const APIKeyPrefix = "flx_"

// CustomNodeDef declares a user-supplied node type registered for the
// workflows that carry it. The behavior is an expression template rendered
// against the node's inputs; stored code is never evaluated as host-language
// source.
type CustomNodeDef struct {
	Type        string `json:"type"     validate:"required"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Template    string `json:"template" validate:"required"`
}

// DeployedWorkflow is a graph published as a persistent REST endpoint.
// Only the salted hash of the API key is ever stored.
type DeployedWorkflow struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"        validate:"required,min=3"`
	Slug           string          `json:"slug"        validate:"required"`
	Description    string          `json:"description,omitempty"`
	Owner          string          `json:"owner,omitempty"`
	Graph          *Graph          `json:"graph"       validate:"required"`
	CustomNodes    []CustomNodeDef `json:"custom_nodes,omitempty"`
	Schema         *WorkflowSchema `json:"schema"`
	APIKeyHash     string          `json:"-"`
	IsActive       bool            `json:"is_active"`
	ExecutionCount int64           `json:"execution_count"`
	LastExecutedAt *time.Time      `json:"last_executed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ExecutionRecord is the persisted trace of one execution. It is owned
// exclusively by the execution service; node handlers never touch it.
type ExecutionRecord struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	Inputs       map[string]any  `json:"inputs"`
	Outputs      map[string]any  `json:"outputs,omitempty"`
	Status       ExecutionStatus `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	CreatedAt    time.Time       `json:"created_at"`
}
