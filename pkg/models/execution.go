package models

import "time"

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// NodeResult represents the values a node produced on its output ports.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	Data      map[string]any `json:"data"`
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}

// Value reads a single port value from the result, falling back to the
// canonical output port when the named port carries nothing.
func (r NodeResult) Value(port string) (any, bool) {
	if v, ok := r.Data[port]; ok {
		return v, true
	}

	if v, ok := r.Data[DefaultOutputPort]; ok {
		return v, true
	}

	return nil, false
}

// ExecutionContext accumulates per-node outputs during a single run. It is
// scoped to one execution and discarded afterwards; concurrent executions
// never share one.
type ExecutionContext struct {
	ID          string                `json:"id"`
	WorkflowID  string                `json:"workflow_id"`
	NodeResults map[string]NodeResult `json:"node_results"`
	Variables   map[string]any        `json:"variables,omitempty"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	Inputs      map[string]any        `json:"inputs,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
}

// NewExecutionContext creates a fresh context for one run of a workflow.
func NewExecutionContext(id, workflowID string) *ExecutionContext {
	return &ExecutionContext{
		ID:          id,
		WorkflowID:  workflowID,
		NodeResults: make(map[string]NodeResult),
		Variables:   make(map[string]any),
		Metadata:    make(map[string]any),
		StartedAt:   time.Now().UTC(),
	}
}

// WithInputs returns a shallow copy of the context carrying the current
// node's input map, for template expressions that reference .inputs.
func (ec *ExecutionContext) WithInputs(inputs map[string]any) *ExecutionContext {
	scoped := *ec
	scoped.Inputs = inputs

	return &scoped
}

// Record stores the output of a completed node.
func (ec *ExecutionContext) Record(nodeID string, result NodeResult) {
	ec.NodeResults[nodeID] = result
}

// Result returns the recorded output of a node, if it has run.
func (ec *ExecutionContext) Result(nodeID string) (NodeResult, bool) {
	result, ok := ec.NodeResults[nodeID]

	return result, ok
}
