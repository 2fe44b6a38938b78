// Package protocol defines the interfaces and contracts for pluggable nodes.
package protocol

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// Node is a single executable unit inside a workflow graph. Implementations
// receive the values gathered on their input ports and return the values they
// produce on their output ports.
type Node interface {
	// ID returns the node instance id within its graph
	ID() string

	// Type returns the type tag this node was dispatched under
	Type() string

	// Execute runs the node. A returned error aborts the whole execution;
	// recoverable conditions should instead be written to an error port.
	Execute(ctx context.Context, execCtx *models.ExecutionContext, inputs map[string]any) (map[string]any, error)
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID returns the unique type tag for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}
