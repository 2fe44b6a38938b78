// Package custom provides run-scoped template-driven nodes for workflow graph execution.
package custom

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/template"
)

const (
	InputPortMain  = models.DefaultInputPort
	OutputPortMain = models.DefaultOutputPort
)

// CustomNode evaluates a deployment-supplied template expression. The
// expression runs in the template sandbox with the node's inputs exposed
// under .inputs; deployments never execute host code.
type CustomNode struct {
	id       string
	nodeType string
	template string
}

// NewCustomNode creates a node backed by the given template expression.
func NewCustomNode(id, nodeType, expression string) (*CustomNode, error) {
	if expression == "" {
		return nil, errors.New("empty node template")
	}

	return &CustomNode{id: id, nodeType: nodeType, template: expression}, nil
}

// ID returns the node ID.
func (n *CustomNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *CustomNode) Type() string {
	return n.nodeType
}

// Execute renders the template with inputs layered over the execution context.
func (n *CustomNode) Execute(_ context.Context, execCtx *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	scoped := execCtx.WithInputs(inputs)

	result, err := template.RenderWithContext(n.template, scoped)
	if err != nil {
		return nil, fmt.Errorf("custom node template failed: %w", err)
	}

	return map[string]any{OutputPortMain: result}, nil
}
