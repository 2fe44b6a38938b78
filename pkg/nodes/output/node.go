// Package output provides the workflow exit node that collects response fields.
package output

import (
	"context"
	"errors"

	"github.com/fluxionhq/fluxion/pkg/models"
)

const (
	InputPortMain  = models.DefaultInputPort
	OutputPortMain = models.DefaultOutputPort
)

// OutputNode captures one field of the workflow response. The executor reads
// its result after the run to assemble the response payload.
type OutputNode struct {
	id   string
	kind string
}

// NewOutputNode creates a new output node.
func NewOutputNode(id string, config map[string]any) (*OutputNode, error) {
	kind := "text"
	if raw, ok := config["kind"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'kind' must be a string")
		}

		kind = s
	}

	return &OutputNode{id: id, kind: kind}, nil
}

// ID returns the node ID.
func (n *OutputNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *OutputNode) Type() string {
	return models.NodeTypeOutput
}

// Kind returns the declared field kind.
func (n *OutputNode) Kind() string {
	return n.kind
}

// Execute passes its input through unchanged so the run collector can read it.
func (n *OutputNode) Execute(_ context.Context, _ *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	value, ok := inputs[InputPortMain]
	if !ok {
		// An unconnected output produces an explicit null rather than failing
		// the whole run.
		value = nil
	}

	return map[string]any{OutputPortMain: value}, nil
}
