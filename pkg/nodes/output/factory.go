// Package output provides the output node factory for registry integration.
package output

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// OutputNodeFactory creates OutputNode instances.
type OutputNodeFactory struct{}

// Create creates a new OutputNode instance.
func (f *OutputNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewOutputNode(id, config)
}

// ID returns the factory ID.
func (f *OutputNodeFactory) ID() string {
	return models.NodeTypeOutput
}

// Name returns the factory name.
func (f *OutputNodeFactory) Name() string {
	return "Output"
}

// Description returns the factory description.
func (f *OutputNodeFactory) Description() string {
	return "Exit point of a workflow. Captures one field of the execution response."
}

// Schema returns the JSON schema for output node configuration.
func (f *OutputNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kind": map[string]any{
				"type":        "string",
				"description": "Field kind used for response schema generation.",
				"default":     "text",
			},
			"label": map[string]any{
				"type":        "string",
				"description": "Human readable name, also used to derive the response field name.",
			},
		},
	}
}

// NewOutputNodeFactory creates a new factory instance.
func NewOutputNodeFactory() protocol.NodeFactory {
	return &OutputNodeFactory{}
}
