// Package input provides the input node factory for registry integration.
package input

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// InputNodeFactory creates InputNode instances.
type InputNodeFactory struct{}

// Create creates a new InputNode instance.
func (f *InputNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewInputNode(id, config)
}

// ID returns the factory ID.
func (f *InputNodeFactory) ID() string {
	return models.NodeTypeInput
}

// Name returns the factory name.
func (f *InputNodeFactory) Name() string {
	return "Input"
}

// Description returns the factory description.
func (f *InputNodeFactory) Description() string {
	return "Entry point of a workflow. Exposes one field of the execution request to downstream nodes."
}

// Schema returns the JSON schema for input node configuration.
func (f *InputNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kind": map[string]any{
				"type":        "string",
				"description": "Field kind used for request schema generation.",
				"enum":        []string{KindText, KindNumber, KindJSON, KindFile},
				"default":     KindText,
			},
			"default": map[string]any{
				"description": "Value used when the caller omits this field. Its presence makes the field optional.",
			},
			"label": map[string]any{
				"type":        "string",
				"description": "Human readable name, also used to derive the request field name.",
			},
		},
	}
}

// NewInputNodeFactory creates a new factory instance.
func NewInputNodeFactory() protocol.NodeFactory {
	return &InputNodeFactory{}
}
