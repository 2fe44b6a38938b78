// Package combinetext provides the combine-text node factory for registry integration.
package combinetext

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// CombineTextNodeFactory creates CombineTextNode instances.
type CombineTextNodeFactory struct{}

// Create creates a new CombineTextNode instance.
func (f *CombineTextNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewCombineTextNode(id, config)
}

// ID returns the factory ID.
func (f *CombineTextNodeFactory) ID() string {
	return "combine-text"
}

// Name returns the factory name.
func (f *CombineTextNodeFactory) Name() string {
	return "Combine Text"
}

// Description returns the factory description.
func (f *CombineTextNodeFactory) Description() string {
	return "Concatenates two upstream values into one string, stringifying structured values as JSON."
}

// Schema returns the JSON schema for combine-text node configuration.
func (f *CombineTextNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"separator": map[string]any{
				"type":        "string",
				"description": "Text placed between the two inputs when both are present.",
				"default":     " ",
			},
		},
	}
}

// NewCombineTextNodeFactory creates a new factory instance.
func NewCombineTextNodeFactory() protocol.NodeFactory {
	return &CombineTextNodeFactory{}
}
