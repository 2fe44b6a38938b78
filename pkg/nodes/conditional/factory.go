// Package conditional provides the if-else node factory for registry integration.
package conditional

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// ConditionalNodeFactory creates ConditionalNode instances.
type ConditionalNodeFactory struct{}

// Create creates a new ConditionalNode instance.
func (f *ConditionalNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewConditionalNode(id, config)
}

// ID returns the factory ID.
func (f *ConditionalNodeFactory) ID() string {
	return "if-else"
}

// Name returns the factory name.
func (f *ConditionalNodeFactory) Name() string {
	return "If / Else"
}

// Description returns the factory description.
func (f *ConditionalNodeFactory) Description() string {
	return "Routes the upstream value to the true or false branch based on a condition expression or truthiness."
}

// Schema returns the JSON schema for if-else node configuration.
func (f *ConditionalNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"condition": map[string]any{
				"type":        "string",
				"description": "Condition expression. Supports templating and comparison operators. When omitted, the upstream value's truthiness decides the branch.",
				"examples": []string{
					`{{.nodeResults.score.output}} >= 75`,
					`{{.variables.environment}} == "production"`,
					`true`,
				},
			},
		},
	}
}

// NewConditionalNodeFactory creates a new factory instance.
func NewConditionalNodeFactory() protocol.NodeFactory {
	return &ConditionalNodeFactory{}
}
