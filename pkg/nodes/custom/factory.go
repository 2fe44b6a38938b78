// Package custom provides the custom node factory for registry integration.
package custom

import (
	"context"
	"errors"
	"strings"

	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// Factory creates CustomNode instances for one deployment-supplied node
// definition. Unlike the built-in factories, a Factory carries per-deployment
// state and lives only for the registry view it is registered in.
type Factory struct {
	nodeType    string
	name        string
	description string
	template    string
}

// NewFactory validates a custom node definition and wraps it as a factory.
func NewFactory(nodeType, name, description, expression string) (*Factory, error) {
	if strings.TrimSpace(nodeType) == "" {
		return nil, errors.New("custom node type must not be empty")
	}

	if strings.TrimSpace(expression) == "" {
		return nil, errors.New("custom node template must not be empty")
	}

	return &Factory{
		nodeType:    nodeType,
		name:        name,
		description: description,
		template:    expression,
	}, nil
}

// Create creates a new CustomNode instance.
func (f *Factory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewCustomNode(id, f.nodeType, f.template)
}

// ID returns the factory ID.
func (f *Factory) ID() string {
	return f.nodeType
}

// Name returns the factory name.
func (f *Factory) Name() string {
	if f.name == "" {
		return f.nodeType
	}

	return f.name
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return f.description
}

// Schema returns the JSON schema for custom node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"description": "Custom nodes accept arbitrary configuration; the template decides what it reads.",
	}
}
