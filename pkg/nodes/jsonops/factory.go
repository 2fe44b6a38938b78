// Package jsonops provides JSON node factories for registry integration.
package jsonops

import (
	"context"

	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// JSONParseNodeFactory creates JSONParseNode instances.
type JSONParseNodeFactory struct{}

// Create creates a new JSONParseNode instance.
func (f *JSONParseNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewJSONParseNode(id, config)
}

// ID returns the factory ID.
func (f *JSONParseNodeFactory) ID() string {
	return "json-parse"
}

// Name returns the factory name.
func (f *JSONParseNodeFactory) Name() string {
	return "JSON Parse"
}

// Description returns the factory description.
func (f *JSONParseNodeFactory) Description() string {
	return "Decodes a JSON document and optionally extracts a value at a dotted path."
}

// Schema returns the JSON schema for json-parse node configuration.
func (f *JSONParseNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Dotted path into the decoded value. Numeric segments index into arrays.",
				"examples":    []string{"user.name", "results.0.id"},
			},
		},
	}
}

// NewJSONParseNodeFactory creates a new factory instance.
func NewJSONParseNodeFactory() protocol.NodeFactory {
	return &JSONParseNodeFactory{}
}

// JSONStringifyNodeFactory creates JSONStringifyNode instances.
type JSONStringifyNodeFactory struct{}

// Create creates a new JSONStringifyNode instance.
func (f *JSONStringifyNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewJSONStringifyNode(id, config)
}

// ID returns the factory ID.
func (f *JSONStringifyNodeFactory) ID() string {
	return "json-stringify"
}

// Name returns the factory name.
func (f *JSONStringifyNodeFactory) Name() string {
	return "JSON Stringify"
}

// Description returns the factory description.
func (f *JSONStringifyNodeFactory) Description() string {
	return "Serializes its input value as a JSON string."
}

// Schema returns the JSON schema for json-stringify node configuration.
func (f *JSONStringifyNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pretty": map[string]any{
				"type":        "boolean",
				"description": "Indent the serialized output for readability.",
				"default":     false,
			},
		},
	}
}

// NewJSONStringifyNodeFactory creates a new factory instance.
func NewJSONStringifyNodeFactory() protocol.NodeFactory {
	return &JSONStringifyNodeFactory{}
}
