// Package llm provides language model node factories for registry integration.
package llm

import (
	"context"

	llmclient "github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

func configSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"model": map[string]any{
				"type":        "string",
				"description": "Model identifier. Defaults to the client's configured model.",
			},
			"system": map[string]any{
				"type":        "string",
				"description": "System prompt. Supports templating against the execution context.",
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Sampling temperature forwarded to the model.",
			},
			"maxTokens": map[string]any{
				"type":        "number",
				"description": "Upper bound on generated tokens.",
			},
		},
	}
}

// ChatNodeFactory creates ChatNode instances.
type ChatNodeFactory struct {
	client llmclient.ChatClient
}

// Create creates a new ChatNode instance.
func (f *ChatNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewChatNode(id, config, f.client)
}

// ID returns the factory ID.
func (f *ChatNodeFactory) ID() string {
	return "llm-chat"
}

// Name returns the factory name.
func (f *ChatNodeFactory) Name() string {
	return "LLM Chat"
}

// Description returns the factory description.
func (f *ChatNodeFactory) Description() string {
	return "Performs a single-turn language model call and emits the reply text."
}

// Schema returns the JSON schema for llm-chat node configuration.
func (f *ChatNodeFactory) Schema() map[string]any {
	return configSchema()
}

// NewChatNodeFactory creates a new factory instance.
func NewChatNodeFactory(client llmclient.ChatClient) protocol.NodeFactory {
	return &ChatNodeFactory{client: client}
}

// StructuredNodeFactory creates structured-llm ChatNode instances.
type StructuredNodeFactory struct {
	client llmclient.ChatClient
}

// Create creates a new structured-llm node instance.
func (f *StructuredNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewStructuredNode(id, config, f.client)
}

// ID returns the factory ID.
func (f *StructuredNodeFactory) ID() string {
	return "structured-llm"
}

// Name returns the factory name.
func (f *StructuredNodeFactory) Name() string {
	return "Structured LLM"
}

// Description returns the factory description.
func (f *StructuredNodeFactory) Description() string {
	return "Performs a language model call and decodes the reply as JSON, falling back to raw text."
}

// Schema returns the JSON schema for structured-llm node configuration.
func (f *StructuredNodeFactory) Schema() map[string]any {
	return configSchema()
}

// NewStructuredNodeFactory creates a new factory instance.
func NewStructuredNodeFactory(client llmclient.ChatClient) protocol.NodeFactory {
	return &StructuredNodeFactory{client: client}
}
