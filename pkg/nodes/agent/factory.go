// Package agent provides the agent node factory for registry integration.
package agent

import (
	"context"

	loop "github.com/fluxionhq/fluxion/pkg/agent"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

// AgentNodeFactory creates AgentNode instances.
type AgentNodeFactory struct {
	loop *loop.Loop
}

// Create creates a new AgentNode instance.
func (f *AgentNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewAgentNode(id, config, f.loop)
}

// ID returns the factory ID.
func (f *AgentNodeFactory) ID() string {
	return "agent"
}

// Name returns the factory name.
func (f *AgentNodeFactory) Name() string {
	return "Agent"
}

// Description returns the factory description.
func (f *AgentNodeFactory) Description() string {
	return "Runs a bounded tool-calling conversation loop against configured tool servers."
}

// Schema returns the JSON schema for agent node configuration.
func (f *AgentNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"instructions": map[string]any{
				"type":        "string",
				"description": "Task instructions for the agent. Supports templating. May instead arrive on the system input port.",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model identifier. Defaults to the client's configured model.",
			},
			"maxIterations": map[string]any{
				"type":        "number",
				"description": "Upper bound on model round-trips.",
				"default":     loop.DefaultMaxIterations,
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Sampling temperature forwarded to the model.",
			},
			"toolTimeout": map[string]any{
				"type":        "number",
				"description": "Per tool call timeout in seconds.",
			},
		},
	}
}

// NewAgentNodeFactory creates a new factory instance.
func NewAgentNodeFactory(agentLoop *loop.Loop) protocol.NodeFactory {
	return &AgentNodeFactory{loop: agentLoop}
}
