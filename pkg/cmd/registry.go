package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fluxionhq/fluxion/pkg/agent"
	"github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/mcp"
	"github.com/fluxionhq/fluxion/pkg/registry"
)

// LLMOptions carries the chat completion endpoint settings.
type LLMOptions struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewRegistry builds the node registry with every built-in handler. A chat
// client and agent loop are wired in when an LLM API key is configured; the
// MCP servers JSON configures the agent's tool catalog.
func NewRegistry(logger *slog.Logger, llmOpts LLMOptions, mcpServersJSON string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	var chat llm.ChatClient

	var loop *agent.Loop

	if llmOpts.APIKey != "" {
		chat = llm.NewClient(llm.Config{
			BaseURL: llmOpts.BaseURL,
			APIKey:  llmOpts.APIKey,
			Model:   llmOpts.Model,
		})

		manager := mcp.NewManager(parseMCPServers(mcpServersJSON), logger)
		loop = agent.NewLoop(chat, manager, logger)
	}

	reg.RegisterDefaultNodes(chat, loop)

	return reg
}

func parseMCPServers(serversJSON string) []mcp.ServerConfig {
	if serversJSON == "" {
		return nil
	}

	var configs []mcp.ServerConfig
	if err := json.Unmarshal([]byte(serversJSON), &configs); err != nil {
		panic(fmt.Errorf("invalid MCP servers configuration: %w", err))
	}

	return configs
}
