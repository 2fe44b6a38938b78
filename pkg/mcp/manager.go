package mcp

import (
	"context"
	"fmt"
	"log/slog"
)

// DiscoveredTool is a catalog entry paired with its originating server, so a
// later invocation can be routed back to where the tool came from.
type DiscoveredTool struct {
	Server      string
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolProvider is the discovery/invocation boundary the agent loop depends on.
type ToolProvider interface {
	DiscoverTools(ctx context.Context) ([]DiscoveredTool, error)
	CallTool(ctx context.Context, server, name string, arguments map[string]any) (string, error)
}

// Manager aggregates several named tool servers behind one ToolProvider.
type Manager struct {
	clients map[string]*Client
	logger  *slog.Logger
}

// NewManager creates a manager over the configured servers.
func NewManager(configs []ServerConfig, logger *slog.Logger) *Manager {
	clients := make(map[string]*Client, len(configs))
	for _, config := range configs {
		clients[config.Name] = NewClient(config)
	}

	return &Manager{clients: clients, logger: logger}
}

// DiscoverTools collects catalogs from every enabled server. A server that is
// down or misbehaving is skipped with a warning; discovery never fails the
// caller outright.
func (m *Manager) DiscoverTools(ctx context.Context) ([]DiscoveredTool, error) {
	discovered := make([]DiscoveredTool, 0)

	for name, client := range m.clients {
		if !client.Enabled() {
			continue
		}

		tools, err := client.ListTools(ctx)
		if err != nil {
			m.logger.WarnContext(ctx, "Skipping unreachable tool server",
				"server", name, "error", err)

			continue
		}

		for _, tool := range tools {
			discovered = append(discovered, DiscoveredTool{
				Server:      name,
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			})
		}
	}

	return discovered, nil
}

// CallTool routes an invocation to the named server.
func (m *Manager) CallTool(ctx context.Context, server, name string, arguments map[string]any) (string, error) {
	client, ok := m.clients[server]
	if !ok {
		return "", fmt.Errorf("unknown tool server %q", server)
	}

	return client.CallTool(ctx, name, arguments)
}
