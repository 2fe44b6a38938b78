// Package mcp provides a client for MCP tool servers speaking JSON-RPC over HTTP.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Tool is a tool definition as advertised by a server's catalog.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ServerConfig addresses one tool server by name.
type ServerConfig struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type listToolsResult struct {
	Tools []Tool `json:"tools"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type callToolResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// Client talks to one tool server. A single client is shared by all
// concurrent executions, so the request id counter is atomic.
type Client struct {
	config     ServerConfig
	httpClient *http.Client
	nextID     atomic.Int64
}

const defaultCallTimeout = 30 * time.Second

// NewClient creates a client for a single tool server.
func NewClient(config ServerConfig) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: defaultCallTimeout},
	}
}

// Name returns the configured server name.
func (c *Client) Name() string {
	return c.config.Name
}

// Enabled reports whether this server should take part in tool discovery.
func (c *Client) Enabled() bool {
	return c.config.Enabled
}

// ListTools fetches the server's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	raw, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}

	var result listToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tool catalog from %s: %w", c.config.Name, err)
	}

	return result.Tools, nil
}

// CallTool invokes a tool and returns its textual result. A tool-level error
// is returned as an error so the caller can feed it back to the model.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	params := map[string]any{
		"name":      name,
		"arguments": arguments,
	}

	raw, err := c.call(ctx, "tools/call", params)
	if err != nil {
		return "", err
	}

	var result callToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("failed to decode tool result from %s: %w", c.config.Name, err)
	}

	text := ""

	for _, block := range result.Content {
		if block.Type == "text" {
			if text != "" {
				text += "\n"
			}

			text += block.Text
		}
	}

	if result.IsError {
		return "", fmt.Errorf("tool %s reported an error: %s", name, text)
	}

	return text, nil
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      int(c.nextID.Add(1)),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool server %s unreachable: %w", c.config.Name, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", c.config.Name, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("tool server %s returned HTTP %d", c.config.Name, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC response from %s: %w", c.config.Name, err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("tool server %s error %d: %s",
			c.config.Name, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return rpcResp.Result, nil
}
