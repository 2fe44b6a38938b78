// Package llm provides single-turn language model nodes for workflow graph execution.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	llmclient "github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/nodes/combinetext"
	"github.com/fluxionhq/fluxion/pkg/template"
)

const (
	InputPortUser    = "user"
	InputPortSystem  = "system"
	InputPortContext = "context"
	OutputPortMain   = models.DefaultOutputPort
)

// ChatNode performs one model call per execution. The configured system
// prompt may contain template expressions resolved against the execution
// context; upstream values on the system and context ports extend it.
type ChatNode struct {
	id          string
	client      llmclient.ChatClient
	model       string
	system      string
	temperature *float64
	maxTokens   int
	structured  bool
}

// NewChatNode creates a new llm-chat node.
func NewChatNode(id string, config map[string]any, client llmclient.ChatClient) (*ChatNode, error) {
	return newChatNode(id, config, client, false)
}

// NewStructuredNode creates a new structured-llm node. It behaves like
// llm-chat but additionally attempts to decode the reply as JSON.
func NewStructuredNode(id string, config map[string]any, client llmclient.ChatClient) (*ChatNode, error) {
	return newChatNode(id, config, client, true)
}

func newChatNode(id string, config map[string]any, client llmclient.ChatClient, structured bool) (*ChatNode, error) {
	if client == nil {
		return nil, errors.New("no language model client configured")
	}

	node := &ChatNode{
		id:         id,
		client:     client,
		model:      client.DefaultModel(),
		structured: structured,
	}

	if raw, ok := config["model"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'model' must be a string")
		}

		node.model = s
	}

	if raw, ok := config["system"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'system' must be a string")
		}

		node.system = s
	}

	if raw, ok := config["temperature"]; ok {
		f, ok := raw.(float64)
		if !ok {
			return nil, errors.New("field 'temperature' must be a number")
		}

		node.temperature = &f
	}

	if raw, ok := config["maxTokens"]; ok {
		f, ok := raw.(float64)
		if !ok {
			return nil, errors.New("field 'maxTokens' must be a number")
		}

		node.maxTokens = int(f)
	}

	return node, nil
}

// ID returns the node ID.
func (n *ChatNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ChatNode) Type() string {
	if n.structured {
		return "structured-llm"
	}

	return "llm-chat"
}

// Execute sends one chat request and emits the reply.
func (n *ChatNode) Execute(ctx context.Context, execCtx *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	userMessage := combinetext.Stringify(inputs[InputPortUser])
	if userMessage == "" {
		return nil, errors.New("no user message provided")
	}

	system := n.system
	if override := combinetext.Stringify(inputs[InputPortSystem]); override != "" {
		system = override
	}

	if system != "" && template.NeedsTemplating(system) {
		rendered, err := template.RenderWithContext(system, execCtx)
		if err != nil {
			return nil, fmt.Errorf("system prompt rendering failed: %w", err)
		}

		system = combinetext.Stringify(rendered)
	}

	if contextText := combinetext.Stringify(inputs[InputPortContext]); contextText != "" {
		userMessage = userMessage + "\n\nContext:\n" + contextText
	}

	messages := make([]llmclient.Message, 0, 2)
	if system != "" {
		messages = append(messages, llmclient.Message{Role: llmclient.RoleSystem, Content: system})
	}

	messages = append(messages, llmclient.Message{Role: llmclient.RoleUser, Content: userMessage})

	response, err := n.client.Chat(ctx, llmclient.ChatRequest{
		Model:       n.model,
		Messages:    messages,
		Temperature: n.temperature,
		MaxTokens:   n.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	reply := response.First().Content

	if n.structured {
		return map[string]any{OutputPortMain: decodeStructured(reply)}, nil
	}

	return map[string]any{OutputPortMain: reply}, nil
}

// decodeStructured tries to interpret a model reply as JSON. Replies wrapped
// in a Markdown code fence are unwrapped first. Anything undecodable passes
// through as the raw text, parse failure is never an execution error.
func decodeStructured(reply string) any {
	candidate := strings.TrimSpace(reply)

	if strings.HasPrefix(candidate, "```") {
		candidate = strings.TrimPrefix(candidate, "```json")
		candidate = strings.TrimPrefix(candidate, "```")
		candidate = strings.TrimSuffix(strings.TrimSpace(candidate), "```")
		candidate = strings.TrimSpace(candidate)
	}

	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return reply
	}

	return decoded
}
