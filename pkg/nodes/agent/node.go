// Package agent provides the tool-loop node for workflow graph execution.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	loop "github.com/fluxionhq/fluxion/pkg/agent"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/nodes/combinetext"
	"github.com/fluxionhq/fluxion/pkg/template"
)

const (
	InputPortUser    = "user"
	InputPortSystem  = "system"
	InputPortContext = "context"

	OutputPortMain        = models.DefaultOutputPort
	OutputPortToolResults = "toolResults"
	OutputPortLog         = "executionLog"
	OutputPortSuccess     = "success"
)

// AgentNode runs the bounded tool-calling loop as a graph step. Instructions
// come from configuration or the system port; the user and context ports feed
// the conversation seed.
type AgentNode struct {
	id           string
	loop         *loop.Loop
	instructions string
	config       loop.Config
}

// NewAgentNode creates a new agent node.
func NewAgentNode(id string, config map[string]any, agentLoop *loop.Loop) (*AgentNode, error) {
	if agentLoop == nil {
		return nil, errors.New("no agent loop configured")
	}

	node := &AgentNode{id: id, loop: agentLoop}

	if raw, ok := config["instructions"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'instructions' must be a string")
		}

		node.instructions = s
	}

	if raw, ok := config["model"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'model' must be a string")
		}

		node.config.Model = s
	}

	if raw, ok := config["maxIterations"]; ok {
		f, ok := raw.(float64)
		if !ok {
			return nil, errors.New("field 'maxIterations' must be a number")
		}

		node.config.MaxIterations = int(f)
	}

	if raw, ok := config["temperature"]; ok {
		f, ok := raw.(float64)
		if !ok {
			return nil, errors.New("field 'temperature' must be a number")
		}

		node.config.Temperature = &f
	}

	if raw, ok := config["toolTimeout"]; ok {
		f, ok := raw.(float64)
		if !ok {
			return nil, errors.New("field 'toolTimeout' must be a number")
		}

		node.config.ToolCallTimeout = time.Duration(f) * time.Second
	}

	return node, nil
}

// ID returns the node ID.
func (n *AgentNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *AgentNode) Type() string {
	return "agent"
}

// Execute runs the loop and emits its result, tool transcript and log.
func (n *AgentNode) Execute(ctx context.Context, execCtx *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	instructions := n.instructions
	if override := combinetext.Stringify(inputs[InputPortSystem]); override != "" {
		instructions = override
	}

	if instructions == "" {
		return nil, errors.New("no instructions provided")
	}

	if template.NeedsTemplating(instructions) {
		rendered, err := template.RenderWithContext(instructions, execCtx)
		if err != nil {
			return nil, fmt.Errorf("instructions rendering failed: %w", err)
		}

		instructions = combinetext.Stringify(rendered)
	}

	contextText := combinetext.Stringify(inputs[InputPortUser])
	if extra := combinetext.Stringify(inputs[InputPortContext]); extra != "" {
		if contextText != "" {
			contextText += "\n\n"
		}

		contextText += extra
	}

	result, err := n.loop.Run(ctx, instructions, contextText, n.config)
	if err != nil {
		return nil, fmt.Errorf("agent loop failed: %w", err)
	}

	return map[string]any{
		OutputPortMain:        result.Result,
		OutputPortToolResults: result.ToolResults,
		OutputPortLog:         result.ExecutionLog,
		OutputPortSuccess:     result.Success,
	}, nil
}
