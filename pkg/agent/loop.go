package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/mcp"
)

// DefaultMaxIterations bounds the conversation loop when no explicit limit is
// configured. The bound is cooperative: it stops runaway model/tool cycles but
// does not preempt an in-flight call.
const DefaultMaxIterations = 10

const defaultToolCallTimeout = 60 * time.Second

// Config tunes one run of the loop.
type Config struct {
	Model           string
	MaxIterations   int
	Temperature     *float64
	ToolCallTimeout time.Duration
}

// ToolResult records one tool invocation made during the loop.
type ToolResult struct {
	Server    string         `json:"server"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    string         `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Success   bool           `json:"success"`
}

// Result is the outcome of a loop run. Success is false when the iteration
// bound was reached before the model produced a final answer.
type Result struct {
	Result       string       `json:"result"`
	ToolResults  []ToolResult `json:"tool_results"`
	ExecutionLog []string     `json:"execution_log"`
	Success      bool         `json:"success"`
}

// route maps a model-facing function name back to its originating server.
type route struct {
	server string
	tool   string
}

// Loop drives a bounded, tool-augmented conversation with a language model.
type Loop struct {
	chat   llm.ChatClient
	tools  mcp.ToolProvider
	logger *slog.Logger
}

// NewLoop creates an agent loop. tools may be nil, in which case the loop runs
// as a plain multi-turn conversation.
func NewLoop(chat llm.ChatClient, tools mcp.ToolProvider, logger *slog.Logger) *Loop {
	return &Loop{chat: chat, tools: tools, logger: logger}
}

// Run executes the loop. Individual tool failures are fed back to the model
// as conversation turns; only a hard model-endpoint failure returns an error.
func (l *Loop) Run(ctx context.Context, instructions, contextText string, config Config) (*Result, error) {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}

	if config.ToolCallTimeout <= 0 {
		config.ToolCallTimeout = defaultToolCallTimeout
	}

	result := &Result{
		ToolResults:  make([]ToolResult, 0),
		ExecutionLog: make([]string, 0),
	}

	catalog, routes := l.discoverCatalog(ctx, result)

	messages := []llm.Message{
		{
			Role: llm.RoleSystem,
			Content: "You are an autonomous agent. You may call the provided tools " +
				"whenever they help you complete the task. When you have the final " +
				"answer, reply with plain text and no tool calls.",
		},
		{Role: llm.RoleUser, Content: userPrompt(instructions, contextText)},
	}

	lastAssistant := ""

	for iteration := 1; iteration <= config.MaxIterations; iteration++ {
		result.ExecutionLog = append(result.ExecutionLog,
			fmt.Sprintf("iteration %d: calling model with %d tools", iteration, len(catalog)))

		resp, err := l.chat.Chat(ctx, llm.ChatRequest{
			Model:       config.Model,
			Messages:    messages,
			Tools:       catalog,
			Temperature: config.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("model call failed on iteration %d: %w", iteration, err)
		}

		reply := resp.First()
		messages = append(messages, reply)

		if reply.Content != "" {
			lastAssistant = reply.Content
		}

		if len(reply.ToolCalls) == 0 {
			result.Result = reply.Content
			result.Success = true
			result.ExecutionLog = append(result.ExecutionLog,
				fmt.Sprintf("iteration %d: final answer", iteration))

			return result, nil
		}

		for _, call := range reply.ToolCalls {
			messages = append(messages, l.executeToolCall(ctx, call, routes, config, result))
		}
	}

	result.Result = lastAssistant
	result.Success = false
	result.ExecutionLog = append(result.ExecutionLog,
		fmt.Sprintf("iteration bound of %d reached without a final answer", config.MaxIterations))

	return result, nil
}

// discoverCatalog converts discovered tool definitions into model-callable
// descriptors. A server that is down, or a tool whose schema cannot be made
// valid, is skipped; the loop still runs, if necessary with no tools at all.
func (l *Loop) discoverCatalog(ctx context.Context, result *Result) ([]llm.Tool, map[string]route) {
	routes := make(map[string]route)

	if l.tools == nil {
		return nil, routes
	}

	discovered, err := l.tools.DiscoverTools(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "Tool discovery failed, continuing without tools", "error", err)
		result.ExecutionLog = append(result.ExecutionLog, "tool discovery failed: "+err.Error())

		return nil, routes
	}

	catalog := make([]llm.Tool, 0, len(discovered))

	for _, tool := range discovered {
		parameters, notes, err := sanitizeParameters(tool.InputSchema)
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping tool with invalid schema",
				"server", tool.Server, "tool", tool.Name, "error", err)
			result.ExecutionLog = append(result.ExecutionLog,
				fmt.Sprintf("skipped tool %s/%s: %v", tool.Server, tool.Name, err))

			continue
		}

		name := tool.Name
		if _, taken := routes[name]; taken {
			name = tool.Server + "__" + tool.Name
		}

		routes[name] = route{server: tool.Server, tool: tool.Name}

		catalog = append(catalog, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        name,
				Description: describeWithNotes(tool.Description, notes),
				Parameters:  parameters,
			},
		})
	}

	result.ExecutionLog = append(result.ExecutionLog,
		fmt.Sprintf("discovered %d usable tools", len(catalog)))

	return catalog, routes
}

// executeToolCall runs one requested invocation and returns the tool turn to
// append. Tool errors are recoverable: the error text becomes the turn content
// so the model can react to it.
func (l *Loop) executeToolCall(ctx context.Context, call llm.ToolCall, routes map[string]route, config Config, result *Result) llm.Message {
	var arguments map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &arguments); err != nil {
			l.logger.WarnContext(ctx, "Model produced unparseable tool arguments",
				"tool", call.Function.Name, "error", err)
		}
	}

	record := ToolResult{
		Tool:      call.Function.Name,
		Arguments: arguments,
	}

	target, known := routes[call.Function.Name]
	if !known {
		record.Error = fmt.Sprintf("model requested unknown tool %q", call.Function.Name)
	} else {
		record.Server = target.server

		callCtx, cancel := context.WithTimeout(ctx, config.ToolCallTimeout)
		output, err := l.tools.CallTool(callCtx, target.server, target.tool, arguments)

		cancel()

		if err != nil {
			record.Error = err.Error()
		} else {
			record.Result = output
			record.Success = true
		}
	}

	result.ToolResults = append(result.ToolResults, record)

	content := record.Result
	if !record.Success {
		content = "tool error: " + record.Error
	}

	result.ExecutionLog = append(result.ExecutionLog,
		fmt.Sprintf("tool %s: success=%t", call.Function.Name, record.Success))

	return llm.Message{
		Role:       llm.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		Name:       call.Function.Name,
	}
}

func userPrompt(instructions, contextText string) string {
	if strings.TrimSpace(contextText) == "" {
		return instructions
	}

	return instructions + "\n\nContext:\n" + contextText
}
