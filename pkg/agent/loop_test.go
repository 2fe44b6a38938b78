package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fluxionhq/fluxion/pkg/llm"
	"github.com/fluxionhq/fluxion/pkg/log"
	"github.com/fluxionhq/fluxion/pkg/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChat replays a fixed sequence of assistant messages.
type scriptedChat struct {
	replies []llm.Message
	calls   int
}

func (c *scriptedChat) Chat(_ context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	reply := c.replies[len(c.replies)-1]
	if c.calls < len(c.replies) {
		reply = c.replies[c.calls]
	}

	c.calls++

	return &llm.ChatResponse{Choices: []llm.Choice{{Message: reply}}}, nil
}

func (c *scriptedChat) DefaultModel() string { return "test-model" }

type fakeTools struct {
	tools       []mcp.DiscoveredTool
	discoverErr error
	callErr     error
	calls       []string
}

func (f *fakeTools) DiscoverTools(_ context.Context) ([]mcp.DiscoveredTool, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}

	return f.tools, nil
}

func (f *fakeTools) CallTool(_ context.Context, server, name string, _ map[string]any) (string, error) {
	f.calls = append(f.calls, server+"/"+name)
	if f.callErr != nil {
		return "", f.callErr
	}

	return "tool output for " + name, nil
}

func toolCallMessage(name string) llm.Message {
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:   "call-1",
			Type: "function",
			Function: llm.FunctionCall{
				Name:      name,
				Arguments: `{"q":"test"}`,
			},
		}},
	}
}

func TestLoop_DirectAnswer(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		{Role: llm.RoleAssistant, Content: "the answer"},
	}}
	tools := &fakeTools{tools: []mcp.DiscoveredTool{
		{Server: "search", Name: "web_search", InputSchema: map[string]any{"type": "object"}},
	}}

	result, err := NewLoop(chat, tools, log.WithModule("test")).Run(
		context.Background(), "answer this", "", Config{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "the answer", result.Result)
	assert.Empty(t, result.ToolResults)
	assert.Equal(t, 1, chat.calls)
}

func TestLoop_ToolCallThenAnswer(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		toolCallMessage("web_search"),
		{Role: llm.RoleAssistant, Content: "done after searching"},
	}}
	tools := &fakeTools{tools: []mcp.DiscoveredTool{
		{Server: "search", Name: "web_search"},
	}}

	result, err := NewLoop(chat, tools, log.WithModule("test")).Run(
		context.Background(), "search for it", "some context", Config{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "done after searching", result.Result)
	require.Len(t, result.ToolResults, 1)
	assert.True(t, result.ToolResults[0].Success)
	assert.Equal(t, "search", result.ToolResults[0].Server)
	assert.Equal(t, []string{"search/web_search"}, tools.calls)
}

func TestLoop_ToolErrorIsRecoverable(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		toolCallMessage("web_search"),
		{Role: llm.RoleAssistant, Content: "answered despite the failure"},
	}}
	tools := &fakeTools{
		tools:   []mcp.DiscoveredTool{{Server: "search", Name: "web_search"}},
		callErr: errors.New("connection refused"),
	}

	result, err := NewLoop(chat, tools, log.WithModule("test")).Run(
		context.Background(), "try it", "", Config{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.ToolResults, 1)
	assert.False(t, result.ToolResults[0].Success)
	assert.Contains(t, result.ToolResults[0].Error, "connection refused")
}

func TestLoop_IterationBound(t *testing.T) {
	// The model asks for a tool on every turn and never settles.
	chat := &scriptedChat{replies: []llm.Message{toolCallMessage("web_search")}}
	tools := &fakeTools{tools: []mcp.DiscoveredTool{{Server: "search", Name: "web_search"}}}

	result, err := NewLoop(chat, tools, log.WithModule("test")).Run(
		context.Background(), "never finish", "", Config{MaxIterations: 3})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 3, chat.calls)
	assert.Len(t, result.ToolResults, 3)
}

func TestLoop_DiscoveryFailureDegradesToPlainConversation(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		{Role: llm.RoleAssistant, Content: "no tools needed"},
	}}
	tools := &fakeTools{discoverErr: errors.New("backend down")}

	result, err := NewLoop(chat, tools, log.WithModule("test")).Run(
		context.Background(), "just answer", "", Config{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "no tools needed", result.Result)
}

func TestLoop_NilToolProvider(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		{Role: llm.RoleAssistant, Content: "plain answer"},
	}}

	result, err := NewLoop(chat, nil, log.WithModule("test")).Run(
		context.Background(), "hello", "", Config{})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestLoop_SkipsToolWithBrokenSchema(t *testing.T) {
	chat := &scriptedChat{replies: []llm.Message{
		{Role: llm.RoleAssistant, Content: "ok"},
	}}
	tools := &fakeTools{tools: []mcp.DiscoveredTool{
		{
			Server: "search",
			Name:   "broken",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"x": 42},
			},
		},
	}}

	result, err := NewLoop(chat, tools, log.WithModule("test")).Run(
		context.Background(), "go", "", Config{})
	require.NoError(t, err)

	assert.True(t, result.Success)

	found := false

	for _, line := range result.ExecutionLog {
		if line == fmt.Sprintf("skipped tool %s/%s: %v", "search", "broken",
			fmt.Errorf("%w: x is not an object", errUnsanitizable)) {
			found = true
		}
	}

	assert.True(t, found, "expected a skip entry in the execution log: %v", result.ExecutionLog)
}
