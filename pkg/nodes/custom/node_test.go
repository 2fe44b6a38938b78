package custom

import (
	"context"
	"testing"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestCustomNode_Execute_ReadsInputs(t *testing.T) {
	node, err := NewCustomNode("test-custom", "shout", "{{.inputs.input}}!!!")
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	results, err := node.Execute(context.Background(), execCtx, map[string]any{
		InputPortMain: "hello",
	})
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if results[OutputPortMain] != "hello!!!" {
		t.Errorf("Expected 'hello!!!', got: %v", results[OutputPortMain])
	}
}

func TestCustomNode_Execute_ReadsNodeResults(t *testing.T) {
	node, err := NewCustomNode("test-custom", "echo-upstream", "{{.nodeResults.greet.output}}")
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")
	execCtx.Record("greet", models.NodeResult{
		NodeID: "greet",
		Data:   map[string]any{"output": "hi"},
		Status: string(models.NodeStatusSuccess),
	})

	results, err := node.Execute(context.Background(), execCtx, nil)
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if results[OutputPortMain] != "hi" {
		t.Errorf("Expected upstream value, got: %v", results[OutputPortMain])
	}
}

func TestCustomNode_Execute_DoesNotMutateContext(t *testing.T) {
	node, err := NewCustomNode("test-custom", "noop", "{{.inputs.input}}")
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	_, err = node.Execute(context.Background(), execCtx, map[string]any{InputPortMain: "x"})
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if execCtx.Inputs != nil {
		t.Error("Execution context must not carry node-scoped inputs after the call")
	}
}

func TestNewFactory_Validation(t *testing.T) {
	if _, err := NewFactory("", "Name", "", "{{.inputs.input}}"); err == nil {
		t.Error("Expected error for empty type")
	}

	if _, err := NewFactory("shout", "Shout", "", "  "); err == nil {
		t.Error("Expected error for empty template")
	}
}
