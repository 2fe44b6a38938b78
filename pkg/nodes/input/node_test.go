package input

import (
	"context"
	"testing"

	"github.com/fluxionhq/fluxion/pkg/models"
)

func TestInputNode_Execute_SeededValue(t *testing.T) {
	node, err := NewInputNode("name", map[string]any{"kind": KindText})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	results, err := node.Execute(context.Background(), execCtx, map[string]any{
		models.DefaultInputPort: "Ada",
	})
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if results[OutputPortMain] != "Ada" {
		t.Errorf("Expected seeded value passed through, got: %v", results[OutputPortMain])
	}
}

func TestInputNode_Execute_DefaultApplied(t *testing.T) {
	node, err := NewInputNode("name", map[string]any{"default": "anonymous"})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	results, err := node.Execute(context.Background(), execCtx, map[string]any{})
	if err != nil {
		t.Fatalf("Node execution failed: %v", err)
	}

	if results[OutputPortMain] != "anonymous" {
		t.Errorf("Expected default value, got: %v", results[OutputPortMain])
	}
}

func TestInputNode_Execute_MissingWithoutDefault(t *testing.T) {
	node, err := NewInputNode("name", map[string]any{})
	if err != nil {
		t.Fatalf("Failed to create node: %v", err)
	}

	execCtx := models.NewExecutionContext("test-exec", "test-workflow")

	_, err = node.Execute(context.Background(), execCtx, map[string]any{})
	if err == nil {
		t.Fatal("Expected error when value missing and no default configured")
	}
}

func TestNewInputNode_UnsupportedKind(t *testing.T) {
	_, err := NewInputNode("name", map[string]any{"kind": "binary"})
	if err == nil {
		t.Fatal("Expected error for unsupported kind")
	}
}
