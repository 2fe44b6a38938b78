// Package conditional provides the if-else branching node for workflow graph execution.
package conditional

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/template"
)

const (
	OutputPortTrue  = "true"
	OutputPortFalse = "false"
	InputPortMain   = models.DefaultInputPort
)

// ConditionalNode routes execution to its true or false port. When a
// condition expression is configured it is rendered and evaluated; otherwise
// the node falls back to a truthiness check of the upstream value. The
// expression language is comparisons and literals only, never host code.
type ConditionalNode struct {
	id        string
	condition string
}

// NewConditionalNode creates a new if-else node.
func NewConditionalNode(id string, config map[string]any) (*ConditionalNode, error) {
	condition := ""
	if raw, ok := config["condition"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("field 'condition' must be a string, got %T", raw)
		}

		condition = s
	}

	return &ConditionalNode{id: id, condition: condition}, nil
}

// ID returns the node ID.
func (n *ConditionalNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ConditionalNode) Type() string {
	return "if-else"
}

// Execute evaluates the condition and emits the upstream value on exactly one
// of the two branch ports.
func (n *ConditionalNode) Execute(_ context.Context, execCtx *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	value := inputs[InputPortMain]

	var isTrue bool

	if n.condition == "" {
		isTrue = Truthy(value)
	} else {
		rendered, err := template.RenderWithContext(n.condition, execCtx)
		if err != nil {
			return nil, fmt.Errorf("condition evaluation failed: %w", err)
		}

		isTrue = evaluateExpression(rendered)
	}

	if isTrue {
		return map[string]any{OutputPortTrue: value}, nil
	}

	return map[string]any{OutputPortFalse: value}, nil
}

// comparison operators ordered so two-character forms match first.
var comparisonOperators = []string{"==", "!=", ">=", "<=", ">", "<"}

// evaluateExpression interprets a rendered condition. A bare value is checked
// for truthiness; "left op right" forms are compared numerically when both
// sides parse as numbers, else as trimmed strings.
func evaluateExpression(value any) bool {
	expression, ok := value.(string)
	if !ok {
		return Truthy(value)
	}

	expression = strings.TrimSpace(expression)

	for _, op := range comparisonOperators {
		left, right, found := strings.Cut(expression, op)
		if !found {
			continue
		}

		return compare(strings.TrimSpace(left), op, strings.TrimSpace(right))
	}

	return Truthy(expression)
}

func compare(left, op, right string) bool {
	leftNum, leftErr := strconv.ParseFloat(left, 64)
	rightNum, rightErr := strconv.ParseFloat(right, 64)

	if leftErr == nil && rightErr == nil {
		switch op {
		case "==":
			return leftNum == rightNum
		case "!=":
			return leftNum != rightNum
		case ">":
			return leftNum > rightNum
		case ">=":
			return leftNum >= rightNum
		case "<":
			return leftNum < rightNum
		case "<=":
			return leftNum <= rightNum
		}
	}

	left = strings.Trim(left, `"'`)
	right = strings.Trim(right, `"'`)

	switch op {
	case "==":
		return left == right
	case "!=":
		return left != right
	case ">":
		return left > right
	case ">=":
		return left >= right
	case "<":
		return left < right
	case "<=":
		return left <= right
	default:
		return false
	}
}

// Truthy converts an arbitrary port value to a boolean.
func Truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case nil:
		return false
	default:
		return false
	}
}
