// Package combinetext provides text concatenation node implementation for workflow graph execution.
package combinetext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/fluxionhq/fluxion/pkg/models"
)

const (
	InputPortFirst  = "input1"
	InputPortSecond = "input2"
	OutputPortMain  = models.DefaultOutputPort
)

// CombineTextNode concatenates two upstream values with a configurable
// separator. Non-string inputs are stringified first so the node composes
// with JSON and number producers.
type CombineTextNode struct {
	id        string
	separator string
}

// NewCombineTextNode creates a new combine-text node.
func NewCombineTextNode(id string, config map[string]any) (*CombineTextNode, error) {
	separator := " "
	if raw, ok := config["separator"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'separator' must be a string")
		}

		separator = s
	}

	return &CombineTextNode{id: id, separator: separator}, nil
}

// ID returns the node ID.
func (n *CombineTextNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *CombineTextNode) Type() string {
	return "combine-text"
}

// Execute joins both inputs. A missing side contributes an empty string so a
// single-wired combine node still produces output.
func (n *CombineTextNode) Execute(_ context.Context, _ *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	first := Stringify(inputs[InputPortFirst])
	second := Stringify(inputs[InputPortSecond])

	combined := first
	if first != "" && second != "" {
		combined = first + n.separator + second
	} else if second != "" {
		combined = second
	}

	return map[string]any{OutputPortMain: combined}, nil
}

// Stringify renders an arbitrary port value as text. Structured values are
// serialized as compact JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}
