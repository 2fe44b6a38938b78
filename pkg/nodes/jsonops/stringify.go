package jsonops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// JSONStringifyNode serializes whatever arrives on its input port as a JSON
// string, optionally indented.
type JSONStringifyNode struct {
	id     string
	pretty bool
}

// NewJSONStringifyNode creates a new json-stringify node.
func NewJSONStringifyNode(id string, config map[string]any) (*JSONStringifyNode, error) {
	pretty := false
	if raw, ok := config["pretty"]; ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, errors.New("field 'pretty' must be a boolean")
		}

		pretty = b
	}

	return &JSONStringifyNode{id: id, pretty: pretty}, nil
}

// ID returns the node ID.
func (n *JSONStringifyNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *JSONStringifyNode) Type() string {
	return "json-stringify"
}

// Execute serializes the input value.
func (n *JSONStringifyNode) Execute(_ context.Context, _ *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	value := inputs[InputPortMain]

	var (
		encoded []byte
		err     error
	)

	if n.pretty {
		encoded, err = json.MarshalIndent(value, "", "  ")
	} else {
		encoded, err = json.Marshal(value)
	}

	if err != nil {
		return nil, fmt.Errorf("value is not serializable: %w", err)
	}

	return map[string]any{OutputPortMain: string(encoded)}, nil
}
