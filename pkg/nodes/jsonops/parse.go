// Package jsonops provides JSON parse and stringify node implementations for workflow graph execution.
package jsonops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fluxionhq/fluxion/pkg/models"
)

const (
	InputPortMain  = models.DefaultInputPort
	OutputPortMain = models.DefaultOutputPort
)

// JSONParseNode decodes a JSON document and optionally extracts a value at a
// dotted path, e.g. "user.addresses.0.city".
type JSONParseNode struct {
	id   string
	path string
}

// NewJSONParseNode creates a new json-parse node.
func NewJSONParseNode(id string, config map[string]any) (*JSONParseNode, error) {
	path := ""
	if raw, ok := config["path"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'path' must be a string")
		}

		path = s
	}

	return &JSONParseNode{id: id, path: path}, nil
}

// ID returns the node ID.
func (n *JSONParseNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *JSONParseNode) Type() string {
	return "json-parse"
}

// Execute parses the input and walks the configured path.
func (n *JSONParseNode) Execute(_ context.Context, _ *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	value := inputs[InputPortMain]

	// String inputs are decoded; values that arrived already structured pass
	// straight to path extraction.
	if raw, ok := value.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, fmt.Errorf("invalid JSON input: %w", err)
		}

		value = decoded
	}

	extracted, err := ExtractPath(value, n.path)
	if err != nil {
		return nil, err
	}

	return map[string]any{OutputPortMain: extracted}, nil
}

// ExtractPath walks a dotted path through maps and slices. An empty path
// returns the value unchanged.
func ExtractPath(value any, path string) (any, error) {
	if path == "" {
		return value, nil
	}

	current := value

	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, fmt.Errorf("path segment %q not found", segment)
			}

			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil {
				return nil, fmt.Errorf("path segment %q is not an array index", segment)
			}

			if index < 0 || index >= len(v) {
				return nil, fmt.Errorf("array index %d out of range", index)
			}

			current = v[index]
		default:
			return nil, fmt.Errorf("path segment %q cannot be applied to %T", segment, current)
		}
	}

	return current, nil
}
