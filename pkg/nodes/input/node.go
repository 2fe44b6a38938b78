// Package input provides the workflow entry node that surfaces request fields.
package input

import (
	"context"
	"errors"
	"fmt"

	"github.com/fluxionhq/fluxion/pkg/models"
)

const OutputPortMain = models.DefaultOutputPort

// Field kinds accepted by the deployment schema generator.
const (
	KindText   = "text"
	KindNumber = "number"
	KindJSON   = "json"
	KindFile   = "file"
)

// InputNode exposes one field of the execution request to the graph. The
// executor seeds its input with the matching request value; the node applies
// the configured default when the caller omits the field.
type InputNode struct {
	id           string
	kind         string
	defaultValue any
	hasDefault   bool
}

// NewInputNode creates a new input node.
func NewInputNode(id string, config map[string]any) (*InputNode, error) {
	kind := KindText
	if raw, ok := config["kind"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("field 'kind' must be a string")
		}

		switch s {
		case KindText, KindNumber, KindJSON, KindFile:
			kind = s
		default:
			return nil, fmt.Errorf("unsupported input kind %q", s)
		}
	}

	defaultValue, hasDefault := config["default"]

	return &InputNode{
		id:           id,
		kind:         kind,
		defaultValue: defaultValue,
		hasDefault:   hasDefault,
	}, nil
}

// ID returns the node ID.
func (n *InputNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *InputNode) Type() string {
	return models.NodeTypeInput
}

// Kind returns the declared field kind.
func (n *InputNode) Kind() string {
	return n.kind
}

// Execute forwards the seeded request value, falling back to the default.
func (n *InputNode) Execute(_ context.Context, _ *models.ExecutionContext, inputs map[string]any) (map[string]any, error) {
	value, ok := inputs[models.DefaultInputPort]
	if !ok || value == nil {
		if !n.hasDefault {
			return nil, fmt.Errorf("no value provided for input %q", n.id)
		}

		value = n.defaultValue
	}

	return map[string]any{OutputPortMain: value}, nil
}
