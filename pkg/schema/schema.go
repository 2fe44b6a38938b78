// Package schema derives the request/response contract of a deployed workflow
// from its graph.
package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// Generate builds the input and output JSON schemas for a graph: one request
// field per input node, one response field per output node, named by
// normalizing the node's label. The field-to-node mapping is part of the
// result and must be stored with the deployment, not recomputed later.
func Generate(graph *models.Graph) *models.WorkflowSchema {
	ws := &models.WorkflowSchema{
		Input: &models.JSONSchema{
			Type:       "object",
			Title:      "Workflow input",
			Properties: make(map[string]*models.Property),
		},
		Output: &models.JSONSchema{
			Type:       "object",
			Title:      "Workflow output",
			Properties: make(map[string]*models.Property),
		},
		InputFields:  make(map[string]string),
		OutputFields: make(map[string]string),
	}

	for i, node := range graph.InputNodes() {
		field := uniqueName(FieldName(node.Label()), fmt.Sprintf("input%d", i+1), ws.InputFields)

		property := propertyForKind(nodeKind(node))
		if property.Description == "" {
			property.Description = node.Label() + " input field"
		}

		defaultValue, hasDefault := node.Data["default"]
		if hasDefault {
			property.Default = defaultValue
		} else {
			ws.Input.Required = append(ws.Input.Required, field)
		}

		ws.Input.Properties[field] = property
		ws.InputFields[field] = node.ID
	}

	for i, node := range graph.OutputNodes() {
		field := uniqueName(FieldName(node.Label()), fmt.Sprintf("output%d", i+1), ws.OutputFields)

		property := propertyForKind(nodeKind(node))
		if property.Description == "" {
			property.Description = node.Label() + " output field"
		}

		ws.Output.Properties[field] = property
		ws.OutputFields[field] = node.ID
	}

	return ws
}

// FieldName converts a node label into a camelCase, alphanumeric-only
// identifier. An empty result is reported as "" so the caller can fall back
// to a generic name.
func FieldName(label string) string {
	var words []string

	var current strings.Builder

	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}

		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		words = append(words, current.String())
	}

	if len(words) == 0 {
		return ""
	}

	var name strings.Builder

	for i, word := range words {
		if i == 0 {
			name.WriteString(strings.ToLower(word))
			continue
		}

		// Title-case on the first rune, not the first byte, so multi-byte
		// letters survive.
		first, size := utf8.DecodeRuneInString(word)
		name.WriteRune(unicode.ToUpper(first))
		name.WriteString(strings.ToLower(word[size:]))
	}

	// Identifiers must not start with a digit.
	result := name.String()

	firstRune, _ := utf8.DecodeRuneInString(result)
	if unicode.IsDigit(firstRune) {
		result = "field" + result
	}

	return result
}

// uniqueName picks the normalized name, falls back when empty and suffixes a
// counter on collision so every node keeps its own field.
func uniqueName(name, fallback string, taken map[string]string) string {
	if name == "" {
		name = fallback
	}

	if _, exists := taken[name]; !exists {
		return name
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
	}
}

func nodeKind(node *models.Node) string {
	if kind, ok := node.Data["kind"].(string); ok {
		return kind
	}

	return "text"
}

// propertyForKind maps a declared field kind to its fixed schema fragment.
func propertyForKind(kind string) *models.Property {
	switch kind {
	case "number":
		return &models.Property{Type: "number"}
	case "json":
		return &models.Property{Type: "object"}
	case "file":
		return &models.Property{
			Type:        "string",
			Format:      "byte",
			Description: "Base64 encoded file content",
			Example:     "iVBORw0KGgoAAAANSUhEUg...",
		}
	default:
		return &models.Property{Type: "string"}
	}
}
