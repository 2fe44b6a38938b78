// Package agent implements the tool-augmented conversation loop driven by a
// language model.
package agent

import (
	"errors"
	"fmt"
	"strings"
)

var errUnsanitizable = errors.New("tool parameter schema cannot be sanitized")

// sanitizeParameters rewrites a tool's input schema into a form every
// function-calling model API accepts: plain object schemas, single string
// types, arrays with explicit item types. Returns the cleaned schema and a
// list of notes describing what was dropped.
func sanitizeParameters(schema map[string]any) (map[string]any, []string, error) {
	if schema == nil {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, nil, nil
	}

	notes := make([]string, 0)

	cleaned, err := sanitizeValue(schema, "", &notes)
	if err != nil {
		return nil, nil, err
	}

	result, ok := cleaned.(map[string]any)
	if !ok {
		return nil, nil, errUnsanitizable
	}

	if result["type"] != "object" {
		result["type"] = "object"
	}

	if _, ok := result["properties"]; !ok {
		result["properties"] = map[string]any{}
	}

	return result, notes, nil
}

func sanitizeValue(value any, path string, notes *[]string) (any, error) {
	schema, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", errUnsanitizable, pathOrRoot(path))
	}

	cleaned := make(map[string]any, len(schema))

	for key, v := range schema {
		switch key {
		case "enum", "oneOf", "anyOf", "allOf", "not", "additionalProperties":
			*notes = append(*notes, fmt.Sprintf("dropped %q at %s", key, pathOrRoot(path)))
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: properties at %s", errUnsanitizable, pathOrRoot(path))
			}

			cleanedProps := make(map[string]any, len(props))

			for name, prop := range props {
				cleanedProp, err := sanitizeValue(prop, path+"."+name, notes)
				if err != nil {
					return nil, err
				}

				cleanedProps[name] = cleanedProp
			}

			cleaned[key] = cleanedProps
		case "items":
			cleanedItems, err := sanitizeValue(v, path+"[]", notes)
			if err != nil {
				return nil, err
			}

			cleaned[key] = cleanedItems
		case "type":
			cleaned[key] = sanitizeType(v, path, notes)
		default:
			cleaned[key] = v
		}
	}

	if cleaned["type"] == nil {
		cleaned["type"] = "string"
	}

	// Every array parameter must declare an item type.
	if cleaned["type"] == "array" {
		if _, ok := cleaned["items"]; !ok {
			cleaned["items"] = map[string]any{"type": "string"}
			*notes = append(*notes, fmt.Sprintf("defaulted array items to string at %s", pathOrRoot(path)))
		}
	}

	return cleaned, nil
}

// sanitizeType collapses union types to their first member and replaces
// anything that is not a plain type name with "string".
func sanitizeType(v any, path string, notes *[]string) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if first, ok := t[0].(string); ok {
				*notes = append(*notes, fmt.Sprintf("collapsed union type at %s", pathOrRoot(path)))

				return first
			}
		}
	}

	*notes = append(*notes, fmt.Sprintf("replaced unsupported type at %s", pathOrRoot(path)))

	return "string"
}

func pathOrRoot(path string) string {
	if path == "" {
		return "root"
	}

	return strings.TrimPrefix(path, ".")
}

// describeWithNotes appends dropped-constraint notes to a tool description so
// the information survives as documentation even though the schema itself no
// longer carries it.
func describeWithNotes(description string, notes []string) string {
	if len(notes) == 0 {
		return description
	}

	return strings.TrimSpace(description + "\n(schema simplified: " + strings.Join(notes, "; ") + ")")
}
