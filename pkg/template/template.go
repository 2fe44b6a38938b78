// Package template provides templating functionality for dynamic node configuration.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/fluxionhq/fluxion/pkg/models"
)

// RenderWithContext renders a template string against the values accumulated
// in the execution context. Node outputs are reachable as
// {{.nodeResults.<nodeID>.<port>}}.
func RenderWithContext(input string, execCtx *models.ExecutionContext) (any, error) {
	nodeResults := make(map[string]any, len(execCtx.NodeResults))
	for nodeID, result := range execCtx.NodeResults {
		nodeResults[nodeID] = result.Data
	}

	data := map[string]any{
		"nodeResults": nodeResults,
		"variables":   execCtx.Variables,
		"metadata":    execCtx.Metadata,
		"inputs":      execCtx.Inputs,
		"execution": map[string]any{
			"id":          execCtx.ID,
			"workflow_id": execCtx.WorkflowID,
		},
	}

	return Render(input, data)
}

// NeedsTemplating reports whether a string contains template actions.
func NeedsTemplating(input string) bool {
	return strings.Contains(input, "{{")
}

// Render executes a Go template and coerces the rendered text back into a
// JSON value when it parses as one.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("node-config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"trim":  strings.TrimSpace,
			"json": func(v any) string {
				encoded, err := json.Marshal(v)
				if err != nil {
					return ""
				}

				return string(encoded)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any
		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}
