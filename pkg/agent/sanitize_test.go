package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeParameters_NilSchema(t *testing.T) {
	cleaned, notes, err := sanitizeParameters(nil)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, "object", cleaned["type"])
	assert.NotNil(t, cleaned["properties"])
}

func TestSanitizeParameters_DropsUnsupportedKeywords(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode": map[string]any{
				"type": "string",
				"enum": []any{"fast", "slow"},
			},
			"payload": map[string]any{
				"oneOf": []any{
					map[string]any{"type": "string"},
					map[string]any{"type": "number"},
				},
			},
		},
		"additionalProperties": false,
	}

	cleaned, notes, err := sanitizeParameters(schema)
	require.NoError(t, err)
	assert.NotEmpty(t, notes)

	props := cleaned["properties"].(map[string]any)

	mode := props["mode"].(map[string]any)
	assert.NotContains(t, mode, "enum")
	assert.Equal(t, "string", mode["type"])

	payload := props["payload"].(map[string]any)
	assert.NotContains(t, payload, "oneOf")
	assert.Equal(t, "string", payload["type"], "schema with no type defaults to string")

	assert.NotContains(t, cleaned, "additionalProperties")
}

func TestSanitizeParameters_ForcesArrayItems(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{"type": "array"},
		},
	}

	cleaned, notes, err := sanitizeParameters(schema)
	require.NoError(t, err)
	assert.NotEmpty(t, notes)

	tags := cleaned["properties"].(map[string]any)["tags"].(map[string]any)
	items := tags["items"].(map[string]any)
	assert.Equal(t, "string", items["type"])
}

func TestSanitizeParameters_CollapsesUnionTypes(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{"type": []any{"number", "string"}},
		},
	}

	cleaned, _, err := sanitizeParameters(schema)
	require.NoError(t, err)

	value := cleaned["properties"].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, "number", value["type"])
}

func TestSanitizeParameters_RejectsNonObjectProperty(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"broken": "not a schema",
		},
	}

	_, _, err := sanitizeParameters(schema)
	require.Error(t, err)
}

func TestDescribeWithNotes(t *testing.T) {
	assert.Equal(t, "fetches a page", describeWithNotes("fetches a page", nil))

	described := describeWithNotes("fetches a page", []string{"dropped \"enum\" at mode"})
	assert.Contains(t, described, "fetches a page")
	assert.Contains(t, described, "schema simplified")
}
