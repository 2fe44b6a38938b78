package models

// JSONSchema represents a JSON Schema document or sub-schema.
type JSONSchema struct {
	Type        string               `json:"type"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// Property represents a single JSON Schema property.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Format      string               `json:"format,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Example     any                  `json:"example,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// WorkflowSchema is the generated API contract of a deployed workflow. The
// field mappings are computed once at deploy time and read back verbatim at
// execution time, so a change to label normalization can never make stored
// deployments drift.
type WorkflowSchema struct {
	Input        *JSONSchema       `json:"input"`
	Output       *JSONSchema       `json:"output"`
	InputFields  map[string]string `json:"input_fields"`  // field name -> input node id
	OutputFields map[string]string `json:"output_fields"` // field name -> output node id
}
