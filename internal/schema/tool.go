package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface all model-callable tools satisfy.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// ToolDefinition is the provider-neutral description of a tool sent to the
// gateway. Parameters is a decoded JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// DefinitionOf decodes t's parameter schema. An undecodable schema becomes
// an empty object schema.
func DefinitionOf(t Tool) ToolDefinition {
	var params map[string]any
	if err := json.Unmarshal(t.Parameters(), &params); err != nil || params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return ToolDefinition{Name: t.Name(), Description: t.Description(), Parameters: params}
}

// WireMap renders the definition in OpenAI function-calling format.
func (d ToolDefinition) WireMap() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"parameters":  d.Parameters,
		},
	}
}

// Properties returns the "properties" object of the schema, if any.
func (d ToolDefinition) Properties() map[string]any {
	p, _ := d.Parameters["properties"].(map[string]any)
	return p
}

// Required returns the "required" list of the schema.
func (d ToolDefinition) Required() []string {
	switch v := d.Parameters["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
