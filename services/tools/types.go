package tools

import (
	"context"
	"sort"
)

// ParamType enumerates the argument types a tool schema may declare.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeNumber  ParamType = "number"
	ParamTypeInteger ParamType = "integer"
	ParamTypeBoolean ParamType = "boolean"
)

// ParamSpec describes a single tool argument.
type ParamSpec struct {
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// Schema declares a tool's name and argument contract. Schemas are
// validated at registration time, not at call time via reflection.
type Schema struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]ParamSpec `json:"parameters"`
}

// ParamNames returns parameter names in sorted order so any serialization
// of the schema is deterministic.
func (s Schema) ParamNames() []string {
	names := make([]string, 0, len(s.Parameters))
	for name := range s.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSONSchema renders the parameter contract as a JSON-schema object in the
// shape OpenAI-compatible providers expect.
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Parameters))
	var required []string
	for _, name := range s.ParamNames() {
		spec := s.Parameters[name]
		prop := map[string]any{"type": string(spec.Type)}
		if spec.Description != "" {
			prop["description"] = spec.Description
		}
		if len(spec.Enum) > 0 {
			prop["enum"] = spec.Enum
		}
		properties[name] = prop
		if spec.Required {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Tool is a callable capability the generator may invoke mid-turn.
// Handlers may perform I/O and must honor context cancellation.
type Tool interface {
	Name() string
	Schema() Schema
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// CallRequest is a structured tool invocation requested by the model.
type CallRequest struct {
	// ID is the provider-assigned call identifier, echoed back in the
	// tool result so the model can correlate them.
	ID string `json:"id"`

	// Name of the requested tool.
	Name string `json:"name"`

	// Arguments is the raw JSON argument object emitted by the model.
	Arguments string `json:"arguments"`
}

// Result answers exactly one CallRequest. A schema violation or handler
// failure produces an error-carrying Result, not a system failure, so the
// generator can self-correct and re-issue the call.
type Result struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}
