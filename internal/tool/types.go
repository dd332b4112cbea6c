package tool

import (
	"context"
	"encoding/json"
)

// Tool is the unified interface for all tools.
// Both native built-in tools and MCP tool adapters implement this interface.
type Tool interface {
	// Name returns the tool identifier (LLM uses this name to invoke the tool).
	Name() string

	// Description returns a natural-language description for LLM prompt injection.
	Description() string

	// InputSchema returns a standard JSON Schema defining the tool's parameters.
	// Compatible with MCP protocol and OpenAI Function Calling.
	InputSchema() json.RawMessage

	// Execute runs the tool with JSON-encoded arguments.
	Execute(ctx context.Context, args json.RawMessage) (ToolResult, error)

	// Init initializes tool resources (e.g. MCP client connections).
	// Native tools may return nil.
	Init(ctx context.Context) error

	// Close releases tool resources.
	Close() error
}

// ToolResult encapsulates a tool execution result.
type ToolResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// SchemaParam describes a single parameter for the SchemaBuilder helper.
type SchemaParam struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string", "integer", "boolean", "number"
	Description string   `json:"description"`
	Required    bool     `json:"-"`
	Enum        []string `json:"enum,omitempty"`
}

// BuildSchema generates a standard JSON Schema object from a list of SchemaParams.
// This helper lets native tools avoid hand-writing JSON strings.
//
// Output example:
//
//	{"type":"object","properties":{"command":{"type":"string","description":"要执行的命令"}},"required":["command"]}
func BuildSchema(params ...SchemaParam) json.RawMessage {
	properties := make(map[string]any)
	var required []string

	for _, p := range params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	data, _ := json.Marshal(schema)
	return data
}

// ValidationError carries a human-readable, path-qualified message
// describing why Validate rejected an argument object.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

type schemaDoc struct {
	Properties map[string]schemaProp `json:"properties"`
	Required   []string              `json:"required"`
}

type schemaProp struct {
	Type string   `json:"type"`
	Enum []string `json:"enum"`
}

// Validate checks args (a JSON object) against schema (the json.RawMessage
// produced by BuildSchema) in strict mode: every required field must be
// present and non-empty if a string, every present field's type and enum
// membership (if declared) must match, and any field not declared in the
// schema is rejected — unknown fields are never silently ignored.
//
// A nil or empty schema, or one without a "properties" key, accepts any
// object and rejects nothing beyond valid JSON object syntax. BuildSchema()
// called with no parameters emits an empty "properties" object, so that
// schema rejects every field.
func Validate(schema json.RawMessage, args json.RawMessage) error {
	var obj map[string]json.RawMessage
	if len(args) == 0 {
		obj = map[string]json.RawMessage{}
	} else if err := json.Unmarshal(args, &obj); err != nil {
		return &ValidationError{Message: "arguments must be a JSON object: " + err.Error()}
	}

	if len(schema) == 0 {
		return nil
	}
	var doc schemaDoc
	if err := json.Unmarshal(schema, &doc); err != nil {
		return &ValidationError{Message: "tool schema is malformed: " + err.Error()}
	}
	if doc.Properties == nil {
		return nil
	}

	for _, name := range doc.Required {
		raw, present := obj[name]
		if !present {
			return &ValidationError{Path: name, Message: "required field is missing"}
		}
		if doc.Properties[name].Type == "string" {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil && s == "" {
				return &ValidationError{Path: name, Message: "required string field must not be empty"}
			}
		}
	}

	for name, raw := range obj {
		prop, declared := doc.Properties[name]
		if !declared {
			return &ValidationError{Path: name, Message: "unknown field"}
		}
		if err := validateType(name, prop, raw); err != nil {
			return err
		}
		if len(prop.Enum) > 0 {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				ok := false
				for _, e := range prop.Enum {
					if e == s {
						ok = true
						break
					}
				}
				if !ok {
					return &ValidationError{Path: name, Message: "value is not one of the allowed enum values"}
				}
			}
		}
	}

	return nil
}

func validateType(name string, prop schemaProp, raw json.RawMessage) error {
	switch prop.Type {
	case "string":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return &ValidationError{Path: name, Message: "expected a string"}
		}
	case "integer":
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return &ValidationError{Path: name, Message: "expected an integer"}
		}
		if f != float64(int64(f)) {
			return &ValidationError{Path: name, Message: "expected an integer, got a non-integral number"}
		}
	case "number":
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return &ValidationError{Path: name, Message: "expected a number"}
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return &ValidationError{Path: name, Message: "expected a boolean"}
		}
	case "object":
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return &ValidationError{Path: name, Message: "expected an object"}
		}
	}
	return nil
}
