package tool

import (
	"encoding/json"
	"testing"
)

func TestBuildSchema(t *testing.T) {
	schema := BuildSchema(
		SchemaParam{Name: "command", Type: "string", Description: "Shell command", Required: true},
		SchemaParam{Name: "timeout", Type: "integer", Description: "Timeout in seconds", Required: false},
	)

	// Should be valid JSON
	var parsed map[string]interface{}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		t.Fatalf("BuildSchema output is not valid JSON: %v", err)
	}

	// Should have type: object
	if parsed["type"] != "object" {
		t.Errorf("type = %v, want 'object'", parsed["type"])
	}

	// Should have properties
	props, ok := parsed["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'properties' field")
	}

	// Check command property
	cmd, ok := props["command"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'command' property")
	}
	if cmd["type"] != "string" {
		t.Errorf("command.type = %v, want 'string'", cmd["type"])
	}
	if cmd["description"] != "Shell command" {
		t.Errorf("command.description = %v, want 'Shell command'", cmd["description"])
	}

	// Check timeout property
	timeout, ok := props["timeout"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'timeout' property")
	}
	if timeout["type"] != "integer" {
		t.Errorf("timeout.type = %v, want 'integer'", timeout["type"])
	}

	// Check required array
	required, ok := parsed["required"].([]interface{})
	if !ok {
		t.Fatal("missing 'required' field")
	}
	if len(required) != 1 || required[0] != "command" {
		t.Errorf("required = %v, want [command]", required)
	}
}

func TestBuildSchemaEmpty(t *testing.T) {
	schema := BuildSchema()

	var parsed map[string]interface{}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		t.Fatalf("empty schema is not valid JSON: %v", err)
	}

	if parsed["type"] != "object" {
		t.Errorf("type = %v, want 'object'", parsed["type"])
	}
}

func TestValidate_RejectsUnknownField(t *testing.T) {
	schema := BuildSchema(SchemaParam{Name: "text", Type: "string", Required: true})
	err := Validate(schema, json.RawMessage(`{"text":"hi","bogus":1}`))
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestValidate_RejectsMissingRequired(t *testing.T) {
	schema := BuildSchema(SchemaParam{Name: "text", Type: "string", Required: true})
	if err := Validate(schema, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected missing required field to be rejected")
	}
}

func TestValidate_RejectsEmptyRequiredString(t *testing.T) {
	schema := BuildSchema(SchemaParam{Name: "text", Type: "string", Required: true})
	if err := Validate(schema, json.RawMessage(`{"text":""}`)); err == nil {
		t.Fatal("expected empty required string to be rejected")
	}
}

func TestValidate_RejectsEnumMismatch(t *testing.T) {
	schema := BuildSchema(SchemaParam{Name: "mode", Type: "string", Required: true, Enum: []string{"a", "b"}})
	if err := Validate(schema, json.RawMessage(`{"mode":"c"}`)); err == nil {
		t.Fatal("expected enum mismatch to be rejected")
	}
}

func TestValidate_AcceptsWellFormed(t *testing.T) {
	schema := BuildSchema(
		SchemaParam{Name: "text", Type: "string", Required: true},
		SchemaParam{Name: "count", Type: "integer"},
	)
	if err := Validate(schema, json.RawMessage(`{"text":"hi","count":3}`)); err != nil {
		t.Fatalf("expected well-formed args to validate, got %v", err)
	}
}

func TestValidate_NilSchemaAcceptsAnything(t *testing.T) {
	if err := Validate(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("nil schema should accept any object, got %v", err)
	}
}

func TestRegistryBasicOps(t *testing.T) {
	reg := NewRegistry()

	// List should be empty
	if len(reg.List()) != 0 {
		t.Error("new registry should be empty")
	}

	// Get non-existent
	_, ok := reg.Get("nope")
	if ok {
		t.Error("Get on empty registry should return false")
	}
}

func TestGenerateToolsPromptEmpty(t *testing.T) {
	reg := NewRegistry()
	prompt := reg.GenerateToolsPrompt()
	if prompt != "(no tools available)" {
		t.Errorf("empty registry prompt = %q, want '(no tools available)'", prompt)
	}
}
