package plugin

import (
	"context"
	"encoding/json"
	"testing"
)

func TestToolAdapter_NameIsNamespaced(t *testing.T) {
	a := NewToolAdapter("csv-tool", ToolInfo{Name: "read_csv"}, nil, ServerConfig{})
	if a.Name() != "plugin_csv-tool__read_csv" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestToolAdapter_DefaultLifecycleIsPersistent(t *testing.T) {
	a := NewToolAdapter("srv", ToolInfo{Name: "t"}, nil, ServerConfig{})
	if a.lifecycle != "persistent" {
		t.Errorf("lifecycle = %q, want persistent", a.lifecycle)
	}
}

func TestToolAdapter_InputSchemaFallsBackToEmpty(t *testing.T) {
	a := NewToolAdapter("srv", ToolInfo{Name: "t"}, nil, ServerConfig{})
	schema := a.InputSchema()
	var decoded map[string]any
	if err := json.Unmarshal(schema, &decoded); err != nil {
		t.Fatalf("expected valid JSON schema, got error: %v", err)
	}
}

func TestToolAdapter_ExecuteMalformedArgsReturnsResultError(t *testing.T) {
	a := NewToolAdapter("srv", ToolInfo{Name: "t"}, nil, ServerConfig{})
	res, err := a.Execute(context.Background(), json.RawMessage(`{not json`))
	if err != nil {
		t.Fatalf("expected a ToolResult error, not a Go error: %v", err)
	}
	if res.Error == "" {
		t.Error("expected res.Error to be set for malformed args")
	}
}
