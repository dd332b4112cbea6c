package builtin

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestDelegateTool_NameEncodesTarget(t *testing.T) {
	d := NewDelegateTool("coder")
	if d.Name() != "delegate_to_coder" {
		t.Errorf("Name() = %q, want %q", d.Name(), "delegate_to_coder")
	}
	if d.TargetAgent() != "coder" {
		t.Errorf("TargetAgent() = %q, want %q", d.TargetAgent(), "coder")
	}
}

func TestDelegateTool_Execute(t *testing.T) {
	d := NewDelegateTool("coder")
	args, _ := json.Marshal(map[string]string{"task": "implement pagination"})
	result, err := d.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}
	if !strings.Contains(result.Output, "coder") || !strings.Contains(result.Output, "implement pagination") {
		t.Errorf("Output = %q, missing target agent or task text", result.Output)
	}
}

func TestDelegateTool_EmptyTaskRejected(t *testing.T) {
	d := NewDelegateTool("coder")
	args, _ := json.Marshal(map[string]string{"task": "  "})
	result, err := d.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected error for empty task")
	}
}

func TestDelegateTool_BadJSON(t *testing.T) {
	d := NewDelegateTool("coder")
	result, err := d.Execute(context.Background(), []byte(`not json`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" || !strings.Contains(result.Error, "failed to parse") {
		t.Errorf("expected parse error, got: %+v", result)
	}
}
