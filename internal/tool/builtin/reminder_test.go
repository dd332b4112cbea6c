package builtin

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestReminderAddList_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reminders.jsonl")

	add := NewReminderAddTool(path)
	args, _ := json.Marshal(map[string]string{"when": "tomorrow 9am", "text": "standup"})
	result, err := add.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "#1") {
		t.Errorf("Output = %q, want to mention #1", result.Output)
	}

	args, _ = json.Marshal(map[string]string{"when": "friday", "text": "demo"})
	if _, err := add.Execute(context.Background(), args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list := NewReminderListTool(path)
	result, err = list.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "#1 [tomorrow 9am] standup") || !strings.Contains(result.Output, "#2 [friday] demo") {
		t.Errorf("Output = %q, missing expected reminder lines", result.Output)
	}
}

func TestReminderList_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reminders.jsonl")

	list := NewReminderListTool(path)
	result, err := list.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "(no reminders)" {
		t.Errorf("Output = %q, want %q", result.Output, "(no reminders)")
	}
}

func TestReminderAdd_EmptyTextRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reminders.jsonl")

	add := NewReminderAddTool(path)
	args, _ := json.Marshal(map[string]string{"when": "today", "text": "  "})
	result, err := add.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected error for empty reminder text")
	}
}

func TestReminderAdd_BadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reminders.jsonl")

	add := NewReminderAddTool(path)
	result, err := add.Execute(context.Background(), []byte(`not json`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" || !strings.Contains(result.Error, "failed to parse") {
		t.Errorf("expected parse error, got: %+v", result)
	}
}
