package builtin

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestTaskAddListDone_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")

	add := NewTaskAddTool(path)
	args, _ := json.Marshal(map[string]string{"text": "write tests"})
	result, err := add.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "#1") {
		t.Errorf("Output = %q, want to mention #1", result.Output)
	}

	args, _ = json.Marshal(map[string]string{"text": "ship it"})
	if _, err := add.Execute(context.Background(), args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list := NewTaskListTool(path)
	result, err = list.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "[ ] #1 write tests") || !strings.Contains(result.Output, "[ ] #2 ship it") {
		t.Errorf("Output = %q, missing expected task lines", result.Output)
	}

	done := NewTaskDoneTool(path)
	args, _ = json.Marshal(map[string]int{"id": 1})
	result, err = done.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}

	result, err = list.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "[x] #1 write tests") {
		t.Errorf("Output = %q, task #1 should be marked done", result.Output)
	}
	if !strings.Contains(result.Output, "[ ] #2 ship it") {
		t.Errorf("Output = %q, task #2 should remain pending", result.Output)
	}
}

func TestTaskDone_UnknownID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")

	done := NewTaskDoneTool(path)
	args, _ := json.Marshal(map[string]int{"id": 99})
	result, err := done.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" || !strings.Contains(result.Error, "not found") {
		t.Errorf("expected not-found error, got: %+v", result)
	}
}

func TestTaskList_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")

	list := NewTaskListTool(path)
	result, err := list.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "(no tasks)" {
		t.Errorf("Output = %q, want %q", result.Output, "(no tasks)")
	}
}

func TestTaskAdd_EmptyTextRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")

	add := NewTaskAddTool(path)
	args, _ := json.Marshal(map[string]string{"text": "   "})
	result, err := add.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected error for empty task text")
	}
}

func TestTaskAdd_BadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")

	add := NewTaskAddTool(path)
	result, err := add.Execute(context.Background(), []byte(`not json`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" || !strings.Contains(result.Error, "failed to parse") {
		t.Errorf("expected parse error, got: %+v", result)
	}
}

func TestTaskAdd_IDsIncrementAfterDone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.jsonl")

	add := NewTaskAddTool(path)
	args, _ := json.Marshal(map[string]string{"text": "one"})
	if _, err := add.Execute(context.Background(), args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := NewTaskDoneTool(path)
	args, _ = json.Marshal(map[string]int{"id": 1})
	if _, err := done.Execute(context.Background(), args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	args, _ = json.Marshal(map[string]string{"text": "two"})
	result, err := add.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "#2") {
		t.Errorf("Output = %q, want next task to be #2 even after rewrite", result.Output)
	}
}
