// task_add/task_list persist tasks as an append-only JSONL log via
// storage.AppendJsonl/ReadJsonlValid; task_done rewrites the full file
// since flipping a Done flag has no append-only representation.
package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dispatchd/dispatchd/internal/storage"
	"github.com/dispatchd/dispatchd/internal/tool"
)

type taskRecord struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

func isValidTaskRecord(raw json.RawMessage) bool {
	var r taskRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return false
	}
	return r.ID > 0 && strings.TrimSpace(r.Text) != ""
}

func loadTasks(path string) ([]taskRecord, error) {
	raws, err := storage.ReadJsonlValid(path, isValidTaskRecord)
	if err != nil {
		return nil, err
	}
	tasks := make([]taskRecord, 0, len(raws))
	for _, raw := range raws {
		var r taskRecord
		json.Unmarshal(raw, &r)
		tasks = append(tasks, r)
	}
	return tasks, nil
}

// rewriteTasks replaces the entire jsonl file with tasks, used by task_done
// to flip a record's Done flag (append-only storage has no in-place update).
// Written via the same temp-file-then-rename idiom as storage.WriteJsonAtomic,
// since the jsonl format itself (one JSON value per line) is not what that
// helper produces.
func rewriteTasks(path string, tasks []taskRecord) error {
	var buf bytes.Buffer
	for _, t := range tasks {
		line, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// ── task_add ──

type TaskAddTool struct {
	path string
	mu   *sync.Mutex
}

func NewTaskAddTool(path string) *TaskAddTool {
	return &TaskAddTool{path: path, mu: storage.Lock(path)}
}

func (t *TaskAddTool) Name() string        { return "task_add" }
func (t *TaskAddTool) Description() string { return "Adds a new task to the task list." }

func (t *TaskAddTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "text", Type: "string", Description: "Task description", Required: true},
	)
}

func (t *TaskAddTool) Init(_ context.Context) error { return nil }
func (t *TaskAddTool) Close() error                 { return nil }

func (t *TaskAddTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
	}
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return tool.ToolResult{Error: "text must not be empty"}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tasks, err := loadTasks(t.path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	nextID := 1
	for _, tk := range tasks {
		if tk.ID >= nextID {
			nextID = tk.ID + 1
		}
	}
	rec := taskRecord{ID: nextID, Text: text}
	if err := storage.AppendJsonl(t.path, rec); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("added task #%d: %s", rec.ID, rec.Text)}, nil
}

// ── task_list ──

type TaskListTool struct {
	path string
	mu   *sync.Mutex
}

func NewTaskListTool(path string) *TaskListTool {
	return &TaskListTool{path: path, mu: storage.Lock(path)}
}

func (t *TaskListTool) Name() string             { return "task_list" }
func (t *TaskListTool) Description() string      { return "Lists all tasks and their completion status." }
func (t *TaskListTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *TaskListTool) Init(_ context.Context) error { return nil }
func (t *TaskListTool) Close() error                 { return nil }

func (t *TaskListTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tasks, err := loadTasks(t.path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if len(tasks) == 0 {
		return tool.ToolResult{Output: "(no tasks)"}, nil
	}
	var sb strings.Builder
	for _, tk := range tasks {
		mark := "[ ]"
		if tk.Done {
			mark = "[x]"
		}
		sb.WriteString(fmt.Sprintf("%s #%d %s\n", mark, tk.ID, tk.Text))
	}
	return tool.ToolResult{Output: strings.TrimRight(sb.String(), "\n")}, nil
}

// ── task_done ──

type TaskDoneTool struct {
	path string
	mu   *sync.Mutex
}

func NewTaskDoneTool(path string) *TaskDoneTool {
	return &TaskDoneTool{path: path, mu: storage.Lock(path)}
}

func (t *TaskDoneTool) Name() string        { return "task_done" }
func (t *TaskDoneTool) Description() string { return "Marks a task complete by its ID." }

func (t *TaskDoneTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "id", Type: "integer", Description: "Task ID", Required: true},
	)
}

func (t *TaskDoneTool) Init(_ context.Context) error { return nil }
func (t *TaskDoneTool) Close() error                 { return nil }

func (t *TaskDoneTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to parse arguments: %v", err)}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tasks, err := loadTasks(t.path)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	found := false
	for i := range tasks {
		if tasks[i].ID == a.ID {
			tasks[i].Done = true
			found = true
			break
		}
	}
	if !found {
		return tool.ToolResult{Error: "task #" + strconv.Itoa(a.ID) + " not found"}, nil
	}
	if err := rewriteTasks(t.path, tasks); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("task #%d marked done", a.ID)}, nil
}
