// reminder_add/reminder_list persist reminders as an append-only JSONL log
// via storage.AppendJsonl/ReadJsonlValid, same as task.go.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dispatchd/dispatchd/internal/storage"
	"github.com/dispatchd/dispatchd/internal/tool"
)

type reminderRecord struct {
	ID   int    `json:"id"`
	When string `json:"when"`
	Text string `json:"text"`
}

func isValidReminderRecord(raw json.RawMessage) bool {
	var r reminderRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return false
	}
	return r.ID > 0 && strings.TrimSpace(r.Text) != ""
}

// ── reminder_add ──

type ReminderAddTool struct {
	path string
	mu   *sync.Mutex
}

func NewReminderAddTool(path string) *ReminderAddTool {
	return &ReminderAddTool{path: path, mu: storage.Lock(path)}
}

func (t *ReminderAddTool) Name() string        { return "reminder_add" }
func (t *ReminderAddTool) Description() string { return "Adds a reminder for a given time." }

func (t *ReminderAddTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "when", Type: "string", Description: "When the reminder is for (free text)", Required: true},
		tool.SchemaParam{Name: "text", Type: "string", Description: "Reminder text", Required: true},
	)
}

func (t *ReminderAddTool) Init(_ context.Context) error { return nil }
func (t *ReminderAddTool) Close() error                 { return nil }

func (t *ReminderAddTool) Execute(_ context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a struct {
		When string `json:"when"`
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

	raws, err := storage.ReadJsonlValid(t.path, isValidReminderRecord)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	nextID := 1
	for _, raw := range raws {
		var r reminderRecord
		json.Unmarshal(raw, &r)
		if r.ID >= nextID {
			nextID = r.ID + 1
		}
	}

	rec := reminderRecord{ID: nextID, When: strings.TrimSpace(a.When), Text: text}
	if err := storage.AppendJsonl(t.path, rec); err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	return tool.ToolResult{Output: fmt.Sprintf("reminder #%d added for %s: %s", rec.ID, rec.When, rec.Text)}, nil
}

// ── reminder_list ──

type ReminderListTool struct {
	path string
	mu   *sync.Mutex
}

func NewReminderListTool(path string) *ReminderListTool {
	return &ReminderListTool{path: path, mu: storage.Lock(path)}
}

func (t *ReminderListTool) Name() string             { return "reminder_list" }
func (t *ReminderListTool) Description() string      { return "Lists all pending reminders." }
func (t *ReminderListTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (t *ReminderListTool) Init(_ context.Context) error { return nil }
func (t *ReminderListTool) Close() error                 { return nil }

func (t *ReminderListTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	raws, err := storage.ReadJsonlValid(t.path, isValidReminderRecord)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}
	if len(raws) == 0 {
		return tool.ToolResult{Output: "(no reminders)"}, nil
	}

	var sb strings.Builder
	for _, raw := range raws {
		var r reminderRecord
		json.Unmarshal(raw, &r)
		sb.WriteString(fmt.Sprintf("#%d [%s] %s\n", r.ID, r.When, r.Text))
	}
	return tool.ToolResult{Output: strings.TrimRight(sb.String(), "\n")}, nil
}
