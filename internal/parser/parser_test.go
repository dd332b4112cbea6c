package parser

import (
	"encoding/json"
	"testing"
)

func decodeArgs(t *testing.T, o Outcome) map[string]any {
	t.Helper()
	var m map[string]any
	if len(o.Args) == 0 {
		return m
	}
	if err := json.Unmarshal(o.Args, &m); err != nil {
		t.Fatalf("decode args: %v", err)
	}
	return m
}

func TestRegexFastPath_Remember_NoSeparatorUsesNoteKey(t *testing.T) {
	o := RegexFastPath("remember: favorite color is blue")
	if o.Status != Match || o.Tool != "remember" {
		t.Fatalf("got %+v", o)
	}
	args := decodeArgs(t, o)
	if args["key"] != "note" || args["value"] != "favorite color is blue" {
		t.Errorf("args = %+v", args)
	}
}

func TestRegexFastPath_Remember_WithSeparatorSplitsKeyValue(t *testing.T) {
	o := RegexFastPath("remember: color = blue")
	if o.Status != Match || o.Tool != "remember" {
		t.Fatalf("got %+v", o)
	}
	args := decodeArgs(t, o)
	if args["key"] != "color" || args["value"] != "blue" {
		t.Errorf("args = %+v", args)
	}
}

func TestRegexFastPath_Recall(t *testing.T) {
	o := RegexFastPath("recall: favorite color")
	if o.Status != Match || o.Tool != "recall" {
		t.Fatalf("got %+v", o)
	}
}

func TestRegexFastPath_RecallEmptyKey(t *testing.T) {
	o := RegexFastPath("recall:")
	if o.Status != Match || o.Tool != "recall" {
		t.Fatalf("got %+v", o)
	}
	if decodeArgs(t, o)["key"] != "" {
		t.Errorf("expected empty key for bare recall")
	}
}

func TestRegexFastPath_WriteFile(t *testing.T) {
	o := RegexFastPath("write notes.txt hello world")
	if o.Status != Match || o.Tool != "file_write" {
		t.Fatalf("got %+v", o)
	}
	args := decodeArgs(t, o)
	if args["path"] != "notes.txt" || args["content"] != "hello world" {
		t.Errorf("args = %+v", args)
	}
}

func TestRegexFastPath_WriteFile_AbsolutePathDropsToSkip(t *testing.T) {
	o := RegexFastPath("write /etc/passwd pwned")
	if o.Status != Skip {
		t.Fatalf("expected Skip for absolute path, got %+v", o)
	}
}

func TestRegexFastPath_WriteFile_TraversalDropsToSkip(t *testing.T) {
	o := RegexFastPath("write ../../etc/passwd pwned")
	if o.Status != Skip {
		t.Fatalf("expected Skip for traversal path, got %+v", o)
	}
}

func TestRegexFastPath_ReadFile(t *testing.T) {
	o := RegexFastPath("read notes.txt")
	if o.Status != Match || o.Tool != "file_read" {
		t.Fatalf("got %+v", o)
	}
}

func TestRegexFastPath_ReadFile_AbsoluteDropsToSkip(t *testing.T) {
	o := RegexFastPath("read /etc/passwd")
	if o.Status != Skip {
		t.Fatalf("expected Skip, got %+v", o)
	}
}

func TestRegexFastPath_ReadURL_Explicit(t *testing.T) {
	o := RegexFastPath("read https://example.com/page")
	if o.Status != Match || o.Tool != "read_url" {
		t.Fatalf("got %+v", o)
	}
	if decodeArgs(t, o)["url"] != "https://example.com/page" {
		t.Errorf("args = %+v", decodeArgs(t, o))
	}
}

func TestRegexFastPath_ReadURL_BareDomain(t *testing.T) {
	o := RegexFastPath("read example.com")
	if o.Status != Match || o.Tool != "read_url" {
		t.Fatalf("got %+v", o)
	}
	if decodeArgs(t, o)["url"] != "https://example.com" {
		t.Errorf("args = %+v", decodeArgs(t, o))
	}
}

func TestRegexFastPath_ReadFile_NotBareDomain(t *testing.T) {
	o := RegexFastPath("read report.md")
	if o.Status != Match || o.Tool != "file_read" {
		t.Fatalf("report.md should be treated as a file path, got %+v", o)
	}
}

func TestRegexFastPath_ListFiles(t *testing.T) {
	for _, in := range []string{"list", "list files"} {
		o := RegexFastPath(in)
		if o.Status != Match || o.Tool != "file_list" {
			t.Errorf("%q: got %+v", in, o)
		}
	}
}

func TestRegexFastPath_Time(t *testing.T) {
	o := RegexFastPath("time")
	if o.Status != Match || o.Tool != "get_time" {
		t.Fatalf("got %+v", o)
	}
}

func TestRegexFastPath_Calculate(t *testing.T) {
	o := RegexFastPath("calculate: 2 + 2")
	if o.Status != Match || o.Tool != "calculate" {
		t.Fatalf("got %+v", o)
	}
	if decodeArgs(t, o)["expression"] != "2 + 2" {
		t.Errorf("args = %+v", decodeArgs(t, o))
	}
}

func TestRegexFastPath_Git(t *testing.T) {
	for _, in := range []string{"git status", "git diff", "git log"} {
		o := RegexFastPath(in)
		if o.Status != Match {
			t.Errorf("%q: got %+v", in, o)
		}
	}
}

func TestRegexFastPath_ShellVerb(t *testing.T) {
	o := RegexFastPath("ls src")
	if o.Status != Match || o.Tool != "shell_exec" {
		t.Fatalf("got %+v", o)
	}
	args := decodeArgs(t, o)
	if args["command"] != "ls" || args["arg"] != "src" {
		t.Errorf("args = %+v", args)
	}
}

func TestRegexFastPath_ShellVerb_SlashArgDropsToSkip(t *testing.T) {
	o := RegexFastPath("cat a/b")
	if o.Status != Skip {
		t.Fatalf("expected Skip for slash-containing shell arg, got %+v", o)
	}
}

func TestRegexFastPath_Weather(t *testing.T) {
	o := RegexFastPath("weather Paris")
	if o.Status != Match || o.Tool != "get_weather" {
		t.Fatalf("got %+v", o)
	}
}

func TestRegexFastPath_Delegate(t *testing.T) {
	o := RegexFastPath("delegate to coder fix the bug")
	if o.Status != Match || o.Tool != "delegate_to_coder" {
		t.Fatalf("got %+v", o)
	}
	if decodeArgs(t, o)["task"] != "fix the bug" {
		t.Errorf("args = %+v", decodeArgs(t, o))
	}
}

func TestRegexFastPath_ImplicitCodeDelegation(t *testing.T) {
	o := RegexFastPath("write a typescript script that reverses a string")
	if o.Status != Match || o.Tool != "delegate_to_coder" {
		t.Fatalf("got %+v", o)
	}
}

func TestRegexFastPath_NoMatchSkips(t *testing.T) {
	o := RegexFastPath("what's the meaning of life?")
	if o.Status != Skip {
		t.Fatalf("expected Skip, got %+v", o)
	}
}

func TestHeuristicTask_AddAndList(t *testing.T) {
	o := HeuristicTask("add task buy milk")
	if o.Status != Match || o.Tool != "task_add" {
		t.Fatalf("got %+v", o)
	}
	o = HeuristicTask("list tasks")
	if o.Status != Match || o.Tool != "task_list" {
		t.Fatalf("got %+v", o)
	}
}

func TestHeuristicTask_DoneNonNumericIDSkips(t *testing.T) {
	o := HeuristicTask("complete task #abc")
	if o.Status != Skip {
		t.Fatalf("non-numeric id shouldn't match the pattern at all, got %+v", o)
	}
}

func TestHeuristicTask_DoneValidID(t *testing.T) {
	o := HeuristicTask("complete task #3")
	if o.Status != Match || o.Tool != "task_done" {
		t.Fatalf("got %+v", o)
	}
}

func TestHeuristicReminder_AddWithAndWithoutTime(t *testing.T) {
	o := HeuristicReminder("remind me in 10 minutes to check the oven")
	if o.Status != Match || o.Tool != "reminder_add" {
		t.Fatalf("got %+v", o)
	}
	args := decodeArgs(t, o)
	if args["when"] != "10 minutes" || args["text"] != "check the oven" {
		t.Errorf("args = %+v", args)
	}

	o = HeuristicReminder("remind me to call mom")
	if o.Status != Match || o.Tool != "reminder_add" {
		t.Fatalf("got %+v", o)
	}
	if decodeArgs(t, o)["when"] != "unspecified" {
		t.Errorf("args = %+v", decodeArgs(t, o))
	}
}

func TestHeuristicMemory_RememberThat(t *testing.T) {
	o := HeuristicMemory("remember that the deploy key rotates monthly")
	if o.Status != Match || o.Tool != "remember" {
		t.Fatalf("got %+v", o)
	}
}

func TestHeuristicMemory_Skip(t *testing.T) {
	o := HeuristicMemory("what's up")
	if o.Status != Skip {
		t.Fatalf("got %+v", o)
	}
}

func TestStages_OrderedAndCallable(t *testing.T) {
	if len(Stages) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(Stages))
	}
	if Stages[0].Name != "regex_fast_path" {
		t.Errorf("Stages[0].Name = %q, want regex_fast_path", Stages[0].Name)
	}
	for i, stage := range Stages {
		if stage.Run == nil {
			t.Errorf("stage %d has nil Run", i)
		}
	}
}
