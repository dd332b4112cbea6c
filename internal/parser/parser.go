// Package parser implements the deterministic parser stages tried before
// the LLM fallback: a fixed regex fast-path table for terse forms,
// followed by heuristic/task/memory parsers for more natural phrasing.
// Each stage is a pure function from input text to an Outcome — Match,
// Reject, or Skip — so the router can try stages in order without any
// parser needing to know about the others.
package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Status is the tri-state result of a single parser stage.
type Status int

const (
	// Skip means the stage found nothing resembling its patterns; try
	// the next stage.
	Skip Status = iota
	// Match means the stage recognized a tool call.
	Match
	// Reject means the stage recognized the input's shape but the
	// content is invalid (e.g. the task id 0 in "complete task #0") —
	// surfaces immediately, does not fall through to later stages.
	Reject
)

// Outcome is what a parser stage returns.
type Outcome struct {
	Status Status
	Tool   string
	Args   json.RawMessage
	Reason string // set when Status == Reject
}

func skip() Outcome               { return Outcome{Status: Skip} }
func reject(reason string) Outcome { return Outcome{Status: Reject, Reason: reason} }

func match(toolName string, args any) Outcome {
	raw, err := json.Marshal(args)
	if err != nil {
		return reject("internal: failed to encode arguments: " + err.Error())
	}
	return Outcome{Status: Match, Tool: toolName, Args: raw}
}

// commonFileExtensions is used by the bare-domain rule: a "read <x>"
// target ending in one of these is a file path, not a URL, even though
// it contains a dot.
var commonFileExtensions = map[string]bool{
	"txt": true, "md": true, "js": true, "ts": true, "json": true,
	"py": true, "rb": true, "go": true, "rs": true, "c": true, "h": true,
	"cpp": true, "java": true, "xml": true, "yml": true, "yaml": true, "sh": true,
}

// looksLikeBareDomain reports whether target has a dot and does not end
// in a recognized source/text file extension — in which case "read <x>"
// is rewritten to a read_url call against https://<x>.
func looksLikeBareDomain(target string) bool {
	if !strings.Contains(target, ".") {
		return false
	}
	ext := target[strings.LastIndex(target, ".")+1:]
	ext = strings.ToLower(strings.TrimRight(ext, "/"))
	return !commonFileExtensions[ext]
}

// isUnsafePathArg reports whether a captured path argument must drop the
// whole candidate back to Skip rather than emit or reject it: absolute
// paths, "..", or (for the shell-verb form) any "/" are left for the LLM
// stage to handle or refuse.
func isUnsafePathArg(p string, rejectSlash bool) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	if strings.Contains(p, "..") {
		return true
	}
	if rejectSlash && strings.Contains(p, "/") {
		return true
	}
	return false
}

var (
	reRemember  = regexp.MustCompile(`(?is)^remember:\s*(.+)$`)
	reRecall    = regexp.MustCompile(`(?is)^recall:\s*(.*)$`)
	reWriteFile = regexp.MustCompile(`(?is)^write\s+(\S+)\s+(.+)$`)
	reReadThing = regexp.MustCompile(`(?is)^read\s+(\S+)$`)
	reListFiles = regexp.MustCompile(`(?is)^list(?:\s+files)?\s*$`)
	reTime      = regexp.MustCompile(`(?is)^time\s*$`)
	reCalculate = regexp.MustCompile(`(?is)^calculate:\s*(.+)$`)
	reGit       = regexp.MustCompile(`(?is)^git\s+(status|diff|log)\b\s*(.*)$`)
	reShellVerb = regexp.MustCompile(`(?is)^(ls|pwd|cat|du)\b\s*(\S*)$`)
	reWeather   = regexp.MustCompile(`(?is)^weather\s+(.+)$`)
	reDelegate  = regexp.MustCompile(`(?is)^delegate\s+(?:to\s+)?(\S+)\s+(.+)$`)
	reCodeGen   = regexp.MustCompile(`(?is)^write\s+a\s+(typescript|python|go|javascript|rust)\s+script\s+(?:to\s+|that\s+)?(.+)$`)
)

// RegexFastPath tries the fixed table of pre-compiled patterns for terse
// command forms. It never consults the LLM and never touches the
// filesystem.
func RegexFastPath(input string) Outcome {
	in := strings.TrimSpace(input)
	if in == "" {
		return skip()
	}

	if m := reRemember.FindStringSubmatch(in); m != nil {
		text := strings.TrimSpace(m[1])
		if text == "" {
			return skip()
		}
		key, value := splitRememberText(text)
		return match("remember", map[string]string{"key": key, "value": value})
	}

	if m := reRecall.FindStringSubmatch(in); m != nil {
		return match("recall", map[string]string{"key": strings.TrimSpace(m[1])})
	}

	if m := reCodeGen.FindStringSubmatch(in); m != nil {
		// Phrasing that asks for a generated script is routed to the coder
		// agent, not a tool. Checked before reWriteFile since "write a
		// <lang> script ..." would otherwise be misparsed as a file_write
		// call with path="a".
		return match("delegate_to_coder", map[string]string{
			"task": "write a " + m[1] + " script " + m[2],
		})
	}

	if m := reWriteFile.FindStringSubmatch(in); m != nil {
		path, content := m[1], m[2]
		if isUnsafePathArg(path, false) {
			return skip()
		}
		return match("file_write", map[string]string{"path": path, "content": content})
	}

	if m := reReadThing.FindStringSubmatch(in); m != nil {
		target := m[1]
		if looksLikeHTTPURL(target) {
			return match("read_url", map[string]string{"url": target})
		}
		if looksLikeBareDomain(target) {
			return match("read_url", map[string]string{"url": "https://" + target})
		}
		if isUnsafePathArg(target, false) {
			return skip()
		}
		return match("file_read", map[string]string{"path": target})
	}

	if reListFiles.MatchString(in) {
		return match("file_list", map[string]string{"path": "."})
	}

	if reTime.MatchString(in) {
		return match("get_time", map[string]string{})
	}

	if m := reCalculate.FindStringSubmatch(in); m != nil {
		expr := strings.TrimSpace(m[1])
		if expr == "" {
			return skip()
		}
		return match("calculate", map[string]string{"expression": expr})
	}

	if m := reGit.FindStringSubmatch(in); m != nil {
		return match("git_"+m[1], map[string]string{})
	}

	if m := reShellVerb.FindStringSubmatch(in); m != nil {
		verb, arg := m[1], m[2]
		if arg != "" && isUnsafePathArg(arg, true) {
			return skip()
		}
		return match("shell_exec", map[string]string{"command": verb, "arg": arg})
	}

	if m := reWeather.FindStringSubmatch(in); m != nil {
		return match("get_weather", map[string]string{"location": strings.TrimSpace(m[1])})
	}

	if m := reDelegate.FindStringSubmatch(in); m != nil {
		target := strings.ToLower(m[1])
		return match("delegate_to_"+target, map[string]string{"task": strings.TrimSpace(m[2])})
	}

	return skip()
}

func looksLikeHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// splitRememberText splits "key: value" or "key = value" into (key,
// value); when no separator is present the whole text becomes the value
// under a generic "note" key.
func splitRememberText(text string) (string, string) {
	for _, sep := range []string{":", "="} {
		if idx := strings.Index(text, sep); idx > 0 {
			return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:])
		}
	}
	return "note", text
}

var (
	reTaskAdd  = regexp.MustCompile(`(?is)^add\s+task\s+(.+?)(?:\s+due\s+(.+))?$`)
	reTaskDone = regexp.MustCompile(`(?is)^(?:complete|finish|done with)\s+task\s+#?(\d+)$`)
	reTaskList = regexp.MustCompile(`(?is)^(?:list|show)\s+tasks$`)
)

// HeuristicTask recognizes natural-language task-management phrasing.
// Unlike RegexFastPath, a match whose content fails a basic sanity check
// (e.g. an empty task description) is a Reject, not a Skip — the input
// clearly meant to be a task command.
func HeuristicTask(input string) Outcome {
	in := strings.TrimSpace(input)
	if in == "" {
		return skip()
	}

	if reTaskList.MatchString(in) {
		return match("task_list", map[string]string{})
	}

	if m := reTaskDone.FindStringSubmatch(in); m != nil {
		id, err := strconv.Atoi(m[1])
		if err != nil || id <= 0 {
			return reject("task id must be a positive integer")
		}
		return match("task_done", map[string]int{"id": id})
	}

	if m := reTaskAdd.FindStringSubmatch(in); m != nil {
		text := strings.TrimSpace(m[1])
		if text == "" {
			return reject("task text must not be empty")
		}
		return match("task_add", map[string]string{"text": text})
	}

	return skip()
}

var (
	reReminderAdd = regexp.MustCompile(`(?is)^remind\s+me\s+(?:in\s+(.+?)\s+)?to\s+(.+)$`)
	reReminderList = regexp.MustCompile(`(?is)^(?:list|show)\s+reminders$`)
)

// HeuristicReminder recognizes "remind me [in X] to Y" and "list
// reminders" phrasing.
func HeuristicReminder(input string) Outcome {
	in := strings.TrimSpace(input)
	if in == "" {
		return skip()
	}

	if reReminderList.MatchString(in) {
		return match("reminder_list", map[string]string{})
	}

	if m := reReminderAdd.FindStringSubmatch(in); m != nil {
		when := strings.TrimSpace(m[1])
		text := strings.TrimSpace(m[2])
		if text == "" {
			return reject("reminder text must not be empty")
		}
		if when == "" {
			when = "unspecified"
		}
		return match("reminder_add", map[string]string{"when": when, "text": text})
	}

	return skip()
}

var reMemoryNatural = regexp.MustCompile(`(?is)^remember\s+that\s+(.+)$`)

// HeuristicMemory recognizes "remember that X" phrasing (distinct from
// RegexFastPath's terse "remember: X" form).
func HeuristicMemory(input string) Outcome {
	in := strings.TrimSpace(input)
	if in == "" {
		return skip()
	}
	if m := reMemoryNatural.FindStringSubmatch(in); m != nil {
		text := strings.TrimSpace(m[1])
		if text == "" {
			return reject("nothing to remember")
		}
		key, value := splitRememberText(text)
		return match("remember", map[string]string{"key": key, "value": value})
	}
	return skip()
}

// Stage pairs a parser function with the RoutingStage label that should
// be recorded in DebugInfo.Path when it produces a Match.
type Stage struct {
	Name string
	Run  func(string) Outcome
}

// Stages is the fixed, ordered list of deterministic parser stages the
// router tries before falling back to the LLM. There is no separate
// "cli_parse" grammar distinct from these heuristic parsers.
var Stages = []Stage{
	{Name: "regex_fast_path", Run: RegexFastPath},
	{Name: "heuristic_parse", Run: HeuristicTask},
	{Name: "heuristic_parse", Run: HeuristicReminder},
	{Name: "heuristic_parse", Run: HeuristicMemory},
}
