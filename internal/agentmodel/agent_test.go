package agentmodel

import "testing"

func TestToolAllowed_NilAgentSafeToolOnly(t *testing.T) {
	if !ToolAllowed(nil, "calculate") {
		t.Error("calculate is a safe tool and should be allowed with no agent")
	}
	if ToolAllowed(nil, "file_write") {
		t.Error("file_write is not safe and should be denied with no agent")
	}
}

func TestToolAllowed_SystemAgentBypassesAllowlist(t *testing.T) {
	sys := NewSystemAgent("sys", "", "", nil)
	if !ToolAllowed(sys, "file_write") {
		t.Error("system agent should be allowed any tool")
	}
}

func TestToolAllowed_UserAgentRestrictedToAllowlist(t *testing.T) {
	usr := NewUserAgent("helper", "", "", []string{"file_read"})
	if !ToolAllowed(usr, "file_read") {
		t.Error("file_read is in the allowlist and should be allowed")
	}
	if ToolAllowed(usr, "file_write") {
		t.Error("file_write is not in the allowlist and should be denied")
	}
}

func TestAgent_Accessors(t *testing.T) {
	a := NewUserAgent("helper", "a helper agent", "you are helpful", []string{"a", "b"})
	if a.Name() != "helper" || a.Description() != "a helper agent" || a.SystemPromptText() != "you are helpful" {
		t.Errorf("accessor mismatch: %+v", a)
	}
	if a.Kind() != KindUser {
		t.Errorf("Kind() = %v, want KindUser", a.Kind())
	}
	if !a.HasTool("a") || a.HasTool("c") {
		t.Errorf("HasTool mismatch")
	}
	tools := a.Tools()
	if len(tools) != 2 {
		t.Errorf("Tools() = %v, want 2 entries", tools)
	}
}

func TestIsSafeTool(t *testing.T) {
	if !IsSafeTool("get_time") {
		t.Error("get_time should be safe")
	}
	if IsSafeTool("shell_exec") {
		t.Error("shell_exec should not be safe")
	}
}
