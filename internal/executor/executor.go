// Package executor implements the sole authority for whether a tool call
// may run. It is given a tool name and arguments plus an ExecutionContext
// (active agent, permissions, correlation id, confirmation token; the
// registry and audit log live on the Executor itself) and walks a fixed
// seven-step decision pipeline, each step short-circuiting with a
// structured error. It never throws: every call returns a well-formed
// tool.ToolResult, and a handler panic is recovered and converted into
// EXEC_ERROR.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dispatchd/dispatchd/internal/agentmodel"
	"github.com/dispatchd/dispatchd/internal/audit"
	"github.com/dispatchd/dispatchd/internal/config"
	"github.com/dispatchd/dispatchd/internal/dispatcherr"
	"github.com/dispatchd/dispatchd/internal/errkind"
	"github.com/dispatchd/dispatchd/internal/storage"
	"github.com/dispatchd/dispatchd/internal/tool"
)

// ExecutionContext carries everything a single Execute call needs beyond
// the tool name and arguments: the active agent (nil means "no agent"),
// the process-wide permission set, a correlation id to thread through
// logging and the audit trail, and an optional confirmation token proving
// an interactive layer already confirmed a gated tool call.
type ExecutionContext struct {
	Agent         *agentmodel.Agent
	Permissions   *config.PermissionSet
	CorrelationID string
	ConfirmedTool string // set by the interactive layer to satisfy step 5 for exactly one tool name
}

// Executor resolves tools from a registry and runs them under the spec
// fixed decision pipeline. One Executor is constructed per process in the
// composition root and shared by every call.
type Executor struct {
	registry *tool.Registry
	auditLog *audit.Logger
}

// New constructs an Executor. auditLog may be nil in tests that don't care
// about the audit trail, in which case step 7 is a no-op.
func New(registry *tool.Registry, auditLog *audit.Logger) *Executor {
	return &Executor{registry: registry, auditLog: auditLog}
}

// Execute runs toolName with args under ec, returning a well-formed
// ToolResult for every outcome including denial, validation failure, and
// handler panic. There is no error return: every failure is reported via
// ToolResult.Error. A nil ExecutionContext.Permissions skips the deny-list
// and confirmation steps.
func (e *Executor) Execute(ctx context.Context, toolName string, args json.RawMessage, ec ExecutionContext) tool.ToolResult {
	start := time.Now()

	t, ok := e.registry.Get(toolName)
	if !ok {
		return e.deny(ec, toolName, args, start, errkind.ToolNotFound,
			fmt.Sprintf("tool %q is not registered", toolName))
	}

	if denyKind, denyMsg, denied := e.checkAuthorization(t, ec); denied {
		return e.deny(ec, toolName, args, start, denyKind, denyMsg)
	}

	if ec.Permissions != nil {
		for _, d := range ec.Permissions.DenyTools {
			if d == toolName {
				return e.deny(ec, toolName, args, start, errkind.DeniedByPolicy,
					fmt.Sprintf("tool %q is denied by policy", toolName))
			}
		}
	}

	if err := tool.Validate(t.InputSchema(), args); err != nil {
		return e.deny(ec, toolName, args, start, errkind.ValidationError, err.Error())
	}

	if ec.Permissions != nil {
		for _, name := range ec.Permissions.RequireConfirmationFor {
			if name == toolName && ec.ConfirmedTool != toolName {
				return e.deny(ec, toolName, args, start, errkind.ConfirmationRequired,
					fmt.Sprintf("tool %q requires confirmation before it can run", toolName))
			}
		}
	}

	result, kind := e.invoke(ctx, t, args)

	elapsed := time.Since(start).Milliseconds()
	e.record(ec, toolName, args, result.Error == "", elapsed, result.Error)
	if kind != "" {
		log.Printf("[Executor] tool %q completed with error kind=%s", toolName, kind)
	}
	return result
}

// checkAuthorization: system agents pass unconditionally, an agent
// present must allowlist the tool, and absent any agent the tool must be
// in the fixed SafeTools list.
func (e *Executor) checkAuthorization(t tool.Tool, ec ExecutionContext) (errkind.Kind, string, bool) {
	if agentmodel.ToolAllowed(ec.Agent, t.Name()) {
		return "", "", false
	}
	if ec.Agent == nil {
		return errkind.DeniedNoAgent, fmt.Sprintf("tool %q requires an agent and none is active", t.Name()), true
	}
	return errkind.DeniedAgentTool, fmt.Sprintf("agent %q is not permitted to use tool %q", ec.Agent.Name(), t.Name()), true
}

// invoke calls the handler while holding storage.Lock(t.Name()), a mutex
// keyed by the tool's name, so executions of the same tool are serialized
// (executions of different tools touching the same storage file are
// serialized by the storage.Lock(path) that those tools take themselves),
// and recovers a handler panic into EXEC_ERROR rather than letting it escape.
func (e *Executor) invoke(ctx context.Context, t tool.Tool, args json.RawMessage) (result tool.ToolResult, kind errkind.Kind) {
	lock := storage.Lock(t.Name())
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			kind = errkind.ExecError
			result = tool.ToolResult{Error: fmt.Sprintf("tool %q panicked: %v", t.Name(), r)}
		}
	}()

	res, err := t.Execute(ctx, args)
	if err != nil {
		if de, ok := dispatcherr.As(err); ok {
			return tool.ToolResult{Error: de.Message}, de.Kind
		}
		return tool.ToolResult{Error: err.Error()}, errkind.ExecError
	}
	return res, ""
}

// deny builds the ToolResult for a short-circuited step, records it to the
// audit trail, and returns it.
func (e *Executor) deny(ec ExecutionContext, toolName string, args json.RawMessage, start time.Time, kind errkind.Kind, msg string) tool.ToolResult {
	result := tool.ToolResult{Error: msg}
	elapsed := time.Since(start).Milliseconds()
	e.record(ec, toolName, args, false, elapsed, msg)
	log.Printf("[Executor] denied tool %q: kind=%s msg=%s", toolName, kind, msg)
	return result
}

// record appends an audit entry for every completed (successful or
// denied) execution, exactly one per call.
func (e *Executor) record(ec ExecutionContext, toolName string, args json.RawMessage, ok bool, durationMs int64, errMsg string) {
	if e.auditLog == nil {
		return
	}
	if err := e.auditLog.Append(toolName, args, ok, durationMs, ec.CorrelationID, errMsg); err != nil {
		log.Printf("[Executor] WARNING: failed to append audit entry for %q: %v", toolName, err)
	}
}
