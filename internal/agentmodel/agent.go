// Package agentmodel defines the Agent data type: a named, immutable
// bundle of system-prompt text, tool allowlist, and trust kind. Agents
// carry no behavior — Router and Executor consult the allowlist, they do
// not ask the Agent to do anything.
package agentmodel

// Kind distinguishes agents the runtime composition root trusts
// unconditionally (system) from agents declared via user-editable config
// (user).
type Kind string

const (
	KindSystem Kind = "system"
	KindUser   Kind = "user"
)

// Agent is immutable after construction. kind=system must only ever be
// produced by NewSystemAgent in the composition root — never from
// user input or config — which is why the fields are unexported and
// there is no JSON unmarshal path directly into this type (agentdef
// builds Agents via NewUserAgent after parsing its own YAML shape).
type Agent struct {
	name             string
	description      string
	systemPromptText string
	tools            map[string]struct{}
	kind             Kind
}

// NewSystemAgent constructs a kind=system Agent. Callers outside the
// composition root must not call this — there is no technical barrier
// against it (Go has no package-private-to-caller enforcement beyond the
// package boundary), but the invariant is that only cmd/dispatchd's main
// does so.
func NewSystemAgent(name, description, systemPromptText string, tools []string) *Agent {
	return newAgent(name, description, systemPromptText, tools, KindSystem)
}

// NewUserAgent constructs a kind=user Agent from a declarative definition
// (see internal/agentdef).
func NewUserAgent(name, description, systemPromptText string, tools []string) *Agent {
	return newAgent(name, description, systemPromptText, tools, KindUser)
}

func newAgent(name, description, systemPromptText string, tools []string, kind Kind) *Agent {
	set := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		set[t] = struct{}{}
	}
	return &Agent{
		name:             name,
		description:      description,
		systemPromptText: systemPromptText,
		tools:            set,
		kind:             kind,
	}
}

func (a *Agent) Name() string             { return a.name }
func (a *Agent) Description() string      { return a.description }
func (a *Agent) SystemPromptText() string { return a.systemPromptText }
func (a *Agent) Kind() Kind               { return a.kind }

// HasTool reports whether toolName is in this agent's allowlist.
func (a *Agent) HasTool(toolName string) bool {
	_, ok := a.tools[toolName]
	return ok
}

// Tools returns the agent's tool allowlist as a sorted-free slice (callers
// needing determinism should sort).
func (a *Agent) Tools() []string {
	out := make([]string, 0, len(a.tools))
	for t := range a.tools {
		out = append(out, t)
	}
	return out
}

// SafeTools is the compile-time constant list of side-effect-free tools
// permitted when no agent context is present at all. Kept in this
// package — not agentdef — because it is part of the data model's closed
// contract, not user-editable config.
var SafeTools = []string{
	"get_time",
	"calculate",
	"recall",
	"task_list",
	"git_status",
	"git_diff",
	"git_log",
}

// IsSafeTool reports whether name is in SafeTools.
func IsSafeTool(name string) bool {
	for _, t := range SafeTools {
		if t == name {
			return true
		}
	}
	return false
}

// ToolAllowed implements the single agent-authorization rule shared by the
// Router and the Executor, so the Router never proposes a tool the
// Executor would refuse on agent grounds: a nil agent may only use
// SafeTools; a kind=system agent may use anything; a kind=user agent is
// limited to its own allowlist.
func ToolAllowed(agent *Agent, toolName string) bool {
	if agent == nil {
		return IsSafeTool(toolName)
	}
	if agent.Kind() == KindSystem {
		return true
	}
	return agent.HasTool(toolName)
}
