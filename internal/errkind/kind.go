// Package errkind defines the closed set of error kinds produced by the
// router, executor, storage, and capability layers.
package errkind

// Kind is a closed enum of structured error categories. New values must not
// be introduced outside this file — callers pattern-match on the set.
type Kind string

const (
	ParseError           Kind = "PARSE_ERROR"
	ValidationError       Kind = "VALIDATION_ERROR"
	RouteError            Kind = "ROUTE_ERROR"
	ToolNotFound          Kind = "TOOL_NOT_FOUND"
	DeniedAgentTool       Kind = "DENIED_AGENT_TOOL"
	DeniedNoAgent         Kind = "DENIED_NO_AGENT"
	DeniedByPolicy        Kind = "DENIED_BY_POLICY"
	DeniedPathTraversal   Kind = "DENIED_PATH_TRAVERSAL"
	DeniedPathAllowlist   Kind = "DENIED_PATH_ALLOWLIST"
	DeniedCmdAllowlist    Kind = "DENIED_CMD_ALLOWLIST"
	ConfirmationRequired  Kind = "CONFIRMATION_REQUIRED"
	ExecError             Kind = "EXEC_ERROR"
	ExecTimeout           Kind = "EXEC_TIMEOUT"
	StorageWriteError     Kind = "STORAGE_WRITE_ERROR"
	StorageReadError      Kind = "STORAGE_READ_ERROR"
	LLMConfigError        Kind = "LLM_CONFIG_ERROR"
	LLMRequestError       Kind = "LLM_REQUEST_ERROR"
)

// ExitCode maps an error kind to the CLI exit code a process should use:
// validation/parse/route errors exit 2, everything else non-ok exits 1.
func (k Kind) ExitCode() int {
	switch k {
	case ParseError, ValidationError, RouteError:
		return 2
	default:
		return 1
	}
}
