// Package router implements the Router: the single entry point that turns
// raw input text into a RouteResult. It tries the deterministic parser
// stages in order, then falls back to an LLM provider if one is
// configured, then a terminal canned reply. Deterministic stages always
// run first so a tool call can be recognized and audited without ever
// touching the network.
package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dispatchd/dispatchd/internal/agentmodel"
	"github.com/dispatchd/dispatchd/internal/llm"
	"github.com/dispatchd/dispatchd/internal/parser"
	"github.com/dispatchd/dispatchd/internal/tool"
)

// RoutingStage names which stage produced a RouteResult.
type RoutingStage string

const (
	StageRegexFastPath   RoutingStage = "regex_fast_path"
	StageHeuristicParse  RoutingStage = "heuristic_parse"
	StageCLIParse        RoutingStage = "cli_parse"
	StageLLMFallback     RoutingStage = "llm_fallback"
	StageFallback        RoutingStage = "fallback"
	StageToolJSON        RoutingStage = "tool_json"
	StageException       RoutingStage = "exception"
)

// DebugInfo accompanies every RouteResult.
type DebugInfo struct {
	Path        RoutingStage
	DurationMs  int64
	Model       string
	MemoryRead  bool
	MemoryWrite bool
}

// ResultKind distinguishes the three RouteResult variants.
type ResultKind string

const (
	KindToolCall ResultKind = "tool_call"
	KindReply    ResultKind = "reply"
	KindError    ResultKind = "error"
)

// ToolCallPayload is RouteResult's tool_call variant.
type ToolCallPayload struct {
	ToolName string
	Args     []byte
}

// RouteResult is a tagged union. Exactly one of ToolCall/ReplyContent is
// meaningful, selected by Kind.
type RouteResult struct {
	Kind  ResultKind
	Debug DebugInfo

	ToolCall ToolCallPayload // Kind == KindToolCall

	ReplyContent     string // Kind == KindReply
	ReplyInstruction string // Kind == KindReply

	ErrMessage string // Kind == KindError
	ErrCode    int    // Kind == KindError: 1 = not-routable, 2 = validation/parse
}

// cannedInstructions maps an intent to the terminal-fallback instruction
// text used when no deterministic stage matches and no LLM provider is
// configured.
var cannedInstructions = map[string]string{
	"chat":  "No tool matched this input; treat it as a plain conversational turn.",
	"agent": "No tool matched this input; ask the user to rephrase or supply a supported command.",
}

const defaultCannedInstruction = "No tool matched this input and no model is configured to interpret it."

// Options carries everything a single Route call needs beyond the input
// text itself.
type Options struct {
	Intent             string
	ForcedInstruction  string
	History            []llm.Message
	Agent              *agentmodel.Agent
	Provider           llm.ToolCallingProvider // nil means no LLM fallback is available
	HistoryLimit       int
}

// toolsetCacheCapacity is the LRU-ish (FIFO-evicted) cache size for
// agent→filtered-toolset lookups.
const toolsetCacheCapacity = 50

// Router ties a tool registry to the staged routing algorithm. One Router
// is constructed per process and is safe for concurrent use.
type Router struct {
	registry *tool.Registry

	mu         sync.Mutex
	toolsetLRU map[string][]llm.ToolDefinition
	lruOrder   []string
}

// New constructs a Router over registry.
func New(registry *tool.Registry) *Router {
	return &Router{
		registry:   registry,
		toolsetLRU: make(map[string][]llm.ToolDefinition),
	}
}

// Route tries deterministic stages, then the LLM provider if one is
// configured, then falls back to a canned reply.
func (r *Router) Route(ctx context.Context, input string, opts Options) RouteResult {
	start := time.Now()
	trimmed := strings.TrimSpace(input)

	if trimmed == "" && len(opts.History) == 0 {
		return errorResult(errCodeValidation, "empty input with no prior history is not routable", StageException, start)
	}

	if trimmed != "" {
		if res, ok := r.runDeterministicStages(trimmed, opts, start); ok {
			return res
		}
	}

	if opts.Provider != nil {
		return r.llmFallback(ctx, trimmed, opts, start)
	}

	return r.terminalFallback(trimmed, opts, start)
}

// runDeterministicStages tries each parser stage in order. A Match whose
// tool the active agent may not use is treated as if the stage had never
// matched (skip to the next stage) — this is what keeps the router's
// "never propose a tool the Executor will refuse" invariant true by
// construction, since both sides call agentmodel.ToolAllowed.
func (r *Router) runDeterministicStages(input string, opts Options, start time.Time) (RouteResult, bool) {
	for _, stage := range parser.Stages {
		outcome := stage.Run(input)
		switch outcome.Status {
		case parser.Match:
			if !agentmodel.ToolAllowed(opts.Agent, outcome.Tool) {
				continue
			}
			return RouteResult{
				Kind:     KindToolCall,
				ToolCall: ToolCallPayload{ToolName: outcome.Tool, Args: outcome.Args},
				Debug:    debugFor(RoutingStage(stage.Name), start),
			}, true
		case parser.Reject:
			return errorResult(errCodeValidation, outcome.Reason, StageException, start), true
		case parser.Skip:
			// try next stage
		}
	}
	return RouteResult{}, false
}

// llmFallback: the system prompt and tool allowlist come from the active
// agent (or a minimal SafeTools-restricted prompt when none is active),
// and any tool call the provider proposes is re-checked against the
// agent's allowlist before being trusted.
func (r *Router) llmFallback(ctx context.Context, input string, opts Options, start time.Time) RouteResult {
	systemPrompt := minimalSystemPrompt()
	if opts.Agent != nil {
		systemPrompt = opts.Agent.SystemPromptText()
	}

	tools := r.filteredToolset(opts.Agent)
	history := widenHistory(opts.History, opts.HistoryLimit)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	if input != "" {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})
	}

	resp, err := opts.Provider.CallLLMWithTools(ctx, messages, tools)
	if err != nil {
		return errorResult(errCodeNotRoutable, fmt.Sprintf("llm fallback failed: %v", err), StageException, start)
	}

	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0]
		if !agentmodel.ToolAllowed(opts.Agent, call.Name) {
			return errorResult(errCodeValidation,
				fmt.Sprintf("model proposed tool %q which is not in the active agent's allowlist", call.Name),
				StageLLMFallback, start)
		}
		return RouteResult{
			Kind:     KindToolCall,
			ToolCall: ToolCallPayload{ToolName: call.Name, Args: call.Arguments},
			Debug:    debugFor(StageLLMFallback, start),
		}
	}

	return RouteResult{
		Kind:         KindReply,
		ReplyContent: resp.Content,
		Debug:        debugFor(StageLLMFallback, start),
	}
}

// terminalFallback is the last resort when no stage matched and no LLM
// provider is configured.
func (r *Router) terminalFallback(input string, opts Options, start time.Time) RouteResult {
	if opts.Intent == "spike" {
		return errorResult(errCodeNotRoutable, "no tool found", StageFallback, start)
	}
	instruction := opts.ForcedInstruction
	if instruction == "" {
		instruction = cannedInstructions[opts.Intent]
	}
	if instruction == "" {
		instruction = defaultCannedInstruction
	}
	return RouteResult{
		Kind:             KindReply,
		ReplyContent:     input,
		ReplyInstruction: instruction,
		Debug:            debugFor(StageFallback, start),
	}
}

// filteredToolset returns the function-calling tool definitions an agent
// may use, memoized by (agent name, sorted toolset hash) with FIFO
// eviction at capacity.
func (r *Router) filteredToolset(agent *agentmodel.Agent) []llm.ToolDefinition {
	key := toolsetCacheKey(agent)

	r.mu.Lock()
	if cached, ok := r.toolsetLRU[key]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	all := r.registry.List()
	filtered := make([]llm.ToolDefinition, 0, len(all))
	for _, t := range all {
		if agentmodel.ToolAllowed(agent, t.Name()) {
			filtered = append(filtered, llm.ToolDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.InputSchema(),
			})
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.toolsetLRU[key]; !exists {
		if len(r.lruOrder) >= toolsetCacheCapacity {
			oldest := r.lruOrder[0]
			r.lruOrder = r.lruOrder[1:]
			delete(r.toolsetLRU, oldest)
		}
		r.lruOrder = append(r.lruOrder, key)
	}
	r.toolsetLRU[key] = filtered
	return filtered
}

func toolsetCacheKey(agent *agentmodel.Agent) string {
	if agent == nil {
		return "\x00no-agent"
	}
	tools := agent.Tools()
	sort.Strings(tools)
	return agent.Name() + "\x00" + strings.Join(tools, ",")
}

func minimalSystemPrompt() string {
	return "You are a restricted assistant. Only the following tools are available: " +
		strings.Join(agentmodel.SafeTools, ", ") + ". Do not attempt to use any other tool."
}

// widenHistory trims history to the most recent limit entries, then widens
// the window so a trailing assistant tool-call message always keeps all of
// its tool-result replies, and a leading tool-result message always keeps
// its originating assistant tool-call message — an orphaned tool message
// would be rejected by most providers. limit <= 0 means no trimming.
func widenHistory(history []llm.Message, limit int) []llm.Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}

	startIdx := len(history) - limit
	for startIdx > 0 && history[startIdx].Role == llm.RoleTool {
		startIdx--
	}

	endIdx := len(history)
	if endIdx > 0 && history[endIdx-1].Role == llm.RoleAssistant && len(history[endIdx-1].ToolCalls) > 0 {
		for endIdx < len(history) && history[endIdx].Role == llm.RoleTool {
			endIdx++
		}
	}

	return history[startIdx:endIdx]
}

const (
	errCodeNotRoutable = 1
	errCodeValidation  = 2
)

func errorResult(code int, message string, stage RoutingStage, start time.Time) RouteResult {
	return RouteResult{
		Kind:       KindError,
		ErrMessage: message,
		ErrCode:    code,
		Debug:      debugFor(stage, start),
	}
}

func debugFor(stage RoutingStage, start time.Time) DebugInfo {
	return DebugInfo{Path: stage, DurationMs: time.Since(start).Milliseconds()}
}
