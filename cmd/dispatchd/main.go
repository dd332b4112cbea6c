// Command dispatchd is the composition root: it wires the storage core,
// capability objects, tool registry, executor, parser stages, and router
// together, then drives a thin stdin/stdout REPL loop around them.
// Argument parsing and line editing are deliberately not handled here —
// this file stays thin plumbing around the core, not a place for more
// dispatch logic.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dispatchd/dispatchd/internal/agentdef"
	"github.com/dispatchd/dispatchd/internal/agentmodel"
	"github.com/dispatchd/dispatchd/internal/audit"
	"github.com/dispatchd/dispatchd/internal/capability"
	"github.com/dispatchd/dispatchd/internal/config"
	"github.com/dispatchd/dispatchd/internal/executor"
	"github.com/dispatchd/dispatchd/internal/llm"
	"github.com/dispatchd/dispatchd/internal/llm/openai"
	"github.com/dispatchd/dispatchd/internal/plugin"
	"github.com/dispatchd/dispatchd/internal/router"
	"github.com/dispatchd/dispatchd/internal/session"
	"github.com/dispatchd/dispatchd/internal/tool"
	"github.com/dispatchd/dispatchd/internal/tool/builtin"
)

func main() {
	config.LoadEnv()

	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║             dispatchd                ║")
	fmt.Println("║  command dispatcher · Go + stdlib    ║")
	fmt.Println("╚══════════════════════════════════════╝")

	cfg, err := config.Resolve()
	if err != nil {
		log.Fatalf("❌ Failed to resolve config: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.ConfigDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("❌ Failed to create %q: %v", dir, err)
		}
	}
	fmt.Printf("📂 Base: %s\n", cfg.BaseDir)
	fmt.Printf("📂 Data: %s\n", cfg.DataDir)

	perms, err := config.LoadPermissionSet(cfg.PermissionsPath)
	if err != nil {
		log.Fatalf("❌ Failed to load permissions %q: %v", cfg.PermissionsPath, err)
	}
	fmt.Printf("🔒 Permissions: %s (%d deny, %d require confirmation)\n",
		cfg.PermissionsPath, len(perms.DenyTools), len(perms.RequireConfirmationFor))

	paths, err := capability.NewPathCapability(cfg.BaseDir, []string{cfg.DataDir})
	if err != nil {
		log.Fatalf("❌ Failed to construct path capability: %v", err)
	}
	cmds := capability.NewCommandCapability(cfg.BaseDir, []capability.AllowedCommand{
		{Name: "git"},
		{Name: "ls"},
		{Name: "pwd"},
		{Name: "cat"},
		{Name: "du", AllowedFlags: []string{"-sh"}},
	})

	registry := tool.NewRegistry()
	registerBuiltins(registry, cfg, paths, cmds)

	if err := registry.InitAll(context.Background()); err != nil {
		log.Fatalf("❌ Failed to initialize tools: %v", err)
	}
	defer registry.CloseAll()
	fmt.Printf("🛠️  Tools: %d registered\n", len(registry.List()))

	pluginsConfigPath := filepath.Join(cfg.ConfigDir, "plugins.json")
	var pluginMgr *plugin.Manager
	if _, statErr := os.Stat(pluginsConfigPath); statErr == nil {
		pluginMgr = plugin.NewManager(pluginsConfigPath)
		connected, connErrs := pluginMgr.ConnectAll(context.Background())
		for _, e := range connErrs {
			log.Printf("⚠️  plugin connect: %v", e)
		}
		if err := pluginMgr.RegisterTools(context.Background(), registry); err != nil {
			log.Printf("⚠️  plugin tool registration: %v", err)
		}
		registry.Register(plugin.NewReloadTool(pluginMgr, registry))
		fmt.Printf("🔌 Plugins: %d server(s) connected from %s\n", connected, pluginsConfigPath)
		defer pluginMgr.CloseAll()
	}

	agentsPath := filepath.Join(cfg.ConfigDir, "agents.yaml")
	agents, err := agentdef.LoadAgents(agentsPath, cfg.ConfigDir)
	if err != nil {
		log.Fatalf("❌ Failed to load agents from %q: %v", agentsPath, err)
	}
	fmt.Printf("🧑‍💼 Agents: %d loaded from %s\n", len(agents), agentsPath)
	activeAgent := resolveActiveAgent(agents, os.Getenv("ASSISTANT_AGENT"))
	if activeAgent != nil {
		fmt.Printf("🧑‍💼 Active agent: %s\n", activeAgent.Name())
	}

	auditPath := filepath.Join(cfg.DataDir, "audit.jsonl")
	auditLog := audit.NewLogger(auditPath)
	fmt.Printf("📝 Audit log: %s\n", auditPath)

	rtr := router.New(registry)
	exec := executor.New(registry, auditLog)

	provider := buildProvider(cfg)
	if provider != nil {
		fmt.Printf("🤖 LLM: %s @ %s\n", cfg.LLMModel, cfg.LLMBaseURL)
	} else {
		fmt.Println("🤖 LLM: disabled (no LLM_API_KEY); deterministic stages and canned fallback only")
	}

	store := session.NewStore(30*time.Minute, 50)
	defer store.Close()
	fmt.Println("💬 Session: in-memory, single conversation")

	os.Exit(runREPL(rtr, exec, store, activeAgent, perms, cfg, provider))
}

func registerBuiltins(registry *tool.Registry, cfg *config.ResolvedConfig, paths *capability.PathCapability, cmds *capability.CommandCapability) {
	register := func(t tool.Tool) {
		if enabled, ok := cfg.ToolEnabled[t.Name()]; ok && !enabled {
			fmt.Printf("⏭️  %s disabled via TOOL_%s_ENABLED=false\n", t.Name(), t.Name())
			return
		}
		registry.Register(t)
	}

	memoryPath := filepath.Join(cfg.DataDir, "memory.json")
	tasksPath := filepath.Join(cfg.DataDir, "tasks.jsonl")
	remindersPath := filepath.Join(cfg.DataDir, "reminders.jsonl")

	register(builtin.NewRememberTool(memoryPath))
	register(builtin.NewRecallTool(memoryPath))
	register(builtin.NewTaskAddTool(tasksPath))
	register(builtin.NewTaskListTool(tasksPath))
	register(builtin.NewTaskDoneTool(tasksPath))
	register(builtin.NewReminderAddTool(remindersPath))
	register(builtin.NewReminderListTool(remindersPath))
	register(builtin.NewCalculateTool())
	register(builtin.NewWeatherTool())
	register(builtin.NewTimeTool())
	register(builtin.NewFileReadTool(paths))
	register(builtin.NewFileWriteTool(paths))
	register(builtin.NewFileListTool(paths))
	register(builtin.NewGitStatusTool(cmds))
	register(builtin.NewGitDiffTool(cmds))
	register(builtin.NewGitLogTool(cmds))
	register(builtin.NewShellExecTool(cmds))

	if os.Getenv("TOOL_READ_URL_ENABLED") != "false" {
		register(builtin.NewReadURLTool())
		fmt.Println("🌐 read_url tool enabled")
	}

	for _, target := range []string{"coder", "researcher", "planner"} {
		register(builtin.NewDelegateTool(target))
	}
}

// resolveActiveAgent picks the agent named by ASSISTANT_AGENT, or falls
// back to a hardcoded system agent with unrestricted tool access when
// none is configured. agentdef never produces system-kind agents from
// agents.yaml, so the default identity has to live here.
func resolveActiveAgent(agents []*agentmodel.Agent, name string) *agentmodel.Agent {
	if name != "" {
		for _, a := range agents {
			if a.Name() == name {
				return a
			}
		}
		log.Printf("⚠️  ASSISTANT_AGENT=%q not found among loaded agents; using system default", name)
	}
	return agentmodel.NewSystemAgent("system", "default unrestricted operator identity", "You are a helpful local command dispatcher.", nil)
}

func buildProvider(cfg *config.ResolvedConfig) llm.ToolCallingProvider {
	if cfg.LLMAPIKey == "" {
		return nil
	}
	client, err := openai.NewClientFromEnv()
	if err != nil {
		log.Printf("⚠️  LLM_API_KEY set but client init failed: %v; continuing without LLM fallback", err)
		return nil
	}
	return llm.NewCachingProvider(client)
}

// runREPL reads a line, routes it, executes any resulting tool call, and
// prints the outcome. A route error sets the exit code to the router's
// ErrCode (1 if unset), a tool error to 1, success to 0; the process only
// exits on scanner EOF so a single bad line doesn't kill the session.
const replSessionID = "repl"

func runREPL(rtr *router.Router, exec *executor.Executor, store *session.Store, agent *agentmodel.Agent, perms *config.PermissionSet, cfg *config.ResolvedConfig, provider llm.ToolCallingProvider) int {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Ready. Type a command, or Ctrl-D to exit.")

	lastExitCode := 0
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		turns, summary := store.GetSessionContext(replSessionID)
		history := session.ToMessages(turns, 0, summary)

		result := rtr.Route(context.Background(), line, router.Options{
			History:      history,
			Agent:        agent,
			Provider:     provider,
			HistoryLimit: cfg.HistoryLimit,
		})

		switch result.Kind {
		case router.KindError:
			fmt.Printf("error: %s\n", result.ErrMessage)
			lastExitCode = result.ErrCode
			if lastExitCode == 0 {
				lastExitCode = 1
			}

		case router.KindReply:
			fmt.Println(result.ReplyContent)
			store.AppendTurn(replSessionID, session.Turn{UserMsg: line, Assistant: result.ReplyContent})
			lastExitCode = 0

		case router.KindToolCall:
			ec := executor.ExecutionContext{
				Agent:       agent,
				Permissions: perms,
			}
			res := exec.Execute(context.Background(), result.ToolCall.ToolName, result.ToolCall.Args, ec)
			reply := res.Output
			if res.Error != "" {
				reply = res.Error
				fmt.Printf("%s: error: %s\n", result.ToolCall.ToolName, res.Error)
				lastExitCode = 1
			} else {
				fmt.Printf("%s: %s\n", result.ToolCall.ToolName, res.Output)
				lastExitCode = 0
			}
			store.AppendTurn(replSessionID, session.Turn{UserMsg: line, Assistant: reply, IsAgent: true})
		}
	}
	return lastExitCode
}
