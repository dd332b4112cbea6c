// Package agentdef loads user-defined Agents from a declarative
// agents.yaml file. kind=system agents are never produced here — they are
// hardcoded in the composition root instead. YAML suits the format well
// since system prompt text is often multi-line.
package agentdef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dispatchd/dispatchd/internal/agentmodel"
)

// agentDoc mirrors the on-disk YAML shape of a single agent entry.
type agentDoc struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	SystemPromptFile string   `yaml:"systemPromptFile"`
	SystemPrompt     string   `yaml:"systemPrompt"`
	Tools            []string `yaml:"tools"`
	Kind             string   `yaml:"kind"`
}

type agentsFile struct {
	Agents []agentDoc `yaml:"agents"`
}

// LoadAgents parses path (an agents.yaml file) relative to baseDir for
// resolving systemPromptFile references, and returns the constructed
// kind=user Agents. A missing file returns an empty slice, not an error —
// agents.yaml is optional; a deployment may run with only system agents.
func LoadAgents(path, baseDir string) ([]*agentmodel.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("agentdef: read %q: %w", path, err)
	}

	var doc agentsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("agentdef: parse %q: %w", path, err)
	}

	agents := make([]*agentmodel.Agent, 0, len(doc.Agents))
	for _, a := range doc.Agents {
		if a.Kind != "" && a.Kind != string(agentmodel.KindUser) {
			return nil, fmt.Errorf("agentdef: agent %q declares kind=%q; only %q is permitted in agents.yaml",
				a.Name, a.Kind, agentmodel.KindUser)
		}
		if a.Name == "" {
			return nil, fmt.Errorf("agentdef: agent entry missing required 'name'")
		}

		prompt := a.SystemPrompt
		if a.SystemPromptFile != "" {
			promptPath := a.SystemPromptFile
			if !isAbs(promptPath) {
				promptPath = baseDir + string(os.PathSeparator) + promptPath
			}
			content, err := os.ReadFile(promptPath)
			if err != nil {
				return nil, fmt.Errorf("agentdef: agent %q: read systemPromptFile %q: %w", a.Name, promptPath, err)
			}
			prompt = string(content)
		}

		agents = append(agents, agentmodel.NewUserAgent(a.Name, a.Description, prompt, a.Tools))
	}
	return agents, nil
}

func isAbs(p string) bool {
	return len(p) > 0 && (p[0] == '/' || (len(p) > 1 && p[1] == ':'))
}
