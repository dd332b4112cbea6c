package plugin

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugins.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_PopulatesNameFromKey(t *testing.T) {
	path := writeConfig(t, `{
		"plugins": {
			"csv-tool": {"transport": "stdio", "command": "csv-server", "args": ["--stdio"]}
		}
	}`)
	cfgs, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg, ok := cfgs["csv-tool"]
	if !ok {
		t.Fatalf("expected csv-tool entry, got %+v", cfgs)
	}
	if cfg.Name != "csv-tool" || cfg.Command != "csv-server" {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadConfig_EmptyPluginsReturnsEmptyMap(t *testing.T) {
	path := writeConfig(t, `{}`)
	cfgs, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfgs) != 0 {
		t.Errorf("expected empty map, got %+v", cfgs)
	}
}

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestClient_ListToolsBeforeConnectErrors(t *testing.T) {
	c := NewClient(ServerConfig{Name: "x", Transport: "stdio"})
	if _, err := c.ListTools(nil); err == nil {
		t.Error("expected ListTools on an unconnected client to error")
	}
}

func TestClient_CloseOnUnconnectedIsNoop(t *testing.T) {
	c := NewClient(ServerConfig{Name: "x"})
	if err := c.Close(); err != nil {
		t.Errorf("Close on unconnected client should be a no-op, got %v", err)
	}
}
