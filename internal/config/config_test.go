package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.Model != "qwen-plus" {
		t.Errorf("Gateway.Model = %q, want qwen-plus", cfg.Gateway.Model)
	}
	if cfg.Gateway.TransportTimeoutSeconds != 15 || cfg.Gateway.DeadlineSeconds != 20 {
		t.Errorf("unexpected gateway timeouts: %+v", cfg.Gateway)
	}
	if cfg.History.MaxEntries != 50 || cfg.History.DisplayLimit != 7 {
		t.Errorf("unexpected history limits: %+v", cfg.History)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 600", perm)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"gateway": {"api_key": "sk-test", "model": ""}, "server": {"port": 9090}}`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.Gateway.APIKey)
	}
	if cfg.Gateway.Model != "qwen-plus" {
		t.Errorf("empty model should fall back to default, got %q", cfg.Gateway.Model)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Path != "techhourse.db" {
		t.Errorf("absent store section should keep default path, got %q", cfg.Store.Path)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{not json"), 0600)

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("TECHHOURSE_API_KEY", "sk-env")
	t.Setenv("TECHHOURSE_GATEWAY_DEADLINE", "5")
	t.Setenv("TECHHOURSE_CATALOG_WATCH", "true")
	t.Setenv("TECHHOURSE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.APIKey != "sk-env" {
		t.Errorf("APIKey = %q", cfg.Gateway.APIKey)
	}
	if cfg.Gateway.DeadlineSeconds != 5 {
		t.Errorf("DeadlineSeconds = %d", cfg.Gateway.DeadlineSeconds)
	}
	if !cfg.Catalog.Watch {
		t.Error("Catalog.Watch should be true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestEnvOverrideRejectsBadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("TECHHOURSE_SERVER_PORT", "eighty")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "TECHHOURSE_SERVER_PORT") {
		t.Fatalf("expected error naming the variable, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"zero deadline", func(c *Config) { c.Gateway.DeadlineSeconds = 0 }, "deadline_seconds"},
		{"zero transport", func(c *Config) { c.Gateway.TransportTimeoutSeconds = 0 }, "transport_timeout_seconds"},
		{"history inverted", func(c *Config) { c.History.MaxEntries = 3 }, "max_entries"},
		{"history display zero", func(c *Config) { c.History.DisplayLimit = 0 }, "display_limit"},
		{"port range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTripKeepsKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Gateway.APIKey = "sk-saved"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved file is not JSON: %v", err)
	}
	if raw["gateway"]["api_key"] != "sk-saved" {
		t.Errorf("api_key not persisted: %v", raw["gateway"])
	}
	if _, ok := raw["history"]["display_limit"]; !ok {
		t.Error("history.display_limit missing from saved file")
	}
}
