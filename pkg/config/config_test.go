package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".qaforge")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY",
		"QAFORGE_INTERPRETER", "QAFORGE_SCRIPTS_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)
	writeConfigFile(t, home, `
api_keys:
  anthropic: file-anthropic
  openai: file-openai
pipeline:
  interpreter: python3.11
  scripts_dir: /opt/qaforge/scripts
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnthropicAPIKey != "file-anthropic" {
		t.Errorf("expected anthropic key from file, got %q", cfg.AnthropicAPIKey)
	}
	if cfg.Interpreter != "python3.11" {
		t.Errorf("expected interpreter from file, got %q", cfg.Interpreter)
	}
	if cfg.ScriptsDir != "/opt/qaforge/scripts" {
		t.Errorf("expected scripts dir from file, got %q", cfg.ScriptsDir)
	}
	if cfg.GoogleAPIKey != "" {
		t.Errorf("expected empty google key, got %q", cfg.GoogleAPIKey)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)
	writeConfigFile(t, home, `
api_keys:
  anthropic: file-key
pipeline:
  interpreter: python3.11
`)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("QAFORGE_INTERPRETER", "python3.12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnthropicAPIKey != "env-key" {
		t.Errorf("environment must win over file, got %q", cfg.AnthropicAPIKey)
	}
	if cfg.Interpreter != "python3.12" {
		t.Errorf("environment must win over file, got %q", cfg.Interpreter)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interpreter != "python3" {
		t.Errorf("expected python3 default, got %q", cfg.Interpreter)
	}
	if cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != "" || cfg.GoogleAPIKey != "" || cfg.DeepSeekAPIKey != "" {
		t.Errorf("expected no keys, got %+v", cfg)
	}
}

func TestHasProvider(t *testing.T) {
	cfg := &Config{AnthropicAPIKey: "k"}
	if !cfg.HasProvider("anthropic") {
		t.Errorf("anthropic should be configured")
	}
	if cfg.HasProvider("openai") {
		t.Errorf("openai should not be configured")
	}
	if cfg.HasProvider("unknown") {
		t.Errorf("unknown provider never configured")
	}
}
