package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AZURE_OPENAI_API_ENDPOINT", "wss://openai.example/realtime")
	t.Setenv("AZURE_OPENAI_API_KEY", "openai-key")
	t.Setenv("AZURE_SEARCH_ENDPOINT", "https://search.example")
	t.Setenv("AZURE_SEARCH_KEY", "search-key")
	t.Setenv("AZURE_SEARCH_INDEX", "docs")
	t.Setenv("AZURE_SEARCH_SEMANTIC_CONFIGURATION", "default")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("VOICE", "echo")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAIEndpoint != "wss://openai.example/realtime" {
		t.Fatalf("OpenAIEndpoint = %q", cfg.OpenAIEndpoint)
	}
	if cfg.SearchIndex != "docs" {
		t.Fatalf("SearchIndex = %q", cfg.SearchIndex)
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Voice != "echo" {
		t.Fatalf("Voice = %q, want echo", cfg.Voice)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 5050 {
		t.Fatalf("Port = %d, want default 5050", cfg.Port)
	}
	if cfg.Voice != "alloy" {
		t.Fatalf("Voice = %q, want default alloy", cfg.Voice)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	t.Setenv("AZURE_SEARCH_ENDPOINT", "")
	t.Setenv("AZURE_SEARCH_KEY", "")
	t.Setenv("AZURE_SEARCH_INDEX", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing settings")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	t.Setenv("AZURE_SEARCH_ENDPOINT", "")
	t.Setenv("AZURE_SEARCH_KEY", "")
	t.Setenv("AZURE_SEARCH_INDEX", "")
	t.Setenv("AZURE_SEARCH_SEMANTIC_CONFIGURATION", "")
	t.Setenv("PORT", "")
	t.Setenv("VOICE", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `openai_endpoint: wss://file.example/realtime
openai_api_key: file-openai-key
search_endpoint: https://file-search.example
search_api_key: file-search-key
search_index: file-docs
search_semantic_configuration: file-semantic
port: 7070
voice: shimmer
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAIEndpoint != "wss://file.example/realtime" {
		t.Fatalf("OpenAIEndpoint = %q", cfg.OpenAIEndpoint)
	}
	if cfg.Port != 7070 {
		t.Fatalf("Port = %d, want 7070", cfg.Port)
	}
	if cfg.Voice != "shimmer" {
		t.Fatalf("Voice = %q, want shimmer", cfg.Voice)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VOICE", "env-voice")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("voice: file-voice\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Voice != "env-voice" {
		t.Fatalf("Voice = %q, want env-voice", cfg.Voice)
	}
}

func TestLoadMissingFile(t *testing.T) {
	setRequiredEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
