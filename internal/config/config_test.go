package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_UnknownLLMProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "gemini"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown llm provider")
	}
	expected := `llm.provider must be "openai" or "anthropic", got "gemini"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_UndeclaredEmbeddingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Text.Provider = "nebius"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for undeclared provider")
	}

	cfg.Embedding.Providers = map[string]ProviderConfig{"nebius": {APIKey: "k"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeConcurrency(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.StepConcurrency = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative concurrency")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Retrieval.DefaultLimit != 5 {
		t.Errorf("default limit: got %d, want 5", cfg.Retrieval.DefaultLimit)
	}
	if cfg.Retrieval.RRFK != 60 {
		t.Errorf("rrf k: got %d, want 60", cfg.Retrieval.RRFK)
	}
	if cfg.Embedding.Text.QueryInstruction != "query: " {
		t.Errorf("query instruction: got %q", cfg.Embedding.Text.QueryInstruction)
	}
	if cfg.Embedding.Text.DocumentInstruction != "passage: " {
		t.Errorf("document instruction: got %q", cfg.Embedding.Text.DocumentInstruction)
	}
	if cfg.Storage.KnowledgeIndex != "factlens:kb:idx" {
		t.Errorf("knowledge index: got %q", cfg.Storage.KnowledgeIndex)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("llm provider: got %q", cfg.LLM.Provider)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("FACTLENS_TEST_PORT", "9090")

	data := []byte(strings.Join([]string{
		"http:",
		"  port: ${FACTLENS_TEST_PORT}",
		"database:",
		"  addrs: [\"${FACTLENS_TEST_ADDR:-localhost:6379}\"]",
	}, "\n"))

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port: got %d, want 9090", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs: got %v", cfg.Database.Addrs)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
