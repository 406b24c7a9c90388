package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RECALL_ADDRESS", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.App.Address != DefaultAddress {
		t.Errorf("Expected address %s, got %s", DefaultAddress, cfg.App.Address)
	}
	if cfg.Auth.JwtSecret != DefaultJWTSecret {
		t.Errorf("Expected default jwt secret, got %q", cfg.Auth.JwtSecret)
	}
	if cfg.Memory.SimilarityThreshold != DefaultThreshold {
		t.Errorf("Expected threshold %v, got %v", DefaultThreshold, cfg.Memory.SimilarityThreshold)
	}
	if cfg.LLM.Groq.BaseURL != DefaultGroqBaseURL || cfg.LLM.Groq.Model != DefaultGroqModel {
		t.Errorf("Unexpected groq defaults: %+v", cfg.LLM.Groq)
	}
	if cfg.LLM.SystemInstruction == "" {
		t.Error("Expected a default system instruction")
	}
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
app:
  address: ":7000"
memory:
  keyIndex: redis
  similarityThreshold: 0.7
anomaly:
  limit: 9
databases:
  redis:
    address: "localhost:6379"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RECALL_ADDRESS", ":8080")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("RECALL_MASTER_KEY", "master")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.App.Address != ":8080" {
		t.Errorf("Expected env address to win, got %s", cfg.App.Address)
	}
	if cfg.Memory.KeyIndex != "redis" {
		t.Errorf("Expected keyIndex redis, got %s", cfg.Memory.KeyIndex)
	}
	if cfg.Memory.VectorIndex != "chromem" {
		t.Errorf("Expected untouched default vectorIndex chromem, got %s", cfg.Memory.VectorIndex)
	}
	if cfg.Memory.SimilarityThreshold != float32(0.7) {
		t.Errorf("Expected threshold 0.7, got %v", cfg.Memory.SimilarityThreshold)
	}
	if cfg.Anomaly.Limit != 9 {
		t.Errorf("Expected anomaly limit 9, got %d", cfg.Anomaly.Limit)
	}
	if cfg.LLM.Groq.APIKey != "gsk_test" {
		t.Errorf("Expected groq key from env, got %q", cfg.LLM.Groq.APIKey)
	}
	if cfg.Encryption.MasterKey != "master" {
		t.Errorf("Expected master key from env, got %q", cfg.Encryption.MasterKey)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected a parse error")
	}
}
