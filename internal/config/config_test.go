package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roastapp.yaml")
	data := []byte(`
backend:
  project_url: https://demo.example.co
  anon_key: anon-key
session:
  token_file: /tmp/session.json
  signup_retry_backoff: 250ms
log_level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Backend.ProjectURL != "https://demo.example.co" {
		t.Errorf("ProjectURL = %s", cfg.Backend.ProjectURL)
	}
	if cfg.Session.SignUpRetryBackoff.Std() != 250*time.Millisecond {
		t.Errorf("SignUpRetryBackoff = %v, want 250ms", cfg.Session.SignUpRetryBackoff)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roastapp.yaml")
	data := []byte("backend:\n  project_url: https://file.example.co\n  anon_key: file-key\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ROASTAPP_URL", "https://env.example.co")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Backend.ProjectURL != "https://env.example.co" {
		t.Errorf("ProjectURL = %s, want env value", cfg.Backend.ProjectURL)
	}
	if cfg.Backend.AnonKey != "file-key" {
		t.Errorf("AnonKey = %s, want file value", cfg.Backend.AnonKey)
	}
}

func TestLoadRequiresBackend(t *testing.T) {
	t.Setenv("ROASTAPP_URL", "")
	t.Setenv("ROASTAPP_ANON_KEY", "")
	if _, err := Load(""); err == nil {
		t.Fatal("Load() without backend config should fail")
	}
}
