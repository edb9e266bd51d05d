// Package config loads client configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML duration strings like "250ms" or "30s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the full client configuration.
type Config struct {
	Backend  Backend  `yaml:"backend"`
	Session  Session  `yaml:"session"`
	Status   Status   `yaml:"status"`
	LogLevel string   `yaml:"log_level"`
	Realtime Realtime `yaml:"realtime"`
}

// Backend configures the hosted backend connection.
type Backend struct {
	// ProjectURL is the base URL of the hosted backend, e.g.
	// https://abc.supabase.co.
	ProjectURL string `yaml:"project_url"`
	// AnonKey is the public API key used for unauthenticated requests.
	AnonKey string `yaml:"anon_key"`
}

// Session configures session handling.
type Session struct {
	// TokenFile persists the session across restarts; empty disables it.
	TokenFile string `yaml:"token_file"`
	// SignUpRetryBackoff is the initial wait before retrying the
	// post-signup sign-in when the account is not yet confirmed.
	SignUpRetryBackoff Duration `yaml:"signup_retry_backoff"`
}

// Status configures the local status/debug HTTP server.
type Status struct {
	// Addr is the listen address; empty disables the server.
	Addr string `yaml:"addr"`
}

// Realtime configures the realtime subscription.
type Realtime struct {
	Enabled bool `yaml:"enabled"`
	// HeartbeatInterval between websocket heartbeats.
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Session: Session{
			SignUpRetryBackoff: Duration(500 * time.Millisecond),
		},
		Status:   Status{Addr: "127.0.0.1:8750"},
		LogLevel: "info",
		Realtime: Realtime{
			Enabled:           true,
			HeartbeatInterval: Duration(30 * time.Second),
		},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults and
// applies environment overrides last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Backend.ProjectURL == "" {
		return cfg, fmt.Errorf("backend project URL is required (ROASTAPP_URL)")
	}
	if cfg.Backend.AnonKey == "" {
		return cfg, fmt.Errorf("backend anon key is required (ROASTAPP_ANON_KEY)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ROASTAPP_URL"); v != "" {
		cfg.Backend.ProjectURL = v
	}
	if v := os.Getenv("ROASTAPP_ANON_KEY"); v != "" {
		cfg.Backend.AnonKey = v
	}
	if v := os.Getenv("ROASTAPP_TOKEN_FILE"); v != "" {
		cfg.Session.TokenFile = v
	}
	if v := os.Getenv("ROASTAPP_STATUS_ADDR"); v != "" {
		cfg.Status.Addr = v
	}
	if v := os.Getenv("ROASTAPP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
