// Package config defines service configuration and its layered loader.
//
// Conventions:
//   - Defaults come from New; Load layers a YAML file and env vars on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
	"time"
)

// Store drivers understood by the service.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CataloguePath points at a YAML word catalogue. Empty uses the
	// embedded default catalogue.
	CataloguePath string `koanf:"catalogue_path"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// QueueSize bounds the in-memory score submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of submission workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds how many submitted session ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver is one of memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the sqlite file path or the postgres connection string.
	StoreDSN string `koanf:"store_dsn"`

	// AuthSecret verifies HS256 bearer tokens. Empty disables
	// authenticated features (score submission).
	AuthSecret string `koanf:"auth_secret"`

	// SessionTTL evicts idle game sessions.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// SessionSweepInterval sets how often idle sessions are checked.
	SessionSweepInterval time.Duration `koanf:"session_sweep_interval"`

	// RequestTimeout bounds REST handlers. Websockets are exempt.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// PresenceStaleAfter drops users not seen within this window.
	PresenceStaleAfter time.Duration `koanf:"presence_stale_after"`

	// Gemini chat collaborator.
	GeminiAPIKey  string        `koanf:"gemini_api_key"`
	GeminiModel   string        `koanf:"gemini_model"`
	GeminiBaseURL string        `koanf:"gemini_base_url"`
	ChatTimeout   time.Duration `koanf:"chat_timeout"`

	// ChatSystemPrompt replaces the built-in study assistant persona.
	ChatSystemPrompt string `koanf:"chat_system_prompt"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		MaxLeaderboardLimit:  100,
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           100_000,
		StoreDriver:          StoreMemory,
		SessionTTL:           2 * time.Hour,
		SessionSweepInterval: time.Minute,
		RequestTimeout:       10 * time.Second,
		PresenceStaleAfter:   10 * time.Minute,
		GeminiModel:          "gemini-2.0-flash",
		GeminiBaseURL:        "https://generativelanguage.googleapis.com/v1beta/models",
		ChatTimeout:          30 * time.Second,
	}
}
