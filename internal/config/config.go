// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend names accepted in CALTRACK_BACKEND.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Config holds every tunable for the server.
type Config struct {
	Port     int
	LogLevel string

	// Backend selects the ledger implementation: "local" (embedded sqlite)
	// or "remote" (postgres + blob storage, authenticated).
	Backend      string
	DatabasePath string // sqlite file, local backend
	PostgresDSN  string // remote backend

	// MediaDir is where the disk blob store writes image payloads; MediaBaseURL
	// is the public prefix under which they resolve.
	MediaDir     string
	MediaBaseURL string

	// GeminiAPIKey is the deployment-provided shared credential. Absence is a
	// supported, user-correctable state — never a startup failure.
	GeminiAPIKey string

	// JWTSecret signs remote-backend session tokens. Required only when
	// Backend is "remote".
	JWTSecret string

	// StatePath is the persisted session/preference snapshot.
	StatePath string
}

const (
	defaultPort         = 8080
	defaultLogLevel     = "info"
	defaultBackend      = BackendLocal
	defaultDatabasePath = "data/caltrack.db"
	defaultMediaDir     = "data/media"
	defaultStatePath    = "data/state.json"
)

// Load reads configuration, falling back to defaults. A .env file is applied
// first if present, matching how deployments supply the shared credential.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         defaultPort,
		LogLevel:     getEnv("CALTRACK_LOG_LEVEL", defaultLogLevel),
		Backend:      getEnv("CALTRACK_BACKEND", defaultBackend),
		DatabasePath: getEnv("CALTRACK_DB_PATH", defaultDatabasePath),
		PostgresDSN:  getEnv("CALTRACK_POSTGRES_DSN", ""),
		MediaDir:     getEnv("CALTRACK_MEDIA_DIR", defaultMediaDir),
		MediaBaseURL: getEnv("CALTRACK_MEDIA_BASE_URL", ""),
		GeminiAPIKey: getEnv("CALTRACK_GEMINI_API_KEY", ""),
		JWTSecret:    getEnv("CALTRACK_JWT_SECRET", ""),
		StatePath:    getEnv("CALTRACK_STATE_PATH", defaultStatePath),
	}

	if v := os.Getenv("CALTRACK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CALTRACK_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.DatabasePath == "" {
			return fmt.Errorf("CALTRACK_DB_PATH is required for the local backend")
		}
	case BackendRemote:
		if c.PostgresDSN == "" {
			return fmt.Errorf("CALTRACK_POSTGRES_DSN is required for the remote backend")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("CALTRACK_JWT_SECRET is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown CALTRACK_BACKEND %q (want %q or %q)", c.Backend, BackendLocal, BackendRemote)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
