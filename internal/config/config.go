// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Environment    Environment
	BaseURL        string
	AuthToken      string
	SessionCookie  string
	UserAgent      string
	OutputDir      string
	FilenamePrefix string
	DatabasePath   string
	LogPath        string
	RequestTimeout time.Duration
	Notify         bool
}

// Default values
const (
	defaultRequestTimeout = 60 * time.Second
	defaultUserAgent      = "vault-usage-export"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	env, err := ParseEnvironment(getEnvString("VDC_ENVIRONMENT", string(EnvProduction)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:    env,
		BaseURL:        strings.TrimRight(getEnvString("VDC_BASE_URL", env.BaseURL()), "/"),
		AuthToken:      getEnvString("VDC_AUTH_TOKEN", ""),
		SessionCookie:  getEnvString("VDC_SESSION_COOKIE", ""),
		UserAgent:      getEnvString("VDC_USER_AGENT", defaultUserAgent),
		OutputDir:      getEnvString("EXPORT_OUTPUT_DIR", getDefaultOutputDir()),
		FilenamePrefix: getEnvString("EXPORT_FILENAME_PREFIX", DefaultFilenamePrefix),
		DatabasePath:   getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		LogPath:        getEnvString("LOG_PATH", getDefaultLogPath()),
		RequestTimeout: getEnvDuration("VDC_REQUEST_TIMEOUT", defaultRequestTimeout),
		Notify:         getEnvBool("EXPORT_NOTIFY", true),
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetEnvironment switches the environment and, unless the base URL was
// overridden explicitly, the base URL with it.
func (c *Config) SetEnvironment(env Environment) {
	if c.BaseURL == "" || c.BaseURL == c.Environment.BaseURL() {
		c.BaseURL = env.BaseURL()
	}
	c.Environment = env
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "vdc-export", ".env"),
			filepath.Join(home, ".vdc-export", ".env"),
		)
	}

	// Parent directory (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(cwd), ".env"))
	}

	return paths
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "vdc-export")
}

// getDefaultDatabasePath returns the default path for the export history database.
func getDefaultDatabasePath() string {
	dir := configDir()
	if dir == "" {
		return "exports.db"
	}
	return filepath.Join(dir, "exports.db")
}

// getDefaultLogPath returns the default path for the TUI log file.
func getDefaultLogPath() string {
	dir := configDir()
	if dir == "" {
		return "vdc-export.log"
	}
	return filepath.Join(dir, "vdc-export.log")
}

// getDefaultOutputDir returns the directory CSV files are written to.
func getDefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}
