package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	val := "test_value"
	t.Setenv(key, val)

	if got := getEnvString(key, "default"); got != val {
		t.Errorf("getEnvString() = %q, want %q", got, val)
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)
			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_ENV_BOOL"
	tests := []struct {
		envVal string
		def    bool
		want   bool
	}{
		{"true", false, true},
		{"0", true, false},
		{"garbage", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.envVal, func(t *testing.T) {
			t.Setenv(key, tt.envVal)
			if got := getEnvBool(key, tt.def); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envVal, got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in      string
		want    Environment
		wantErr bool
	}{
		{"", EnvProduction, false},
		{"production", EnvProduction, false},
		{"PROD", EnvProduction, false},
		{"staging", EnvStaging, false},
		{" stage ", EnvStaging, false},
		{"dev", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEnvironment(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEnvironment(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseEnvironment(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnvironment_BaseURL(t *testing.T) {
	if got := EnvProduction.BaseURL(); got != "https://cloud.veeam.com/api" {
		t.Errorf("production BaseURL = %q", got)
	}
	if got := EnvStaging.BaseURL(); got != "https://stage.cloud.veeam.com/api" {
		t.Errorf("staging BaseURL = %q", got)
	}
}

func TestLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("VDC_ENVIRONMENT", "staging")
	t.Setenv("VDC_BASE_URL", "")
	t.Setenv("VDC_AUTH_TOKEN", "token-123")
	t.Setenv("DATABASE_PATH", filepath.Join(tmp, "db", "exports.db"))
	t.Setenv("EXPORT_OUTPUT_DIR", filepath.Join(tmp, "out"))
	t.Setenv("VDC_REQUEST_TIMEOUT", "5s")
	t.Setenv("EXPORT_NOTIFY", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != EnvStaging {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.BaseURL != EnvStaging.BaseURL() {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.AuthToken != "token-123" {
		t.Errorf("AuthToken = %q", cfg.AuthToken)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Notify {
		t.Error("Notify should be disabled")
	}
	if cfg.FilenamePrefix != DefaultFilenamePrefix {
		t.Errorf("FilenamePrefix = %q", cfg.FilenamePrefix)
	}
	if _, err := os.Stat(filepath.Join(tmp, "db")); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("VDC_ENVIRONMENT", "moon")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestSetEnvironment(t *testing.T) {
	cfg := &Config{Environment: EnvProduction, BaseURL: EnvProduction.BaseURL()}
	cfg.SetEnvironment(EnvStaging)
	if cfg.BaseURL != EnvStaging.BaseURL() {
		t.Errorf("BaseURL not switched: %q", cfg.BaseURL)
	}

	custom := &Config{Environment: EnvProduction, BaseURL: "http://localhost:8080/api"}
	custom.SetEnvironment(EnvStaging)
	if custom.BaseURL != "http://localhost:8080/api" {
		t.Errorf("explicit BaseURL overwritten: %q", custom.BaseURL)
	}
	if custom.Environment != EnvStaging {
		t.Errorf("Environment = %q", custom.Environment)
	}
}
