package config

import (
	"log/slog"
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	// Clear any env vars that might interfere.
	for _, env := range []string{
		"PBXGATE_DATA_DIR", "PBXGATE_HTTP_PORT", "PBXGATE_LOG_LEVEL",
		"PBXGATE_RECORDINGS_DIR", "PBXGATE_ESL_ADDR", "PBXGATE_SETTINGS_TTL",
	} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	os.Args = []string{"pbxgate"}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataDir != defaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, defaultDataDir)
	}
	if cfg.HTTPPort != defaultHTTPPort {
		t.Errorf("HTTPPort = %d, want %d", cfg.HTTPPort, defaultHTTPPort)
	}
	if cfg.RecordingsDir != defaultRecordingsDir {
		t.Errorf("RecordingsDir = %q, want %q", cfg.RecordingsDir, defaultRecordingsDir)
	}
	if cfg.ESLAddr != defaultESLAddr {
		t.Errorf("ESLAddr = %q, want %q", cfg.ESLAddr, defaultESLAddr)
	}
	if cfg.SettingsTTL != defaultSettingsTTL {
		t.Errorf("SettingsTTL = %d, want %d", cfg.SettingsTTL, defaultSettingsTTL)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
	if cfg.SessionHours != defaultSessionHours {
		t.Errorf("SessionHours = %d, want %d", cfg.SessionHours, defaultSessionHours)
	}
}

func TestEnvVarOverride(t *testing.T) {
	os.Args = []string{"pbxgate"}
	t.Setenv("PBXGATE_HTTP_PORT", "9090")
	t.Setenv("PBXGATE_RECORDINGS_DIR", "/srv/recordings")
	t.Setenv("PBXGATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.RecordingsDir != "/srv/recordings" {
		t.Errorf("RecordingsDir = %q, want /srv/recordings", cfg.RecordingsDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestCLIFlagsPrecedence(t *testing.T) {
	// CLI flags should override env vars.
	os.Args = []string{"pbxgate", "--http-port", "3000", "--log-level", "warn"}
	t.Setenv("PBXGATE_HTTP_PORT", "9090")
	t.Setenv("PBXGATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPPort != 3000 {
		t.Errorf("HTTPPort = %d, want 3000 (CLI should override env)", cfg.HTTPPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (CLI should override env)", cfg.LogLevel)
	}
}

func TestValidateInvalidPort(t *testing.T) {
	os.Args = []string{"pbxgate", "--http-port", "99999"}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range port, got nil")
	}
}

func TestValidateInvalidSessionRetention(t *testing.T) {
	os.Args = []string{"pbxgate", "--session-retention", "0"}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero retention window, got nil")
	}
}

func TestValidateInvalidLogLevel(t *testing.T) {
	os.Args = []string{"pbxgate", "--log-level", "loud"}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
