package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration for the pbxgate server.
// Precedence: CLI flags > env vars > defaults.
type Config struct {
	DataDir       string
	HTTPPort      int
	LogLevel      string
	LogFormat     string // log output format: "text" or "json"
	RecordingsDir string // base directory for stored recordings
	SoundsDir     string // switch sounds directory (prompt files)
	TempDir       string // scratch space for name clips and marker files
	ESLAddr       string // FreeSWITCH event socket address (host:port)
	ESLPassword   string
	FwIPv4Script  string // allow-list script for IPv4 device addresses
	FwIPv6Script  string // allow-list script for IPv6 device addresses
	SettingsTTL   int    // domain settings cache TTL in seconds
	SessionHours  int    // call session retention window in hours
	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPTLS       string // "none", "starttls", "tls"
}

// defaults
const (
	defaultDataDir       = "./data"
	defaultHTTPPort      = 8085
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultRecordingsDir = "/var/lib/freeswitch/recordings"
	defaultSoundsDir     = "/usr/share/freeswitch/sounds"
	defaultTempDir       = "/tmp"
	defaultESLAddr       = "127.0.0.1:8021"
	defaultESLPassword   = "ClueCon"
	defaultFwIPv4Script  = "/usr/local/bin/fw-add-ipv4-sip-customer-list.sh"
	defaultFwIPv6Script  = "/usr/local/bin/fw-add-ipv6-sip-customer-list.sh"
	defaultSettingsTTL   = 300
	defaultSessionHours  = 24
)

// envPrefix is the prefix for all pbxgate environment variables.
const envPrefix = "PBXGATE_"

// Load parses configuration from CLI flags and environment variables.
// Precedence: CLI flags > env vars > defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("pbxgate", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "data-dir", defaultDataDir, "data directory for database and file storage")
	fs.IntVar(&cfg.HTTPPort, "http-port", defaultHTTPPort, "HTTP server listen port")
	fs.StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", defaultLogFormat, "log output format (text, json)")
	fs.StringVar(&cfg.RecordingsDir, "recordings-dir", defaultRecordingsDir, "base directory for stored recordings")
	fs.StringVar(&cfg.SoundsDir, "sounds-dir", defaultSoundsDir, "switch sounds directory")
	fs.StringVar(&cfg.TempDir, "temp-dir", defaultTempDir, "scratch directory for temporary clips and marker files")
	fs.StringVar(&cfg.ESLAddr, "esl-addr", defaultESLAddr, "FreeSWITCH event socket address")
	fs.StringVar(&cfg.ESLPassword, "esl-password", defaultESLPassword, "FreeSWITCH event socket password")
	fs.StringVar(&cfg.FwIPv4Script, "fw-ipv4-script", defaultFwIPv4Script, "allow-list script invoked for new IPv4 device registrations")
	fs.StringVar(&cfg.FwIPv6Script, "fw-ipv6-script", defaultFwIPv6Script, "allow-list script invoked for new IPv6 device registrations")
	fs.IntVar(&cfg.SettingsTTL, "settings-ttl", defaultSettingsTTL, "domain settings cache TTL in seconds")
	fs.IntVar(&cfg.SessionHours, "session-retention", defaultSessionHours, "call session retention window in hours")
	fs.StringVar(&cfg.SMTPHost, "smtp-host", "", "SMTP server host for missed-call notices")
	fs.StringVar(&cfg.SMTPPort, "smtp-port", "587", "SMTP server port")
	fs.StringVar(&cfg.SMTPFrom, "smtp-from", "", "From address for outbound notices")
	fs.StringVar(&cfg.SMTPUsername, "smtp-username", "", "SMTP auth username")
	fs.StringVar(&cfg.SMTPPassword, "smtp-password", "", "SMTP auth password")
	fs.StringVar(&cfg.SMTPTLS, "smtp-tls", "starttls", "SMTP transport security (none, starttls, tls)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// Apply env var overrides for any flags not explicitly set on the command line.
	// CLI flags take precedence over env vars.
	applyEnvOverrides(fs, cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides checks environment variables for any flag that was not
// explicitly provided on the command line. This preserves the precedence:
// CLI flags > env vars > defaults.
func applyEnvOverrides(fs *flag.FlagSet, cfg *Config) {
	// Track which flags were explicitly set via CLI.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	// Map of flag name to env var name.
	envMap := map[string]string{
		"data-dir":          envPrefix + "DATA_DIR",
		"http-port":         envPrefix + "HTTP_PORT",
		"log-level":         envPrefix + "LOG_LEVEL",
		"log-format":        envPrefix + "LOG_FORMAT",
		"recordings-dir":    envPrefix + "RECORDINGS_DIR",
		"sounds-dir":        envPrefix + "SOUNDS_DIR",
		"temp-dir":          envPrefix + "TEMP_DIR",
		"esl-addr":          envPrefix + "ESL_ADDR",
		"esl-password":      envPrefix + "ESL_PASSWORD",
		"fw-ipv4-script":    envPrefix + "FW_IPV4_SCRIPT",
		"fw-ipv6-script":    envPrefix + "FW_IPV6_SCRIPT",
		"settings-ttl":      envPrefix + "SETTINGS_TTL",
		"session-retention": envPrefix + "SESSION_RETENTION",
		"smtp-host":         envPrefix + "SMTP_HOST",
		"smtp-port":         envPrefix + "SMTP_PORT",
		"smtp-from":         envPrefix + "SMTP_FROM",
		"smtp-username":     envPrefix + "SMTP_USERNAME",
		"smtp-password":     envPrefix + "SMTP_PASSWORD",
		"smtp-tls":          envPrefix + "SMTP_TLS",
	}

	for flagName, envVar := range envMap {
		if set[flagName] {
			continue
		}
		val, ok := os.LookupEnv(envVar)
		if !ok || val == "" {
			continue
		}
		switch flagName {
		case "data-dir":
			cfg.DataDir = val
		case "http-port":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.HTTPPort = v
			}
		case "log-level":
			cfg.LogLevel = val
		case "log-format":
			cfg.LogFormat = val
		case "recordings-dir":
			cfg.RecordingsDir = val
		case "sounds-dir":
			cfg.SoundsDir = val
		case "temp-dir":
			cfg.TempDir = val
		case "esl-addr":
			cfg.ESLAddr = val
		case "esl-password":
			cfg.ESLPassword = val
		case "fw-ipv4-script":
			cfg.FwIPv4Script = val
		case "fw-ipv6-script":
			cfg.FwIPv6Script = val
		case "settings-ttl":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.SettingsTTL = v
			}
		case "session-retention":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.SessionHours = v
			}
		case "smtp-host":
			cfg.SMTPHost = val
		case "smtp-port":
			cfg.SMTPPort = val
		case "smtp-from":
			cfg.SMTPFrom = val
		case "smtp-username":
			cfg.SMTPUsername = val
		case "smtp-password":
			cfg.SMTPPassword = val
		case "smtp-tls":
			cfg.SMTPTLS = val
		}
	}
}

// validate checks that the config values are sane.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http-port must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.SettingsTTL < 0 {
		return fmt.Errorf("settings-ttl must not be negative, got %d", c.SettingsTTL)
	}
	if c.SessionHours < 1 {
		return fmt.Errorf("session-retention must be at least 1 hour, got %d", c.SessionHours)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log-level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.LogFormat)] {
		return fmt.Errorf("log-format must be one of text, json; got %q", c.LogFormat)
	}
	c.LogFormat = strings.ToLower(c.LogFormat)

	return nil
}

// SlogHandler returns a slog.Handler configured with the appropriate format
// (text or json) and log level.
func (c *Config) SlogHandler(w *os.File) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SlogLevel returns the slog.Level corresponding to the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
