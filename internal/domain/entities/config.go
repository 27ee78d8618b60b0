package entities

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Content  ContentConfig  `toml:"content"`
	Sessions SessionsConfig `toml:"sessions"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Logging  LoggingConfig  `toml:"logging"`
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Content.Validate(); err != nil {
		return fmt.Errorf("content config: %w", err)
	}

	if err := c.Sessions.Validate(); err != nil {
		return fmt.Errorf("sessions config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	Environment     string   `toml:"environment"`
	CORSOrigins     []string `toml:"cors_origins"`
	MaxUploadMB     int      `toml:"max_upload_mb"`
	RateLimit       int      `toml:"rate_limit"` // requests per minute per client
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.Host != "" {
		if ip := net.ParseIP(s.Host); ip == nil {
			if _, err := net.LookupHost(s.Host); err != nil {
				return fmt.Errorf("invalid host: %w", err)
			}
		}
	}

	if s.ReadTimeout < 0 {
		return errors.New("read timeout must be non-negative")
	}

	if s.WriteTimeout < 0 {
		return errors.New("write timeout must be non-negative")
	}

	if s.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must be non-negative")
	}

	if s.MaxUploadMB < 0 {
		return errors.New("max upload size must be non-negative")
	}

	if s.RateLimit < 0 {
		return errors.New("rate limit must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		// Allow wildcard origin for development
		if origin == "*" {
			continue
		}
		if len(origin) < 7 || (!strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://")) {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// GetCORSOrigins returns CORS origins with defaults if empty
func (s ServerConfig) GetCORSOrigins() []string {
	if len(s.CORSOrigins) == 0 {
		return []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}
	return s.CORSOrigins
}

// GetMaxUploadBytes returns the upload limit in bytes (default 32MB)
func (s ServerConfig) GetMaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return int64(s.MaxUploadMB) << 20
}

// GetRateLimit returns requests per minute per client (default 300)
func (s ServerConfig) GetRateLimit() int {
	if s.RateLimit <= 0 {
		return 300
	}
	return s.RateLimit
}

// IsDevelopment returns true if the server is running in development mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development" || s.Environment == ""
}

// ContentConfig locates the content tree and controls rendering
type ContentConfig struct {
	Root           string `toml:"root"`
	HighlightStyle string `toml:"highlight_style"`
	SanitizeHTML   bool   `toml:"sanitize_html"`
	Watch          bool   `toml:"watch"`
	DebounceMs     int    `toml:"debounce_ms"`
}

// Validate validates content configuration
func (c ContentConfig) Validate() error {
	if c.Root != "" {
		info, err := os.Stat(c.Root)
		if err == nil && !info.IsDir() {
			return fmt.Errorf("content root is not a directory: %s", c.Root)
		}
	}

	if c.DebounceMs < 0 {
		return errors.New("debounce time must be non-negative")
	}

	return nil
}

// GetRoot returns the content root with default
func (c ContentConfig) GetRoot() string {
	if c.Root == "" {
		return "."
	}
	return c.Root
}

// GetHighlightStyle returns the chroma style name with default
func (c ContentConfig) GetHighlightStyle() string {
	if c.HighlightStyle == "" {
		return "github"
	}
	return c.HighlightStyle
}

// GetDebounce returns the watcher debounce as a duration
func (c ContentConfig) GetDebounce() time.Duration {
	if c.DebounceMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// SessionsConfig controls temporary edit sessions
type SessionsConfig struct {
	TTLMinutes        int `toml:"ttl_minutes"`
	PurgeIntervalMins int `toml:"purge_interval_minutes"`
}

// Validate validates sessions configuration
func (s SessionsConfig) Validate() error {
	if s.TTLMinutes < 0 {
		return errors.New("session ttl must be non-negative")
	}

	if s.PurgeIntervalMins < 0 {
		return errors.New("purge interval must be non-negative")
	}

	return nil
}

// GetTTL returns the idle lifetime of an edit session (default 24h)
func (s SessionsConfig) GetTTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// GetPurgeInterval returns how often expired sessions are removed (default 15m)
func (s SessionsConfig) GetPurgeInterval() time.Duration {
	if s.PurgeIntervalMins <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.PurgeIntervalMins) * time.Minute
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Validate validates metrics configuration
func (m MetricsConfig) Validate() error {
	if m.Path != "" && !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %s", m.Path)
	}
	return nil
}

// GetPath returns the metrics path with default
func (m MetricsConfig) GetPath() string {
	if m.Path == "" {
		return "/metrics"
	}
	return m.Path
}

// LogLevel represents logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`       // debug, info, warn, error
	Verbose    bool   `toml:"verbose"`     // Enable verbose logging
	JSONFormat bool   `toml:"json_format"` // Output logs in JSON format
	File       string `toml:"file"`        // Log to file (optional)
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch LogLevel(l.Level) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	case "":
		// Empty is okay, will use default
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l.Level)
	}

	if l.File != "" {
		if !filepath.IsAbs(l.File) {
			return errors.New("log file path must be absolute")
		}

		dir := filepath.Dir(l.File)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("log file directory does not exist: %s", dir)
		}
	}

	return nil
}

// GetLevel returns the log level with default
func (l LoggingConfig) GetLevel() LogLevel {
	if l.Level == "" {
		return LogLevelInfo
	}
	return LogLevel(l.Level)
}
