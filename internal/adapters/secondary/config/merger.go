package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// ConfigMerger layers defaults, config files, environment and flags
type ConfigMerger struct{}

// NewConfigMerger creates a new configuration merger
func NewConfigMerger() *ConfigMerger {
	return &ConfigMerger{}
}

// Defaults returns the built-in configuration with COURSEKIT_* overrides
func (m *ConfigMerger) Defaults() *entities.Config {
	return GetDefaultConfig()
}

// Overlay applies files over base in order. Only keys a file defines are
// taken from it, so a local file that sets just the port leaves every other
// value from base untouched.
func (m *ConfigMerger) Overlay(base *entities.Config, files ...*ports.ConfigFile) *entities.Config {
	result := deepCopy(base)
	if result == nil {
		result = GetDefaultConfig()
	}

	for _, f := range files {
		if f == nil || f.Config == nil {
			continue
		}
		overlayFile(result, f)
	}
	return result
}

// ApplyFlags applies CLI flag overrides to a configuration
func (m *ConfigMerger) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	result := deepCopy(config)

	if port, ok := flags["port"].(int); ok && port > 0 {
		result.Server.Port = port
	}

	if host, ok := flags["host"].(string); ok && host != "" {
		result.Server.Host = host
	}

	if root, ok := flags["content-root"].(string); ok && root != "" {
		result.Content.Root = root
	}

	if level, ok := flags["log-level"].(string); ok && level != "" {
		result.Logging.Level = level
	}

	if noWatch, ok := flags["no-watch"].(bool); ok && noWatch {
		result.Content.Watch = false
	}

	return result
}

// ApplyEnvVars applies environment variable overrides to a configuration
func (m *ConfigMerger) ApplyEnvVars(config *entities.Config) *entities.Config {
	result := deepCopy(config)

	// Server configuration from environment
	if host := getEnv("HOST"); host != "" {
		result.Server.Host = host
	}

	if port, ok := envInt("PORT"); ok && port > 0 {
		result.Server.Port = port
	}

	if env := getEnv("ENVIRONMENT"); env != "" {
		result.Server.Environment = env
	}

	if origins := getEnvSliceOrDefault("CORS_ORIGINS", nil); origins != nil {
		result.Server.CORSOrigins = origins
	}

	if size, ok := envInt("MAX_UPLOAD_MB"); ok && size > 0 {
		result.Server.MaxUploadMB = size
	}

	if limit, ok := envInt("RATE_LIMIT"); ok && limit > 0 {
		result.Server.RateLimit = limit
	}

	// Content configuration from environment
	if root := getEnv("CONTENT_ROOT"); root != "" {
		result.Content.Root = root
	}

	if style := getEnv("HIGHLIGHT_STYLE"); style != "" {
		result.Content.HighlightStyle = style
	}

	if sanitize, ok := envBool("SANITIZE_HTML"); ok {
		result.Content.SanitizeHTML = sanitize
	}

	if watch, ok := envBool("WATCH"); ok {
		result.Content.Watch = watch
	}

	if debounce, ok := envInt("WATCH_DEBOUNCE"); ok && debounce >= 0 {
		result.Content.DebounceMs = debounce
	}

	// Sessions configuration from environment
	if ttl, ok := envInt("SESSION_TTL"); ok && ttl > 0 {
		result.Sessions.TTLMinutes = ttl
	}

	if interval, ok := envInt("SESSION_PURGE_INTERVAL"); ok && interval > 0 {
		result.Sessions.PurgeIntervalMins = interval
	}

	// Metrics configuration from environment
	if enabled, ok := envBool("METRICS_ENABLED"); ok {
		result.Metrics.Enabled = enabled
	}

	if path := getEnv("METRICS_PATH"); path != "" {
		result.Metrics.Path = path
	}

	// Logging configuration from environment
	if level := getEnv("LOG_LEVEL"); level != "" {
		result.Logging.Level = strings.ToLower(level)
	}

	if verbose, ok := envBool("LOG_VERBOSE"); ok {
		result.Logging.Verbose = verbose
	}

	if jsonFormat, ok := envBool("LOG_JSON"); ok {
		result.Logging.JSONFormat = jsonFormat
	}

	if file := getEnv("LOG_FILE"); file != "" {
		result.Logging.File = file
	}

	return result
}

func envInt(key string) (int, bool) {
	value := getEnv(key)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	return n, err == nil
}

func envBool(key string) (bool, bool) {
	value, set := os.LookupEnv(EnvPrefix + key)
	if !set || value == "" {
		return false, false
	}
	b, err := strconv.ParseBool(value)
	return b, err == nil
}

func overlayFile(dst *entities.Config, f *ports.ConfigFile) {
	src := f.Config

	set(f, "server.host", &dst.Server.Host, src.Server.Host)
	set(f, "server.port", &dst.Server.Port, src.Server.Port)
	set(f, "server.read_timeout", &dst.Server.ReadTimeout, src.Server.ReadTimeout)
	set(f, "server.write_timeout", &dst.Server.WriteTimeout, src.Server.WriteTimeout)
	set(f, "server.shutdown_timeout", &dst.Server.ShutdownTimeout, src.Server.ShutdownTimeout)
	set(f, "server.environment", &dst.Server.Environment, src.Server.Environment)
	if f.Sets("server.cors_origins") {
		dst.Server.CORSOrigins = cloneStrings(src.Server.CORSOrigins)
	}
	set(f, "server.max_upload_mb", &dst.Server.MaxUploadMB, src.Server.MaxUploadMB)
	set(f, "server.rate_limit", &dst.Server.RateLimit, src.Server.RateLimit)

	set(f, "content.root", &dst.Content.Root, src.Content.Root)
	set(f, "content.highlight_style", &dst.Content.HighlightStyle, src.Content.HighlightStyle)
	set(f, "content.sanitize_html", &dst.Content.SanitizeHTML, src.Content.SanitizeHTML)
	set(f, "content.watch", &dst.Content.Watch, src.Content.Watch)
	set(f, "content.debounce_ms", &dst.Content.DebounceMs, src.Content.DebounceMs)

	set(f, "sessions.ttl_minutes", &dst.Sessions.TTLMinutes, src.Sessions.TTLMinutes)
	set(f, "sessions.purge_interval_minutes", &dst.Sessions.PurgeIntervalMins, src.Sessions.PurgeIntervalMins)

	set(f, "metrics.enabled", &dst.Metrics.Enabled, src.Metrics.Enabled)
	set(f, "metrics.path", &dst.Metrics.Path, src.Metrics.Path)

	set(f, "logging.level", &dst.Logging.Level, src.Logging.Level)
	set(f, "logging.verbose", &dst.Logging.Verbose, src.Logging.Verbose)
	set(f, "logging.json_format", &dst.Logging.JSONFormat, src.Logging.JSONFormat)
	set(f, "logging.file", &dst.Logging.File, src.Logging.File)
}

func set[T any](f *ports.ConfigFile, key string, dst *T, v T) {
	if f.Sets(key) {
		*dst = v
	}
}

// deepCopy creates a deep copy of a configuration
func deepCopy(src *entities.Config) *entities.Config {
	if src == nil {
		return nil
	}

	dst := *src
	dst.Server.CORSOrigins = cloneStrings(src.Server.CORSOrigins)
	return &dst
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// Ensure ConfigMerger implements ports.ConfigMerger
var _ ports.ConfigMerger = (*ConfigMerger)(nil)
