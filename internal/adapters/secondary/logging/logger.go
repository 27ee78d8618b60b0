package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// Logger provides leveled, printf-style logging tagged with a component
// name. Records are written through log/slog so the output can be text or
// JSON.
type Logger struct {
	component string
	level     entities.LogLevel
	handler   *slog.Logger
}

var levelOrder = map[entities.LogLevel]int{
	entities.LogLevelDebug: 0,
	entities.LogLevelInfo:  1,
	entities.LogLevelWarn:  2,
	entities.LogLevelError: 3,
}

// New creates a root logger from the logging configuration. Verbose forces
// the debug level. The returned closer releases the log file, if any.
func New(cfg entities.LoggingConfig) (*Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 - path comes from validated config
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		out = f
		closer = f
	}

	level := cfg.GetLevel()
	if cfg.Verbose {
		level = entities.LogLevelDebug
	}

	return NewWithWriter(out, level, cfg.JSONFormat), closer, nil
}

// NewWithWriter creates a root logger writing to w
func NewWithWriter(w io.Writer, level entities.LogLevel, jsonFormat bool) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var h slog.Handler
	if jsonFormat {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		component: "app",
		level:     level,
		handler:   slog.New(h),
	}
}

// With returns a logger for another component sharing the same output
func (l *Logger) With(component string) *Logger {
	return &Logger{
		component: component,
		level:     l.level,
		handler:   l.handler,
	}
}

// SetLevel updates the logging level
func (l *Logger) SetLevel(level entities.LogLevel) {
	l.level = level
}

// Slog exposes the underlying slog logger for libraries that want one
func (l *Logger) Slog() *slog.Logger {
	return l.handler.With("component", l.component)
}

func (l *Logger) shouldLog(msgLevel entities.LogLevel) bool {
	return levelOrder[msgLevel] >= levelOrder[l.level]
}

func (l *Logger) log(level slog.Level, msg string, args []interface{}, attrs ...slog.Attr) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	attrs = append([]slog.Attr{slog.String("component", l.component)}, attrs...)
	l.handler.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debug logs debug messages (only if debug level is enabled)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelDebug) {
		l.log(slog.LevelDebug, msg, args)
	}
}

// Info logs informational messages
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		l.log(slog.LevelInfo, msg, args)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelWarn) {
		l.log(slog.LevelWarn, msg, args)
	}
}

// Error logs error messages
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelError) {
		l.log(slog.LevelError, msg, args)
	}
}

// Success logs completed operations at info level
func (l *Logger) Success(msg string, args ...interface{}) {
	if l.shouldLog(entities.LogLevelInfo) {
		l.log(slog.LevelInfo, msg, args, slog.String("outcome", "success"))
	}
}

var _ ports.Logger = (*Logger)(nil)
