// Package logging provides the structured slog logger of the prescriptions API.
// Console output is text, file output is JSON written through a weekly
// rotating file.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/prescriptions-api/config"
)

type LoggingService struct {
	Logger  *slog.Logger
	rotator *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger for a dev environment. An empty
// logDir logs to the console only.
func InitLogger(logDir string) {
	initLogger(logDir, GetConsoleLogLevel(config.EnvDevelopment, "", false), 4, 100*1024*1024)
}

// InitLoggerWithConfig initializes the global logger from the loaded configuration
func InitLoggerWithConfig(cfg *config.Config) {
	initLogger(cfg.LogDir, GetConsoleLogLevel(cfg.Env, cfg.LogLevel, false), cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
}

func initLogger(logDir string, consoleLevel slog.Level, retentionWeeks int, maxFileSize int64) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: consoleLevel})

	service := &LoggingService{}
	handler := slog.Handler(consoleHandler)

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			slog.New(consoleHandler).Error("Failed to create logs directory, logging to console only", "error", err)
		} else {
			service.rotator = NewRotatingLogger(logDir, retentionWeeks, maxFileSize)
			fileHandler := slog.NewJSONHandler(service.rotator, &slog.HandlerOptions{Level: GetFileLogLevel()})
			handler = &multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}
		}
	}

	service.Logger = slog.New(handler)
	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// CleanupOldLogs prunes rotated files past retention. It is a no-op when
// logging to the console only.
func CleanupOldLogs() (int, error) {
	if DefaultLoggingService == nil || DefaultLoggingService.rotator == nil {
		return 0, nil
	}
	return DefaultLoggingService.rotator.CleanupOldLogs()
}

// Close flushes and closes the log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotator == nil {
		return nil
	}
	return DefaultLoggingService.rotator.Close()
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. An explicit LOG_LEVEL wins,
// except in tests, which stay quiet unless verbose.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level; files keep everything
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// Logger returns the configured logger, or slog's default before InitLogger runs
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// multiHandler fans records out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
