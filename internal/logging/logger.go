// logging.go - Centralized logging configuration for the NetBox assistant.
//
// This package provides structured logging using Go's slog package with
// configurable log levels, text or JSON output, and component-based loggers.
//
// Usage:
//   logger := logging.GetLogger("inventory")
//   logger.Info("Request completed", "path", path, "status", status)
//   logger.Error("Request failed", "error", err)
//
// Configuration:
// - LOG_LEVEL: DEBUG, INFO, WARN, or ERROR (default: DEBUG until config is loaded)
// - LOG_FORMAT: "json" for JSON output, "text" for human-readable (default: text)
// - LOG_FILE: Optional file path for log output
// - CONTENT_LOG_LEVEL: verbosity for chat text and payload bodies - DEBUG, INFO, WARN, ERROR, or OFF

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// levelOff is high enough that no record passes it.
const levelOff = slog.Level(1000)

var (
	defaultLogger   *slog.Logger
	logLevel        slog.Level = slog.LevelDebug // Start with maximum verbosity until config is loaded
	contentLogLevel slog.Level = slog.LevelDebug
)

// Initialize sets up the global logger from environment variables.
// It is used for early initialization before config loading and
// defaults to DEBUG so config loading details are captured.
func Initialize() {
	logLevel = parseLevel(os.Getenv("LOG_LEVEL"), slog.LevelDebug)
	contentLogLevel = parseContentLevel(os.Getenv("CONTENT_LOG_LEVEL"))
	install(os.Getenv("LOG_FILE"), os.Getenv("LOG_FORMAT"))
}

// LoggingConfig interface defines the structure for logging configuration
type LoggingConfig interface {
	GetLogLevel() string
	GetLogFormat() string
	GetLogFile() string
	GetContentLogLevel() string
}

// InitializeFromConfig reinitializes logging based on a configuration object.
// Empty config values fall back to the environment. After config loading the
// default level drops to INFO.
func InitializeFromConfig(cfg LoggingConfig) {
	if defaultLogger != nil {
		defaultLogger.Debug("Transitioning from config loading verbosity to final logging configuration")
	}

	levelStr := firstNonEmpty(cfg.GetLogLevel(), os.Getenv("LOG_LEVEL"))
	formatStr := firstNonEmpty(cfg.GetLogFormat(), os.Getenv("LOG_FORMAT"))
	fileStr := firstNonEmpty(cfg.GetLogFile(), os.Getenv("LOG_FILE"))
	contentStr := firstNonEmpty(cfg.GetContentLogLevel(), os.Getenv("CONTENT_LOG_LEVEL"))

	logLevel = parseLevel(levelStr, slog.LevelInfo)
	contentLogLevel = parseContentLevel(contentStr)
	install(fileStr, formatStr)

	defaultLogger.Debug("Logging reconfigured from config",
		"final_log_level", logLevel.String(),
		"final_content_log_level", contentLogLevel.String(),
		"log_format", strings.ToLower(formatStr),
		"log_file", fileStr)
}

func install(logFile, format string) {
	var output io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			slog.Error("Failed to open log file, using stderr", "file", logFile, "error", err)
		} else {
			output = file
		}
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	refreshComponentLoggers()
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return fallback
	}
}

func parseContentLevel(s string) slog.Level {
	if strings.ToUpper(strings.TrimSpace(s)) == "OFF" {
		return levelOff
	}
	return parseLevel(s, slog.LevelDebug)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetLogger returns a component-specific logger with the given component name
func GetLogger(component string) *slog.Logger {
	if defaultLogger == nil {
		Initialize()
	}
	return defaultLogger.With("component", component)
}

// GetLevel returns the current log level
func GetLevel() slog.Level {
	return logLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return logLevel <= slog.LevelDebug
}

// IsContentLoggingEnabled returns true if content logging is enabled at the specified level
func IsContentLoggingEnabled(level slog.Level) bool {
	return contentLogLevel <= level
}

// GetContentLogLevel returns the current content log level
func GetContentLogLevel() slog.Level {
	return contentLogLevel
}

// SetContentLogLevel sets the content log level programmatically
func SetContentLogLevel(level slog.Level) {
	contentLogLevel = level
}

// LogContent logs chat text or payload bodies only when content logging allows it.
func LogContent(logger *slog.Logger, level slog.Level, msg string, args ...any) {
	if IsContentLoggingEnabled(level) {
		logger.Log(context.Background(), level, msg, args...)
	}
}

// Component-specific logger instances. They are rebuilt whenever the
// handler is reinstalled so reconfiguration reaches every package.
var (
	MainLogger          *slog.Logger
	ConfigLogger        *slog.Logger
	CatalogLogger       *slog.Logger
	ResolverLogger      *slog.Logger
	InventoryLogger     *slog.Logger
	ToolsLogger         *slog.Logger
	ChainLogger         *slog.Logger
	AgentLogger         *slog.Logger
	SlackLogger         *slog.Logger
	AuditLogger         *slog.Logger
	AuthLogger          *slog.Logger
	AuthorizationLogger *slog.Logger
	WebLogger           *slog.Logger
)

func refreshComponentLoggers() {
	MainLogger = defaultLogger.With("component", "main")
	ConfigLogger = defaultLogger.With("component", "config")
	CatalogLogger = defaultLogger.With("component", "catalog")
	ResolverLogger = defaultLogger.With("component", "resolver")
	InventoryLogger = defaultLogger.With("component", "inventory")
	ToolsLogger = defaultLogger.With("component", "tools")
	ChainLogger = defaultLogger.With("component", "chain")
	AgentLogger = defaultLogger.With("component", "agent")
	SlackLogger = defaultLogger.With("component", "slack")
	AuditLogger = defaultLogger.With("component", "audit")
	AuthLogger = defaultLogger.With("component", "auth")
	AuthorizationLogger = defaultLogger.With("component", "authorization")
	WebLogger = defaultLogger.With("component", "web")
}

func init() {
	Initialize()
}
