package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface. Arguments are slog style
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// MatchLogger wraps slog.Logger adding match / agent scoped attributes and
// domain convenience methods. It is cheap to copy via With* methods.
type MatchLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	matchID   string
	agentID   string
}

// LoggerConfig configures construction of a MatchLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr}
}

// NewLogger builds a MatchLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *MatchLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &MatchLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component}
}

// NewSlogLogger creates a new MatchLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *MatchLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *MatchLogger) clone() *MatchLogger {
	nl := *l
	return &nl
}

// WithComponent sets the logical component (engine, gateway, ...).
func (l *MatchLogger) WithComponent(c string) *MatchLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithMatch attaches a match identifier.
func (l *MatchLogger) WithMatch(matchID string) *MatchLogger {
	nl := l.clone()
	nl.matchID = matchID
	return nl
}

// WithAgent attaches an agent identifier.
func (l *MatchLogger) WithAgent(agentID string) *MatchLogger {
	nl := l.clone()
	nl.agentID = agentID
	return nl
}

func (l *MatchLogger) buildAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, 3+len(args)/2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.matchID != "" {
		attrs = append(attrs, slog.String("match_id", l.matchID))
	}
	if l.agentID != "" {
		attrs = append(attrs, slog.String("agent_id", l.agentID))
	}
	r := slog.Record{}
	r.Add(args...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}

func (l *MatchLogger) log(level slog.Level, msg string, args ...any) {
	l.logger.LogAttrs(context.Background(), level, msg, l.buildAttrs(args)...)
}

// Debug logs at debug level.
func (l *MatchLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *MatchLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *MatchLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *MatchLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogGatewayCall records the outcome of one agent-turn gateway interaction.
func (l *MatchLogger) LogGatewayCall(agentID string, turn int, status string, dur time.Duration, fallback bool) {
	level := slog.LevelInfo
	msg := "Gateway call completed"
	if status != "ok" {
		level = slog.LevelWarn
		msg = "Gateway call degraded to fallback"
	}
	l.log(level, msg,
		slog.String("agent_id", agentID),
		slog.Int("turn", turn),
		slog.String("status", status),
		slog.Duration("duration", dur),
		slog.Bool("fallback_applied", fallback),
	)
}

// LogMatchEnded records the terminal outcome of a match.
func (l *MatchLogger) LogMatchEnded(reason string, turns int, winner string, dur time.Duration) {
	l.log(slog.LevelInfo, "Match ended",
		slog.String("reason", reason),
		slog.Int("turns", turns),
		slog.String("winner", winner),
		slog.Duration("duration", dur),
	)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
