package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"prescription-ledger/internal/platform/config"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case Debug:
		return slog.LevelDebug
	case Warn:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Logger es la interfaz que usan handlers y servicios.
// Los campos van en un map para no acoplar a los callers con slog.
type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Out por defecto es os.Stdout.
	Out io.Writer
}

// SlogLogger adapta *slog.Logger a Logger.
type SlogLogger struct {
	s *slog.Logger
}

func New(opts Options) Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	hopts := &slog.HandlerOptions{Level: opts.Level.slog()}

	var h slog.Handler
	switch opts.Format {
	case FormatJSON:
		h = slog.NewJSONHandler(out, hopts)
	default:
		h = slog.NewTextHandler(out, hopts)
	}

	s := slog.New(h)
	if app := strings.TrimSpace(opts.App); app != "" {
		s = s.With("app", app)
	}
	return &SlogLogger{s: s}
}

// FromConfig crea el logger con LOG_LEVEL / LOG_FORMAT / APP_NAME ya parseados.
func FromConfig(cfg config.Log) Logger {
	return New(Options{
		Level:  ParseLevel(cfg.Level),
		Format: ParseFormat(cfg.Format),
		App:    cfg.App,
	})
}

// Discard sirve para tests.
func Discard() Logger {
	return New(Options{Out: io.Discard, Level: Error})
}

func (l *SlogLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	return &SlogLogger{s: l.s.With(attrs(fields)...)}
}

func (l *SlogLogger) Debug(msg string, fields map[string]any) { l.log(slog.LevelDebug, msg, fields) }
func (l *SlogLogger) Info(msg string, fields map[string]any)  { l.log(slog.LevelInfo, msg, fields) }
func (l *SlogLogger) Warn(msg string, fields map[string]any)  { l.log(slog.LevelWarn, msg, fields) }
func (l *SlogLogger) Error(msg string, fields map[string]any) { l.log(slog.LevelError, msg, fields) }

func (l *SlogLogger) log(lvl slog.Level, msg string, fields map[string]any) {
	l.s.Log(context.Background(), lvl, msg, attrs(fields)...)
}

func attrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out = append(out, slog.Any(k, v))
	}
	return out
}
