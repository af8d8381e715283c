package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger tagged with one component. Attributes added with
// With survive a component switch; the component itself is never repeated.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// DefaultConfig logs text at info level to stdout.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
}

// ParseLevel maps a LOG_LEVEL value onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewText builds a text logger for component writing to w at level.
func NewText(w io.Writer, level slog.Level, component string) *Logger {
	return New(Config{
		Level:     level,
		Component: component,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	})
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	return wrap(slog.New(handler), config.Component)
}

func wrap(base *slog.Logger, component string) *Logger {
	l := base
	if component != "" {
		l = base.With(FieldComponent, component)
	}
	return &Logger{Logger: l, base: base, component: component}
}

// With returns a logger carrying args in addition to the current ones.
func (l *Logger) With(args ...any) *Logger {
	return wrap(l.base.With(args...), l.component)
}

// WithComponent returns a logger tagged with component instead of the
// current one.
func (l *Logger) WithComponent(component string) *Logger {
	return wrap(l.base, component)
}

// SetDefault installs logger as the slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// Slog exposes the underlying slog.Logger for libraries that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

func (l *Logger) Component() string {
	return l.component
}
