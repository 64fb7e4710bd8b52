package selections

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// LogEvent describes one engine operation for logging.
type LogEvent struct {
	Op       string
	Session  string
	Tab      TabID
	Page     PageID
	Trigger  string
	Engine   string
	Expr     string
	Changed  bool
	Duration time.Duration
	Err      error
}

// Logger records engine events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to the engine.
func WithLogger(logger Logger) Option {
	return func(cfg *engineConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// SlogLogger forwards events to a structured slog logger. Failed operations
// log at warn, skipped no-op triggers and successes at debug.
func SlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Log(event LogEvent) {
	attrs := []slog.Attr{
		slog.String("op", event.Op),
		slog.Duration("duration", event.Duration),
	}
	if event.Session != "" {
		attrs = append(attrs, slog.String("session", event.Session))
	}
	if event.Tab != "" {
		attrs = append(attrs, slog.String("tab", string(event.Tab)))
	}
	if event.Page != "" {
		attrs = append(attrs, slog.String("page", string(event.Page)))
	}
	if event.Trigger != "" {
		attrs = append(attrs, slog.String("trigger", event.Trigger))
	}
	if event.Engine != "" {
		attrs = append(attrs, slog.String("engine", event.Engine), slog.String("expr", event.Expr))
	}
	if event.Op == opReconcile {
		attrs = append(attrs, slog.Bool("changed", event.Changed))
	}

	level := slog.LevelDebug
	msg := "selections operation"
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
		if !errors.Is(event.Err, ErrNoOpTrigger) {
			level = slog.LevelWarn
			msg = "selections operation failed"
		}
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

const (
	opReconcile   = "reconcile"
	opSwitchPage  = "switch_page"
	opSelectors   = "selector_settings"
	opTornado     = "tornado_settings"
	opFilters     = "filter_multiplicity"
	opRegions     = "region_inference"
	opRealization = "realization"
	opRule        = "rule"
	opActivity    = "activity"
	opImport      = "import"
)
