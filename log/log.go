package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// callerDepth is the number of frames between runtime.Callers and the code
// that called a logging method: runtime.Callers, [Logger.log], then the
// exported method or package function.
const callerDepth = 3

// Logger is a concurrency-safe [slog.Logger] with trace level support and a
// reconfigurable handler. The zero value discards everything.
type Logger struct {
	*slog.Logger
	config
}

// Make creates a [Logger] writing to w, configured by [WithDefaults] and
// then by opts.
func Make(w io.Writer, opts ...Option) Logger {
	return newLogger(makeConfig(w, opts...))
}

func newLogger(cfg config) Logger {
	return Logger{config: cfg, Logger: slog.New(cfg.handler())}
}

// Wrap returns a [Logger] whose configuration is a copy of l's with opts
// applied. The handler is rebuilt, so attributes added by [Logger.With] are
// not carried over.
func (l Logger) Wrap(opts ...Option) Logger {
	cfg, ok := l.settings()
	if !ok {
		return Make(io.Discard, opts...)
	}

	return newLogger(cfg.clone(opts...))
}

// With returns a [Logger] adding attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	cfg, ok := l.settings()
	if !ok {
		return l
	}

	return Logger{
		config: cfg.clone(),
		Logger: slog.New(l.Handler().WithAttrs(attrs)),
	}
}

// Level returns the minimum level logged.
func (l Logger) Level() Level {
	if cfg, ok := l.settings(); ok {
		return cfg.level
	}

	return DefaultLevel
}

// Format returns the output format.
func (l Logger) Format() Format {
	if cfg, ok := l.settings(); ok {
		return cfg.format
	}

	return DefaultFormat
}

// settings returns a copy of l's configuration read under its lock. It
// reports false for the zero value.
func (l Logger) settings() (config, bool) {
	if l.Logger == nil || l.mutex == nil {
		return config{}, false
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.config, true
}

// TraceContext logs at [LevelTrace].
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelTrace, msg, attrs)
}

// Trace logs at [LevelTrace] with [DefaultContextProvider].
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelTrace, msg, attrs)
}

// DebugContext logs at [LevelDebug].
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelDebug, msg, attrs)
}

// Debug logs at [LevelDebug] with [DefaultContextProvider].
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelDebug, msg, attrs)
}

// InfoContext logs at [LevelInfo].
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelInfo, msg, attrs)
}

// Info logs at [LevelInfo] with [DefaultContextProvider].
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelInfo, msg, attrs)
}

// WarnContext logs at [LevelWarn].
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelWarn, msg, attrs)
}

// Warn logs at [LevelWarn] with [DefaultContextProvider].
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelWarn, msg, attrs)
}

// ErrorContext logs at [LevelError].
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelError, msg, attrs)
}

// Error logs at [LevelError] with [DefaultContextProvider].
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelError, msg, attrs)
}

// log builds the record itself so that the source attribute names the
// caller of the exported function rather than this package.
func (l Logger) log(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil || !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pcs [1]uintptr

	runtime.Callers(callerDepth, pcs[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])
	r.AddAttrs(attrs...)

	if l.mutex != nil {
		l.mutex.RLock()
		defer l.mutex.RUnlock()
	}

	_ = l.Handler().Handle(ctx, r)
}
