// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Loggers are configured at creation time using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// Attributes added with [Logger.With] are included in every subsequent
// message:
//
//	logger = logger.With(slog.String("document", "main"))
//	logger.Info("construct") // includes document=main
//
// Each level has a context-aware and a context-unaware variant. The latter
// use [DefaultContextProvider], which returns [context.TODO].
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-node detail
// such as link resolution. [LevelInfo], [LevelWarn], and [LevelError]
// follow slog.
//
// # Output
//
// [FormatText] (default) and [FormatJSON] wrap the slog handlers of the
// same name. When the output is a terminal, or [WithPretty] is given, a
// colorized rendition of either format is used instead. Nested groups are
// flattened into dotted keys in pretty output.
//
// Time formatting accepts the named layouts of the [time] package, a few
// short aliases such as "ms" and "none", or a custom layout.
package log
