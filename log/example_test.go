package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/nip/log"
)

func Example_basic() {
	logger := log.Make(os.Stderr)
	logger.Info("document loaded", slog.String("file", "config.nip"))
}

func Example_configuration() {
	logger := log.Make(os.Stderr,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
		log.WithTimeLayout("RFC3339Nano"),
		log.WithCaller(true))

	logger.Trace("resolve link", slog.String("link", "default_timeout"))
}

func Example_withAttributes() {
	logger := log.Make(os.Stderr).With(slog.String("document", "main"))

	logger.Info("construct")
	logger.Debug("build", slog.String("tag", "echo"))
}

func Example_withContext() {
	type viewKey struct{}

	ctx := context.WithValue(context.Background(), viewKey{}, "(0, 1)")

	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug))
	logger.DebugContext(ctx, "sweep view")
}
