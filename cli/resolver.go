package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nip/lang"
	"github.com/ardnew/nip/log"
)

// resolve returns a [kong.ConfigurationLoader] that reads a nip document
// and feeds its values to kong as flag defaults.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config.nip")
//
// The document is constructed with the builtin registry, so values may use
// tags and expressions. Nested blocks are flattened with '-', so both of
// these set --log-level:
//
//	log_level: debug
//
//	log:
//	  level: debug
//
// Command-line flags override config file values. A document that fails to
// load is logged and ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		v, err := lang.Load(ctx, r,
			lang.WithRegistry(lang.Builtins()),
			lang.WithLogger(log.Default()),
		)
		if err != nil {
			log.WarnContext(ctx, "ignoring configuration file",
				slog.Any("error", err))

			return config{}, nil
		}

		m, ok := v.(map[string]any)
		if !ok {
			return config{}, nil
		}

		return makeConfig(m), nil
	}
}

// config implements [kong.Resolver] for nip documents.
type config map[string]any

// makeConfig flattens m into flag names. Kong parses numbers from strings,
// so numeric leaves are formatted.
func makeConfig(m map[string]any) config {
	c := config{}

	for k, v := range lang.Flatten(m, "-") {
		switch n := v.(type) {
		case int:
			c[k] = strconv.Itoa(n)
		case float64:
			c[k] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			c[k] = v
		}
	}

	return c
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but nip names may not, so
	// underscores are accepted in their place.
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
