package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"golang.org/x/sys/unix"

	"github.com/ardnew/nip/lang"
	"github.com/ardnew/nip/log"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	streamsKey  struct{}
	registryKey struct{}

	streams struct {
		out, err io.Writer
	}
)

// WithStreams returns a new context.Context whose commands write results to
// out and diagnostics to errOut.
func WithStreams(ctx context.Context, out, errOut io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, streams{out: out, err: errOut})
}

func streamsFrom(ctx context.Context) streams {
	s, _ := ctx.Value(streamsKey{}).(streams)
	if s.out == nil {
		s.out = os.Stdout
	}

	if s.err == nil {
		s.err = os.Stderr
	}

	return s
}

// WithRegistry returns a new context.Context whose commands construct tags
// with reg.
func WithRegistry(ctx context.Context, reg *lang.Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, reg)
}

// registryFrom returns the registry stored by WithRegistry, or the builtins.
func registryFrom(ctx context.Context) *lang.Registry {
	if reg, ok := ctx.Value(registryKey{}).(*lang.Registry); ok && reg != nil {
		return reg
	}

	return lang.Builtins().SetLogger(log.Default())
}

// Parse holds the flags of every command that parses documents.
type Parse struct {
	Strict           bool `help:"Forbid positional items after keyed items and repeated keys."`
	SequentialLinks  bool `help:"Reject links referenced before their declaration."`
	ImplicitFStrings bool `help:"Treat every quoted string containing '{' as an f-string." name:"fstrings"`
}

func (p Parse) options(ctx context.Context) []lang.Option {
	return []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithRegistry(registryFrom(ctx)),
		lang.WithStrict(p.Strict),
		lang.WithSequentialLinks(p.SequentialLinks),
		lang.WithImplicitFStrings(p.ImplicitFStrings),
	}
}

// Build holds the flags of every command that constructs documents.
type Build struct {
	Parse `embed:""`

	Sequential   bool `help:"Construct nodes in document order instead of on demand." short:"S"`
	StrictTyping bool `help:"Fail on builder argument type mismatches instead of warning."`
	AlwaysIter   bool `help:"Treat the document as a sweep even without iterators."`
}

func (b Build) options(ctx context.Context) []lang.Option {
	return append(b.Parse.options(ctx),
		lang.WithSequential(b.Sequential),
		lang.WithStrictTyping(b.StrictTyping),
		lang.WithAlwaysIter(b.AlwaysIter),
	)
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// parse parses the document at path, or standard input for "-".
func parse(ctx context.Context, path string, opts ...lang.Option) (*lang.Document, error) {
	if path == stdinSource {
		return lang.ParseReader(ctx, os.Stdin, opts...)
	}

	return lang.ParseFile(ctx, path, opts...)
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueSources removes repeated references to one file from sources.
//
// Paths are compared by device and inode after resolving symlinks. All
// occurrences of "-" collapse into one, placed last so that stdin is read
// after all regular files. Paths that cannot be resolved are kept so that
// opening them reports the error.
func uniqueSources(sources []string) []string {
	out := make([]string, 0, len(sources))
	seen := make(map[fileKey]struct{})

	var stdin bool

	stdinKey, stdinOK := fdKey(int(os.Stdin.Fd()))

	for _, src := range sources {
		if src == stdinSource {
			stdin = true

			continue
		}

		key, ok := pathKey(src)
		if !ok {
			out = append(out, src)

			continue
		}

		if stdinOK && key == stdinKey {
			stdin = true

			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, src)
	}

	if stdin {
		out = append(out, stdinSource)
	}

	return out
}

func pathKey(path string) (fileKey, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fileKey{}, false
	}

	var st unix.Stat_t
	if err := unix.Stat(resolved, &st); err != nil {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(st.Dev), ino: st.Ino}, true //nolint:unconvert
}

func fdKey(fd int) (fileKey, bool) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(st.Dev), ino: st.Ino}, true //nolint:unconvert
}
