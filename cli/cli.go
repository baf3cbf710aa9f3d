package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nip/cli/cmd"
	"github.com/ardnew/nip/lang"
	"github.com/ardnew/nip/log"
	"github.com/ardnew/nip/pkg"
)

// CLI is the top-level command-line interface for nip.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version information and exit." short:"V"`

	Check   cmd.Check   `cmd:"" help:"Parse documents and report syntax errors."`
	Load    cmd.Load    `cmd:"" help:"Construct a document and print the result." default:"withargs"`
	Sweep   cmd.Sweep   `cmd:"" help:"Enumerate the views of a document's iterators."`
	Fmt     cmd.Fmt     `cmd:"" help:"Print documents in canonical form."`
	Flatten cmd.Flatten `cmd:"" help:"Print a document as flattened key/value pairs."`
	Tags    cmd.Tags    `cmd:"" help:"List registered builders and directives."`
	Init    cmd.Init    `cmd:"" help:"Initialize configuration file."`
}

// Run executes the nip CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	// The provider is called when a command runs, after ctx has been
	// populated below.
	parser, err := newParser(func() context.Context { return ctx }, &cli,
		configPath(baseConfig+pkg.Extension),
		kong.Exit(exit),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithStreams(ctx, ktx.Stdout, ktx.Stderr)
	ctx = cmd.WithRegistry(ctx, lang.Builtins().SetLogger(log.Default()))

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// newParser returns the kong parser of cli, reading defaults from the
// configuration file at configFile. Commands receive the context returned
// by provide.
func newParser(
	provide func() context.Context,
	cli *CLI,
	configFile string,
	opts ...kong.Option,
) (*kong.Kong, error) {
	vars := kong.Vars{
		cmd.ConfigIdentifier: configFile,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Name + " " + pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	return kong.New(cli, append([]kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.DefaultEnvars(strings.TrimSuffix(pkg.EnvPrefix(), "_")),
		kong.BindSingletonProvider(provide),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFile+".json"),
		kong.Configuration(resolve(provide()), configFile),
		vars,
	}, opts...)...)
}
