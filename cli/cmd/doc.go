// Package cmd implements the nip subcommands: check, load, sweep, fmt,
// flatten, tags and init.
//
// Commands read their output streams and builder registry from the
// context; see [WithStreams] and [WithRegistry].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
