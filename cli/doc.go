// Package cli contains the command line interface for nip.
//
// # Usage
//
//	nip [flags] <command> [args]
//
// Commands:
//
//	check FILE...   parse documents and report syntax errors
//	load FILE       construct a document and print it as json, yaml or text
//	sweep FILE      enumerate iterator views, optionally writing each to a
//	                directory or printing diffs between consecutive views
//	fmt FILE...     print documents in canonical form
//	flatten FILE    print flattened key=value pairs
//	tags            list registered builders and directives
//	init            write a configuration file from the current flags
//
// load is the default command, so "nip doc.nip" constructs doc.nip.
//
// # Configuration
//
// Flag defaults are read from config.nip in the user configuration directory
// ($XDG_CONFIG_HOME/nip, or $NIP_CONFIG_DIR when set). The file is itself a
// nip document; nested keys join with '-' and '_' stands for '-':
//
//	log:
//	  level: debug
//	format: yaml
//
// Every flag may also be set by an environment variable named after it,
// e.g. NIP_LOG_LEVEL.
//
// # Logging Options
//
//   - --log-level: minimum log level (trace, debug, info, warn, error)
//   - --log-format: log output format (text, json)
//   - --log-time-layout: timestamp format (RFC3339, Kitchen, ...)
//   - --log-caller: include caller information
//   - --log-pretty: colorized output; on by default only on a terminal
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
// It adds --pprof-mode and --pprof-dir (default ~/.cache/nip/pprof).
package cli
