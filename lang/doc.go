// Package lang implements nip, an indentation-structured configuration
// language whose documents are constructed into Go values by builders
// registered under tag names.
//
// # Syntax
//
//	--- name             optional document header
//	key: value           keyed item of a block
//	- value              positional item of a block
//	!tag value           construct value with the builder for tag
//	!&tag                the builder for tag itself
//	&name value          bind value to the link name
//	*name                the value bound to name
//	@name [1, 2, 3]      iterate over a domain; same-named iterators move together
//	!!insert file.nip    substitute another document
//	[..] {..} (..)       literals, evaluated while parsing
//	`expression`         evaluated during construction
//	f"text {expression}" interpolated string
//	# comment
//
// A block continues while lines start at its column. Items of a deeper
// block belong to the item above them:
//
//	server: !server
//	  host: localhost
//	  ports:
//	    - 8080
//	    - 8443
//	timeout: *default_timeout
//	defaults:
//	  - &default_timeout 30
//
// # Construction
//
// [Document.Construct] turns a parsed tree into Go values. By default links
// may be used before they are declared: every declaration is indexed first
// and constructed once, on first use, and a link needed during its own
// construction is an error. [WithSequential] instead binds links in
// document order.
//
// Tags are built by a [Builder] looked up in a [Registry]. An Args value
// supplies positional and keyword arguments; any other value is the single
// positional argument, and an absent value means no arguments. [Func]
// adapts ordinary Go functions, and [Builtins] provides a small standard
// set.
//
// # Sweeps
//
// A document with iterators describes a family of documents.
// [Document.Sweep] enumerates the Cartesian product of its iterator groups
// in sorted group order, the last group varying fastest, and yields the
// document with each combination of indices selected.
//
//	for idx, view := range sweep.All() {
//		v, err := view.Construct(ctx, lang.WithRegistry(reg))
//		...
//	}
//
// Views share the document unless [WithSnapshot] is given, so each must be
// consumed before the next.
package lang
