//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// Modes returns the supported profiling modes when built with the pprof
// build tag.
var Modes = sync.OnceValue(
	func() []string {
		return slices.Sorted(maps.Keys(mode))
	},
)

var mode = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"heap":      profile.MemProfileHeap,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// options translates a configuration into pkg/profile options. It reports
// false for an unknown mode.
func options(m, path string, quiet bool) ([]func(*profile.Profile), bool) {
	fn, ok := mode[m]
	if !ok {
		return nil, false
	}

	// pkg/profile installs its own interrupt handler unless told not to; the
	// CLI stops the profiler itself.
	opts := []func(*profile.Profile){fn, profile.NoShutdownHook}

	if path != "" {
		opts = append(opts, profile.ProfilePath(path))
	}

	if quiet {
		opts = append(opts, profile.Quiet)
	}

	return opts, true
}

func start(m, path string, quiet bool) interface{ Stop() } {
	opts, ok := options(m, path, quiet)
	if !ok {
		return ignore{}
	}

	return profile.Start(opts...)
}
