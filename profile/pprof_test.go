//go:build pprof

package profile

import "testing"

func TestOptions(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		path  string
		quiet bool
		want  int
		ok    bool
	}{
		{name: "unknown", mode: "nope"},
		{name: "mode only", mode: "cpu", want: 2, ok: true},
		{name: "path", mode: "mem", path: "/tmp/p", want: 3, ok: true},
		{name: "quiet path", mode: "trace", path: "/tmp/p", quiet: true, want: 4, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, ok := options(tt.mode, tt.path, tt.quiet)
			if ok != tt.ok || len(opts) != tt.want {
				t.Errorf("options(%q) = %d, %v; want %d, %v", tt.mode, len(opts), ok, tt.want, tt.ok)
			}
		})
	}
}

func TestModes(t *testing.T) {
	for _, m := range Modes() {
		if _, ok := options(m, "", false); !ok {
			t.Errorf("mode %q is listed but not accepted", m)
		}
	}
}
