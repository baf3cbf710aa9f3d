package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "level and format",
			args: []string{"load", "--log-level", "debug", "--log-format=json", "file.nip"},
			want: logConfig{Level: "debug", Format: "json"},
		},
		{
			name: "booleans",
			args: []string{"--log-pretty", "--log-caller=false"},
			want: logConfig{Pretty: true},
		},
		{
			name: "negated",
			args: []string{"--log-caller", "--no-log-pretty", "--no-log-caller=false"},
			want: logConfig{Caller: true},
		},
		{
			name: "value looks like a flag",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true},
		},
		{
			name: "unrelated flags",
			args: []string{"--logger", "-v", "--level=debug"},
			want: logConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got logConfig

			got.scan(tt.args)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("scan mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLogConfig_Vars(t *testing.T) {
	var c logConfig

	vars := c.vars()

	for _, key := range []string{"logLevel", "logLevels", "logFormat", "logFormats", "logPretty"} {
		if vars[key] == "" {
			t.Errorf("missing kong variable %q", key)
		}
	}

	if vars["logLevel"] != "info" || vars["logFormat"] != "text" {
		t.Errorf("unexpected defaults %v", vars)
	}
}
