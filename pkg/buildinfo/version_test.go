package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFill(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "defaults take build stamps",
			in:   Info{Version: "dev", Commit: "none", Date: "unknown"},
			want: Info{Version: "v0.3.0", Commit: "abc123", Date: "2026-01-02T03:04:05Z"},
		},
		{
			name: "ldflags win",
			in:   Info{Version: "v1.0.0", Commit: "fff", Date: "today"},
			want: Info{Version: "v1.0.0", Commit: "fff", Date: "today"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			fill(&got, bi)
			if got != tt.want {
				t.Errorf("fill = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFillDevel(t *testing.T) {
	info := Info{Version: "dev", Commit: "none", Date: "unknown"}
	fill(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, key := range []string{"version: ", "commit: ", "built: "} {
		if !strings.Contains(s, key) {
			t.Errorf("String() = %q, missing %q", s, key)
		}
	}
}
