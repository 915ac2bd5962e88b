package version

import (
	"runtime/debug"
	"testing"
)

func TestResolve(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name    string
		ver     string
		commit  string
		bi      *debug.BuildInfo
		want    string
		wantRaw Info
	}{
		{"no build info", "dev", "", nil, "dev", Info{Version: "dev"}},
		{"from build info", "dev", "", bi, "v0.3.1 (0123456, dirty)", Info{Version: "v0.3.1", Commit: "0123456", Modified: true}},
		{"ldflags win", "v1.0.0", "cafe", bi, "v1.0.0 (cafe, dirty)", Info{Version: "v1.0.0", Commit: "cafe", Modified: true}},
		{"devel main", "dev", "", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, "dev", Info{Version: "dev"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.ver, tt.commit, tt.bi)
			if got.String() != tt.want {
				t.Errorf("String = %q, want %q", got.String(), tt.want)
			}
			got.GoVersion = ""
			if got != tt.wantRaw {
				t.Errorf("info = %+v, want %+v", got, tt.wantRaw)
			}
		})
	}
}
