// Package version reports the build version of the streamcall binary.
//
// Version and Commit are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/streamcall/version.Version=v1.2.0"
//
// Missing values are filled in from the module build info.
package version

import (
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = ""
)

// Info is the build description served by /info and printed by --version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
}

var (
	buildOnce sync.Once
	buildInfo *debug.BuildInfo
)

// Get returns the build information.
func Get() Info {
	buildOnce.Do(func() {
		buildInfo, _ = debug.ReadBuildInfo()
	})
	return resolve(Version, Commit, buildInfo)
}

func resolve(ver, commit string, bi *debug.BuildInfo) Info {
	info := Info{Version: ver, Commit: commit, GoVersion: runtime.Version()}
	if bi == nil {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// String renders the info as "v1.2.0 (abc1234, dirty)".
func (i Info) String() string {
	s := i.Version
	switch {
	case i.Commit != "" && i.Modified:
		s += " (" + i.Commit + ", dirty)"
	case i.Commit != "":
		s += " (" + i.Commit + ")"
	}
	return s
}
