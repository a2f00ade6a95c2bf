package config

import "runtime"

// Build metadata, overridden through -ldflags at release time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
}

func SetBuildFlags(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
}
