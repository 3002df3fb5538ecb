// Package contracts holds identifiers shared between the gapminder binary
// and its API consumers.
package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Version of the gapminder binary.
	Version = "0.3.0"

	// DataFormatVersion changes whenever the canonical column set or its
	// order changes.
	DataFormatVersion = "v1"

	APIVersion = "v1"
)

// GitCommit may be overridden with -ldflags; otherwise the VCS revision
// recorded by the Go toolchain is used.
var GitCommit = ""

// VersionInfo is served by GET /api/version.
type VersionInfo struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit"`
	Modified   bool   `json:"modified,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	DataFormat string `json:"data_format"`
	APIVersion string `json:"api_version"`
}

// GetVersionInfo describes the running binary.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:    Version,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		DataFormat: DataFormatVersion,
		APIVersion: APIVersion,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	return info
}

// String renders the version for `gapminder --version`.
func (v VersionInfo) String() string {
	commit := v.GitCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if v.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit %s, data format %s, %s %s)", v.Version, commit, v.DataFormat, v.GoVersion, v.Platform)
}
