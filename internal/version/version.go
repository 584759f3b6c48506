// Package version reports build information for nesemu
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	Modified  bool   `json:"modified"`
}

// GetBuildInfo returns detailed build information, filling gaps from the
// VCS stamp the Go toolchain embeds
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "unknown" {
					info.GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "unknown" {
					info.BuildTime = setting.Value
				}
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			}
		}
	}
	return info
}

// GetVersion returns a short version string
func GetVersion() string {
	return GetBuildInfo().Short()
}

// Short formats the version with an abbreviated commit for dev builds
func (b BuildInfo) Short() string {
	if b.Version != "dev" || b.GitCommit == "unknown" {
		return b.Version
	}
	commit := b.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if b.Modified {
		commit += "-dirty"
	}
	return "dev-" + commit
}

// String returns a one-line description of the build
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "nesemu %s", b.Short())
	if b.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, b.BuildTime); err == nil {
			fmt.Fprintf(&sb, " built %s", t.UTC().Format("2006-01-02 15:04"))
		} else {
			fmt.Fprintf(&sb, " built %s", b.BuildTime)
		}
	}
	fmt.Fprintf(&sb, " with %s for %s/%s", b.GoVersion, b.Platform, b.Arch)
	return sb.String()
}

// PrintBuildInfo writes the full build information
func PrintBuildInfo(w io.Writer) {
	info := GetBuildInfo()
	fmt.Fprintf(w, "nesemu - NES emulator\n")
	fmt.Fprintf(w, "Version:    %s\n", info.Short())
	fmt.Fprintf(w, "Git Commit: %s\n", info.GitCommit)
	fmt.Fprintf(w, "Build Time: %s\n", info.BuildTime)
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform:   %s/%s\n", info.Platform, info.Arch)
}
