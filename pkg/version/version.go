// Package version carries the build identity stamped into the binary
// with -ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// GitCommit is the short hash of the built revision.
	GitCommit = "unknown"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Info is the version payload served on /version and printed by the
// -version flag.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo snapshots the stamped build identity plus the runtime's Go
// version and platform.
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// String returns the full one-line version description.
func (i Info) String() string {
	return fmt.Sprintf("Stillkeep %s (commit: %s, built: %s, go: %s, os/arch: %s/%s)",
		i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.OS, i.Arch)
}

// Short returns just the product name and release.
func (i Info) Short() string {
	return fmt.Sprintf("Stillkeep %s", i.Version)
}
