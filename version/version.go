// Package version carries the build identity of the structix binary.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/teranos/structix/version.VersionTag=...".
var (
	// VersionTag is the semantic version. Format plugins check their
	// Requires constraint against it, so it must stay valid semver.
	VersionTag = "0.1.0"

	CommitHash = "dev"

	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the build information of this binary.
func Get() Info {
	return Info{
		Version:    VersionTag,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns "structix 0.1.0 (commit abc1234, built ...)".
func (i Info) String() string {
	return fmt.Sprintf("structix %s (commit %s, built %s)", i.Version, i.Short(), i.BuildTime)
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
