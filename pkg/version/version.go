// Package version provides build and version information for storyseek.
package version

import (
	"fmt"
	"runtime"
)

// Version is set via ldflags at build time, defaulting to dev:
// -X github.com/storyseek/storyseek/pkg/version.Version=v1.2.3
var Version = "dev"

var (
	// Commit is the git commit hash, set via ldflags.
	Commit = "unknown"

	// Date is the build date in RFC3339 format, set via ldflags.
	Date = "unknown"

	// GoVersion is the Go version used to build the binary.
	GoVersion = runtime.Version()
)

// String returns a formatted version string with all build info.
func String() string {
	return fmt.Sprintf("storyseek %s (commit: %s, built: %s, go: %s, platform: %s/%s)",
		Version, Commit, Date, GoVersion, runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version string.
func Short() string {
	return Version
}
