package version

import "fmt"

// Build metadata, stamped via ldflags by the release pipeline. Local builds
// fall back to the defaults below.
var (
	// Version is the semantic version of the wake-engine release.
	Version = "0.1.0"
	// Commit is the short hash of the git commit the binaries were built from.
	Commit = "none"
	// BuildTime is when the binaries were built, in UTC.
	BuildTime = "unknown"
)

// Short returns just the semantic version.
func Short() string {
	return Version
}

// Full renders the complete build fingerprint for CLI output and logs.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
}
