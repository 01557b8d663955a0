// Package version carries the build fingerprint shared by the three
// wake-engine binaries.
//
// Version, Commit and BuildTime are stamped via ldflags; Short and Full
// render them for the `version` subcommand and for startup logs.
package version
