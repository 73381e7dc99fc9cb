// Package version provides build and version information.
package version

import "fmt"

// Version is overridden at build time with
// -ldflags "-X github.com/litescript/magnet-finder/internal/version.Version=..."
var Version = "0.1.0"

// Commit is the VCS revision, set the same way as Version.
var Commit = ""

// String returns the one-line version banner.
func String() string {
	if Commit == "" {
		return fmt.Sprintf("magnet-finder v%s", Version)
	}
	return fmt.Sprintf("magnet-finder v%s (%s)", Version, Commit)
}

// UserAgent identifies the HTTP API in responses.
func UserAgent() string {
	return "magnet-finder/" + Version
}
