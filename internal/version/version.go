// Package version exposes build-time version information.
package version

import "fmt"

// Set via -ldflags at release build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a single-line version string for CLI output and the health
// endpoint.
func Info() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
