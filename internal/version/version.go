// Package version exposes build identification set via ldflags.
package version

import "fmt"

// Set at build time with -ldflags "-X ...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String renders the build identification on one line.
func String() string {
	return fmt.Sprintf("textsift %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
