// Package buildinfo carries the version identity stamped into release
// binaries via -ldflags.
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("readygate %s (commit=%s, date=%s)", Version, Commit, Date)
}
