// Package buildinfo carries the version stamped in with
//
//	-ldflags "-X badge/internal/buildinfo.Version=v1.2.0 -X badge/internal/buildinfo.Commit=abc123 -X badge/internal/buildinfo.Date=2026-01-02"
package buildinfo

import "strings"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for the splash screen and logs.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return shortCommit(Commit)
	}
	return "dev"
}

// Line is the full build description, e.g. "v1.2.0 abc1234 2026-01-02".
// Unknown parts are left out.
func Line() string {
	parts := []string{Version}
	if Version == "" {
		parts[0] = "dev"
	}
	if Commit != "" && Commit != "unknown" {
		parts = append(parts, shortCommit(Commit))
	}
	if Date != "" && Date != "unknown" {
		parts = append(parts, Date)
	}
	return strings.Join(parts, " ")
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
