// Package buildinfo provides build version and metadata information.
package buildinfo

import "strings"

// Version metadata is injected at build time via ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Summary returns a human-readable version summary string.
func Summary() string {
	version := Version
	if version == "" {
		version = "dev"
	}

	var extra []string
	if Commit != "" {
		extra = append(extra, Commit)
	}
	if Date != "" {
		extra = append(extra, Date)
	}
	if len(extra) == 0 {
		return version
	}
	return version + " (" + strings.Join(extra, " ") + ")"
}
