// Package version carries build metadata for the tachyon CLI. The plain
// variables can be overridden at build time via -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of the engine.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgMagenta, color.Bold)
	minorColor = color.New(color.FgCyan, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each component in its own color. Anything
// after the patch number is left plain.
func Colored() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}

// Short is "tachyon <version>" plus the abbreviated commit when known.
func Short() string {
	s := "tachyon " + Version
	if c := strings.TrimSpace(GitCommit); c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		s += " (" + c + ")"
	}
	return s
}
