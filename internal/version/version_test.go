package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestColoredKeepsText(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	orig := Version
	t.Cleanup(func() { Version = orig })
	tests := []struct{ in, want string }{
		{"0.3.0-dev", "0.3.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.2.3-rc.1+build.5", "1.2.3-rc.1+build.5"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		Version = tt.in
		if got := Colored(); got != tt.want {
			t.Errorf("Colored() with %q = %q", tt.in, got)
		}
	}
}

func TestShort(t *testing.T) {
	origV, origC := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origV, origC })

	Version, GitCommit = "1.0.0", ""
	if got := Short(); got != "tachyon 1.0.0" {
		t.Fatalf("Short() = %q", got)
	}
	GitCommit = "1234567890abcdef"
	if got := Short(); got != "tachyon 1.0.0 (1234567)" {
		t.Fatalf("Short() = %q", got)
	}
}
