package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("tachyon %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestRunReportsDeopt(t *testing.T) {
	t.Chdir(t.TempDir())
	out := execute(t, "run", "add", "--ui", "off")
	for _, want := range []string{"addOne(3.5)", "4.5", "deoptimizations (1)", "addOne/exact", "call sites"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output misses %q:\n%s", want, out)
		}
	}
}

func TestRunPersistsAndStoreDumps(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := filepath.Join(t.TempDir(), "spec")
	execute(t, "run", "add", "--ui", "off", "--persist", dir)
	out := execute(t, "store", "dump", dir)
	if !strings.Contains(out, "addOne") {
		t.Fatalf("store dump misses addOne:\n%s", out)
	}
}

func TestPointsMarksNeverOptimistic(t *testing.T) {
	t.Chdir(t.TempDir())
	out := execute(t, "points", "megamorphic")
	if !strings.Contains(out, "id=getX") || !strings.Contains(out, "!") {
		t.Fatalf("unexpected dump:\n%s", out)
	}
}

func TestConfigFileIsRead(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("tachyon.toml", []byte("[linker]\nchain_bound = -3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rootCmd.SetArgs([]string{"run", "add", "--ui", "off"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("invalid tachyon.toml accepted")
	}
}
