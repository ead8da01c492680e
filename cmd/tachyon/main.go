package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tachyon/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "tachyon",
	Short:         "Speculative typing and inline-cache engine",
	Long:          `tachyon runs demonstration programs on an engine that compiles functions under optimistic type assumptions and deoptimizes them when those assumptions fail.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pointsCmd)
	rootCmd.AddCommand(storeCmd)

	rootCmd.PersistentFlags().String("config", "", "path to tachyon.toml (default ./tachyon.toml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace|debug|info|warn|error), overrides [log].level")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr), overrides [trace].output")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "", "trace storage mode (stream|ring|both)")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit trace heartbeats at this interval")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("exec-trace", "", "write a Go execution trace to this file")

}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
