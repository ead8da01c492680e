package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tachyon/internal/scenario"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in scenarios",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range scenario.Names() {
			s, _ := scenario.Lookup(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, s.Summary)
		}
	},
}

func lookupScenario(name string) (*scenario.Scenario, error) {
	s, ok := scenario.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (try: tachyon list)", name)
	}
	return s, nil
}
