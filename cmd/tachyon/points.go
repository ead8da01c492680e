package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tachyon/internal/codegen"
	"tachyon/internal/ir"
)

var pointsLazy bool

func init() {
	pointsCmd.Flags().BoolVar(&pointsLazy, "lazy", false, "annotate only the top-level function")
}

var pointsCmd = &cobra.Command{
	Use:   "points <scenario>",
	Short: "Print a scenario's tree with program points and optimistic types",
	Long: `Prints the tree after the program-point and optimistic-type passes.
Optimistic nodes are suffixed with @point:type; points that can never be
optimistic carry a trailing "!".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := lookupScenario(args[0])
		if err != nil {
			return err
		}
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.cleanup()

		unit, err := codegen.Compile(cmd.Context(), s.Program(), codegen.NoAssumptions, codegen.Options{
			Lazy:       pointsLazy,
			PointLimit: sess.cfg.PointLimit,
			Reporter:   sess.cfg.Reporter,
		})
		if err != nil {
			return err
		}
		never := func(function string, pp ir.ProgramPoint) bool {
			info, ok := unit.Functions[function]
			return ok && info.Never.Has(pp)
		}
		out := cmd.OutOrStdout()
		if err := ir.Dump(out, unit.Root, ir.DumpOptions{Never: never}); err != nil {
			return err
		}
		for _, p := range unit.Timings {
			fmt.Fprintf(cmd.ErrOrStderr(), "%-20s %v\n", p.Name, p.Dur)
		}
		return nil
	},
}
