package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tachyon/internal/speculate"
)

var storeVerbose bool

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect persisted speculation snapshots",
}

var storeDumpCmd = &cobra.Command{
	Use:   "dump <dir>",
	Short: "List the snapshots in a persist directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, err := speculate.OpenDiskStore(args[0])
		if err != nil {
			return err
		}
		snaps, err := disk.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(snaps) == 0 {
			fmt.Fprintf(out, "no snapshots in %s\n", disk.Dir())
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FUNCTION\tDIGEST\tCONTEXTS\tPOINTS\tWRITTEN")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%s\t%.12s\t%d\t%d\t%s\n", s.Function, s.Digest, len(s.Contexts), s.PointCount(), humanize.Time(s.Written))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if !storeVerbose {
			return nil
		}
		for _, s := range snaps {
			fmt.Fprintf(out, "\n%s (writer %s)\n", s.Function, s.Writer)
			for _, c := range s.Contexts {
				for _, p := range c.Points {
					fmt.Fprintf(out, "  %-8s pp=%-4d %s\n", c.Context, p.Point, p.Type)
				}
			}
		}
		return nil
	},
}

func init() {
	storeDumpCmd.Flags().BoolVarP(&storeVerbose, "verbose", "v", false, "list every persisted point")
	storeCmd.AddCommand(storeDumpCmd)
}
