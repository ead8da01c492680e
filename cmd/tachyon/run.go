package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"tachyon/internal/engine"
	"tachyon/internal/exec"
	"tachyon/internal/observ"
	"tachyon/internal/scenario"
	"tachyon/internal/trace"
	"tachyon/internal/value"
)

var (
	runUI      string
	runEager   bool
	runPersist string
	runMetrics bool
	runSites   bool
)

func init() {
	runCmd.Flags().StringVar(&runUI, "ui", "off", "live progress view (auto|on|off)")
	runCmd.Flags().BoolVar(&runEager, "eager", false, "compile every function before running")
	runCmd.Flags().StringVar(&runPersist, "persist", "", "keep speculation snapshots in this directory")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "print engine metrics after the run")
	runCmd.Flags().BoolVar(&runSites, "sites", true, "print call-site states after the run")
}

var runCmd = &cobra.Command{
	Use:   "run <scenario>",
	Short: "Run a built-in scenario and report deoptimizations and call sites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := lookupScenario(args[0])
		if err != nil {
			return err
		}
		mode, err := readUIMode(runUI)
		if err != nil {
			return err
		}
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer sess.cleanup()

		cfg := sess.cfg
		if runEager {
			cfg.Lazy = false
		}
		if runPersist != "" {
			cfg.PersistDir = runPersist
		}
		rt, err := engine.New(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := rt.Start(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var results []scenario.Result
		if shouldUseTUI(mode) {
			// Program output would tear the view; collect it and print after.
			var buf bytes.Buffer
			results, err = runWithUI(ctx, rt, s, &buf)
			if err == nil {
				_, err = io.Copy(out, &buf)
			}
		} else {
			results, err = s.Run(ctx, rt, out)
			if serr := rt.Shutdown(context.WithoutCancel(ctx)); err == nil {
				err = serr
			}
		}
		if err != nil {
			if sess.tracer.Level() >= trace.LevelError {
				_ = trace.DumpRing(sess.tracer, cmd.ErrOrStderr(), trace.FormatText)
			}
			return err
		}

		report(out, rt, results)
		for _, d := range sess.diags.Items() {
			fmt.Fprintln(cmd.ErrOrStderr(), d.String())
		}
		if runMetrics {
			return dumpMetrics(out)
		}
		return nil
	},
}

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed, color.Bold)
	headColor = color.New(color.Bold)
)

func report(out io.Writer, rt *engine.Runtime, results []scenario.Result) {
	headColor.Fprintln(out, "results")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "  %-28s %s\n", r.Label, errColor.Sprint(describeError(r.Err)))
			continue
		}
		fmt.Fprintf(out, "  %-28s %s\n", r.Label, okColor.Sprint(value.Describe(r.Value)))
	}

	deopts := rt.Deopts()
	headColor.Fprintf(out, "deoptimizations (%d)\n", len(deopts))
	for _, d := range deopts {
		fmt.Fprintf(out, "  %s\n", d)
	}

	invocations, restarts := rt.Stats()
	fmt.Fprintf(out, "%s invocations, %s restarts\n", humanize.Comma(int64(invocations)), humanize.Comma(int64(restarts)))

	if !runSites {
		return
	}
	headColor.Fprintln(out, "call sites")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  FUNCTION\tGEN\tSITE\tSTATE\tCHAIN\tHITS\tMISSES\tRELINKS")
	for _, code := range rt.Compiled() {
		for _, site := range code.Sites() {
			st := site.Stats
			fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
				code.Key, code.Generation, site.Desc, st.State, st.Chain,
				humanize.Comma(int64(st.Hits)), humanize.Comma(int64(st.Misses)), humanize.Comma(int64(st.Relinks)))
		}
	}
	_ = tw.Flush()
}

func describeError(err error) string {
	if th := exec.ThrownValue(err); th != nil {
		if o, ok := th.(*value.Object); ok && o.Has("message") {
			return fmt.Sprintf("%s: %s", value.ToString(o.Get("name")), value.ToString(o.Get("message")))
		}
	}
	return err.Error()
}

func dumpMetrics(out io.Writer) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(observ.Collectors()...)
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(out, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

