package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tachyon/internal/config"
	"tachyon/internal/diag"
	"tachyon/internal/engine"
	"tachyon/internal/observ"
	"tachyon/internal/prof"
	"tachyon/internal/trace"
)

// session is everything a command needs to build a runtime.
type session struct {
	file     *config.File
	cfg      engine.Config
	tracer   trace.Tracer
	diags    *diag.Bag
	cleanup  func()
}

// newSession loads the configuration, applies flag overrides and sets up
// profiling, logging and tracing.
func newSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level, err := file.LogLevel()
	if err != nil {
		return nil, err
	}
	if s, _ := flags.GetString("log-level"); s != "" {
		if level, err = zerolog.ParseLevel(s); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
	}

	profiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	tracer, stopTracing, err := setupTracing(cmd, file)
	if err != nil {
		_ = profiling.Stop()
		return nil, err
	}
	cleanup := func() {
		stopTracing()
		if err := profiling.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}

	bag := diag.NewBag(100)
	cfg := file.Apply(engine.DefaultConfig())
	cfg.Logger = observ.NewLogger(os.Stderr, "tachyon", level)
	cfg.Tracer = tracer
	cfg.Reporter = diag.NewDedupReporter(&diag.BagReporter{Bag: bag})
	observ.RegisterMetrics()
	return &session{file: file, cfg: cfg, tracer: tracer, diags: bag, cleanup: cleanup}, nil
}

func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	opts.CPU, _ = flags.GetString("cpu-profile")
	opts.Heap, _ = flags.GetString("mem-profile")
	opts.Trace, _ = flags.GetString("exec-trace")
	if !opts.Enabled() {
		return nil, nil
	}
	return prof.Start(opts)
}

// setupTracing overlays the trace flags onto [trace] and creates the tracer.
func setupTracing(cmd *cobra.Command, file *config.File) (trace.Tracer, func(), error) {
	flags := cmd.Root().PersistentFlags()
	tc, err := file.TraceConfig()
	if err != nil {
		return nil, nil, err
	}
	if s, _ := flags.GetString("trace"); s != "" {
		tc.OutputPath = s
		if tc.Level == trace.LevelOff {
			tc.Level = trace.LevelPhase
		}
	}
	if s, _ := flags.GetString("trace-level"); s != "" {
		if tc.Level, err = trace.ParseLevel(s); err != nil {
			return nil, nil, err
		}
	}
	if s, _ := flags.GetString("trace-mode"); s != "" {
		if tc.Mode, err = trace.ParseMode(s); err != nil {
			return nil, nil, err
		}
	}
	tracer, err := trace.New(tc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var heartbeat *trace.Heartbeat
	if d, _ := flags.GetDuration("trace-heartbeat"); d > 0 && tracer.Enabled() {
		heartbeat = trace.StartHeartbeat(tracer, d)
	}
	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}
