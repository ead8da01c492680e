package engine

import (
	"runtime"

	"github.com/rs/zerolog"

	"tachyon/internal/codegen"
	"tachyon/internal/diag"
	"tachyon/internal/linker"
	"tachyon/internal/trace"
	"tachyon/internal/value"
)

// Config configures a Runtime.
type Config struct {
	// Lazy compiles a function the first time it is invoked. When false,
	// Load compiles every function of the program up front.
	Lazy bool
	// PointLimit caps program points per function.
	PointLimit int
	// Jobs bounds parallel compilation at Load; 0 means GOMAXPROCS.
	Jobs int
	// ChainBound is the polymorphism limit of call sites.
	ChainBound int
	// PersistDir, when set, keeps speculation snapshots across runs.
	PersistDir string
	// Overrides are passed to every host class construction.
	Overrides map[string]value.Value
	// EventBuffer is the capacity of the Events channel.
	EventBuffer int

	Logger   zerolog.Logger
	Tracer   trace.Tracer
	Reporter diag.Reporter
}

// DefaultConfig returns the configuration New uses for zero fields.
func DefaultConfig() Config {
	return Config{
		Lazy:        true,
		PointLimit:  codegen.DefaultPointLimit,
		Jobs:        runtime.GOMAXPROCS(0),
		ChainBound:  linker.DefaultChainBound,
		EventBuffer: 256,
		Logger:      zerolog.Nop(),
		Tracer:      trace.Nop,
		Reporter:    diag.Nop,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PointLimit <= 0 {
		c.PointLimit = def.PointLimit
	}
	if c.Jobs <= 0 {
		c.Jobs = def.Jobs
	}
	if c.ChainBound <= 0 {
		c.ChainBound = def.ChainBound
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = def.EventBuffer
	}
	if c.Tracer == nil {
		c.Tracer = def.Tracer
	}
	if c.Reporter == nil {
		c.Reporter = def.Reporter
	}
	return c
}
