package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tachyon/internal/diag"
	"tachyon/internal/exec"
	"tachyon/internal/ir"
	"tachyon/internal/linker"
	"tachyon/internal/speculate"
	"tachyon/internal/trace"
	"tachyon/internal/value"
)

// ErrNotStarted is returned by operations that need a started runtime.
var ErrNotStarted = errors.New("engine: runtime not started")

// Runtime is one isolated engine instance.
type Runtime struct {
	id      uuid.UUID
	cfg     Config
	log     zerolog.Logger
	tracer  trace.Tracer
	store   *speculate.Store
	disk    *speculate.DiskStore
	ctrl    *speculate.Controller
	linker  *linker.Linker
	facts   *linker.FactsCache
	globals *value.Object

	ctx     context.Context
	started atomic.Bool

	mu        sync.RWMutex
	templates map[string]*template

	evMu     sync.RWMutex
	evClosed bool
	events   chan Event
	dropped  atomic.Uint64

	invocations atomic.Uint64
	restarts    atomic.Uint64
}

// New creates a runtime. It does nothing observable until Start.
func New(cfg Config) (*Runtime, error) {
	cfg = cfg.withDefaults()
	rt := &Runtime{
		id:        uuid.New(),
		cfg:       cfg,
		tracer:    cfg.Tracer,
		store:     speculate.NewStore(),
		facts:     linker.NewFactsCache(),
		globals:   value.NewObject(nil),
		templates: make(map[string]*template),
		events:    make(chan Event, cfg.EventBuffer),
		ctx:       context.Background(),
	}
	rt.globals.SetClassName("Global")
	rt.log = cfg.Logger.With().Str("runtime", rt.id.String()).Logger()
	rt.linker = linker.New(linker.Options{
		ChainBound: cfg.ChainBound,
		Facts:      rt.facts,
		Logger:     rt.log,
		Tracer:     cfg.Tracer,
		Reporter:   cfg.Reporter,
	})
	rt.ctrl = speculate.NewController(rt.store, speculate.RecompilerFunc(rt.recompile), rt.log)
	rt.ctrl.OnDeopt(func(d speculate.Deopt) {
		rt.emit(Event{Kind: EventDeopt, Key: d.Key, Generation: d.Next, Detail: d.String()})
	})
	if cfg.PersistDir != "" {
		disk, err := speculate.OpenDiskStore(cfg.PersistDir)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		rt.disk = disk
	}
	return rt, nil
}

// Start makes the runtime usable. ctx carries the tracer and is used for
// recompilations triggered from inside script calls.
func (rt *Runtime) Start(ctx context.Context) error {
	if !rt.started.CompareAndSwap(false, true) {
		return errors.New("engine: runtime already started")
	}
	if err := rt.facts.Start(); err != nil {
		return err
	}
	rt.ctx = trace.WithTracer(ctx, rt.tracer)
	trace.Point(rt.tracer, trace.ScopeEngine, "start", rt.id.String())
	rt.log.Info().Bool("lazy", rt.cfg.Lazy).Int("chain_bound", rt.cfg.ChainBound).Msg("runtime started")
	return nil
}

// Shutdown persists speculation snapshots (when a persist directory is
// configured), releases the facts cache and closes the event stream.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	if !rt.started.CompareAndSwap(true, false) {
		return nil
	}
	var errs []error
	if rt.disk != nil {
		rt.mu.RLock()
		for id, t := range rt.templates {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				break
			}
			if len(rt.store.KeysOf(id)) == 0 {
				continue
			}
			if err := rt.disk.Save(rt.store, id, t.digest, rt.id.String()); err != nil {
				diag.ReportWarning(rt.cfg.Reporter, diag.SpeculationPersist, t.fn.Span(), err.Error()).Emit()
				errs = append(errs, err)
			}
		}
		rt.mu.RUnlock()
	}
	rt.facts.Shutdown()
	rt.evMu.Lock()
	if !rt.evClosed {
		rt.evClosed = true
		close(rt.events)
	}
	rt.evMu.Unlock()
	trace.Point(rt.tracer, trace.ScopeEngine, "shutdown", rt.id.String())
	rt.log.Info().
		Uint64("invocations", rt.invocations.Load()).
		Uint64("restarts", rt.restarts.Load()).
		Uint64("dropped_events", rt.dropped.Load()).
		Msg("runtime stopped")
	return errors.Join(errs...)
}

func (rt *Runtime) ID() uuid.UUID { return rt.id }

func (rt *Runtime) Store() *speculate.Store { return rt.store }

func (rt *Runtime) Controller() *speculate.Controller { return rt.ctrl }

// Deopts returns the recent deoptimizations, oldest first.
func (rt *Runtime) Deopts() []speculate.Deopt { return rt.ctrl.History() }

// Stats reports invocation and restart counts.
func (rt *Runtime) Stats() (invocations, restarts uint64) {
	return rt.invocations.Load(), rt.restarts.Load()
}

// Global reads a global binding.
func (rt *Runtime) Global(name string) value.Value {
	return rt.globals.Get(name)
}

// SetGlobal defines or overwrites a global binding.
func (rt *Runtime) SetGlobal(name string, v value.Value) {
	rt.globals.Put(nil, name, v)
}

// DefineNative installs a Go function as a global. Natives that touch the
// outside world should schedule that work with j.Defer so it only happens
// once the invocation commits.
func (rt *Runtime) DefineNative(name string, arity int, fn value.NativeFunc) *value.Function {
	f := value.NewNative(name, arity, fn)
	rt.SetGlobal(name, f)
	return f
}

// exec.Host

func (rt *Runtime) Linker() *linker.Linker { return rt.linker }

func (rt *Runtime) Globals() *value.Object { return rt.globals }

func (rt *Runtime) Overrides() map[string]value.Value { return rt.cfg.Overrides }

// Closure creates the function value for a literal evaluated in env.
func (rt *Runtime) Closure(fn *ir.Function, env *value.Object) *value.Function {
	t := rt.lookupOrRegister(fn)
	return value.NewFunction(fn.Name, fn.Arity(), &closure{rt: rt, tmpl: t, env: env})
}

var _ exec.Host = (*Runtime)(nil)
