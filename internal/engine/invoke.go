package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"tachyon/internal/diag"
	"tachyon/internal/exec"
	"tachyon/internal/linker"
	"tachyon/internal/observ"
	"tachyon/internal/source"
	"tachyon/internal/speculate"
	"tachyon/internal/trace"
	"tachyon/internal/value"
)

// closure is the Callable behind every script function value.
type closure struct {
	rt   *Runtime
	tmpl *template
	env  *value.Object
}

func (c *closure) Call(j *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
	return c.rt.invoke(c.rt.ctx, j, c.tmpl, c.env, this, args)
}

// invoke runs one invocation. Each attempt writes through a child journal;
// a failed speculation rolls the attempt back, widens the store, and starts
// over on the generation the controller hands out. An attempt that has
// called into Go cannot be rolled back: it runs to the end on the values it
// computed, and its failures only widen the store for later invocations.
func (rt *Runtime) invoke(ctx context.Context, j *value.Journal, t *template, env *value.Object, this value.Value, args []value.Value) (value.Value, error) {
	rt.invocations.Add(1)
	key := speculate.FunctionKey{Function: t.fn.ID, Context: speculate.ArityContext(len(args), t.fn.Arity())}
	code, err := rt.code(ctx, t, key)
	if err != nil {
		return nil, err
	}
	bound := speculate.RestartBound(code.Points)
	for restarts := 0; ; restarts++ {
		attempt := j.Begin()
		v, misses, err := code.Attempt(attempt, env, this, args)
		sig, ok := speculate.AsSignal(err)
		if !ok {
			// Script errors keep the effects that preceded them.
			attempt.Commit()
			if len(misses) > 0 {
				rt.absorb(ctx, t, key, misses)
			}
			return v, err
		}
		attempt.Rollback()
		if restarts >= bound {
			derr := &speculate.DivergedError{Key: key, Restarts: restarts}
			diag.ReportError(rt.cfg.Reporter, diag.SpeculationDiverged, t.fn.Span(), derr.Error()).Emit()
			rt.emit(Event{Kind: EventDiverged, Key: key, Generation: code.Generation, Detail: derr.Error()})
			return nil, derr
		}
		next, err := rt.ctrl.Handle(ctx, sig)
		if err != nil {
			return nil, err
		}
		if code = rt.Generation(key); code == nil || code.Generation < next {
			err := fmt.Errorf("engine: generation %d of %s vanished", next, key)
			diag.ReportError(rt.cfg.Reporter, diag.InternalError, t.fn.Span(), err.Error()).Emit()
			return nil, err
		}
		rt.restarts.Add(1)
		observ.RecordRestart()
		trace.Point(rt.tracer, trace.ScopeFunction, "restart", fmt.Sprintf("%s on generation %d", key, code.Generation))
		rt.emit(Event{Kind: EventRestart, Key: key, Generation: code.Generation})
	}
}

// absorb widens the points an irreversible attempt ran past. The attempt's
// result stands, so a failed recompilation is logged rather than returned.
func (rt *Runtime) absorb(ctx context.Context, t *template, key speculate.FunctionKey, misses []*speculate.Signal) {
	next, err := rt.ctrl.HandleAll(ctx, misses)
	if err != nil {
		rt.log.Warn().Err(err).Str("fn", key.String()).Msg("widening after irreversible attempt failed")
		return
	}
	msg := fmt.Sprintf("%s kept its result past %d failed checks; later calls use generation %d", key, len(misses), next)
	diag.ReportInfo(rt.cfg.Reporter, diag.SpeculationInfo, t.fn.Span(), msg).Emit()
	trace.Point(rt.tracer, trace.ScopeFunction, "absorb", msg)
}

// surface reports link failures that escape to the host.
func (rt *Runtime) surface(err error, sp source.Span) error {
	if errors.Is(err, linker.ErrNoResolver) {
		diag.ReportError(rt.cfg.Reporter, diag.LinkResolutionFailure, sp, err.Error()).Emit()
	}
	return err
}

// Run executes a loaded program in the global scope and commits its
// effects.
func (rt *Runtime) Run(ctx context.Context, p *Program) (value.Value, error) {
	if !rt.started.Load() {
		return nil, ErrNotStarted
	}
	ctx, span := trace.Start(trace.WithTracer(ctx, rt.tracer), trace.ScopeEngine, "run:"+p.root.fn.ID)
	defer span.End("")
	j := value.NewJournal()
	v, err := rt.invoke(ctx, j, p.root, rt.globals, value.Undefined, nil)
	j.Commit()
	return v, rt.surface(err, p.root.fn.Span())
}

// Call invokes a function value from the host with its own journal.
func (rt *Runtime) Call(ctx context.Context, fn value.Value, args ...value.Value) (value.Value, error) {
	if !rt.started.Load() {
		return nil, ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, ok := fn.(*value.Function)
	if !ok {
		return nil, fmt.Errorf("engine: %s is not a function", value.Describe(fn))
	}
	j := value.NewJournal()
	v, err := f.Call(j, value.Undefined, args)
	j.Commit()
	var sp source.Span
	if c, ok := f.Impl().(*closure); ok {
		sp = c.tmpl.fn.Span()
	}
	return v, rt.surface(err, sp)
}

// CallGlobal calls the global function name.
func (rt *Runtime) CallGlobal(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return rt.Call(ctx, rt.Global(name), args...)
}

func sortCodes(cs []*exec.Code) {
	slices.SortFunc(cs, func(a, b *exec.Code) int {
		if c := strings.Compare(a.Key.Function, b.Key.Function); c != 0 {
			return c
		}
		return strings.Compare(a.Key.Context, b.Key.Context)
	})
}
