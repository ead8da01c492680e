package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"tachyon/internal/codegen"
	"tachyon/internal/diag"
	"tachyon/internal/exec"
	"tachyon/internal/ir"
	"tachyon/internal/observ"
	"tachyon/internal/speculate"
	"tachyon/internal/trace"
)

// template is a loaded function literal and its compiled generations, one
// per calling context.
type template struct {
	fn     *ir.Function
	digest speculate.Digest

	mu       sync.Mutex
	current  map[string]*exec.Code
	compiles int
}

// Program is a loaded top-level function.
type Program struct {
	rt   *Runtime
	root *template
}

// Root returns the program's tree.
func (p *Program) Root() *ir.Function { return p.root.fn }

// Load registers prog and every function literal nested in it. Snapshots
// persisted for the same source digest are restored into the store. In
// eager mode every function is compiled before Load returns.
func (rt *Runtime) Load(ctx context.Context, prog *ir.Function) (*Program, error) {
	if !rt.started.Load() {
		return nil, ErrNotStarted
	}
	if prog == nil || prog.Body == nil {
		return nil, fmt.Errorf("engine: program has no body")
	}
	ctx, span := trace.Start(trace.WithTracer(ctx, rt.tracer), trace.ScopeEngine, "load:"+prog.ID)
	defer span.End("")

	var fns []*ir.Function
	var walk func(fn *ir.Function)
	walk = func(fn *ir.Function) {
		fns = append(fns, fn)
		for _, nested := range ir.NestedFunctions(fn) {
			walk(nested)
		}
	}
	walk(prog)

	tmpls := make([]*template, 0, len(fns))
	for _, fn := range fns {
		t, err := rt.register(fn)
		if err != nil {
			diag.ReportError(rt.cfg.Reporter, diag.CompileInvalidTree, fn.Span(), err.Error()).Emit()
			return nil, err
		}
		tmpls = append(tmpls, t)
	}

	if !rt.cfg.Lazy {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(rt.cfg.Jobs, len(tmpls)))
		for _, t := range tmpls {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				key := speculate.FunctionKey{Function: t.fn.ID, Context: speculate.ArityContext(t.fn.Arity(), t.fn.Arity())}
				_, err := rt.code(gctx, t, key)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return &Program{rt: rt, root: tmpls[0]}, nil
}

func (rt *Runtime) register(fn *ir.Function) (*template, error) {
	if fn.ID == "" {
		return nil, fmt.Errorf("engine: function %q has no id", fn.Name)
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if t, ok := rt.templates[fn.ID]; ok {
		if t.fn != fn {
			return nil, fmt.Errorf("engine: duplicate function id %q", fn.ID)
		}
		return t, nil
	}
	digest, err := speculate.DigestOf(fn)
	if err != nil {
		return nil, err
	}
	t := &template{fn: fn, digest: digest, current: make(map[string]*exec.Code)}
	if rt.disk != nil {
		n, err := rt.disk.Load(rt.store, fn.ID, digest)
		if err != nil {
			rt.log.Warn().Err(err).Str("fn", fn.ID).Msg("ignoring unreadable speculation snapshot")
			diag.ReportWarning(rt.cfg.Reporter, diag.SpeculationPersist, fn.Span(), err.Error()).Emit()
		} else if n > 0 {
			rt.log.Debug().Str("fn", fn.ID).Int("points", n).Msg("restored speculation snapshot")
		}
	}
	rt.templates[fn.ID] = t
	return t, nil
}

// lookupOrRegister finds the template for a literal met at run time. Loaded
// programs have all their literals registered already.
func (rt *Runtime) lookupOrRegister(fn *ir.Function) *template {
	rt.mu.RLock()
	t, ok := rt.templates[fn.ID]
	rt.mu.RUnlock()
	if ok {
		return t
	}
	t, err := rt.register(fn)
	if err != nil {
		rt.log.Error().Err(err).Msg("registering function literal")
		return &template{fn: fn, current: make(map[string]*exec.Code)}
	}
	return t
}

// code returns the current generation for key, compiling the first one.
func (rt *Runtime) code(ctx context.Context, t *template, key speculate.FunctionKey) (*exec.Code, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c := t.current[key.Context]; c != nil {
		return c, nil
	}
	return rt.compileLocked(ctx, t, key, 1, "first-call")
}

// recompile implements speculate.Recompiler: a generation newer than the
// failed one is reused, otherwise the next one is compiled against the
// widened store.
func (rt *Runtime) recompile(ctx context.Context, key speculate.FunctionKey, failed uint64) (uint64, error) {
	rt.mu.RLock()
	t, ok := rt.templates[key.Function]
	rt.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("engine: unknown function %q", key.Function)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c := t.current[key.Context]; c != nil && c.Generation > failed {
		return c.Generation, nil
	}
	c, err := rt.compileLocked(ctx, t, key, failed+1, "deopt")
	if err != nil {
		return 0, err
	}
	return c.Generation, nil
}

func (rt *Runtime) compileLocked(ctx context.Context, t *template, key speculate.FunctionKey, gen uint64, trigger string) (*exec.Code, error) {
	unit, err := codegen.Compile(ctx, t.fn, rt.store.View(key.Context), codegen.Options{
		Lazy:       true,
		PointLimit: rt.cfg.PointLimit,
		Reporter:   rt.cfg.Reporter,
	})
	if err != nil {
		return nil, err
	}
	code, err := exec.Generate(rt, key, gen, unit.Root, unit.Info().Points)
	if err != nil {
		diag.ReportError(rt.cfg.Reporter, diag.CompileInvalidTree, t.fn.Span(), err.Error()).Emit()
		return nil, err
	}
	t.current[key.Context] = code
	t.compiles++
	observ.RecordCompile(trigger, unit.Timings)
	rt.emit(Event{Kind: EventCompiled, Key: key, Generation: gen, Detail: fmt.Sprintf("%d points (%s)", code.Points, trigger)})
	rt.log.Debug().
		Str("fn", key.String()).
		Uint64("generation", gen).
		Int("points", code.Points).
		Str("trigger", trigger).
		Msg("compiled")
	return code, nil
}

// Generation is the current generation of one function in one context, or
// nil before its first call.
func (rt *Runtime) Generation(key speculate.FunctionKey) *exec.Code {
	rt.mu.RLock()
	t, ok := rt.templates[key.Function]
	rt.mu.RUnlock()
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current[key.Context]
}

// Compiled lists the current generation of every compiled function and
// context, ordered by key.
func (rt *Runtime) Compiled() []*exec.Code {
	rt.mu.RLock()
	tmpls := make([]*template, 0, len(rt.templates))
	for _, t := range rt.templates {
		tmpls = append(tmpls, t)
	}
	rt.mu.RUnlock()
	var out []*exec.Code
	for _, t := range tmpls {
		t.mu.Lock()
		for _, c := range t.current {
			out = append(out, c)
		}
		t.mu.Unlock()
	}
	sortCodes(out)
	return out
}
