package exec

import (
	"errors"
	"fmt"

	"tachyon/internal/ir"
	"tachyon/internal/linker"
	"tachyon/internal/source"
	"tachyon/internal/speculate"
	"tachyon/internal/value"
)

// Host is what generated code needs from the runtime it runs in.
type Host interface {
	Linker() *linker.Linker
	// Globals is the outermost scope object.
	Globals() *value.Object
	// Closure creates the function value for a nested literal capturing env.
	Closure(fn *ir.Function, env *value.Object) *value.Function
	// Overrides are the construct-time overrides given to CONSTRUCT sites.
	Overrides() map[string]value.Value
}

type (
	evalFn func(f *frame) (value.Value, error)
	execFn func(f *frame) (completion, value.Value, error)
)

type completion uint8

const (
	normal completion = iota
	returned
	broke
	continued
)

// Code is one generation of one function in one calling context.
type Code struct {
	Key        speculate.FunctionKey
	Generation uint64
	Func       *ir.Function
	// Points is the number of program points the generation carries.
	Points int

	host      Host
	body      execFn
	nlocals   int
	params    []binder
	rest      binder
	scopeVars []string
	sites     []*linker.CallSite
}

type frame struct {
	code   *Code
	j      *Journal
	locals []value.Value
	scope  *value.Object
	this   value.Value
	// misses are the failed checks let through after j became
	// irreversible, first failure per point.
	misses []*speculate.Signal
}

// Generate builds the closures for an annotated function.
func Generate(host Host, key speculate.FunctionKey, gen uint64, fn *ir.Function, points int) (*Code, error) {
	if fn == nil || fn.Body == nil {
		return nil, errors.New("exec: function has no body")
	}
	c := &Code{Key: key, Generation: gen, Func: fn, Points: points, host: host}
	g := &generator{code: c, locals: make(map[*ir.Symbol]int), declared: make(map[string]bool)}
	params := fn.Params
	if fn.VarArg && len(params) > 0 {
		c.rest = g.binder(params[len(params)-1])
		params = params[:len(params)-1]
	}
	for _, p := range params {
		c.params = append(c.params, g.binder(p))
	}
	c.body = g.block(fn.Body)
	if g.err != nil {
		return nil, fmt.Errorf("generate %s: %w", fn.ID, g.err)
	}
	c.nlocals = len(g.locals)
	c.scopeVars = g.scopeVars
	return c, nil
}

// Run executes one attempt. env is the scope the closure captured; program
// code runs directly in it, functions get a fresh activation scope on top.
func (c *Code) Run(j *Journal, env *value.Object, this value.Value, args []value.Value) (value.Value, error) {
	v, _, err := c.Attempt(j, env, this, args)
	return v, err
}

// Attempt is Run that also returns the checks that failed after j was marked
// irreversible. Such a failure cannot abandon the attempt, so the value the
// operation computed is used as is and the failure is reported instead.
func (c *Code) Attempt(j *Journal, env *value.Object, this value.Value, args []value.Value) (value.Value, []*speculate.Signal, error) {
	f := &frame{code: c, j: j, locals: make([]value.Value, c.nlocals), scope: env, this: this}
	v, err := c.run(f, env, args)
	return v, f.misses, err
}

func (c *Code) run(f *frame, env *value.Object, args []value.Value) (value.Value, error) {
	j := f.j
	for i := range f.locals {
		f.locals[i] = value.Undefined
	}
	if c.Func.IsProgram {
		for _, name := range c.scopeVars {
			if !env.Has(name) {
				env.Put(j, name, value.Undefined)
			}
		}
	} else if len(c.scopeVars) > 0 {
		f.scope = value.NewObject(env)
		f.scope.SetClassName("Scope")
		for _, name := range c.scopeVars {
			f.scope.Put(nil, name, value.Undefined)
		}
	}
	for i, p := range c.params {
		if err := p(f, value.Arg(args, i)); err != nil {
			return nil, err
		}
	}
	if c.rest != nil {
		var extra []value.Value
		if len(args) > len(c.params) {
			extra = args[len(c.params):]
		}
		if err := c.rest(f, value.NewArray(extra...)); err != nil {
			return nil, err
		}
	}
	ctl, v, err := c.body(f)
	if err != nil {
		return nil, err
	}
	if ctl == returned {
		return v, nil
	}
	return value.Undefined, nil
}

// SiteInfo describes one call site of a generation.
type SiteInfo struct {
	Desc  linker.Descriptor
	Stats linker.SiteStats
}

// Sites reports every call site, in creation order.
func (c *Code) Sites() []SiteInfo {
	out := make([]SiteInfo, len(c.sites))
	for i, s := range c.sites {
		out[i] = SiteInfo{Desc: s.Descriptor(), Stats: s.Stats()}
	}
	return out
}

func (c *Code) newSite(d linker.Descriptor, sp source.Span) *linker.CallSite {
	opts := []linker.SiteOption{linker.WithSpan(sp)}
	if d.Op == linker.OpConstruct {
		if ov := c.host.Overrides(); len(ov) > 0 {
			opts = append(opts, linker.WithOverrides(ov))
		}
	}
	s := c.host.Linker().NewSite(d, opts...)
	c.sites = append(c.sites, s)
	return s
}
