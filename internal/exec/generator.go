package exec

import (
	"fmt"

	"tachyon/internal/ir"
	"tachyon/internal/speculate"
	"tachyon/internal/types"
	"tachyon/internal/value"
)

// binder initialises a declared binding.
type binder func(f *frame, v value.Value) error

type generator struct {
	code      *Code
	locals    map[*ir.Symbol]int
	declared  map[string]bool
	scopeVars []string
	err       error
}

func (g *generator) fail(format string, args ...any) {
	if g.err == nil {
		g.err = fmt.Errorf(format, args...)
	}
}

func isLocal(sym *ir.Symbol) bool {
	return sym.Has(ir.SymLocal) && !sym.Has(ir.SymScope)
}

func (g *generator) slot(sym *ir.Symbol) int {
	if i, ok := g.locals[sym]; ok {
		return i
	}
	i := len(g.locals)
	g.locals[sym] = i
	return i
}

func (g *generator) declare(name string) {
	if !g.declared[name] {
		g.declared[name] = true
		g.scopeVars = append(g.scopeVars, name)
	}
}

// binder returns the initialiser for a declaration of id in this function.
func (g *generator) binder(id *ir.Ident) binder {
	if id == nil {
		return nil
	}
	if isLocal(id.Sym) {
		i := g.slot(id.Sym)
		return func(f *frame, v value.Value) error {
			f.locals[i] = v
			return nil
		}
	}
	name := id.Name
	g.declare(name)
	return func(f *frame, v value.Value) error {
		f.scope.Put(f.j, name, v)
		return nil
	}
}

// checker returns the type check n needs, or nil.
func (g *generator) checker(n ir.Optimistic) func(f *frame, v value.Value) error {
	pp := n.ProgramPoint()
	if !pp.IsValid() || !ir.NeedsCheck(n) {
		return nil
	}
	t := n.OptimisticType()
	return func(f *frame, v value.Value) error {
		if value.Fits(v, t) {
			return nil
		}
		sig := f.code.signal(pp, t, v)
		if !f.j.Irreversible() {
			return sig
		}
		f.miss(sig)
		return nil
	}
}

func (f *frame) miss(sig *speculate.Signal) {
	for _, m := range f.misses {
		if m.Point == sig.Point {
			return
		}
	}
	f.misses = append(f.misses, sig)
}

// checked wraps e with the type check its node needs, if any.
func (g *generator) checked(n ir.Optimistic, e evalFn) evalFn {
	check := g.checker(n)
	if check == nil {
		return e
	}
	return func(f *frame) (value.Value, error) {
		v, err := e(f)
		if err != nil {
			return nil, err
		}
		if err := check(f, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (c *Code) signal(pp ir.ProgramPoint, t types.Type, v value.Value) *speculate.Signal {
	return &speculate.Signal{Key: c.Key, Point: pp, Value: v, Assumed: t, Generation: c.Generation}
}

func (g *generator) loadIdent(id *ir.Ident) evalFn {
	if id.Sym == ir.ThisSymbol {
		return func(f *frame) (value.Value, error) { return f.this, nil }
	}
	if isLocal(id.Sym) {
		i := g.slot(id.Sym)
		return func(f *frame) (value.Value, error) { return f.locals[i], nil }
	}
	name := id.Name
	return func(f *frame) (value.Value, error) {
		if holder, i, ok := f.scope.Find(name); ok {
			return holder.Slot(i), nil
		}
		return nil, throwError("ReferenceError", "%s is not defined", name)
	}
}

func (g *generator) storeIdent(id *ir.Ident) func(f *frame, v value.Value) error {
	if id.Sym == ir.ThisSymbol {
		g.fail("cannot assign to this")
		return nil
	}
	if isLocal(id.Sym) {
		i := g.slot(id.Sym)
		return func(f *frame, v value.Value) error {
			f.locals[i] = v
			return nil
		}
	}
	name := id.Name
	return func(f *frame, v value.Value) error {
		if holder, i, ok := f.scope.Find(name); ok {
			holder.SetSlot(f.j, i, v)
			return nil
		}
		f.code.host.Globals().Put(f.j, name, v)
		return nil
	}
}
