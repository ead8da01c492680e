package exec

import (
	"strconv"

	"tachyon/internal/ir"
	"tachyon/internal/value"
)

func (g *generator) block(b *ir.Block) execFn {
	if b == nil {
		return func(*frame) (completion, value.Value, error) { return normal, nil, nil }
	}
	stmts := make([]execFn, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		stmts = append(stmts, g.stmt(s))
	}
	return func(f *frame) (completion, value.Value, error) {
		for _, s := range stmts {
			ctl, v, err := s(f)
			if err != nil || ctl != normal {
				return ctl, v, err
			}
		}
		return normal, nil, nil
	}
}

func (g *generator) stmt(s ir.Stmt) execFn {
	switch s := s.(type) {
	case *ir.Block:
		return g.block(s)
	case *ir.VarStmt:
		return g.varStmt(s)
	case *ir.ExprStmt:
		x := g.expr(s.X)
		return func(f *frame) (completion, value.Value, error) {
			_, err := x(f)
			return normal, nil, err
		}
	case *ir.If:
		return g.ifStmt(s)
	case *ir.While:
		return g.while(s)
	case *ir.For:
		if s.Mode == ir.ForClassic {
			return g.forClassic(s)
		}
		return g.forEach(s)
	case *ir.Return:
		if s.Value == nil {
			return func(*frame) (completion, value.Value, error) { return returned, value.Undefined, nil }
		}
		x := g.expr(s.Value)
		return func(f *frame) (completion, value.Value, error) {
			v, err := x(f)
			return returned, v, err
		}
	case *ir.Break:
		return func(*frame) (completion, value.Value, error) { return broke, nil, nil }
	case *ir.Continue:
		return func(*frame) (completion, value.Value, error) { return continued, nil, nil }
	case *ir.Throw:
		x := g.expr(s.Value)
		return func(f *frame) (completion, value.Value, error) {
			v, err := x(f)
			if err != nil {
				return normal, nil, err
			}
			return normal, nil, &Thrown{Value: v}
		}
	case *ir.Try:
		return g.try(s)
	}
	g.fail("unsupported statement %T", s)
	return func(*frame) (completion, value.Value, error) { return normal, nil, nil }
}

func (g *generator) varStmt(s *ir.VarStmt) execFn {
	bind := g.binder(s.Name)
	if s.Init == nil {
		return func(*frame) (completion, value.Value, error) { return normal, nil, nil }
	}
	init := g.expr(s.Init)
	return func(f *frame) (completion, value.Value, error) {
		v, err := init(f)
		if err != nil {
			return normal, nil, err
		}
		return normal, nil, bind(f, v)
	}
}

func (g *generator) ifStmt(s *ir.If) execFn {
	test := g.expr(s.Test)
	then := g.stmt(s.Then)
	var els execFn
	if s.Else != nil {
		els = g.stmt(s.Else)
	}
	return func(f *frame) (completion, value.Value, error) {
		c, err := test(f)
		if err != nil {
			return normal, nil, err
		}
		if value.ToBoolean(c) {
			return then(f)
		}
		if els != nil {
			return els(f)
		}
		return normal, nil, nil
	}
}

// loopBody maps a body completion to (stop, propagate).
func loopBody(ctl completion) (stop, propagate bool) {
	switch ctl {
	case broke:
		return true, false
	case returned:
		return true, true
	}
	return false, false
}

func (g *generator) while(s *ir.While) execFn {
	test := g.expr(s.Test)
	body := g.stmt(s.Body)
	doWhile := s.DoWhile
	return func(f *frame) (completion, value.Value, error) {
		for first := true; ; first = false {
			if !(doWhile && first) {
				c, err := test(f)
				if err != nil {
					return normal, nil, err
				}
				if !value.ToBoolean(c) {
					return normal, nil, nil
				}
			}
			ctl, v, err := body(f)
			if err != nil {
				return normal, nil, err
			}
			if stop, prop := loopBody(ctl); stop {
				if prop {
					return ctl, v, nil
				}
				return normal, nil, nil
			}
		}
	}
}

func (g *generator) forClassic(s *ir.For) execFn {
	var init execFn
	if s.Init != nil {
		init = g.stmt(s.Init)
	}
	var test, update evalFn
	if s.Test != nil {
		test = g.expr(s.Test)
	}
	if s.Update != nil {
		update = g.expr(s.Update)
	}
	body := g.stmt(s.Body)
	return func(f *frame) (completion, value.Value, error) {
		if init != nil {
			if _, _, err := init(f); err != nil {
				return normal, nil, err
			}
		}
		for {
			if test != nil {
				c, err := test(f)
				if err != nil {
					return normal, nil, err
				}
				if !value.ToBoolean(c) {
					return normal, nil, nil
				}
			}
			ctl, v, err := body(f)
			if err != nil {
				return normal, nil, err
			}
			if stop, prop := loopBody(ctl); stop {
				if prop {
					return ctl, v, nil
				}
				return normal, nil, nil
			}
			if update != nil {
				if _, err := update(f); err != nil {
					return normal, nil, err
				}
			}
		}
	}
}

// forEach covers for-in (keys) and for-of (values).
func (g *generator) forEach(s *ir.For) execFn {
	if s.Binding == nil {
		g.fail("for-in/of without a binding")
		return nil
	}
	var bind func(f *frame, v value.Value) error
	if isLocal(s.Binding.Sym) {
		bind = g.binder(s.Binding)
	} else {
		g.declare(s.Binding.Name)
		bind = g.storeIdent(s.Binding)
	}
	iterable := g.expr(s.Iterable)
	body := g.stmt(s.Body)
	keys := s.Mode == ir.ForIn
	return func(f *frame) (completion, value.Value, error) {
		it, err := iterable(f)
		if err != nil {
			return normal, nil, err
		}
		var items []value.Value
		if keys {
			items = enumerate(it)
		} else if items, err = iterate(it); err != nil {
			return normal, nil, err
		}
		for _, item := range items {
			if err := bind(f, item); err != nil {
				return normal, nil, err
			}
			ctl, v, err := body(f)
			if err != nil {
				return normal, nil, err
			}
			if stop, prop := loopBody(ctl); stop {
				if prop {
					return ctl, v, nil
				}
				break
			}
		}
		return normal, nil, nil
	}
}

// enumerate lists the property keys a for-in visits: own keys first, then
// inherited ones not shadowed.
func enumerate(v value.Value) []value.Value {
	var out []value.Value
	switch x := v.(type) {
	case *value.Array:
		for i := 0; i < x.Len(); i++ {
			out = append(out, strconv.Itoa(i))
		}
		return out
	case string:
		for i := range []rune(x) {
			out = append(out, strconv.Itoa(i))
		}
		return out
	}
	o, ok := value.AsObject(v)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	for cur := o; cur != nil; cur = cur.Proto() {
		for _, k := range cur.Keys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

func iterate(v value.Value) ([]value.Value, error) {
	switch x := v.(type) {
	case *value.Array:
		out := make([]value.Value, x.Len())
		for i := range out {
			out[i] = x.At(i)
		}
		return out, nil
	case string:
		var out []value.Value
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, throwError("TypeError", "%s is not iterable", value.Describe(v))
}

func (g *generator) try(s *ir.Try) execFn {
	body := g.block(s.Body)
	var (
		bind     binder
		cond     evalFn
		handler  execFn
		finalize execFn
	)
	if s.Catch != nil {
		bind = g.binder(s.Catch.Param)
		if s.Catch.Condition != nil {
			cond = g.expr(s.Catch.Condition)
		}
		handler = g.block(s.Catch.Body)
	}
	if s.Finally != nil {
		finalize = g.block(s.Finally)
	}
	return func(f *frame) (completion, value.Value, error) {
		ctl, v, err := body(f)
		if err != nil && handler != nil && Catchable(err) {
			ctl, v, err = catchClause(f, err, bind, cond, handler)
		}
		if finalize == nil || (err != nil && !Catchable(err)) {
			// Engine errors abandon the attempt; nothing may run after them.
			return ctl, v, err
		}
		fctl, fv, ferr := finalize(f)
		if ferr != nil || fctl != normal {
			return fctl, fv, ferr
		}
		return ctl, v, err
	}
}

func catchClause(f *frame, caught error, bind binder, cond evalFn, handler execFn) (completion, value.Value, error) {
	if bind != nil {
		if err := bind(f, ThrownValue(caught)); err != nil {
			return normal, nil, err
		}
	}
	if cond != nil {
		c, err := cond(f)
		if err != nil {
			return normal, nil, err
		}
		if !value.ToBoolean(c) {
			return normal, nil, caught
		}
	}
	return handler(f)
}
