package exec

import (
	"tachyon/internal/ir"
	"tachyon/internal/linker"
	"tachyon/internal/types"
	"tachyon/internal/value"
)

func constant(v value.Value) evalFn {
	return func(*frame) (value.Value, error) { return v, nil }
}

func (g *generator) exprs(es []ir.Expr) []evalFn {
	out := make([]evalFn, len(es))
	for i, e := range es {
		out[i] = g.expr(e)
	}
	return out
}

func evalAll(f *frame, es []evalFn, prefix ...value.Value) ([]value.Value, error) {
	out := make([]value.Value, 0, len(prefix)+len(es))
	out = append(out, prefix...)
	for _, e := range es {
		v, err := e(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (g *generator) expr(e ir.Expr) evalFn {
	switch n := e.(type) {
	case nil:
		return constant(value.Undefined)
	case *ir.Ident:
		return g.checked(n, g.loadIdent(n))
	case *ir.Literal:
		if n.Value == nil {
			return constant(value.Undefined)
		}
		return constant(n.Value)
	case *ir.ArrayLit:
		elems := g.exprs(n.Elems)
		return func(f *frame) (value.Value, error) {
			vs, err := evalAll(f, elems)
			if err != nil {
				return nil, err
			}
			return value.NewArray(vs...), nil
		}
	case *ir.ObjectLit:
		return g.objectLit(n)
	case *ir.Function:
		fn := n
		return func(f *frame) (value.Value, error) {
			return f.code.host.Closure(fn, f.scope), nil
		}
	case *ir.Access:
		base := g.expr(n.Base)
		site := g.code.newSite(linker.Get(n.Property.Name), n.Span())
		return g.checked(n, func(f *frame) (value.Value, error) {
			b, err := base(f)
			if err != nil {
				return nil, err
			}
			return site.Invoke(f.j, b, nil)
		})
	case *ir.Index:
		base, key := g.expr(n.Base), g.expr(n.Index)
		site := g.code.newSite(linker.Element(linker.OpGet), n.Span())
		return g.checked(n, func(f *frame) (value.Value, error) {
			b, err := base(f)
			if err != nil {
				return nil, err
			}
			k, err := key(f)
			if err != nil {
				return nil, err
			}
			return site.Invoke(f.j, b, []value.Value{k})
		})
	case *ir.Call:
		return g.checked(n, g.call(n))
	case *ir.Unary:
		return g.unary(n)
	case *ir.Binary:
		return g.binary(n)
	case *ir.Ternary:
		test, then, els := g.expr(n.Test), g.expr(n.Then), g.expr(n.Else)
		return func(f *frame) (value.Value, error) {
			c, err := test(f)
			if err != nil {
				return nil, err
			}
			if value.ToBoolean(c) {
				return then(f)
			}
			return els(f)
		}
	}
	g.fail("unsupported expression %T", e)
	return constant(value.Undefined)
}

func (g *generator) objectLit(n *ir.ObjectLit) evalFn {
	type prop struct {
		name  string
		proto bool
		val   evalFn
	}
	props := make([]prop, len(n.Props))
	for i, p := range n.Props {
		props[i] = prop{name: p.Key.Name, proto: p.IsProto(), val: g.expr(p.Value)}
	}
	return func(f *frame) (value.Value, error) {
		o := value.NewObject(nil)
		for _, p := range props {
			v, err := p.val(f)
			if err != nil {
				return nil, err
			}
			if p.proto {
				if po, ok := value.AsObject(v); ok {
					o.SetProto(f.j, po)
				} else if value.IsNull(v) {
					o.SetProto(f.j, nil)
				}
				continue
			}
			o.Put(f.j, p.name, v)
		}
		return o, nil
	}
}

// call evaluates a call. A property callee is a method call: the base is
// passed as this.
func (g *generator) call(n *ir.Call) evalFn {
	args := g.exprs(n.Args)
	var (
		this   evalFn
		callee func(f *frame, this value.Value) (value.Value, error)
	)
	switch c := n.Callee.(type) {
	case *ir.Access:
		this = g.expr(c.Base)
		get := g.code.newSite(linker.Get(c.Property.Name), c.Span())
		callee = func(f *frame, b value.Value) (value.Value, error) {
			return get.Invoke(f.j, b, nil)
		}
	case *ir.Index:
		this = g.expr(c.Base)
		key := g.expr(c.Index)
		get := g.code.newSite(linker.Element(linker.OpGet), c.Span())
		callee = func(f *frame, b value.Value) (value.Value, error) {
			k, err := key(f)
			if err != nil {
				return nil, err
			}
			return get.Invoke(f.j, b, []value.Value{k})
		}
	default:
		this = constant(value.Undefined)
		fn := g.expr(c)
		callee = func(f *frame, _ value.Value) (value.Value, error) { return fn(f) }
	}
	site := g.code.newSite(linker.Call(len(n.Args)), n.Span())
	return func(f *frame) (value.Value, error) {
		t, err := this(f)
		if err != nil {
			return nil, err
		}
		fn, err := callee(f, t)
		if err != nil {
			return nil, err
		}
		vs, err := evalAll(f, args, t)
		if err != nil {
			return nil, err
		}
		return site.Invoke(f.j, fn, vs)
	}
}

func (g *generator) construct(n *ir.Unary) evalFn {
	c, ok := n.X.(*ir.Call)
	if !ok {
		g.fail("new requires a call, got %T", n.X)
		return constant(value.Undefined)
	}
	ctor := g.expr(c.Callee)
	args := g.exprs(c.Args)
	site := g.code.newSite(linker.Construct(len(c.Args)), c.Span())
	return func(f *frame) (value.Value, error) {
		fn, err := ctor(f)
		if err != nil {
			return nil, err
		}
		vs, err := evalAll(f, args)
		if err != nil {
			return nil, err
		}
		return site.Invoke(f.j, fn, vs)
	}
}

// lvalue evaluates an assignment target's subexpressions once and returns
// accessors for it. load is only wired when withLoad is set, so plain
// assignments do not create read sites.
type lvalue func(f *frame) (load evalThunk, store func(value.Value) error, err error)

type evalThunk func() (value.Value, error)

func (g *generator) lvalue(e ir.Expr, withLoad bool) lvalue {
	switch n := e.(type) {
	case *ir.Ident:
		store := g.storeIdent(n)
		var load evalFn
		if withLoad {
			load = g.loadIdent(n)
		}
		return func(f *frame) (evalThunk, func(value.Value) error, error) {
			return func() (value.Value, error) { return load(f) },
				func(v value.Value) error { return store(f, v) }, nil
		}
	case *ir.Access:
		base := g.expr(n.Base)
		set := g.code.newSite(linker.Set(n.Property.Name), n.Span())
		var get *linker.CallSite
		if withLoad {
			get = g.code.newSite(linker.Get(n.Property.Name), n.Span())
		}
		return func(f *frame) (evalThunk, func(value.Value) error, error) {
			b, err := base(f)
			if err != nil {
				return nil, nil, err
			}
			return func() (value.Value, error) { return get.Invoke(f.j, b, nil) },
				func(v value.Value) error {
					_, err := set.Invoke(f.j, b, []value.Value{v})
					return err
				}, nil
		}
	case *ir.Index:
		base, key := g.expr(n.Base), g.expr(n.Index)
		set := g.code.newSite(linker.Element(linker.OpSet), n.Span())
		var get *linker.CallSite
		if withLoad {
			get = g.code.newSite(linker.Element(linker.OpGet), n.Span())
		}
		return func(f *frame) (evalThunk, func(value.Value) error, error) {
			b, err := base(f)
			if err != nil {
				return nil, nil, err
			}
			k, err := key(f)
			if err != nil {
				return nil, nil, err
			}
			return func() (value.Value, error) { return get.Invoke(f.j, b, []value.Value{k}) },
				func(v value.Value) error {
					_, err := set.Invoke(f.j, b, []value.Value{k, v})
					return err
				}, nil
		}
	}
	g.fail("invalid assignment target %T", e)
	return func(*frame) (evalThunk, func(value.Value) error, error) {
		return nil, nil, throwError("SyntaxError", "invalid assignment target")
	}
}

func (g *generator) unary(n *ir.Unary) evalFn {
	switch n.Op {
	case ir.OpNew:
		return g.construct(n)
	case ir.OpTypeof:
		if id, ok := n.X.(*ir.Ident); ok && !isLocal(id.Sym) && id.Sym != ir.ThisSymbol {
			name := id.Name
			return func(f *frame) (value.Value, error) {
				if holder, i, ok := f.scope.Find(name); ok {
					return value.Typeof(holder.Slot(i)), nil
				}
				return "undefined", nil
			}
		}
	case ir.OpDelete:
		return g.delete(n.X)
	case ir.OpPreIncr, ir.OpPreDecr, ir.OpPostIncr, ir.OpPostDecr:
		return g.checked(n, g.incDec(n))
	}
	x := g.expr(n.X)
	op := n.Op
	return g.checked(n, func(f *frame) (value.Value, error) {
		v, err := x(f)
		if err != nil {
			return nil, err
		}
		switch op {
		case ir.OpNeg:
			return value.Neg(v), nil
		case ir.OpPlus:
			return value.ToNumeric(v), nil
		case ir.OpNot:
			return !value.ToBoolean(v), nil
		case ir.OpBitNot:
			return ^value.ToInt32(v), nil
		case ir.OpTypeof:
			return value.Typeof(v), nil
		case ir.OpVoid:
			return value.Undefined, nil
		}
		return nil, throwError("SyntaxError", "unsupported unary %s", op)
	})
}

func (g *generator) delete(e ir.Expr) evalFn {
	switch n := e.(type) {
	case *ir.Access:
		base := g.expr(n.Base)
		site := g.code.newSite(linker.Delete(n.Property.Name), n.Span())
		return func(f *frame) (value.Value, error) {
			b, err := base(f)
			if err != nil {
				return nil, err
			}
			return site.Invoke(f.j, b, nil)
		}
	case *ir.Index:
		base, key := g.expr(n.Base), g.expr(n.Index)
		site := g.code.newSite(linker.Element(linker.OpDelete), n.Span())
		return func(f *frame) (value.Value, error) {
			b, err := base(f)
			if err != nil {
				return nil, err
			}
			k, err := key(f)
			if err != nil {
				return nil, err
			}
			return site.Invoke(f.j, b, []value.Value{k})
		}
	case *ir.Ident:
		return constant(false)
	}
	x := g.expr(e)
	return func(f *frame) (value.Value, error) {
		if _, err := x(f); err != nil {
			return nil, err
		}
		return true, nil
	}
}

func (g *generator) incDec(n *ir.Unary) evalFn {
	target := g.lvalue(n.X, true)
	delta := int32(1)
	if n.Op == ir.OpPreDecr || n.Op == ir.OpPostDecr {
		delta = -1
	}
	post := n.Op == ir.OpPostIncr || n.Op == ir.OpPostDecr
	return func(f *frame) (value.Value, error) {
		load, store, err := target(f)
		if err != nil {
			return nil, err
		}
		old, err := load()
		if err != nil {
			return nil, err
		}
		num := value.ToNumeric(old)
		next := value.Add(num, delta)
		if err := store(next); err != nil {
			return nil, err
		}
		if post {
			return num, nil
		}
		return next, nil
	}
}

func (g *generator) binary(n *ir.Binary) evalFn {
	switch {
	case n.Op == ir.OpAnd || n.Op == ir.OpOr:
		return g.logical(n)
	case n.Op == ir.OpAssign:
		target := g.lvalue(n.L, false)
		rhs := g.expr(n.R)
		return g.checked(n, func(f *frame) (value.Value, error) {
			_, store, err := target(f)
			if err != nil {
				return nil, err
			}
			v, err := rhs(f)
			if err != nil {
				return nil, err
			}
			return v, store(v)
		})
	case n.Op.IsSelfModifying():
		return g.compound(n)
	}
	l, r := g.expr(n.L), g.expr(n.R)
	op := n.Op
	intSpec := n.OptimisticType() == types.Int && ir.NeedsCheck(n)
	return g.checked(n, func(f *frame) (value.Value, error) {
		a, err := l(f)
		if err != nil {
			return nil, err
		}
		b, err := r(f)
		if err != nil {
			return nil, err
		}
		if intSpec {
			if v, ok := intArith(op, a, b); ok {
				return v, nil
			}
		}
		return binaryOp(op, a, b)
	})
}

// compound evaluates the target once, applies the arithmetic and checks the
// result before storing it.
func (g *generator) compound(n *ir.Binary) evalFn {
	target := g.lvalue(n.L, true)
	rhs := g.expr(n.R)
	op := n.Op.Arith()
	check := g.checker(n)
	return func(f *frame) (value.Value, error) {
		load, store, err := target(f)
		if err != nil {
			return nil, err
		}
		old, err := load()
		if err != nil {
			return nil, err
		}
		rv, err := rhs(f)
		if err != nil {
			return nil, err
		}
		res, err := binaryOp(op, old, rv)
		if err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(f, res); err != nil {
				return nil, err
			}
		}
		return res, store(res)
	}
}

func (g *generator) logical(n *ir.Binary) evalFn {
	l, r := g.expr(n.L), g.expr(n.R)
	and := n.Op == ir.OpAnd
	return func(f *frame) (value.Value, error) {
		a, err := l(f)
		if err != nil {
			return nil, err
		}
		if value.ToBoolean(a) != and {
			return a, nil
		}
		return r(f)
	}
}
