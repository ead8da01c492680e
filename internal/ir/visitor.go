package ir

// Visitor drives Rewrite. Enter is called before a node's children are
// visited; returning false skips the children and Leave for that node. Leave
// receives the node with already rewritten children and returns its
// replacement, usually the node itself.
type Visitor interface {
	Enter(n Node) bool
	Leave(n Node) Node
}

// Rewrite walks n depth-first and returns the rewritten tree. Nodes are never
// modified in place: a parent is shallow-copied only when one of its children
// was replaced, so an unchanged subtree is returned as the same pointer.
func Rewrite(n Node, v Visitor) Node {
	if isNil(n) {
		return n
	}
	if !v.Enter(n) {
		return n
	}
	return v.Leave(rewriteChildren(n, v))
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Function:
		return n == nil
	case *Block:
		return n == nil
	case *Ident:
		return n == nil
	case *Catch:
		return n == nil
	}
	return false
}

func rewriteExpr(e Expr, v Visitor) Expr {
	if e == nil {
		return nil
	}
	r := Rewrite(e, v)
	if r == nil {
		return nil
	}
	return r.(Expr)
}

func rewriteStmt(s Stmt, v Visitor) Stmt {
	if s == nil {
		return nil
	}
	r := Rewrite(s, v)
	if r == nil {
		return nil
	}
	return r.(Stmt)
}

func rewriteBlock(b *Block, v Visitor) *Block {
	if b == nil {
		return nil
	}
	return Rewrite(b, v).(*Block)
}

func rewriteIdent(id *Ident, v Visitor) *Ident {
	if id == nil {
		return nil
	}
	return Rewrite(id, v).(*Ident)
}

func rewriteExprs(es []Expr, v Visitor) ([]Expr, bool) {
	var out []Expr
	for i, e := range es {
		r := rewriteExpr(e, v)
		if r != e && out == nil {
			out = make([]Expr, len(es))
			copy(out, es[:i])
		}
		if out != nil {
			out[i] = r
		}
	}
	if out == nil {
		return es, false
	}
	return out, true
}

func rewriteChildren(n Node, v Visitor) Node {
	switch n := n.(type) {
	case *Function:
		params := n.Params
		var changed bool
		for i, p := range n.Params {
			r := rewriteIdent(p, v)
			if r != p {
				if !changed {
					params = append([]*Ident(nil), n.Params...)
					changed = true
				}
				params[i] = r
			}
		}
		body := rewriteBlock(n.Body, v)
		if !changed && body == n.Body {
			return n
		}
		c := *n
		c.Params, c.Body = params, body
		return &c
	case *Block:
		var out []Stmt
		for i, s := range n.Stmts {
			r := rewriteStmt(s, v)
			if r != s && out == nil {
				out = make([]Stmt, len(n.Stmts))
				copy(out, n.Stmts[:i])
			}
			if out != nil {
				out[i] = r
			}
		}
		if out == nil {
			return n
		}
		c := *n
		c.Stmts = out
		return &c
	case *VarStmt:
		name := rewriteIdent(n.Name, v)
		init := rewriteExpr(n.Init, v)
		if name == n.Name && init == n.Init {
			return n
		}
		c := *n
		c.Name, c.Init = name, init
		return &c
	case *ExprStmt:
		x := rewriteExpr(n.X, v)
		if x == n.X {
			return n
		}
		c := *n
		c.X = x
		return &c
	case *If:
		test := rewriteExpr(n.Test, v)
		then := rewriteStmt(n.Then, v)
		els := rewriteStmt(n.Else, v)
		if test == n.Test && then == n.Then && els == n.Else {
			return n
		}
		c := *n
		c.Test, c.Then, c.Else = test, then, els
		return &c
	case *While:
		var test Expr
		var body Stmt
		if n.DoWhile {
			body = rewriteStmt(n.Body, v)
			test = rewriteExpr(n.Test, v)
		} else {
			test = rewriteExpr(n.Test, v)
			body = rewriteStmt(n.Body, v)
		}
		if test == n.Test && body == n.Body {
			return n
		}
		c := *n
		c.Test, c.Body = test, body
		return &c
	case *For:
		init := rewriteStmt(n.Init, v)
		binding := rewriteIdent(n.Binding, v)
		iterable := rewriteExpr(n.Iterable, v)
		test := rewriteExpr(n.Test, v)
		body := rewriteStmt(n.Body, v)
		update := rewriteExpr(n.Update, v)
		if init == n.Init && binding == n.Binding && iterable == n.Iterable &&
			test == n.Test && body == n.Body && update == n.Update {
			return n
		}
		c := *n
		c.Init, c.Binding, c.Iterable = init, binding, iterable
		c.Test, c.Body, c.Update = test, body, update
		return &c
	case *Return:
		val := rewriteExpr(n.Value, v)
		if val == n.Value {
			return n
		}
		c := *n
		c.Value = val
		return &c
	case *Throw:
		val := rewriteExpr(n.Value, v)
		if val == n.Value {
			return n
		}
		c := *n
		c.Value = val
		return &c
	case *Try:
		body := rewriteBlock(n.Body, v)
		var catch *Catch
		if n.Catch != nil {
			catch = Rewrite(n.Catch, v).(*Catch)
		}
		finally := rewriteBlock(n.Finally, v)
		if body == n.Body && catch == n.Catch && finally == n.Finally {
			return n
		}
		c := *n
		c.Body, c.Catch, c.Finally = body, catch, finally
		return &c
	case *Catch:
		param := rewriteIdent(n.Param, v)
		cond := rewriteExpr(n.Condition, v)
		body := rewriteBlock(n.Body, v)
		if param == n.Param && cond == n.Condition && body == n.Body {
			return n
		}
		c := *n
		c.Param, c.Condition, c.Body = param, cond, body
		return &c
	case *ArrayLit:
		elems, changed := rewriteExprs(n.Elems, v)
		if !changed {
			return n
		}
		c := *n
		c.Elems = elems
		return &c
	case *ObjectLit:
		var out []*Property
		for i, p := range n.Props {
			r := Rewrite(p, v).(*Property)
			if r != p && out == nil {
				out = make([]*Property, len(n.Props))
				copy(out, n.Props[:i])
			}
			if out != nil {
				out[i] = r
			}
		}
		if out == nil {
			return n
		}
		c := *n
		c.Props = out
		return &c
	case *Property:
		key := rewriteIdent(n.Key, v)
		val := rewriteExpr(n.Value, v)
		if key == n.Key && val == n.Value {
			return n
		}
		c := *n
		c.Key, c.Value = key, val
		return &c
	case *Access:
		base := rewriteExpr(n.Base, v)
		prop := rewriteIdent(n.Property, v)
		if base == n.Base && prop == n.Property {
			return n
		}
		c := *n
		c.Base, c.Property = base, prop
		return &c
	case *Index:
		base := rewriteExpr(n.Base, v)
		idx := rewriteExpr(n.Index, v)
		if base == n.Base && idx == n.Index {
			return n
		}
		c := *n
		c.Base, c.Index = base, idx
		return &c
	case *Call:
		callee := rewriteExpr(n.Callee, v)
		args, changed := rewriteExprs(n.Args, v)
		if callee == n.Callee && !changed {
			return n
		}
		c := *n
		c.Callee, c.Args = callee, args
		return &c
	case *Unary:
		x := rewriteExpr(n.X, v)
		if x == n.X {
			return n
		}
		c := *n
		c.X = x
		return &c
	case *Binary:
		l := rewriteExpr(n.L, v)
		r := rewriteExpr(n.R, v)
		if l == n.L && r == n.R {
			return n
		}
		c := *n
		c.L, c.R = l, r
		return &c
	case *Ternary:
		test := rewriteExpr(n.Test, v)
		then := rewriteExpr(n.Then, v)
		els := rewriteExpr(n.Else, v)
		if test == n.Test && then == n.Then && els == n.Else {
			return n
		}
		c := *n
		c.Test, c.Then, c.Else = test, then, els
		return &c
	}
	return n
}

// Inspect calls fn for every node in pre-order until fn returns false for a
// subtree.
func Inspect(n Node, fn func(Node) bool) {
	Rewrite(n, inspector(fn))
}

type inspector func(Node) bool

func (f inspector) Enter(n Node) bool { return f(n) }
func (inspector) Leave(n Node) Node   { return n }
