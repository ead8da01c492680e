package ir

import "tachyon/internal/value"

// Constructors for hand-built trees. Parsing is outside this module, so
// scenarios and tests assemble trees with these.

// NewSymbol creates a binding.
func NewSymbol(name string, flags SymbolFlags) *Symbol {
	return &Symbol{Name: name, Flags: flags}
}

// Ref returns a fresh identifier node reading sym.
func Ref(sym *Symbol) *Ident {
	return &Ident{Name: sym.Name, Sym: sym}
}

// Global returns a fresh scope identifier with its own symbol.
func Global(name string) *Ident {
	return Ref(NewSymbol(name, SymScope))
}

// ThisSymbol is the receiver binding every function has. It lives in the
// frame, so reads of it are never speculated on.
var ThisSymbol = &Symbol{Name: "this", Flags: SymLocal}

// This returns a fresh identifier reading the receiver.
func This() *Ident { return Ref(ThisSymbol) }

// PropName returns an identifier used only as a property name.
func PropName(name string) *Ident {
	return &Ident{Name: name, PropertyName: true}
}

func Lit(v value.Value) *Literal { return &Literal{Value: v} }

// Num returns a numeric literal in canonical form.
func Num(f float64) *Literal { return &Literal{Value: value.Number(f)} }

func Str(s string) *Literal { return &Literal{Value: s} }

func Bin(op BinaryOp, l, r Expr) *Binary { return &Binary{Op: op, L: l, R: r} }

func Un(op UnaryOp, x Expr) *Unary { return &Unary{Op: op, X: x} }

func Assign(target, v Expr) *Binary { return Bin(OpAssign, target, v) }

func Get(base Expr, name string) *Access {
	return &Access{Base: base, Property: PropName(name)}
}

func Elem(base, idx Expr) *Index { return &Index{Base: base, Index: idx} }

func CallOf(callee Expr, args ...Expr) *Call { return &Call{Callee: callee, Args: args} }

// New builds construction: new callee(args...).
func New(callee Expr, args ...Expr) *Unary {
	return Un(OpNew, CallOf(callee, args...))
}

func Object(props ...*Property) *ObjectLit { return &ObjectLit{Props: props} }

func Prop(name string, v Expr) *Property { return &Property{Key: PropName(name), Value: v} }

func Array(elems ...Expr) *ArrayLit { return &ArrayLit{Elems: elems} }

func Cond(test, then, els Expr) *Ternary { return &Ternary{Test: test, Then: then, Else: els} }

func Ret(e Expr) *Return { return &Return{Value: e} }

func Do(e Expr) *ExprStmt { return &ExprStmt{X: e} }

func Var(sym *Symbol, init Expr) *VarStmt { return &VarStmt{Name: Ref(sym), Init: init} }

func Body(stmts ...Stmt) *Block { return &Block{Stmts: stmts} }

// Fn builds a function literal whose parameters are the given symbols.
func Fn(id, name string, params []*Symbol, stmts ...Stmt) *Function {
	ps := make([]*Ident, len(params))
	for i, p := range params {
		ps[i] = Ref(p)
	}
	return &Function{ID: id, Name: name, Params: ps, Body: Body(stmts...)}
}

// Program builds a top-level function.
func Program(id string, stmts ...Stmt) *Function {
	fn := Fn(id, "", nil, stmts...)
	fn.IsProgram = true
	return fn
}
