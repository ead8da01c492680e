package ir

import (
	"tachyon/internal/source"
	"tachyon/internal/types"
	"tachyon/internal/value"
)

// Ident is a name reference. PropertyName marks identifiers that only name a
// property (obj.name, object literal keys) and never load a binding.
type Ident struct {
	Optimism
	Name         string
	Sym          *Symbol
	PropertyName bool
	Sp           source.Span
}

func (*Ident) Kind() Kind          { return KindIdent }
func (n *Ident) Span() source.Span { return n.Sp }
func (*Ident) exprNode()           {}

func (n *Ident) CanBeOptimistic() bool { return !n.PropertyName }

func (n *Ident) WithProgramPoint(pp ProgramPoint) Optimistic {
	if n.ProgramPoint() == pp {
		return n
	}
	c := *n
	c.setPoint(pp)
	return &c
}

func (n *Ident) WithOptimisticType(t types.Type) Optimistic {
	if n.typ == t {
		return n
	}
	c := *n
	c.setType(t)
	return &c
}

func (*Ident) MostOptimisticType() types.Type  { return types.Int }
func (*Ident) MostPessimisticType() types.Type { return types.Widest }

// IsInternal reports compiler-introduced temporaries.
func (n *Ident) IsInternal() bool { return n.Sym.Has(SymInternal) }

// Literal is a constant primitive value.
type Literal struct {
	Value value.Value
	Sp    source.Span
}

func (*Literal) Kind() Kind          { return KindLiteral }
func (n *Literal) Span() source.Span { return n.Sp }
func (*Literal) exprNode()           {}

// ArrayLit is an array literal. Split literals are emitted by the code
// generator as separate initialisation units and are opaque to the passes.
type ArrayLit struct {
	Elems []Expr
	Split bool
	Sp    source.Span
}

func (*ArrayLit) Kind() Kind          { return KindArrayLit }
func (n *ArrayLit) Span() source.Span { return n.Sp }
func (*ArrayLit) exprNode()           {}

// ObjectLit is an object literal; see ArrayLit for Split.
type ObjectLit struct {
	Props []*Property
	Split bool
	Sp    source.Span
}

func (*ObjectLit) Kind() Kind          { return KindObjectLit }
func (n *ObjectLit) Span() source.Span { return n.Sp }
func (*ObjectLit) exprNode()           {}

// ProtoKey is the property name that sets the prototype of a literal.
const ProtoKey = "__proto__"

type Property struct {
	Key   *Ident
	Value Expr
	Sp    source.Span
}

func (*Property) Kind() Kind          { return KindProperty }
func (n *Property) Span() source.Span { return n.Sp }

// IsProto reports a __proto__ entry.
func (n *Property) IsProto() bool { return n.Key != nil && n.Key.Name == ProtoKey }

// Access is a named property load Base.Property.
type Access struct {
	Optimism
	Base     Expr
	Property *Ident
	Sp       source.Span
}

func (*Access) Kind() Kind          { return KindAccess }
func (n *Access) Span() source.Span { return n.Sp }
func (*Access) exprNode()           {}

func (*Access) CanBeOptimistic() bool { return true }

func (n *Access) WithProgramPoint(pp ProgramPoint) Optimistic {
	if n.ProgramPoint() == pp {
		return n
	}
	c := *n
	c.setPoint(pp)
	return &c
}

func (n *Access) WithOptimisticType(t types.Type) Optimistic {
	if n.typ == t {
		return n
	}
	c := *n
	c.setType(t)
	return &c
}

func (*Access) MostOptimisticType() types.Type  { return types.Int }
func (*Access) MostPessimisticType() types.Type { return types.Widest }

// Index is a computed element load Base[Index].
type Index struct {
	Optimism
	Base  Expr
	Index Expr
	Sp    source.Span
}

func (*Index) Kind() Kind          { return KindIndex }
func (n *Index) Span() source.Span { return n.Sp }
func (*Index) exprNode()           {}

func (*Index) CanBeOptimistic() bool { return true }

func (n *Index) WithProgramPoint(pp ProgramPoint) Optimistic {
	if n.ProgramPoint() == pp {
		return n
	}
	c := *n
	c.setPoint(pp)
	return &c
}

func (n *Index) WithOptimisticType(t types.Type) Optimistic {
	if n.typ == t {
		return n
	}
	c := *n
	c.setType(t)
	return &c
}

func (*Index) MostOptimisticType() types.Type  { return types.Int }
func (*Index) MostPessimisticType() types.Type { return types.Widest }

// Call invokes Callee with Args. When Callee is an Access or Index the base
// is passed as the receiver.
type Call struct {
	Optimism
	Callee Expr
	Args   []Expr
	Sp     source.Span
}

func (*Call) Kind() Kind          { return KindCall }
func (n *Call) Span() source.Span { return n.Sp }
func (*Call) exprNode()           {}

func (*Call) CanBeOptimistic() bool { return true }

func (n *Call) WithProgramPoint(pp ProgramPoint) Optimistic {
	if n.ProgramPoint() == pp {
		return n
	}
	c := *n
	c.setPoint(pp)
	return &c
}

func (n *Call) WithOptimisticType(t types.Type) Optimistic {
	if n.typ == t {
		return n
	}
	c := *n
	c.setType(t)
	return &c
}

func (*Call) MostOptimisticType() types.Type  { return types.Int }
func (*Call) MostPessimisticType() types.Type { return types.Widest }

// Unary applies Op to X. OpNew wraps a Call whose callee is the constructor.
type Unary struct {
	Optimism
	Op UnaryOp
	X  Expr
	Sp source.Span
}

func (*Unary) Kind() Kind          { return KindUnary }
func (n *Unary) Span() source.Span { return n.Sp }
func (*Unary) exprNode()           {}

// CanBeOptimistic holds for the numeric operators; the others have a fixed
// result type.
func (n *Unary) CanBeOptimistic() bool {
	switch n.Op {
	case OpNeg, OpPlus, OpPreIncr, OpPreDecr, OpPostIncr, OpPostDecr:
		return true
	}
	return false
}

func (n *Unary) WithProgramPoint(pp ProgramPoint) Optimistic {
	if n.ProgramPoint() == pp {
		return n
	}
	c := *n
	c.setPoint(pp)
	return &c
}

func (n *Unary) WithOptimisticType(t types.Type) Optimistic {
	if n.typ == t {
		return n
	}
	c := *n
	c.setType(t)
	return &c
}

func (*Unary) MostOptimisticType() types.Type { return types.Int }

func (n *Unary) MostPessimisticType() types.Type {
	switch n.Op {
	case OpNeg, OpPlus, OpPreIncr, OpPreDecr, OpPostIncr, OpPostDecr:
		return types.Number
	case OpBitNot:
		return types.Int
	case OpNot, OpDelete:
		return types.Boolean
	case OpTypeof:
		return types.String
	}
	return types.Widest
}

// IsSelfModifying reports the increment and decrement forms.
func (n *Unary) IsSelfModifying() bool { return n.Op.IsIncDec() }

// Binary applies Op to L and R. Assignments store into L.
type Binary struct {
	Optimism
	Op BinaryOp
	L  Expr
	R  Expr
	Sp source.Span
}

func (*Binary) Kind() Kind          { return KindBinary }
func (n *Binary) Span() source.Span { return n.Sp }
func (*Binary) exprNode()           {}

// CanBeOptimistic holds for arithmetic (plain or compound) and >>>; bitwise
// results are always int32 and comparisons always boolean.
func (n *Binary) CanBeOptimistic() bool {
	switch n.Op.Arith() {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpShr:
		return true
	}
	return false
}

func (n *Binary) WithProgramPoint(pp ProgramPoint) Optimistic {
	if n.ProgramPoint() == pp {
		return n
	}
	c := *n
	c.setPoint(pp)
	return &c
}

func (n *Binary) WithOptimisticType(t types.Type) Optimistic {
	if n.typ == t {
		return n
	}
	c := *n
	c.setType(t)
	return &c
}

// MostOptimisticType is String for an addition with a string literal operand,
// whose result can only be a string.
func (n *Binary) MostOptimisticType() types.Type {
	if n.Op.Arith() == OpAdd && (isStringLiteral(n.L) || isStringLiteral(n.R)) {
		return types.String
	}
	return types.Int
}

func (n *Binary) MostPessimisticType() types.Type {
	switch {
	case n.Op.Arith() == OpAdd:
		if n.MostOptimisticType() == types.String {
			return types.String
		}
		return types.Widest
	case n.Op == OpAssign, n.Op == OpAnd, n.Op == OpOr:
		return types.Widest
	case n.Op.IsComparison():
		return types.Boolean
	case n.Op.IsBitwise():
		return types.Int
	}
	return types.Number
}

// IsSelfModifying reports compound assignment.
func (n *Binary) IsSelfModifying() bool { return n.Op.IsSelfModifying() }

func isStringLiteral(e Expr) bool {
	lit, ok := e.(*Literal)
	if !ok {
		return false
	}
	_, ok = lit.Value.(string)
	return ok
}

type Ternary struct {
	Test Expr
	Then Expr
	Else Expr
	Sp   source.Span
}

func (*Ternary) Kind() Kind          { return KindTernary }
func (n *Ternary) Span() source.Span { return n.Sp }
func (*Ternary) exprNode()           {}

// IsSelfModifying reports whether evaluating n reads and writes the same
// target: compound assignment and increment/decrement.
func IsSelfModifying(n Node) bool {
	switch n := n.(type) {
	case *Unary:
		return n.IsSelfModifying()
	case *Binary:
		return n.IsSelfModifying()
	}
	return false
}

// IsAssignment reports nodes that store into a target.
func IsAssignment(n Node) bool {
	switch n := n.(type) {
	case *Unary:
		return n.Op.IsIncDec()
	case *Binary:
		return n.Op.IsAssignment()
	}
	return false
}

// AssignmentTarget returns the stored-to expression of an assignment node.
func AssignmentTarget(n Node) Expr {
	switch n := n.(type) {
	case *Unary:
		if n.Op.IsIncDec() {
			return n.X
		}
	case *Binary:
		if n.Op.IsAssignment() {
			return n.L
		}
	}
	return nil
}
