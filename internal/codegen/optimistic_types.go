package codegen

import (
	"tachyon/internal/ir"
	"tachyon/internal/types"
)

// Assumptions is the read side of the speculation store for one calling
// context.
type Assumptions interface {
	// Assumed returns the widened type recorded for a point, if any.
	Assumed(function string, pp ir.ProgramPoint) (types.Type, bool)
}

type noAssumptions struct{}

func (noAssumptions) Assumed(string, ir.ProgramPoint) (types.Type, bool) { return types.Invalid, false }

// NoAssumptions is the view of an empty store.
var NoAssumptions Assumptions = noAssumptions{}

type typeScope struct {
	fn    *ir.Function
	never *NeverOptimistic
}

// optimisticTypes is the eligibility pass. Enter tags operands that sit in a
// conservative context, Leave assigns the type of each numbered node once
// its own tag is known.
type optimisticTypes struct {
	root        *ir.Function
	lazy        bool
	assumptions Assumptions
	stack       []*typeScope
	never       map[string]*NeverOptimistic
}

// CalculateOptimisticTypes annotates a numbered tree with optimistic types
// and returns the never-optimistic sets per function ID.
func CalculateOptimisticTypes(root *ir.Function, lazy bool, assumptions Assumptions) (*ir.Function, map[string]*NeverOptimistic) {
	if assumptions == nil {
		assumptions = NoAssumptions
	}
	c := &optimisticTypes{
		root:        root,
		lazy:        lazy,
		assumptions: assumptions,
		never:       make(map[string]*NeverOptimistic),
	}
	out := ir.Rewrite(root, c).(*ir.Function)
	return out, c.never
}

func (c *optimisticTypes) top() *typeScope { return c.stack[len(c.stack)-1] }

// tagNever marks e's own point, not its operands'.
func (c *optimisticTypes) tagNever(e ir.Expr) {
	if id, ok := e.(*ir.Ident); ok && id == nil {
		return
	}
	if o, ok := e.(ir.Optimistic); ok {
		c.top().never.Set(o.ProgramPoint())
	}
}

func (c *optimisticTypes) Enter(n ir.Node) bool {
	switch n := n.(type) {
	case *ir.Function:
		if n != c.root && c.lazy {
			return false
		}
		c.stack = append(c.stack, &typeScope{fn: n, never: &NeverOptimistic{}})
	case *ir.ArrayLit:
		return !n.Split
	case *ir.ObjectLit:
		return !n.Split
	case *ir.VarStmt:
		c.tagNever(n.Name)
		if n.Name != nil && n.Name.IsInternal() && !ir.IsSelfModifying(n.Init) {
			c.tagNever(n.Init)
		}
	case *ir.ExprStmt:
		if !ir.IsSelfModifying(n.X) {
			c.tagNever(n.X)
		}
	case *ir.If:
		c.tagNever(n.Test)
	case *ir.While:
		c.tagNever(n.Test)
	case *ir.For:
		if n.Mode == ir.ForClassic {
			c.tagNever(n.Test)
		} else {
			c.tagNever(n.Iterable)
			c.tagNever(n.Binding)
		}
	case *ir.Catch:
		c.tagNever(n.Condition)
	case *ir.Ternary:
		c.tagNever(n.Test)
	case *ir.Property:
		if n.IsProto() {
			c.tagNever(n.Value)
		}
	case *ir.Access:
		c.tagNever(n.Base)
	case *ir.Index:
		c.tagNever(n.Base)
	case *ir.Call:
		c.tagNever(n.Callee)
	case *ir.Unary:
		if n.Op == ir.OpNot || n.Op == ir.OpNew {
			c.tagNever(n.X)
		}
	case *ir.Binary:
		switch {
		case n.Op.IsAssignment():
			if !n.IsSelfModifying() {
				c.tagNever(n.L)
			}
			if id, ok := n.L.(*ir.Ident); ok && id.IsInternal() && !ir.IsSelfModifying(n.R) {
				c.tagNever(n.R)
			}
		case n.Op == ir.OpInstanceOf, n.Op.IsStrictEquality():
			c.tagNever(n.L)
			c.tagNever(n.R)
		}
	}
	return true
}

func (c *optimisticTypes) Leave(n ir.Node) ir.Node {
	switch n := n.(type) {
	case *ir.Function:
		sc := c.top()
		c.stack = c.stack[:len(c.stack)-1]
		c.never[n.ID] = sc.never
		return n
	case *ir.Ident:
		if !n.ProgramPoint().IsValid() {
			return n
		}
		switch {
		case n.Sym.Has(ir.SymLocal) && !n.Sym.Has(ir.SymScope):
			// frame slot with a statically known type; nothing to speculate on
			return n.WithOptimisticType(types.Widest)
		case n.Sym.Has(ir.SymParam) && c.top().fn.VarArg:
			return n.WithOptimisticType(n.MostPessimisticType())
		}
		return c.leaveOptimistic(n)
	case ir.Optimistic:
		return c.leaveOptimistic(n)
	}
	return n
}

func (c *optimisticTypes) leaveOptimistic(o ir.Optimistic) ir.Node {
	pp := o.ProgramPoint()
	if !pp.IsValid() {
		return o
	}
	sc := c.top()
	if sc.never.Has(pp) {
		return o.WithOptimisticType(types.Widest)
	}
	t := o.MostOptimisticType()
	if assumed, ok := c.assumptions.Assumed(sc.fn.ID, pp); ok {
		t = types.Join(assumed, t)
	}
	return o.WithOptimisticType(t)
}
