package codegen

import (
	"tachyon/internal/ir"
)

// FunctionScope is the per-function state of the program-point pass.
type FunctionScope struct {
	Function *ir.Function
	next     ir.ProgramPoint
}

// Count is the number of points handed out so far.
func (s *FunctionScope) Count() int { return int(s.next - ir.FirstProgramPoint) }

// ScopeStack tracks the function being numbered; nested function literals
// push their own scope so each restarts at ir.FirstProgramPoint.
type ScopeStack struct {
	scopes []*FunctionScope
}

func (s *ScopeStack) Push(fn *ir.Function) *FunctionScope {
	sc := &FunctionScope{Function: fn, next: ir.FirstProgramPoint}
	s.scopes = append(s.scopes, sc)
	return sc
}

func (s *ScopeStack) Pop() *FunctionScope {
	if len(s.scopes) == 0 {
		return nil
	}
	top := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	return top
}

func (s *ScopeStack) Top() *FunctionScope {
	if len(s.scopes) == 0 {
		return nil
	}
	return s.scopes[len(s.scopes)-1]
}

func (s *ScopeStack) Depth() int { return len(s.scopes) }

// pointAllocator is the program-point pass.
type pointAllocator struct {
	root       *ir.Function
	lazy       bool
	limit      int
	stack      ScopeStack
	suppressed map[*ir.Ident]struct{}
	counts     map[string]int
	err        *ResourceExhaustedError
}

func newPointAllocator(root *ir.Function, lazy bool, limit int) *pointAllocator {
	if limit <= 0 {
		limit = DefaultPointLimit
	}
	return &pointAllocator{
		root:       root,
		lazy:       lazy,
		limit:      limit,
		suppressed: make(map[*ir.Ident]struct{}),
		counts:     make(map[string]int),
	}
}

// AssignProgramPoints numbers root's eligible nodes. In lazy mode nested
// function literals are left untouched; otherwise each is numbered in its own
// scope. The returned map holds the point count per function ID.
func AssignProgramPoints(root *ir.Function, lazy bool, limit int) (*ir.Function, map[string]int, error) {
	a := newPointAllocator(root, lazy, limit)
	out := ir.Rewrite(root, a).(*ir.Function)
	if a.err != nil {
		return nil, nil, a.err
	}
	return out, a.counts, nil
}

func (a *pointAllocator) suppress(id *ir.Ident) {
	if id != nil {
		a.suppressed[id] = struct{}{}
	}
}

func (a *pointAllocator) Enter(n ir.Node) bool {
	if a.err != nil {
		return false
	}
	switch n := n.(type) {
	case *ir.Function:
		if n != a.root && a.lazy {
			return false
		}
		a.stack.Push(n)
		for _, p := range n.Params {
			a.suppress(p)
		}
	case *ir.VarStmt:
		a.suppress(n.Name)
	case *ir.Catch:
		a.suppress(n.Param)
	case *ir.Ident:
		if n.IsInternal() {
			a.suppress(n)
		}
	case *ir.ArrayLit:
		return !n.Split
	case *ir.ObjectLit:
		return !n.Split
	}
	return true
}

func (a *pointAllocator) Leave(n ir.Node) ir.Node {
	if fn, ok := n.(*ir.Function); ok {
		if sc := a.stack.Pop(); sc != nil {
			a.counts[fn.ID] = sc.Count()
		}
		return n
	}
	o, ok := n.(ir.Optimistic)
	if !ok || !o.CanBeOptimistic() || a.err != nil {
		return n
	}
	if id, ok := n.(*ir.Ident); ok {
		if _, skip := a.suppressed[id]; skip {
			return n
		}
	}
	sc := a.stack.Top()
	if sc.Count() >= a.limit {
		a.err = &ResourceExhaustedError{Function: sc.Function.ID, Limit: a.limit, Span: n.Span()}
		return n
	}
	pp := sc.next
	sc.next++
	return o.WithProgramPoint(pp)
}
