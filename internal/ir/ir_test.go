package ir_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kr/pretty"

	"tachyon/internal/ir"
	"tachyon/internal/types"
)

type numberIdents struct{ next ir.ProgramPoint }

func (v *numberIdents) Enter(ir.Node) bool { return true }

func (v *numberIdents) Leave(n ir.Node) ir.Node {
	if id, ok := n.(*ir.Ident); ok && id.CanBeOptimistic() {
		pp := v.next
		v.next++
		return id.WithProgramPoint(pp)
	}
	return n
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	x := ir.NewSymbol("x", ir.SymScope)
	fn := ir.Fn("f", "f", []*ir.Symbol{x}, ir.Ret(ir.Bin(ir.OpAdd, ir.Ref(x), ir.Num(1))))
	before := pretty.Sprint(fn)

	out := ir.Rewrite(fn, &numberIdents{}).(*ir.Function)

	if diff := pretty.Diff(before, pretty.Sprint(fn)); len(diff) != 0 {
		t.Fatalf("input tree changed: %v", diff)
	}
	if out == fn {
		t.Fatal("expected a new root")
	}
	ret := out.Body.Stmts[0].(*ir.Return)
	add := ret.Value.(*ir.Binary)
	if got := add.L.(*ir.Ident).ProgramPoint(); got != 1 {
		t.Fatalf("expected x in body at point 1, got %d", got)
	}
	if got := out.Params[0].ProgramPoint(); got != 0 {
		t.Fatalf("expected param at point 0, got %d", got)
	}
}

func TestRewriteSharesUnchangedSubtrees(t *testing.T) {
	body := ir.Body(ir.Ret(ir.Num(1)))
	fn := &ir.Function{ID: "f", Body: body}
	out := ir.Rewrite(fn, &numberIdents{})
	if out != ir.Node(fn) {
		t.Fatal("unchanged tree must be returned as is")
	}
}

type skipFunctions struct{ entered []string }

func (v *skipFunctions) Enter(n ir.Node) bool {
	if fn, ok := n.(*ir.Function); ok {
		v.entered = append(v.entered, fn.ID)
		return len(v.entered) == 1
	}
	return true
}

func (*skipFunctions) Leave(n ir.Node) ir.Node { return n }

func TestRewriteEnterFalseSkipsSubtree(t *testing.T) {
	inner := ir.Fn("inner", "inner", nil, ir.Ret(ir.Fn("deep", "deep", nil)))
	outer := ir.Program("prog", ir.Do(inner))
	v := &skipFunctions{}
	ir.Rewrite(outer, v)
	if strings.Join(v.entered, ",") != "prog,inner" {
		t.Fatalf("unexpected visit order %v", v.entered)
	}
}

func TestOptimisticSlotsAreCopyOnWrite(t *testing.T) {
	id := ir.Global("a")
	if id.ProgramPoint().IsValid() {
		t.Fatal("new node must have no program point")
	}
	if id.OptimisticType().IsValid() {
		t.Fatal("new node must have no type")
	}
	tagged := id.WithProgramPoint(7).WithOptimisticType(types.Number)
	if tagged.ProgramPoint() != 7 || tagged.OptimisticType() != types.Number {
		t.Fatalf("got %d:%s", tagged.ProgramPoint(), tagged.OptimisticType())
	}
	if id.ProgramPoint().IsValid() || id.OptimisticType().IsValid() {
		t.Fatal("original node was modified")
	}
	if same := tagged.WithProgramPoint(7); same != tagged {
		t.Fatal("re-tagging with the same point should not copy")
	}
}

func TestMostOptimisticType(t *testing.T) {
	tests := []struct {
		name string
		node ir.Optimistic
		opt  types.Type
		pess types.Type
	}{
		{"add", ir.Bin(ir.OpAdd, ir.Global("a"), ir.Num(1)), types.Int, types.Object},
		{"concat", ir.Bin(ir.OpAdd, ir.Str("n="), ir.Global("a")), types.String, types.String},
		{"sub", ir.Bin(ir.OpSub, ir.Global("a"), ir.Num(1)), types.Int, types.Number},
		{"compound", ir.Bin(ir.OpAssignMul, ir.Global("a"), ir.Num(2)), types.Int, types.Number},
		{"neg", ir.Un(ir.OpNeg, ir.Global("a")), types.Int, types.Number},
		{"load", ir.Get(ir.Global("o"), "p"), types.Int, types.Object},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.node.CanBeOptimistic() {
				t.Fatal("expected node to be eligible")
			}
			if got := tt.node.MostOptimisticType(); got != tt.opt {
				t.Errorf("most optimistic: got %s, want %s", got, tt.opt)
			}
			if got := tt.node.MostPessimisticType(); got != tt.pess {
				t.Errorf("most pessimistic: got %s, want %s", got, tt.pess)
			}
		})
	}
}

func TestFixedResultOperatorsAreNotEligible(t *testing.T) {
	nodes := []ir.Optimistic{
		ir.Bin(ir.OpBitOr, ir.Global("a"), ir.Num(0)),
		ir.Bin(ir.OpLt, ir.Global("a"), ir.Num(0)),
		ir.Bin(ir.OpAssign, ir.Global("a"), ir.Num(0)),
		ir.Un(ir.OpNot, ir.Global("a")),
		ir.Un(ir.OpTypeof, ir.Global("a")),
		ir.PropName("p"),
	}
	for _, n := range nodes {
		if n.CanBeOptimistic() {
			t.Errorf("%s should not be eligible", ir.String(n))
		}
	}
}

func TestNeedsCheck(t *testing.T) {
	sub := ir.Bin(ir.OpSub, ir.Global("a"), ir.Num(1))
	if ir.NeedsCheck(sub) {
		t.Fatal("unassigned node needs no check")
	}
	if !ir.NeedsCheck(sub.WithOptimisticType(types.Int)) {
		t.Fatal("int subtraction must be checked")
	}
	if ir.NeedsCheck(sub.WithOptimisticType(types.Number)) {
		t.Fatal("number subtraction cannot fail")
	}
}

func TestSelfModifying(t *testing.T) {
	a := ir.Global("a")
	if !ir.IsSelfModifying(ir.Un(ir.OpPostIncr, a)) || !ir.IsSelfModifying(ir.Bin(ir.OpAssignAdd, a, ir.Num(1))) {
		t.Fatal("increment and compound assignment are self-modifying")
	}
	if ir.IsSelfModifying(ir.Assign(a, ir.Num(1))) {
		t.Fatal("plain assignment is not self-modifying")
	}
	if ir.AssignmentTarget(ir.Assign(a, ir.Num(1))) != ir.Expr(a) {
		t.Fatal("wrong assignment target")
	}
	if ir.OpAssignShr.Arith() != ir.OpShr {
		t.Fatalf("got %s", ir.OpAssignShr.Arith())
	}
}

func TestDump(t *testing.T) {
	x := ir.NewSymbol("x", ir.SymScope)
	add := ir.Bin(ir.OpAdd, ir.Ref(x).WithProgramPoint(0).WithOptimisticType(types.Int).(ir.Expr), ir.Num(1))
	fn := ir.Fn("f", "f", []*ir.Symbol{x},
		ir.Ret(add.WithProgramPoint(1).WithOptimisticType(types.Number).(ir.Expr)),
		ir.Do(ir.Fn("g", "g", nil, ir.Ret(ir.Str("s")))),
	)
	var buf bytes.Buffer
	err := ir.Dump(&buf, fn, ir.DumpOptions{Never: func(id string, pp ir.ProgramPoint) bool {
		return id == "f" && pp == 0
	}})
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := `function f(x) id=f
  return (x@0:int! + 1)@1:number
  function g#g
  function g() id=g
    return "s"
`
	if got := buf.String(); got != want {
		t.Fatalf("unexpected dump:\n%s\nwant:\n%s", got, want)
	}
}
