package codegen_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kr/pretty"

	"tachyon/internal/codegen"
	"tachyon/internal/diag"
	"tachyon/internal/ir"
	"tachyon/internal/testkit"
	"tachyon/internal/types"
)

type fakeStore map[ir.ProgramPoint]types.Type

func (s fakeStore) Assumed(_ string, pp ir.ProgramPoint) (types.Type, bool) {
	t, ok := s[pp]
	return t, ok
}

// annotations returns point -> type for the optimistic nodes of fn itself.
func annotations(t *testing.T, fn *ir.Function) map[ir.ProgramPoint]types.Type {
	t.Helper()
	out := make(map[ir.ProgramPoint]types.Type)
	ir.Inspect(fn.Body, func(n ir.Node) bool {
		if _, nested := n.(*ir.Function); nested {
			return false
		}
		if o, ok := n.(ir.Optimistic); ok && o.ProgramPoint().IsValid() {
			if _, dup := out[o.ProgramPoint()]; dup {
				t.Fatalf("duplicate program point %d", o.ProgramPoint())
			}
			out[o.ProgramPoint()] = o.OptimisticType()
		}
		return true
	})
	return out
}

// sample is: var y = o.p + g(a)[i]; return -y;
func sample() *ir.Function {
	y := ir.NewSymbol("y", ir.SymScope)
	return ir.Fn("sample", "sample", nil,
		ir.Var(y, ir.Bin(ir.OpAdd,
			ir.Get(ir.Global("o"), "p"),
			ir.Elem(ir.CallOf(ir.Global("g"), ir.Global("a")), ir.Global("i")),
		)),
		ir.Ret(ir.Un(ir.OpNeg, ir.Ref(y))),
	)
}

func compile(t *testing.T, fn *ir.Function, store codegen.Assumptions, opts codegen.Options) *codegen.Unit {
	t.Helper()
	unit, err := codegen.Compile(context.Background(), fn, store, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return unit
}

func TestProgramPointsAreDense(t *testing.T) {
	unit := compile(t, sample(), nil, codegen.Options{Lazy: true})
	got := annotations(t, unit.Root)
	if len(got) != 10 || unit.Info().Points != 10 {
		t.Fatalf("expected 10 points, got %d (info %d)", len(got), unit.Info().Points)
	}
	for pp := ir.FirstProgramPoint; pp < 10; pp++ {
		if _, ok := got[pp]; !ok {
			t.Fatalf("gap at point %d: %v", pp, got)
		}
	}
}

func TestOptimisticTypesOfSample(t *testing.T) {
	unit := compile(t, sample(), nil, codegen.Options{Lazy: true})
	want := map[ir.ProgramPoint]types.Type{
		0: types.Object, // o, base of o.p
		1: types.Int,    // o.p
		2: types.Object, // g, callee
		3: types.Int,    // a
		4: types.Object, // g(a), base of [i]
		5: types.Int,    // i
		6: types.Int,    // g(a)[i]
		7: types.Int,    // +
		8: types.Int,    // y
		9: types.Int,    // -y
	}
	got := annotations(t, unit.Root)
	if diff := pretty.Diff(want, got); len(diff) != 0 {
		t.Fatalf("unexpected types: %v", diff)
	}
	never := unit.Info().Never.Points()
	if diff := pretty.Diff([]ir.ProgramPoint{0, 2, 4}, never); len(diff) != 0 {
		t.Fatalf("unexpected never-optimistic set: %v", diff)
	}
}

func TestRecompileIsDeterministic(t *testing.T) {
	fn := sample()
	before := pretty.Sprint(fn)
	dump := func() string {
		unit := compile(t, fn, nil, codegen.Options{Lazy: true})
		var buf bytes.Buffer
		if err := ir.Dump(&buf, unit.Root, ir.DumpOptions{}); err != nil {
			t.Fatalf("dump: %v", err)
		}
		return buf.String()
	}
	first, second := dump(), dump()
	if first != second {
		t.Fatalf("generations differ:\n%s\n---\n%s", first, second)
	}
	if diff := pretty.Diff(before, pretty.Sprint(fn)); len(diff) != 0 {
		t.Fatalf("source tree modified: %v", diff)
	}
}

func TestStoreAssumptionsWidenTypes(t *testing.T) {
	store := fakeStore{7: types.Number, 1: types.Boolean, 0: types.Int}
	got := annotations(t, compile(t, sample(), store, codegen.Options{Lazy: true}).Root)
	if got[7] != types.Number {
		t.Errorf("add: got %s, want number", got[7])
	}
	if got[1] != types.Object {
		t.Errorf("o.p: join of boolean and int must be object, got %s", got[1])
	}
	if got[0] != types.Object {
		t.Errorf("never-optimistic point must stay widest, got %s", got[0])
	}
}

func TestConservativeContexts(t *testing.T) {
	a, b, n, x := ir.Global("a"), ir.Global("b"), ir.Global("n"), ir.Global("x")
	stmts := []ir.Stmt{
		&ir.If{Test: ir.Bin(ir.OpSub, a, ir.Num(1)), Then: ir.Body()},
		&ir.While{Test: ir.Un(ir.OpPostDecr, n), Body: ir.Body()},
		ir.Do(ir.Bin(ir.OpStrictEq, ir.Global("p"), ir.Global("q"))),
		ir.Do(ir.Assign(x, ir.Bin(ir.OpMul, b, ir.Num(2)))),
		ir.Do(ir.Un(ir.OpPostIncr, ir.Global("i"))),
		ir.Do(ir.Un(ir.OpNot, ir.Global("flag"))),
		ir.Do(ir.Object(ir.Prop(ir.ProtoKey, ir.Global("base")), ir.Prop("k", ir.Global("v")))),
		&ir.For{Mode: ir.ForOf, Binding: ir.Global("e"), Iterable: ir.Global("list"), Body: ir.Body()},
	}
	unit := compile(t, ir.Fn("ctx", "ctx", nil, stmts...), nil, codegen.Options{Lazy: true})

	seen := map[string]types.Type{}
	ir.Inspect(unit.Root.Body, func(node ir.Node) bool {
		if o, ok := node.(ir.Optimistic); ok && o.ProgramPoint().IsValid() {
			seen[ir.String(o)] = o.OptimisticType()
		}
		return true
	})
	conservative := []string{"(a - 1)", "(n--)", "p", "q", "x", "flag", "base", "list", "e"}
	for _, name := range conservative {
		if got, ok := seen[name]; !ok || !got.IsWidest() {
			t.Errorf("%s: expected widest, got %v (present %v)", name, got, ok)
		}
	}
	optimistic := []string{"a", "n", "b", "(b * 2)", "(i++)", "i", "v"}
	for _, name := range optimistic {
		if got := seen[name]; got.IsWidest() || !got.IsValid() {
			t.Errorf("%s: expected optimistic, got %s", name, got)
		}
	}
}

func TestSuppressedIdentifiers(t *testing.T) {
	tmp := ir.NewSymbol(":tmp", ir.SymInternal|ir.SymLocal)
	v := ir.NewSymbol("v", ir.SymScope)
	p := ir.NewSymbol("p", ir.SymParam|ir.SymScope)
	fn := ir.Fn("sup", "sup", []*ir.Symbol{p},
		ir.Var(v, nil),
		ir.Do(ir.Assign(ir.Ref(tmp), ir.Bin(ir.OpAdd, ir.Ref(p), ir.Num(1)))),
		ir.Do(&ir.ArrayLit{Split: true, Elems: []ir.Expr{ir.Global("hidden")}}),
	)
	unit := compile(t, fn, nil, codegen.Options{Lazy: true})
	got := annotations(t, unit.Root)
	// only p (reference) and the addition are numbered
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %v", got)
	}
	if got[1] != types.Object {
		t.Fatalf("rhs of an internal assignment must be conservative, got %s", got[1])
	}
	if got[0] != types.Int {
		t.Fatalf("parameter reference should be optimistic, got %s", got[0])
	}
}

func TestLocalsAndVarArgs(t *testing.T) {
	local := ir.NewSymbol("l", ir.SymLocal)
	rest := ir.NewSymbol("rest", ir.SymParam|ir.SymLocal|ir.SymScope)
	fn := ir.Fn("va", "va", []*ir.Symbol{rest}, ir.Ret(ir.Bin(ir.OpAdd, ir.Ref(local), ir.Ref(rest))))
	fn.VarArg = true
	unit := compile(t, fn, nil, codegen.Options{Lazy: true})
	got := annotations(t, unit.Root)
	if got[0] != types.Object || got[1] != types.Object {
		t.Fatalf("locals and vararg params are not speculated on: %v", got)
	}
	if got[2] != types.Int {
		t.Fatalf("addition is still optimistic: %v", got)
	}
	if unit.Info().Never.Len() != 0 {
		t.Fatalf("no point should be tagged never-optimistic, got %v", unit.Info().Never.Points())
	}
}

func TestLazyAndEagerNestedFunctions(t *testing.T) {
	inner := ir.Fn("inner", "inner", nil, ir.Ret(ir.Bin(ir.OpAdd, ir.Global("a"), ir.Num(1))))
	root := ir.Program("main", ir.Do(ir.CallOf(inner)), ir.Ret(ir.Global("z")))

	lazy := compile(t, root, nil, codegen.Options{Lazy: true})
	if _, ok := lazy.Functions["inner"]; ok {
		t.Fatal("lazy compile must not descend into nested functions")
	}
	if lazy.Info().Points != 2 {
		t.Fatalf("expected call and z to be numbered, got %d", lazy.Info().Points)
	}

	eager := compile(t, root, nil, codegen.Options{})
	info, ok := eager.Functions["inner"]
	if !ok {
		t.Fatal("eager compile must number nested functions")
	}
	got := annotations(t, info.Func)
	if len(got) != 2 || got[0] != types.Int || got[1] != types.Int {
		t.Fatalf("nested function must restart at point 0: %v", got)
	}
	if eager.Info().Points != 2 {
		t.Fatalf("outer count must not include nested points, got %d", eager.Info().Points)
	}
}

func TestPointLimitExhausted(t *testing.T) {
	bag := diag.NewBag(4)
	_, err := codegen.Compile(context.Background(), sample(), nil, codegen.Options{
		Lazy:       true,
		PointLimit: 3,
		Reporter:   &diag.BagReporter{Bag: bag},
	})
	var rerr *codegen.ResourceExhaustedError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected ResourceExhaustedError, got %v", err)
	}
	if rerr.Function != "sample" || rerr.Limit != 3 {
		t.Fatalf("unexpected error %+v", rerr)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.CompileResourceExhausted {
		t.Fatalf("expected one CompileResourceExhausted diagnostic, got %v", bag.Items())
	}
}

func TestTimingsRecorded(t *testing.T) {
	unit := compile(t, sample(), nil, codegen.Options{Lazy: true})
	if len(unit.Timings) != 2 || unit.Timings[0].Name != "program-points" || unit.Timings[1].Name != "optimistic-types" {
		t.Fatalf("unexpected timings %+v", unit.Timings)
	}
}

func TestPointInvariantsHold(t *testing.T) {
	inner := ir.Fn("inner", "inner", nil, ir.Ret(ir.Bin(ir.OpAdd, ir.Global("a"), ir.Num(1))))
	for _, lazy := range []bool{true, false} {
		root := ir.Program("main", ir.Do(ir.CallOf(inner)), ir.Ret(sample().Body.Stmts[0].(*ir.VarStmt).Init))
		unit := compile(t, root, nil, codegen.Options{Lazy: lazy})
		counts := make(map[string]int, len(unit.Functions))
		for id, info := range unit.Functions {
			counts[id] = info.Points
		}
		if err := testkit.CheckPointInvariants(unit.Root, counts); err != nil {
			t.Fatalf("lazy=%v: %v", lazy, err)
		}
	}
}
