package exec

import (
	"context"
	"errors"
	"testing"

	"tachyon/internal/codegen"
	"tachyon/internal/ir"
	"tachyon/internal/linker"
	"tachyon/internal/speculate"
	"tachyon/internal/types"
	"tachyon/internal/value"
)

// testHost compiles every closure call afresh against a shared store and
// never handles signals; that is the engine's job.
type testHost struct {
	t       *testing.T
	linker  *linker.Linker
	globals *value.Object
	store   *speculate.Store
}

func newHost(t *testing.T) *testHost {
	return &testHost{t: t, linker: linker.New(linker.Options{}), globals: value.NewObject(nil), store: speculate.NewStore()}
}

func (h *testHost) Linker() *linker.Linker            { return h.linker }
func (h *testHost) Globals() *value.Object            { return h.globals }
func (h *testHost) Overrides() map[string]value.Value { return nil }

func (h *testHost) Closure(fn *ir.Function, env *value.Object) *value.Function {
	return value.NewFunction(fn.Name, fn.Arity(), value.NativeFunc(func(j *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
		return h.generate(fn, len(args)).Run(j, env, this, args)
	}))
}

func (h *testHost) generate(fn *ir.Function, argc int) *Code {
	h.t.Helper()
	key := speculate.FunctionKey{Function: fn.ID, Context: speculate.ArityContext(argc, fn.Arity())}
	unit, err := codegen.Compile(context.Background(), fn, h.store.View(key.Context), codegen.Options{Lazy: true})
	if err != nil {
		h.t.Fatalf("compile %s: %v", fn.ID, err)
	}
	code, err := Generate(h, key, 1, unit.Root, unit.Info().Points)
	if err != nil {
		h.t.Fatalf("generate %s: %v", fn.ID, err)
	}
	return code
}

// run executes a program, widening and restarting on signals the way the
// engine does, and commits the successful attempt.
func (h *testHost) run(prog *ir.Function) (value.Value, error) {
	h.t.Helper()
	for range 16 {
		j := value.NewJournal()
		v, err := h.generate(prog, 0).Run(j, h.globals, value.Undefined, nil)
		sig, isSig := speculate.AsSignal(err)
		if !isSig {
			j.Commit()
			return v, err
		}
		j.Rollback()
		h.store.Widen(sig.Key, sig.Point, speculate.WidenTarget(sig.Assumed, sig.Observed()))
	}
	h.t.Fatal("program did not converge")
	return nil, nil
}

func param(name string) *ir.Symbol { return ir.NewSymbol(name, ir.SymLocal|ir.SymParam) }

func addOne() *ir.Function {
	x := param("x")
	return ir.Fn("addOne", "addOne", []*ir.Symbol{x}, ir.Ret(ir.Bin(ir.OpAdd, ir.Ref(x), ir.Num(1))))
}

func TestCheckedAddSignalsOnNonInt(t *testing.T) {
	h := newHost(t)
	code := h.generate(addOne(), 1)
	v, err := code.Run(nil, h.globals, value.Undefined, []value.Value{int32(2)})
	if err != nil || v != int32(3) {
		t.Fatalf("addOne(2) = %v, %v", v, err)
	}
	_, err = code.Run(nil, h.globals, value.Undefined, []value.Value{3.5})
	sig, ok := speculate.AsSignal(err)
	if !ok {
		t.Fatalf("expected a signal, got %v", err)
	}
	if sig.Value != 4.5 || sig.Assumed != types.Int || sig.Generation != 1 || sig.Key.Function != "addOne" {
		t.Fatalf("unexpected signal %+v", sig)
	}

	h.store.Widen(sig.Key, sig.Point, types.Number)
	code = h.generate(addOne(), 1)
	for _, tc := range []struct{ in, want value.Value }{{3.5, 4.5}, {int32(2), int32(3)}} {
		v, err := code.Run(nil, h.globals, value.Undefined, []value.Value{tc.in})
		if err != nil || v != tc.want {
			t.Fatalf("widened addOne(%v) = %v, %v", tc.in, v, err)
		}
	}
}

func TestIntOverflowSignalsWithExactValue(t *testing.T) {
	h := newHost(t)
	_, err := h.generate(addOne(), 1).Run(nil, h.globals, value.Undefined, []value.Value{int32(2147483647)})
	sig, ok := speculate.AsSignal(err)
	if !ok || sig.Value != 2147483648.0 {
		t.Fatalf("got %v", err)
	}
}

func TestSignalRollsBackWrites(t *testing.T) {
	h := newHost(t)
	o := value.NewObjectFrom(nil, []string{"n"}, []value.Value{int32(1)})
	h.globals.Put(nil, "o", o)
	h.globals.Put(nil, "half", 0.5)
	prog := ir.Program("p",
		ir.Do(ir.Assign(ir.Get(ir.Global("o"), "n"), ir.Num(10))),
		ir.Do(ir.Assign(ir.Get(ir.Global("o"), "m"), ir.Num(20))),
		ir.Ret(ir.Bin(ir.OpMul, ir.Global("half"), ir.Num(3))),
	)
	j := value.NewJournal()
	_, err := h.generate(prog, 0).Run(j, h.globals, value.Undefined, nil)
	if _, ok := speculate.AsSignal(err); !ok {
		t.Fatalf("expected a signal from 0.5*3, got %v", err)
	}
	j.Rollback()
	if o.Get("n") != int32(1) || o.Has("m") {
		t.Fatalf("writes survived the abandoned attempt: n=%v m=%v", o.Get("n"), o.Get("m"))
	}
}

func TestIrreversibleAttemptRunsPastChecks(t *testing.T) {
	h := newHost(t)
	calls := 0
	h.globals.Put(nil, "bump", func() { calls++ })
	h.globals.Put(nil, "half", 0.5)
	prog := ir.Program("p",
		ir.Do(ir.CallOf(ir.Global("bump"))),
		ir.Ret(ir.Bin(ir.OpMul, ir.Global("half"), ir.Num(3))),
	)
	j := value.NewJournal()
	v, misses, err := h.generate(prog, 0).Attempt(j, h.globals, value.Undefined, nil)
	if err != nil || v != 1.5 {
		t.Fatalf("attempt = %v, %v", v, err)
	}
	if calls != 1 || !j.Irreversible() {
		t.Fatalf("bump ran %d times, irreversible=%v", calls, j.Irreversible())
	}
	if len(misses) == 0 {
		t.Fatal("failed checks were not reported")
	}
	seen := map[ir.ProgramPoint]bool{}
	for _, m := range misses {
		if m.Key.Function != "p" || m.Generation != 1 || seen[m.Point] {
			t.Fatalf("unexpected misses %v", misses)
		}
		seen[m.Point] = true
	}
}

func TestTryDoesNotCatchSignals(t *testing.T) {
	h := newHost(t)
	x, e := param("x"), ir.NewSymbol("e", ir.SymLocal)
	fn := ir.Fn("guarded", "guarded", []*ir.Symbol{x}, &ir.Try{
		Body:  ir.Body(ir.Ret(ir.Bin(ir.OpAdd, ir.Ref(x), ir.Num(1)))),
		Catch: &ir.Catch{Param: ir.Ref(e), Body: ir.Body(ir.Ret(ir.Str("caught")))},
	})
	_, err := h.generate(fn, 1).Run(nil, h.globals, value.Undefined, []value.Value{1.5})
	if _, ok := speculate.AsSignal(err); !ok {
		t.Fatalf("catch intercepted the speculation failure: %v", err)
	}
}

func TestLinkFailureIsCatchable(t *testing.T) {
	h := newHost(t)
	e := ir.NewSymbol("e", ir.SymLocal)
	prog := ir.Program("p", &ir.Try{
		Body:  ir.Body(ir.Do(ir.CallOf(ir.Lit(value.Null)))),
		Catch: &ir.Catch{Param: ir.Ref(e), Body: ir.Body(ir.Ret(ir.Get(ir.Ref(e), "name")))},
	})
	v, err := h.run(prog)
	if err != nil || v != "TypeError" {
		t.Fatalf("got %v, %v", v, err)
	}

	_, err = h.run(ir.Program("q", ir.Do(ir.CallOf(ir.Lit(value.Null)))))
	if !errors.Is(err, linker.ErrNoResolver) {
		t.Fatalf("uncaught link failure surfaced as %v", err)
	}
}

func TestConditionalCatchRethrows(t *testing.T) {
	h := newHost(t)
	e := ir.NewSymbol("e", ir.SymLocal)
	prog := ir.Program("p", &ir.Try{
		Body: ir.Body(&ir.Throw{Value: ir.Str("boom")}),
		Catch: &ir.Catch{
			Param:     ir.Ref(e),
			Condition: ir.Bin(ir.OpStrictEq, ir.Ref(e), ir.Str("other")),
			Body:      ir.Body(ir.Ret(ir.Str("caught"))),
		},
	})
	_, err := h.run(prog)
	var th *Thrown
	if !errors.As(err, &th) || th.Value != "boom" {
		t.Fatalf("got %v", err)
	}
}

func TestClosuresShareScope(t *testing.T) {
	h := newHost(t)
	count := ir.NewSymbol("count", ir.SymScope)
	makeCounter := ir.Fn("makeCounter", "makeCounter", nil,
		ir.Var(count, ir.Num(0)),
		ir.Ret(ir.Fn("tick", "tick", nil,
			ir.Ret(ir.Un(ir.OpPreIncr, ir.Ref(count))),
		)),
	)
	c := ir.NewSymbol("c", ir.SymScope)
	prog := ir.Program("p",
		ir.Var(c, ir.CallOf(makeCounter)),
		ir.Do(ir.CallOf(ir.Ref(c))),
		ir.Do(ir.CallOf(ir.Ref(c))),
		ir.Ret(ir.CallOf(ir.Ref(c))),
	)
	v, err := h.run(prog)
	if err != nil || v != int32(3) {
		t.Fatalf("got %v, %v", v, err)
	}
	if h.globals.Has("count") {
		t.Fatal("function variable leaked into the global scope")
	}
}

func TestConstructorsAndPrototypes(t *testing.T) {
	h := newHost(t)
	x := param("x")
	point := ir.NewSymbol("Point", ir.SymScope)
	p := ir.NewSymbol("pt", ir.SymScope)
	prog := ir.Program("p",
		ir.Var(point, ir.Fn("Point", "Point", []*ir.Symbol{x},
			ir.Do(ir.Assign(ir.Get(ir.This(), "x"), ir.Ref(x))),
		)),
		ir.Do(ir.Assign(ir.Get(ir.Get(ir.Ref(point), "prototype"), "twice"),
			ir.Fn("twice", "twice", nil, ir.Ret(ir.Bin(ir.OpMul, ir.Get(ir.This(), "x"), ir.Num(2)))))),
		ir.Var(p, ir.New(ir.Ref(point), ir.Num(21))),
		&ir.If{
			Test: ir.Bin(ir.OpInstanceOf, ir.Ref(p), ir.Ref(point)),
			Then: ir.Ret(ir.CallOf(ir.Get(ir.Ref(p), "twice"))),
		},
	)
	v, err := h.run(prog)
	if err != nil || v != int32(42) {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestLoops(t *testing.T) {
	h := newHost(t)
	sum, k, item := ir.NewSymbol("sum", ir.SymLocal), ir.NewSymbol("k", ir.SymLocal), ir.NewSymbol("item", ir.SymLocal)
	prog := ir.Program("p",
		ir.Var(sum, ir.Str("")),
		&ir.For{Mode: ir.ForIn, Binding: ir.Ref(k),
			Iterable: ir.Object(ir.Prop("a", ir.Num(1)), ir.Prop("b", ir.Num(2))),
			Body:     ir.Do(ir.Bin(ir.OpAssignAdd, ir.Ref(sum), ir.Ref(k)))},
		&ir.For{Mode: ir.ForOf, Binding: ir.Ref(item),
			Iterable: ir.Array(ir.Num(1), ir.Num(2), ir.Num(3)),
			Body: ir.Body(
				&ir.If{Test: ir.Bin(ir.OpStrictEq, ir.Ref(item), ir.Num(3)), Then: &ir.Break{}},
				ir.Do(ir.Bin(ir.OpAssignAdd, ir.Ref(sum), ir.Ref(item))),
			)},
		ir.Ret(ir.Ref(sum)),
	)
	v, err := h.run(prog)
	if err != nil || v != "ab12" {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestSitesArePerGeneration(t *testing.T) {
	h := newHost(t)
	h.globals.Put(nil, "o", value.NewObjectFrom(nil, []string{"v"}, []value.Value{int32(4)}))
	prog := ir.Program("p", ir.Ret(ir.Get(ir.Global("o"), "v")))
	code := h.generate(prog, 0)
	for range 3 {
		if v, err := code.Run(nil, h.globals, value.Undefined, nil); err != nil || v != int32(4) {
			t.Fatalf("got %v, %v", v, err)
		}
	}
	sites := code.Sites()
	if len(sites) != 1 || sites[0].Stats.State != linker.Monomorphic || sites[0].Stats.Hits != 2 {
		t.Fatalf("unexpected sites %+v", sites)
	}
	if fresh := h.generate(prog, 0).Sites(); fresh[0].Stats.State != linker.Unlinked {
		t.Fatal("a new generation must start with unlinked sites")
	}
}
