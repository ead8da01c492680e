package scenario

import (
	"fmt"
	"io"

	"tachyon/internal/engine"
	"tachyon/internal/ir"
	"tachyon/internal/value"
)

func init() {
	register(&Scenario{
		Name:    "add",
		Summary: "addOne(x) specialized for int, deoptimized by a double, then reused",
		Program: addProgram,
		Calls: []Call{
			{Global: "addOne", Args: args(int32(2))},
			{Global: "addOne", Args: args(3.5)},
			{Global: "addOne", Args: args(int32(2))},
			{Global: "addOne", Args: args(int32(2147483647))},
		},
	})
	register(&Scenario{
		Name:    "megamorphic",
		Summary: "one property read fed objects of many shapes",
		Program: megamorphicProgram,
	})
	register(&Scenario{
		Name:    "effects",
		Summary: "output and writes survive a restart exactly once",
		Program: effectsProgram,
		Setup: func(rt *engine.Runtime, out io.Writer) {
			printer(rt, out)
			rt.SetGlobal("half", 0.5)
		},
	})
	register(&Scenario{
		Name:    "nested",
		Summary: "closures over a shared scope and a constructor with a prototype method",
		Program: nestedProgram,
		Calls: []Call{
			{Global: "tick"},
			{Global: "tick"},
		},
	})
	register(&Scenario{
		Name:    "host",
		Summary: "a Go struct and a host class linked through reflection",
		Program: hostProgram,
		Setup: func(rt *engine.Runtime, out io.Writer) {
			printer(rt, out)
			rt.SetGlobal("Account", AccountClass)
		},
	})
}

func param(name string) *ir.Symbol { return ir.NewSymbol(name, ir.SymLocal|ir.SymParam) }

func addProgram() *ir.Function {
	x := param("x")
	fn := ir.Fn("addOne", "addOne", []*ir.Symbol{x}, ir.Ret(ir.Bin(ir.OpAdd, ir.Ref(x), ir.Num(1))))
	return ir.Program("add", ir.Do(ir.Assign(ir.Global("addOne"), fn)))
}

// megamorphicShapes is more than the default chain bound.
const megamorphicShapes = 10

func megamorphicProgram() *ir.Function {
	o := param("o")
	getX := ir.Fn("getX", "getX", []*ir.Symbol{o}, ir.Ret(ir.Get(ir.Ref(o), "x")))
	g := ir.NewSymbol("getX", ir.SymScope)
	sum := ir.NewSymbol("sum", ir.SymLocal)
	stmts := []ir.Stmt{ir.Var(g, getX), ir.Var(sum, ir.Num(0))}
	for i := range megamorphicShapes {
		props := make([]*ir.Property, 0, i+1)
		for k := range i {
			props = append(props, ir.Prop(fmt.Sprintf("p%d", k), ir.Num(float64(k))))
		}
		props = append(props, ir.Prop("x", ir.Num(float64(i))))
		stmts = append(stmts, ir.Do(ir.Bin(ir.OpAssignAdd, ir.Ref(sum), ir.CallOf(ir.Ref(g), ir.Object(props...)))))
	}
	stmts = append(stmts, ir.Ret(ir.Ref(sum)))
	return ir.Program("megamorphic", stmts...)
}

func effectsProgram() *ir.Function {
	log := ir.NewSymbol("log", ir.SymLocal)
	return ir.Program("effects",
		ir.Var(log, ir.Array()),
		ir.Do(ir.CallOf(ir.Global("print"), ir.Str("before the miss"))),
		ir.Do(ir.CallOf(ir.Get(ir.Ref(log), "push"), ir.Str("pushed"))),
		ir.Do(ir.CallOf(ir.Global("print"), ir.Bin(ir.OpMul, ir.Global("half"), ir.Num(3)))),
		ir.Ret(ir.Get(ir.Ref(log), "length")),
	)
}

func nestedProgram() *ir.Function {
	count := ir.NewSymbol("count", ir.SymScope)
	makeCounter := ir.Fn("makeCounter", "makeCounter", nil,
		ir.Var(count, ir.Num(0)),
		ir.Ret(ir.Fn("tick", "tick", nil,
			ir.Ret(ir.Un(ir.OpPreIncr, ir.Ref(count))),
		)),
	)
	x, y := param("x"), param("y")
	point := ir.NewSymbol("Point", ir.SymScope)
	p := ir.NewSymbol("p", ir.SymScope)
	return ir.Program("nested",
		ir.Do(ir.Assign(ir.Global("tick"), ir.CallOf(makeCounter))),
		ir.Var(point, ir.Fn("Point", "Point", []*ir.Symbol{x, y},
			ir.Do(ir.Assign(ir.Get(ir.This(), "x"), ir.Ref(x))),
			ir.Do(ir.Assign(ir.Get(ir.This(), "y"), ir.Ref(y))),
		)),
		ir.Do(ir.Assign(ir.Get(ir.Get(ir.Ref(point), "prototype"), "norm1"),
			ir.Fn("norm1", "norm1", nil,
				ir.Ret(ir.Bin(ir.OpAdd, ir.Get(ir.This(), "x"), ir.Get(ir.This(), "y")))))),
		ir.Var(p, ir.New(ir.Ref(point), ir.Num(1.5), ir.Num(2))),
		ir.Do(ir.CallOf(ir.Global("tick"))),
		ir.Ret(ir.CallOf(ir.Get(ir.Ref(p), "norm1"))),
	)
}

// Account is the Go type exposed to the host scenario.
type Account struct {
	Owner   string
	Balance float64
	Limit   float64 `script:"overdraft"`
}

// Deposit adds n and returns the new balance.
func (a *Account) Deposit(n float64) float64 {
	a.Balance += n
	return a.Balance
}

// Withdraw fails past the overdraft limit.
func (a *Account) Withdraw(n float64) (float64, error) {
	if a.Balance-n < -a.Limit {
		return a.Balance, fmt.Errorf("%s cannot withdraw %v", a.Owner, n)
	}
	a.Balance -= n
	return a.Balance, nil
}

// AccountClass constructs Accounts; an "owner" override replaces the
// constructor argument.
var AccountClass = &value.HostClass{Name: "Account", New: func(overrides map[string]value.Value, args []value.Value) (value.Value, error) {
	owner := value.ToString(value.Arg(args, 0))
	if o, ok := overrides["owner"]; ok {
		owner = value.ToString(o)
	}
	return &Account{Owner: owner}, nil
}}

func hostProgram() *ir.Function {
	acct, e := ir.NewSymbol("acct", ir.SymLocal), ir.NewSymbol("e", ir.SymLocal)
	return ir.Program("host",
		ir.Var(acct, ir.New(ir.Global("Account"), ir.Str("ada"))),
		ir.Do(ir.Assign(ir.Get(ir.Ref(acct), "overdraft"), ir.Num(10))),
		ir.Do(ir.CallOf(ir.Get(ir.Ref(acct), "deposit"), ir.Num(25))),
		&ir.Try{
			Body:  ir.Body(ir.Do(ir.CallOf(ir.Get(ir.Ref(acct), "withdraw"), ir.Num(100)))),
			Catch: &ir.Catch{Param: ir.Ref(e), Body: ir.Body(ir.Do(ir.CallOf(ir.Global("print"), ir.Get(ir.Ref(e), "message"))))},
		},
		ir.Do(ir.CallOf(ir.Get(ir.Ref(acct), "withdraw"), ir.Num(30))),
		ir.Ret(ir.Get(ir.Ref(acct), "balance")),
	)
}
