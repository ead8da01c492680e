// Package scenario holds the demonstration programs run by the CLI.
package scenario

import (
	"context"
	"fmt"
	"io"
	"slices"

	"tachyon/internal/engine"
	"tachyon/internal/ir"
	"tachyon/internal/value"
)

// Call is a host call made after the program has run.
type Call struct {
	Global string
	Args   func() []value.Value
}

// Result is the outcome of the program or of one Call.
type Result struct {
	Label string
	Value value.Value
	Err   error
}

// Scenario is a program plus the host environment it expects.
type Scenario struct {
	Name    string
	Summary string
	Program func() *ir.Function
	// Setup installs natives and host objects; out receives program output.
	Setup func(rt *engine.Runtime, out io.Writer)
	Calls []Call
}

var registry = map[string]*Scenario{}

func register(s *Scenario) { registry[s.Name] = s }

// Lookup finds a scenario by name.
func Lookup(name string) (*Scenario, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names lists the registered scenarios in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run loads and runs the program on rt, then makes the host calls. Script
// errors are reported per result; only load failures abort.
func (s *Scenario) Run(ctx context.Context, rt *engine.Runtime, out io.Writer) ([]Result, error) {
	if s.Setup != nil {
		s.Setup(rt, out)
	}
	p, err := rt.Load(ctx, s.Program())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	v, err := rt.Run(ctx, p)
	results := []Result{{Label: "program", Value: v, Err: err}}
	for _, c := range s.Calls {
		var args []value.Value
		if c.Args != nil {
			args = c.Args()
		}
		v, err := rt.CallGlobal(ctx, c.Global, args...)
		results = append(results, Result{Label: label(c.Global, args), Value: v, Err: err})
	}
	return results, nil
}

func label(name string, args []value.Value) string {
	s := name + "("
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += value.Describe(a)
	}
	return s + ")"
}

func args(vs ...value.Value) func() []value.Value {
	return func() []value.Value { return vs }
}

// printer installs print(x), which writes x once the invocation commits.
func printer(rt *engine.Runtime, out io.Writer) {
	rt.DefineNative("print", 1, func(j *value.Journal, _ value.Value, args []value.Value) (value.Value, error) {
		s := value.ToString(value.Arg(args, 0))
		j.Defer(func() { fmt.Fprintln(out, s) })
		return value.Undefined, nil
	})
}
