package speculate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"tachyon/internal/ir"
	"tachyon/internal/types"
)

// fakeEngine recompiles only when asked about its current generation.
type fakeEngine struct {
	mu       sync.Mutex
	gen      uint64
	compiles int
	fail     error
}

func (e *fakeEngine) Recompile(_ context.Context, _ FunctionKey, failed uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return 0, e.fail
	}
	if failed < e.gen {
		return e.gen, nil
	}
	e.gen++
	e.compiles++
	return e.gen, nil
}

func TestHandleWidensAndRecompiles(t *testing.T) {
	store := NewStore()
	eng := &fakeEngine{}
	c := NewController(store, eng, zerolog.Nop())
	var seen []Deopt
	c.OnDeopt(func(d Deopt) { seen = append(seen, d) })

	key := FunctionKey{Function: "add", Context: "exact"}
	next, err := c.Handle(context.Background(), &Signal{Key: key, Point: 1, Value: 4.5, Assumed: types.Int})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if next != 1 || eng.compiles != 1 {
		t.Fatalf("expected generation 1 after one compile, got %d (%d compiles)", next, eng.compiles)
	}
	if got, _ := store.Lookup(key, 1); got != types.Number {
		t.Fatalf("stored %s, want number", got)
	}
	if len(seen) != 1 || seen[0].To != types.Number || !seen[0].Changed {
		t.Fatalf("unexpected deopt log %v", seen)
	}
	if h := c.History(); len(h) != 1 || h[0].Next != 1 {
		t.Fatalf("unexpected history %v", h)
	}
}

func TestConcurrentFailuresShareOneGeneration(t *testing.T) {
	eng := &fakeEngine{}
	c := NewController(NewStore(), eng, zerolog.Nop())
	key := FunctionKey{Function: "f"}
	var wg sync.WaitGroup
	gens := make([]uint64, 16)
	for i := range gens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := c.Handle(context.Background(), &Signal{Key: key, Point: 0, Value: "s", Assumed: types.Int})
			if err != nil {
				t.Errorf("handle: %v", err)
			}
			gens[i] = g
		}(i)
	}
	wg.Wait()
	if eng.compiles != 1 {
		t.Fatalf("expected a single recompilation, got %d", eng.compiles)
	}
	for _, g := range gens {
		if g != 1 {
			t.Fatalf("all failures should restart on generation 1, got %v", gens)
		}
	}
}

func TestHooksRunOutsideTheLock(t *testing.T) {
	c := NewController(NewStore(), &fakeEngine{}, zerolog.Nop())
	late := 0
	c.OnDeopt(func(Deopt) {
		// Registering from a hook must not deadlock; the new hook sees
		// only later failures.
		c.OnDeopt(func(Deopt) { late++ })
		_ = c.History()
	})
	key := FunctionKey{Function: "f"}
	if _, err := c.Handle(context.Background(), &Signal{Key: key, Point: 0, Value: 1.5, Assumed: types.Int}); err != nil {
		t.Fatal(err)
	}
	if late != 0 {
		t.Fatalf("hook added during delivery ran %d times", late)
	}
	if _, err := c.Handle(context.Background(), &Signal{Key: key, Point: 1, Value: 1.5, Assumed: types.Int, Generation: 1}); err != nil {
		t.Fatal(err)
	}
	if late != 1 {
		t.Fatalf("late hook ran %d times", late)
	}
}

func TestHandleAllWidensBeforeOneCompile(t *testing.T) {
	store := NewStore()
	eng := &fakeEngine{}
	c := NewController(store, eng, zerolog.Nop())
	key := FunctionKey{Function: "f", Context: "exact"}
	next, err := c.HandleAll(context.Background(), []*Signal{
		{Key: key, Point: 0, Value: 0.5, Assumed: types.Int},
		{Key: key, Point: 2, Value: "s", Assumed: types.Int},
	})
	if err != nil || next != 1 || eng.compiles != 1 {
		t.Fatalf("next=%d compiles=%d err=%v", next, eng.compiles, err)
	}
	for pp, want := range map[int]types.Type{0: types.Number, 2: types.Object} {
		if got, _ := store.Lookup(key, ir.ProgramPoint(pp)); got != want {
			t.Fatalf("point %d stored %s, want %s", pp, got, want)
		}
	}
	if h := c.History(); len(h) != 2 || h[0].Next != 1 || h[1].Next != 1 {
		t.Fatalf("history %v", h)
	}

	_, err = c.HandleAll(context.Background(), []*Signal{
		{Key: key, Point: 0, Value: "s", Assumed: types.Number, Generation: 1},
		{Key: key, Point: 1, Value: "s", Assumed: types.Int, Generation: 0},
	})
	if err == nil {
		t.Fatal("failures from two generations must be rejected")
	}
	if _, err := c.HandleAll(context.Background(), nil); err == nil {
		t.Fatal("empty batch must be rejected")
	}
}

func TestHandleRecompileError(t *testing.T) {
	boom := errors.New("boom")
	c := NewController(NewStore(), &fakeEngine{fail: boom}, zerolog.Nop())
	_, err := c.Handle(context.Background(), &Signal{Key: FunctionKey{Function: "f"}, Assumed: types.Int, Value: 1.5})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped recompile error, got %v", err)
	}
}

func TestSignalIsAnError(t *testing.T) {
	var err error = &Signal{Key: FunctionKey{Function: "f"}, Point: 2, Value: 2.5, Assumed: types.Int}
	sig, ok := AsSignal(errors.Join(errors.New("ctx"), err))
	if !ok || sig.Point != 2 || sig.Observed() != types.Number {
		t.Fatalf("unexpected unwrap %v %v", sig, ok)
	}
}

func TestRestartBound(t *testing.T) {
	if RestartBound(3) != 3*types.Height+1 {
		t.Fatal("unexpected bound")
	}
}
