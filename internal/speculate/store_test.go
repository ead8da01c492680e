package speculate

import (
	"sync"
	"testing"

	"tachyon/internal/ir"
	"tachyon/internal/types"
)

func TestWidenNeverRegresses(t *testing.T) {
	s := NewStore()
	key := FunctionKey{Function: "f", Context: "exact"}
	steps := []struct {
		t       types.Type
		want    types.Type
		changed bool
	}{
		{types.Int, types.Int, true},
		{types.Int, types.Int, false},
		{types.Number, types.Number, true},
		{types.Int, types.Number, false},
		{types.Boolean, types.Object, true},
		{types.Number, types.Object, false},
	}
	for i, st := range steps {
		if changed := s.Widen(key, 3, st.t); changed != st.changed {
			t.Fatalf("step %d: changed=%v, want %v", i, changed, st.changed)
		}
		if got, _ := s.Lookup(key, 3); got != st.want {
			t.Fatalf("step %d: stored %s, want %s", i, got, st.want)
		}
	}
	if s.State(key, 3) != Stable || s.State(key, 4) != Optimistic {
		t.Fatal("unexpected point states")
	}
}

func TestContextsAreIndependent(t *testing.T) {
	s := NewStore()
	s.Widen(FunctionKey{"f", "exact"}, 0, types.Number)
	if _, ok := s.View("over1").Assumed("f", 0); ok {
		t.Fatal("assumption leaked across calling contexts")
	}
	if got, ok := s.View("exact").Assumed("f", 0); !ok || got != types.Number {
		t.Fatalf("got %s %v", got, ok)
	}
}

func TestConcurrentWidenKeepsWidest(t *testing.T) {
	s := NewStore()
	key := FunctionKey{Function: "f"}
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ty := []types.Type{types.Int, types.Number, types.Int, types.Number}[i%4]
			s.Widen(key, ir.ProgramPoint(i%8), ty)
		}(i)
	}
	wg.Wait()
	for pp := ir.ProgramPoint(0); pp < 8; pp++ {
		if got, _ := s.Lookup(key, pp); got != types.Number && pp%2 == 1 {
			t.Fatalf("pp %d: got %s, want number", pp, got)
		}
	}
}

func TestArityContext(t *testing.T) {
	if ArityContext(2, 2) != "exact" || ArityContext(1, 3) != "under2" || ArityContext(4, 1) != "over3" {
		t.Fatal("unexpected context classes")
	}
}

func TestWidenTarget(t *testing.T) {
	tests := []struct{ assumed, observed, want types.Type }{
		{types.Int, types.Number, types.Number},
		{types.Int, types.String, types.Object},
		{types.Int, types.Int, types.Number},
		{types.Number, types.Int, types.Object},
		{types.String, types.String, types.Object},
	}
	for _, tt := range tests {
		if got := WidenTarget(tt.assumed, tt.observed); got != tt.want {
			t.Errorf("%s/%s: got %s, want %s", tt.assumed, tt.observed, got, tt.want)
		}
	}
}
