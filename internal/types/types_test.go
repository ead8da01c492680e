package types

import "testing"

func TestJoin(t *testing.T) {
	tests := []struct {
		a, b, want Type
	}{
		{Int, Int, Int},
		{Int, Number, Number},
		{Number, Int, Number},
		{Int, String, Object},
		{Boolean, Int, Object},
		{Invalid, String, String},
		{Object, Int, Object},
	}
	for _, tt := range tests {
		if got := Join(tt.a, tt.b); got != tt.want {
			t.Errorf("Join(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNextIsMonotoneAndBounded(t *testing.T) {
	for _, start := range []Type{Int, Number, Boolean, String, Object} {
		cur := start
		steps := 0
		for !cur.IsWidest() {
			next := cur.Next()
			if !cur.NarrowerThan(next) {
				t.Fatalf("%v.Next() = %v is not wider", cur, next)
			}
			cur = next
			steps++
		}
		if steps > Height {
			t.Fatalf("chain from %v took %d steps, height is %d", start, steps, Height)
		}
	}
	if Object.Next() != Object {
		t.Fatalf("Object must be its own successor")
	}
}

func TestParseRoundTrip(t *testing.T) {
	for ty := Invalid; ty <= Object; ty++ {
		got, err := Parse(ty.String())
		if err != nil || got != ty {
			t.Fatalf("Parse(%q) = %v, %v", ty.String(), got, err)
		}
	}
	if _, err := Parse("long"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
