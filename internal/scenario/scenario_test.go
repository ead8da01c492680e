package scenario

import (
	"bytes"
	"context"
	"testing"

	"github.com/kr/pretty"

	"tachyon/internal/engine"
	"tachyon/internal/linker"
	"tachyon/internal/value"
)

func run(t *testing.T, name string) (*engine.Runtime, []Result, string) {
	t.Helper()
	s, ok := Lookup(name)
	if !ok {
		t.Fatalf("no scenario %q", name)
	}
	rt, err := engine.New(engine.Config{Lazy: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })
	var out bytes.Buffer
	results, err := s.Run(context.Background(), rt, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Label, r.Err)
		}
	}
	return rt, results, out.String()
}

func values(results []Result) []value.Value {
	out := make([]value.Value, len(results))
	for i, r := range results {
		out[i] = r.Value
	}
	return out
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name   string
		want   []value.Value
		output string
	}{
		{"add", []value.Value{value.Undefined, int32(3), 4.5, int32(3), 2147483648.0}, ""},
		{"megamorphic", []value.Value{int32(45)}, ""},
		{"effects", []value.Value{int32(1)}, "before the miss\n1.5\n"},
		{"nested", []value.Value{3.5, int32(2), int32(3)}, ""},
		{"host", []value.Value{int32(-5)}, "ada cannot withdraw 100\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, results, out := run(t, tt.name)
			if diff := pretty.Diff(values(results), tt.want); len(diff) > 0 {
				t.Fatalf("results differ:\n%v", diff)
			}
			if out != tt.output {
				t.Fatalf("output = %q, want %q", out, tt.output)
			}
		})
	}
}

func TestMegamorphicSiteCollapses(t *testing.T) {
	rt, _, _ := run(t, "megamorphic")
	var found bool
	for _, c := range rt.Compiled() {
		if c.Key.Function != "getX" {
			continue
		}
		for _, s := range c.Sites() {
			if s.Desc.String() == "GET:x" {
				found = true
				if s.Stats.State != linker.Megamorphic {
					t.Fatalf("site state = %v after %d shapes", s.Stats.State, megamorphicShapes)
				}
			}
		}
	}
	if !found {
		t.Fatal("getX has no GET:x site")
	}
}

func TestNamesSorted(t *testing.T) {
	want := []string{"add", "effects", "host", "megamorphic", "nested"}
	if diff := pretty.Diff(Names(), want); len(diff) > 0 {
		t.Fatalf("names differ: %v", diff)
	}
}
