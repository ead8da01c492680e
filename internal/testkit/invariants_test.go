package testkit

import (
	"context"
	"strings"
	"testing"

	"tachyon/internal/codegen"
	"tachyon/internal/ir"
	"tachyon/internal/source"
)

func compiled(t *testing.T, fn *ir.Function) (*ir.Function, map[string]int) {
	t.Helper()
	unit, err := codegen.Compile(context.Background(), fn, nil, codegen.Options{})
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	for id, info := range unit.Functions {
		counts[id] = info.Points
	}
	return unit.Root, counts
}

func TestInvariantsAcceptCompiledTree(t *testing.T) {
	add := ir.Bin(ir.OpAdd, ir.Global("a"), ir.Num(1))
	add.Sp = source.Span{Start: 10, End: 15}
	fn := ir.Fn("f", "f", nil, ir.Ret(add))
	fn.Sp = source.Span{Start: 0, End: 20}
	root, counts := compiled(t, fn)
	if err := CheckPointInvariants(root, counts); err != nil {
		t.Fatal(err)
	}
}

func TestInvariantsReject(t *testing.T) {
	t.Run("count mismatch", func(t *testing.T) {
		root, counts := compiled(t, ir.Fn("f", "f", nil, ir.Ret(ir.Global("a"))))
		counts["f"]++
		if err := CheckPointInvariants(root, counts); err == nil || !strings.Contains(err.Error(), "count") {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("unnumbered function", func(t *testing.T) {
		root, _ := compiled(t, ir.Fn("f", "f", nil, ir.Ret(ir.Global("a"))))
		if err := CheckPointInvariants(root, map[string]int{}); err == nil {
			t.Fatal("points in an unnumbered function accepted")
		}
	})
	t.Run("span outside function", func(t *testing.T) {
		g := ir.Global("a")
		ret := ir.Ret(g)
		ret.Sp = source.Span{Start: 30, End: 40}
		fn := ir.Fn("f", "f", nil, ret)
		fn.Sp = source.Span{Start: 0, End: 20}
		root, counts := compiled(t, fn)
		if err := CheckPointInvariants(root, counts); err == nil {
			t.Fatal("stray span accepted")
		}
	})
}
