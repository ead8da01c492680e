// Package testkit holds checks shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"tachyon/internal/ir"
	"tachyon/internal/types"
)

// CheckPointInvariants verifies an annotated tree against the point counts
// the compiler reported:
// 1) every assigned point of a function is unique and below its count
// 2) the number of assigned points equals the count
// 3) every assigned point carries a resolved type
// 4) functions without a count (lazily skipped) carry no points at all
// 5) positioned nodes lie inside their function's span
func CheckPointInvariants(root *ir.Function, counts map[string]int) error {
	var check func(fn *ir.Function) error
	check = func(fn *ir.Function) error {
		count, numbered := counts[fn.ID]
		limit, err := safecast.Conv[int32](count)
		if err != nil {
			return fmt.Errorf("%s: point count overflow: %w", fn.ID, err)
		}
		seen := make(map[ir.ProgramPoint]ir.Node)
		var bad error
		ir.Inspect(fn, func(n ir.Node) bool {
			if bad != nil {
				return false
			}
			if f, ok := n.(*ir.Function); ok && f != fn {
				return false
			}
			if sp, outer := n.Span(), fn.Span(); !sp.Empty() && !outer.Empty() && outer.Cover(sp) != outer {
				bad = fmt.Errorf("%s: node span %s outside function span %s", fn.ID, sp, outer)
				return false
			}
			o, ok := n.(ir.Optimistic)
			if !ok {
				return true
			}
			pp := o.ProgramPoint()
			if !pp.IsValid() {
				return true
			}
			switch {
			case !numbered:
				bad = fmt.Errorf("%s: point %d assigned in a function that was not numbered", fn.ID, pp)
			case int32(pp) >= limit:
				bad = fmt.Errorf("%s: point %d outside count %d", fn.ID, pp, count)
			case seen[pp] != nil:
				bad = fmt.Errorf("%s: point %d assigned twice", fn.ID, pp)
			case o.OptimisticType() == types.Invalid:
				bad = fmt.Errorf("%s: point %d has no type", fn.ID, pp)
			}
			seen[pp] = n
			return true
		})
		if bad != nil {
			return bad
		}
		if numbered && len(seen) != count {
			return fmt.Errorf("%s: %d points assigned, count is %d", fn.ID, len(seen), count)
		}
		for _, nested := range ir.NestedFunctions(fn) {
			if err := check(nested); err != nil {
				return err
			}
		}
		return nil
	}
	return check(root)
}
