// Package value is the runtime value model shared by the linker and the
// reference code generator.
//
// Numbers have a canonical representation: a number that is exactly
// representable as int32 (and is not negative zero) is stored as int32,
// everything else as float64. Canonical form keeps results of optimistic int
// arithmetic and of generic arithmetic indistinguishable, which is what makes
// deoptimization unobservable.
package value

import (
	"fmt"
	"math"

	"tachyon/internal/types"
)

// Value is any runtime value: Undefined, Null, bool, int32, float64, string,
// *Object, *Function, *Array, *HostClass or an arbitrary host Go value.
type Value = any

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

type nullType struct{}

func (nullType) String() string { return "null" }

var (
	// Undefined is the value of missing properties and bare returns.
	Undefined Value = undefinedType{}
	// Null is the null literal.
	Null Value = nullType{}
)

func IsUndefined(v Value) bool {
	_, ok := v.(undefinedType)
	return ok
}

func IsNull(v Value) bool {
	_, ok := v.(nullType)
	return ok
}

// IsNullish reports undefined or null.
func IsNullish(v Value) bool {
	return v == nil || IsUndefined(v) || IsNull(v)
}

// Number returns the canonical representation of f.
func Number(f float64) Value {
	if f >= math.MinInt32 && f <= math.MaxInt32 && f == math.Trunc(f) {
		if f == 0 && math.Signbit(f) {
			return f
		}
		return int32(f)
	}
	return f
}

// Int wraps an int32; provided for symmetry with Number.
func Int(i int32) Value {
	return i
}

// TypeOf maps a value to its narrowest lattice type.
func TypeOf(v Value) types.Type {
	switch v.(type) {
	case bool:
		return types.Boolean
	case int32:
		return types.Int
	case float64:
		return types.Number
	case string:
		return types.String
	default:
		return types.Object
	}
}

// Fits reports whether v is representable in t.
func Fits(v Value, t types.Type) bool {
	return TypeOf(v).LessEq(t)
}

// Describe is a short debugging label for a value.
func Describe(v Value) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", x)
	case *Object:
		return fmt.Sprintf("object#%d", x.Shape().ID())
	case *Function:
		return "function " + x.Name
	case *Array:
		return fmt.Sprintf("array[%d]", x.Len())
	}
	return ToString(v)
}
