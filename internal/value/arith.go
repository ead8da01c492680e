package value

import "math"

// AddInt32 adds with overflow detection; ok is false when the exact result
// does not fit an int32.
func AddInt32(a, b int32) (int32, bool) {
	r := int64(a) + int64(b)
	return int32(r), r >= math.MinInt32 && r <= math.MaxInt32
}

func SubInt32(a, b int32) (int32, bool) {
	r := int64(a) - int64(b)
	return int32(r), r >= math.MinInt32 && r <= math.MaxInt32
}

// MulInt32 also rejects results that should be negative zero.
func MulInt32(a, b int32) (int32, bool) {
	r := int64(a) * int64(b)
	if r == 0 && (a < 0 || b < 0) {
		return 0, false
	}
	return int32(r), r >= math.MinInt32 && r <= math.MaxInt32
}

// Add implements the generic + operator.
func Add(a, b Value) Value {
	_, as := a.(string)
	_, bs := b.(string)
	if as || bs {
		return ToString(primitive(a)) + ToString(primitive(b))
	}
	if x, ok := a.(int32); ok {
		if y, ok := b.(int32); ok {
			if r, ok := AddInt32(x, y); ok {
				return r
			}
		}
	}
	pa, pb := primitive(a), primitive(b)
	_, as = pa.(string)
	_, bs = pb.(string)
	if as || bs {
		return ToString(pa) + ToString(pb)
	}
	return Number(ToNumber(pa) + ToNumber(pb))
}

// primitive turns objects into their string form, which is the only
// conversion this runtime supports for them.
func primitive(v Value) Value {
	switch v.(type) {
	case *Object, *Function, *Array:
		return ToString(v)
	}
	return v
}

func Sub(a, b Value) Value {
	return Number(ToNumber(a) - ToNumber(b))
}

func Mul(a, b Value) Value {
	return Number(ToNumber(a) * ToNumber(b))
}

func Div(a, b Value) Value {
	return Number(ToNumber(a) / ToNumber(b))
}

func Mod(a, b Value) Value {
	x, y := ToNumber(a), ToNumber(b)
	if y == 0 || math.IsInf(x, 0) || math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if math.IsInf(y, 0) {
		return Number(x)
	}
	return Number(math.Mod(x, y))
}

func Neg(a Value) Value {
	if x, ok := a.(int32); ok && x != 0 && x != math.MinInt32 {
		return -x
	}
	return Number(-ToNumber(a))
}

func BitAnd(a, b Value) Value { return ToInt32(a) & ToInt32(b) }
func BitOr(a, b Value) Value  { return ToInt32(a) | ToInt32(b) }
func BitXor(a, b Value) Value { return ToInt32(a) ^ ToInt32(b) }
func Shl(a, b Value) Value    { return ToInt32(a) << (ToUint32(b) & 31) }
func Sar(a, b Value) Value    { return ToInt32(a) >> (ToUint32(b) & 31) }

// Shr is >>>; its result can exceed int32 and is therefore a speculation point.
func Shr(a, b Value) Value {
	return Number(float64(ToUint32(a) >> (ToUint32(b) & 31)))
}

// Compare returns -1, 0, 1, or ok=false when the operands are unordered (NaN).
func Compare(a, b Value) (int, bool) {
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1, true
			case as > bs:
				return 1, true
			}
			return 0, true
		}
	}
	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}
