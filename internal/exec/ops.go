package exec

import (
	"tachyon/internal/ir"
	"tachyon/internal/value"
)

// intArith is the int32 fast path for code speculating on Int. ok is false
// when an operand is not an int32 or the result overflows; the generic path
// then produces the value the failed check reports.
func intArith(op ir.BinaryOp, a, b value.Value) (value.Value, bool) {
	x, ok := a.(int32)
	if !ok {
		return nil, false
	}
	y, ok := b.(int32)
	if !ok {
		return nil, false
	}
	var (
		r   int32
		fit bool
	)
	switch op {
	case ir.OpAdd:
		r, fit = value.AddInt32(x, y)
	case ir.OpSub:
		r, fit = value.SubInt32(x, y)
	case ir.OpMul:
		r, fit = value.MulInt32(x, y)
	}
	if !fit {
		return nil, false
	}
	return r, true
}

func binaryOp(op ir.BinaryOp, a, b value.Value) (value.Value, error) {
	switch op {
	case ir.OpAdd:
		return value.Add(a, b), nil
	case ir.OpSub:
		return value.Sub(a, b), nil
	case ir.OpMul:
		return value.Mul(a, b), nil
	case ir.OpDiv:
		return value.Div(a, b), nil
	case ir.OpMod:
		return value.Mod(a, b), nil
	case ir.OpBitAnd:
		return value.BitAnd(a, b), nil
	case ir.OpBitOr:
		return value.BitOr(a, b), nil
	case ir.OpBitXor:
		return value.BitXor(a, b), nil
	case ir.OpShl:
		return value.Shl(a, b), nil
	case ir.OpSar:
		return value.Sar(a, b), nil
	case ir.OpShr:
		return value.Shr(a, b), nil
	case ir.OpEq:
		return value.LooseEquals(a, b), nil
	case ir.OpNe:
		return !value.LooseEquals(a, b), nil
	case ir.OpStrictEq:
		return value.StrictEquals(a, b), nil
	case ir.OpStrictNe:
		return !value.StrictEquals(a, b), nil
	case ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		c, ok := value.Compare(a, b)
		if !ok {
			return false, nil
		}
		switch op {
		case ir.OpLt:
			return c < 0, nil
		case ir.OpLe:
			return c <= 0, nil
		case ir.OpGt:
			return c > 0, nil
		}
		return c >= 0, nil
	case ir.OpInstanceOf:
		return instanceOf(a, b)
	case ir.OpIn:
		return hasProperty(a, b)
	}
	return nil, throwError("SyntaxError", "unsupported operator %s", op)
}

func instanceOf(v, ctor value.Value) (value.Value, error) {
	fn, ok := ctor.(*value.Function)
	if !ok {
		return nil, throwError("TypeError", "right-hand side of instanceof is %s, not a function", value.Typeof(ctor))
	}
	proto := fn.PrototypeObject()
	o, ok := value.AsObject(v)
	if !ok || proto == nil {
		return false, nil
	}
	for cur := o.Proto(); cur != nil; cur = cur.Proto() {
		if cur == proto {
			return true, nil
		}
	}
	return false, nil
}

func hasProperty(key, target value.Value) (value.Value, error) {
	switch x := target.(type) {
	case *value.Array:
		if i, ok := value.ArrayIndex(key); ok {
			return i < x.Len(), nil
		}
		return value.ToPropertyKey(key) == "length", nil
	}
	o, ok := value.AsObject(target)
	if !ok {
		return nil, throwError("TypeError", "cannot use 'in' on %s", value.Typeof(target))
	}
	return o.Has(value.ToPropertyKey(key)), nil
}
