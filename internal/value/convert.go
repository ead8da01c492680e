package value

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ToNumber implements the numeric coercion used by arithmetic.
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case int32:
		return float64(x)
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	if IsNull(v) {
		return 0
	}
	return math.NaN()
}

// ToNumeric returns v coerced to a canonical number value.
func ToNumeric(v Value) Value {
	switch v.(type) {
	case int32:
		return v
	}
	return Number(ToNumber(v))
}

func ToBoolean(v Value) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int32:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return !IsNullish(v)
}

func ToString(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return formatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case *Array:
		parts := make([]string, x.Len())
		for i := range parts {
			if el := x.At(i); !IsNullish(el) {
				parts[i] = ToString(el)
			}
		}
		return strings.Join(parts, ",")
	case *Function:
		return "function " + x.Name + "() { [code] }"
	case *Object:
		return "[object " + x.ClassName() + "]"
	case interface{ String() string }:
		return x.String()
	}
	if v == nil {
		return "undefined"
	}
	return reflect.TypeOf(v).String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToInt32 is the modular conversion used by bitwise operators.
func ToInt32(v Value) int32 {
	if i, ok := v.(int32); ok {
		return i
	}
	return int32(ToUint32(v))
}

func ToUint32(v Value) uint32 {
	if i, ok := v.(int32); ok {
		return uint32(i)
	}
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	f = math.Mod(f, 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

// ToPropertyKey converts an element key to a property name.
func ToPropertyKey(v Value) string {
	return ToString(v)
}

// ArrayIndex returns the integer index a key denotes, if any.
func ArrayIndex(v Value) (int, bool) {
	switch x := v.(type) {
	case int32:
		return int(x), x >= 0
	case float64:
		if x >= 0 && x == math.Trunc(x) && x < math.MaxInt32 {
			return int(x), true
		}
	case string:
		n, err := strconv.Atoi(x)
		if err == nil && n >= 0 && strconv.Itoa(n) == x {
			return n, true
		}
	}
	return 0, false
}

// Typeof implements the typeof operator.
func Typeof(v Value) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case int32, float64:
		return "number"
	case string:
		return "string"
	case *Function, *HostClass:
		return "function"
	}
	if v == nil || IsUndefined(v) {
		return "undefined"
	}
	return "object"
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	an, aNum := numeric(a)
	bn, bNum := numeric(b)
	if aNum || bNum {
		return aNum && bNum && an == bn
	}
	if IsUndefined(a) || IsUndefined(b) {
		return IsUndefined(a) && IsUndefined(b)
	}
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// LooseEquals implements == for the value kinds this runtime has.
func LooseEquals(a, b Value) bool {
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	_, aNum := numeric(a)
	_, bNum := numeric(b)
	_, aStr := a.(string)
	_, bStr := b.(string)
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if (aNum || aStr || aBool) && (bNum || bStr || bBool) && !(aStr && bStr) {
		return ToNumber(a) == ToNumber(b)
	}
	return StrictEquals(a, b)
}

func numeric(v Value) (float64, bool) {
	switch x := v.(type) {
	case int32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
