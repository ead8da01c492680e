package linker

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"tachyon/internal/value"
)

func primitiveKind(v value.Value) string {
	switch v.(type) {
	case string:
		return "string"
	case int32, float64:
		return "number"
	case bool:
		return "boolean"
	}
	return ""
}

func stringThis(name string, this value.Value) (string, error) {
	s, ok := this.(string)
	if !ok {
		return "", fmt.Errorf("%s called on %s", name, describe(this))
	}
	return s, nil
}

func stringMethod(name string, arity int, fn func(s string, args []value.Value) (value.Value, error)) *value.Function {
	return value.NewNative(name, arity, func(_ *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
		s, err := stringThis(name, this)
		if err != nil {
			return nil, err
		}
		return fn(s, args)
	})
}

var stringMethods = map[string]*value.Function{
	"charAt": stringMethod("charAt", 1, func(s string, args []value.Value) (value.Value, error) {
		return charAt(s, int(value.ToNumber(value.Arg(args, 0)))), nil
	}),
	"indexOf": stringMethod("indexOf", 1, func(s string, args []value.Value) (value.Value, error) {
		i := strings.Index(s, value.ToString(value.Arg(args, 0)))
		if i < 0 {
			return value.Int(-1), nil
		}
		return value.Int(int32(len(utf16.Encode([]rune(s[:i]))))), nil
	}),
	"toUpperCase": stringMethod("toUpperCase", 0, func(s string, _ []value.Value) (value.Value, error) {
		return strings.ToUpper(s), nil
	}),
	"toLowerCase": stringMethod("toLowerCase", 0, func(s string, _ []value.Value) (value.Value, error) {
		return strings.ToLower(s), nil
	}),
	"trim": stringMethod("trim", 0, func(s string, _ []value.Value) (value.Value, error) {
		return strings.TrimSpace(s), nil
	}),
	"normalize": stringMethod("normalize", 1, func(s string, args []value.Value) (value.Value, error) {
		form := "NFC"
		if f := value.Arg(args, 0); !value.IsUndefined(f) {
			form = value.ToString(f)
		}
		switch form {
		case "NFC":
			return norm.NFC.String(s), nil
		case "NFD":
			return norm.NFD.String(s), nil
		case "NFKC":
			return norm.NFKC.String(s), nil
		case "NFKD":
			return norm.NFKD.String(s), nil
		}
		return nil, fmt.Errorf("normalization form must be one of NFC, NFD, NFKC, NFKD, got %q", form)
	}),
}

var numberMethods = map[string]*value.Function{
	"toFixed": value.NewNative("toFixed", 1, func(_ *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
		digits := int(value.ToNumber(value.Arg(args, 0)))
		if digits < 0 || digits > 100 {
			return nil, fmt.Errorf("toFixed digits %d out of range", digits)
		}
		f := value.ToNumber(this)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.ToString(f), nil
		}
		return strconv.FormatFloat(f, 'f', digits, 64), nil
	}),
}

var toStringMethod = value.NewNative("toString", 0, func(_ *value.Journal, this value.Value, _ []value.Value) (value.Value, error) {
	return value.ToString(this), nil
})

// charAt indexes s by UTF-16 code unit, the unit `length` counts in.
func charAt(s string, i int) string {
	units := utf16.Encode([]rune(s))
	if i < 0 || i >= len(units) {
		return ""
	}
	return string(utf16.Decode(units[i : i+1]))
}

// primitiveStrategy links reads on strings, numbers and booleans. Writes and
// deletes on primitives are accepted and have no effect.
type primitiveStrategy struct{}

func (primitiveStrategy) Name() string { return "primitive" }

func (primitiveStrategy) CanLink(recv value.Value) bool {
	return primitiveKind(recv) != ""
}

func (primitiveStrategy) Link(req *Request) (*GuardedImplementation, error) {
	d := req.Desc
	kind := primitiveKind(req.Receiver)
	g := &GuardedImplementation{
		Guard: func(recv value.Value, _ []value.Value) bool {
			return primitiveKind(recv) == kind
		},
		Key:   kindKey{op: d.Op, name: d.Name, kind: kind},
		Label: kind + "." + d.Op.String(),
	}
	switch d.Op {
	case OpGet:
		named, name := d.Named, d.Name
		g.Invoke = func(_ *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			key := name
			if !named {
				k := value.Arg(args, 0)
				if s, ok := recv.(string); ok {
					if i, ok := value.ArrayIndex(k); ok {
						if c := charAt(s, i); c != "" {
							return c, nil
						}
						return value.Undefined, nil
					}
				}
				key = value.ToPropertyKey(k)
			}
			return primitiveGet(kind, recv, key), nil
		}
	case OpSet:
		g.Invoke = func(_ *value.Journal, _ value.Value, args []value.Value) (value.Value, error) {
			if d.Named {
				return value.Arg(args, 0), nil
			}
			return value.Arg(args, 1), nil
		}
	case OpDelete:
		g.Invoke = func(*value.Journal, value.Value, []value.Value) (value.Value, error) {
			return true, nil
		}
	default:
		return nil, nil
	}
	return g, nil
}

func primitiveGet(kind string, recv value.Value, name string) value.Value {
	if name == "toString" {
		return toStringMethod
	}
	switch kind {
	case "string":
		if name == "length" {
			return value.Int(int32(len(utf16.Encode([]rune(recv.(string))))))
		}
		if fn, ok := stringMethods[name]; ok {
			return fn
		}
	case "number":
		if fn, ok := numberMethods[name]; ok {
			return fn
		}
	}
	return value.Undefined
}
