package linker

import (
	"fmt"
	"strings"

	"tachyon/internal/value"
)

type kindKey struct {
	op   Op
	name string
	kind string
}

var arrayMethods = map[string]*value.Function{
	"push": value.NewNative("push", 1, func(j *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
		a, ok := this.(*value.Array)
		if !ok {
			return nil, fmt.Errorf("push called on %s", describe(this))
		}
		n := a.Len()
		for _, v := range args {
			n = a.Push(j, v)
		}
		return value.Int(int32(n)), nil
	}),
	"join": value.NewNative("join", 1, func(_ *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
		a, ok := this.(*value.Array)
		if !ok {
			return nil, fmt.Errorf("join called on %s", describe(this))
		}
		sep := ","
		if s := value.Arg(args, 0); !value.IsUndefined(s) {
			sep = value.ToString(s)
		}
		parts := make([]string, a.Len())
		for i := range parts {
			if el := a.At(i); !value.IsNullish(el) {
				parts[i] = value.ToString(el)
			}
		}
		return strings.Join(parts, sep), nil
	}),
}

// arrayStrategy links element access, length and the built-in methods of
// script arrays.
type arrayStrategy struct{}

func (arrayStrategy) Name() string { return "array" }

func (arrayStrategy) CanLink(recv value.Value) bool {
	_, ok := recv.(*value.Array)
	return ok
}

func (arrayStrategy) Link(req *Request) (*GuardedImplementation, error) {
	d := req.Desc
	g := &GuardedImplementation{
		Guard: func(recv value.Value, _ []value.Value) bool {
			_, ok := recv.(*value.Array)
			return ok
		},
		Key: kindKey{op: d.Op, name: d.Name, kind: "array"},
	}
	switch {
	case d.Op == OpGet && d.Named:
		g.Label = "array." + d.Name
		name := d.Name
		g.Invoke = func(_ *value.Journal, recv value.Value, _ []value.Value) (value.Value, error) {
			return arrayGet(recv.(*value.Array), name), nil
		}
	case d.Op == OpGet:
		g.Label = "array.element"
		g.Invoke = func(_ *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			a := recv.(*value.Array)
			key := value.Arg(args, 0)
			if i, ok := value.ArrayIndex(key); ok {
				return a.At(i), nil
			}
			return arrayGet(a, value.ToPropertyKey(key)), nil
		}
	case d.Op == OpSet && !d.Named:
		g.Label = "array.store"
		g.Invoke = func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			key, v := value.Arg(args, 0), value.Arg(args, 1)
			i, ok := value.ArrayIndex(key)
			if !ok {
				return nil, fmt.Errorf("cannot set array property %s", value.ToPropertyKey(key))
			}
			recv.(*value.Array).SetAt(j, i, v)
			return v, nil
		}
	default:
		return nil, nil
	}
	return g, nil
}

func arrayGet(a *value.Array, name string) value.Value {
	if name == "length" {
		return value.Int(int32(a.Len()))
	}
	if fn, ok := arrayMethods[name]; ok {
		return fn
	}
	return value.Undefined
}
