package linker

import (
	"fmt"
	"reflect"

	"tachyon/internal/value"
)

type hostKey struct {
	op   Op
	name string
	typ  reflect.Type
}

// hostStrategy reaches into arbitrary Go values by reflection: struct fields
// and methods, string-keyed maps, slices and plain Go funcs. What a type
// exposes is computed once per type by the FactsCache.
type hostStrategy struct {
	facts *FactsCache
}

func (hostStrategy) Name() string { return "host" }

func (hostStrategy) CanLink(recv value.Value) bool {
	if value.IsNullish(recv) {
		return false
	}
	t := reflect.TypeOf(recv)
	switch t.Kind() {
	case reflect.Struct, reflect.Slice, reflect.Func:
		return true
	case reflect.Map:
		return t.Key().Kind() == reflect.String
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	}
	return false
}

func (s hostStrategy) Link(req *Request) (*GuardedImplementation, error) {
	t := reflect.TypeOf(req.Receiver)
	d := req.Desc
	g := &GuardedImplementation{
		Guard: func(recv value.Value, _ []value.Value) bool {
			return reflect.TypeOf(recv) == t
		},
		Key:   hostKey{op: d.Op, name: d.Name, typ: t},
		Label: "host " + t.String(),
	}
	var err error
	switch t.Kind() {
	case reflect.Map:
		g.Invoke = hostMap(d)
	case reflect.Slice:
		g.Invoke = hostSlice(d)
	case reflect.Func:
		g.Invoke = hostFunc(d, t)
	default:
		g.Invoke, err = s.hostStruct(d, t)
	}
	if err != nil || g.Invoke == nil {
		return nil, err
	}
	return g, nil
}

func (s hostStrategy) hostStruct(d Descriptor, t reflect.Type) (Invoker, error) {
	if !d.Named {
		return nil, nil
	}
	facts, err := s.facts.Of(t)
	if err != nil {
		return nil, err
	}
	m, ok := facts.Lookup(d.Name)
	switch d.Op {
	case OpGet:
		if !ok {
			return func(*value.Journal, value.Value, []value.Value) (value.Value, error) {
				return value.Undefined, nil
			}, nil
		}
		if m.Kind == MemberMethod {
			fn := m.Method
			return func(*value.Journal, value.Value, []value.Value) (value.Value, error) {
				return fn, nil
			}, nil
		}
		idx := m.Index
		return func(_ *value.Journal, recv value.Value, _ []value.Value) (value.Value, error) {
			return fromGo(reflect.Indirect(reflect.ValueOf(recv)).FieldByIndex(idx)), nil
		}, nil
	case OpSet:
		// Only fields behind a pointer are addressable.
		if !ok || m.Kind != MemberField || t.Kind() != reflect.Pointer {
			return nil, nil
		}
		idx, ft := m.Index, m.Type
		return func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			v := value.Arg(args, 0)
			nv, err := toGo(v, ft)
			if err != nil {
				return nil, err
			}
			field := reflect.ValueOf(recv).Elem().FieldByIndex(idx)
			old := reflect.New(ft).Elem()
			old.Set(field)
			field.Set(nv)
			j.OnRollback(func() { field.Set(old) })
			return v, nil
		}, nil
	}
	return nil, nil
}

func hostMap(d Descriptor) Invoker {
	key := func(args []value.Value) (string, []value.Value) {
		if d.Named {
			return d.Name, args
		}
		return value.ToPropertyKey(value.Arg(args, 0)), args[min(1, len(args)):]
	}
	switch d.Op {
	case OpGet:
		return func(_ *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			k, _ := key(args)
			m := reflect.ValueOf(recv)
			v := m.MapIndex(reflect.ValueOf(k).Convert(m.Type().Key()))
			if !v.IsValid() {
				return value.Undefined, nil
			}
			return fromGo(v), nil
		}
	case OpSet:
		return func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			k, rest := key(args)
			v := value.Arg(rest, 0)
			m := reflect.ValueOf(recv)
			if m.IsNil() {
				return nil, fmt.Errorf("assignment to entry in nil map")
			}
			kv := reflect.ValueOf(k).Convert(m.Type().Key())
			nv, err := toGo(v, m.Type().Elem())
			if err != nil {
				return nil, err
			}
			old := m.MapIndex(kv)
			m.SetMapIndex(kv, nv)
			j.OnRollback(func() {
				// Zero Value deletes the key.
				m.SetMapIndex(kv, old)
			})
			return v, nil
		}
	case OpDelete:
		return func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
			k, _ := key(args)
			m := reflect.ValueOf(recv)
			kv := reflect.ValueOf(k).Convert(m.Type().Key())
			if old := m.MapIndex(kv); old.IsValid() {
				m.SetMapIndex(kv, reflect.Value{})
				j.OnRollback(func() { m.SetMapIndex(kv, old) })
			}
			return true, nil
		}
	}
	return nil
}

func hostSlice(d Descriptor) Invoker {
	if d.Op != OpGet {
		return nil
	}
	return func(_ *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
		s := reflect.ValueOf(recv)
		name := d.Name
		if !d.Named {
			k := value.Arg(args, 0)
			if i, ok := value.ArrayIndex(k); ok {
				if i >= s.Len() {
					return value.Undefined, nil
				}
				return fromGo(s.Index(i)), nil
			}
			name = value.ToPropertyKey(k)
		}
		if name == "length" {
			return value.Number(float64(s.Len())), nil
		}
		return value.Undefined, nil
	}
}

func hostFunc(d Descriptor, t reflect.Type) Invoker {
	if d.Op != OpCall {
		return nil
	}
	return func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
		if len(args) > 0 {
			args = args[1:] // this
		}
		n := t.NumIn()
		if t.IsVariadic() {
			n--
		}
		in := make([]reflect.Value, 0, len(args))
		for i := 0; i < n; i++ {
			av, err := toGo(value.Arg(args, i), t.In(i))
			if err != nil {
				return nil, err
			}
			in = append(in, av)
		}
		if t.IsVariadic() {
			for _, a := range args[min(n, len(args)):] {
				av, err := toGo(a, t.In(n).Elem())
				if err != nil {
					return nil, err
				}
				in = append(in, av)
			}
		}
		j.MarkIrreversible()
		out := reflect.ValueOf(recv).Call(in)
		if k := len(out); k > 0 && t.Out(t.NumOut()-1) == errorType {
			if e := out[k-1]; !e.IsNil() {
				return nil, e.Interface().(error)
			}
			out = out[:k-1]
		}
		if len(out) == 0 {
			return value.Undefined, nil
		}
		return fromGo(out[0]), nil
	}
}
