package linker

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"tachyon/internal/value"
)

// ErrFactsStopped is returned by a cache that is not running.
var ErrFactsStopped = errors.New("host facts cache is not running")

// MemberKind distinguishes host fields from host methods.
type MemberKind uint8

const (
	MemberField MemberKind = iota + 1
	MemberMethod
)

// Member is one script-visible member of a host type.
type Member struct {
	Kind   MemberKind
	GoName string
	Type   reflect.Type // field type; nil for methods
	Index  []int        // field index path
	// Method is a shared native function that calls the Go method on its
	// `this`. One instance per type keeps CALL sites monomorphic.
	Method *value.Function
}

// TypeFacts describes what script code can reach on a host type.
type TypeFacts struct {
	Type    reflect.Type
	members map[string]*Member
}

// Lookup finds a member by its script name.
func (f *TypeFacts) Lookup(name string) (*Member, bool) {
	m, ok := f.members[name]
	return m, ok
}

// Names returns the script names in no particular order.
func (f *TypeFacts) Names() []string {
	out := make([]string, 0, len(f.members))
	for n := range f.members {
		out = append(out, n)
	}
	return out
}

// FactsCache holds TypeFacts per reflect.Type. It is filled lazily and
// idempotently: concurrent first lookups of a type build it once. The cache
// lives between Start and Shutdown of the owning runtime.
type FactsCache struct {
	running atomic.Bool
	facts   sync.Map // reflect.Type -> *TypeFacts
	group   singleflight.Group
	builds  atomic.Uint64
}

func NewFactsCache() *FactsCache {
	return &FactsCache{}
}

// Start makes the cache usable.
func (c *FactsCache) Start() error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("host facts cache already running")
	}
	return nil
}

// Shutdown stops the cache and drops everything it holds.
func (c *FactsCache) Shutdown() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	c.facts.Range(func(k, _ any) bool {
		c.facts.Delete(k)
		return true
	})
}

func (c *FactsCache) Running() bool { return c.running.Load() }

// Builds counts how many TypeFacts were computed since creation.
func (c *FactsCache) Builds() uint64 { return c.builds.Load() }

// Len is the number of cached types.
func (c *FactsCache) Len() int {
	n := 0
	c.facts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Of returns the facts for t, computing them on first use.
func (c *FactsCache) Of(t reflect.Type) (*TypeFacts, error) {
	if !c.running.Load() {
		return nil, ErrFactsStopped
	}
	if f, ok := c.facts.Load(t); ok {
		return f.(*TypeFacts), nil
	}
	v, err, _ := c.group.Do(fmt.Sprintf("%p", t), func() (any, error) {
		if f, ok := c.facts.Load(t); ok {
			return f, nil
		}
		f := buildFacts(t)
		c.builds.Add(1)
		c.facts.Store(t, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TypeFacts), nil
}

func buildFacts(t reflect.Type) *TypeFacts {
	f := &TypeFacts{Type: t, members: make(map[string]*Member)}
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		for _, sf := range reflect.VisibleFields(st) {
			if !sf.IsExported() || sf.Anonymous {
				continue
			}
			name := sf.Tag.Get("script")
			if name == "-" {
				continue
			}
			m := &Member{Kind: MemberField, GoName: sf.Name, Type: sf.Type, Index: sf.Index}
			if name != "" {
				f.members[name] = m
				continue
			}
			f.addAliases(sf.Name, m)
		}
	}
	for i := 0; i < t.NumMethod(); i++ {
		mt := t.Method(i)
		m := &Member{Kind: MemberMethod, GoName: mt.Name}
		m.Method = hostMethod(t, mt)
		f.addAliases(mt.Name, m)
	}
	return f
}

// addAliases registers a Go name under itself and its lower-camel form;
// fields win over methods of the same script name.
func (f *TypeFacts) addAliases(goName string, m *Member) {
	for _, n := range []string{goName, lowerFirst(goName)} {
		if prev, ok := f.members[n]; ok && prev.Kind == MemberField {
			continue
		}
		f.members[n] = m
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

var errorType = reflect.TypeFor[error]()

func hostMethod(t reflect.Type, mt reflect.Method) *value.Function {
	in := mt.Type.NumIn() - 1 // receiver
	return value.NewNative(lowerFirst(mt.Name), in, func(j *value.Journal, this value.Value, args []value.Value) (value.Value, error) {
		rv := reflect.ValueOf(this)
		if !rv.IsValid() || rv.Type() != t {
			return nil, fmt.Errorf("%s called on %s", mt.Name, describe(this))
		}
		ft := mt.Type
		callArgs := make([]reflect.Value, 0, in)
		for i := 0; i < in; i++ {
			pt := ft.In(i + 1)
			if ft.IsVariadic() && i == in-1 {
				for _, a := range args[min(i, len(args)):] {
					av, err := toGo(a, pt.Elem())
					if err != nil {
						return nil, err
					}
					callArgs = append(callArgs, av)
				}
				break
			}
			av, err := toGo(value.Arg(args, i), pt)
			if err != nil {
				return nil, err
			}
			callArgs = append(callArgs, av)
		}
		j.MarkIrreversible()
		out := rv.Method(mt.Index).Call(callArgs)
		if n := len(out); n > 0 && ft.Out(ft.NumOut()-1) == errorType {
			if e := out[n-1]; !e.IsNil() {
				return nil, e.Interface().(error)
			}
			out = out[:n-1]
		}
		if len(out) == 0 {
			return value.Undefined, nil
		}
		return fromGo(out[0]), nil
	})
}

// toGo converts a script value for a Go parameter or field of type t.
func toGo(v value.Value, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(int64(value.ToNumber(v))).Convert(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(uint64(value.ToNumber(v))).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(value.ToNumber(v)).Convert(t), nil
	case reflect.String:
		return reflect.ValueOf(value.ToString(v)).Convert(t), nil
	case reflect.Bool:
		return reflect.ValueOf(value.ToBoolean(v)).Convert(t), nil
	}
	if value.IsNullish(v) {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", describe(v), t)
}

// fromGo converts a Go result to a script value.
func fromGo(rv reflect.Value) value.Value {
	if !rv.IsValid() {
		return value.Undefined
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return value.Number(rv.Float())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		if rv.IsNil() {
			return value.Null
		}
	}
	return rv.Interface()
}
