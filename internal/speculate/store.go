package speculate

import (
	"fmt"
	"sort"
	"sync"

	"tachyon/internal/ir"
	"tachyon/internal/types"
)

// FunctionKey identifies one specialization of a function: the same source
// function can learn different types when called with different argument
// shapes.
type FunctionKey struct {
	Function string
	Context  string
}

func (k FunctionKey) String() string {
	if k.Context == "" {
		return k.Function
	}
	return k.Function + "/" + k.Context
}

// ArityContext is the calling-context class for a call with argc arguments
// to a function declaring arity parameters.
func ArityContext(argc, arity int) string {
	switch {
	case argc == arity:
		return "exact"
	case argc < arity:
		return fmt.Sprintf("under%d", arity-argc)
	default:
		return fmt.Sprintf("over%d", argc-arity)
	}
}

// PointState classifies a program point for one key.
type PointState uint8

const (
	// Optimistic points have no entry and use their most optimistic type.
	Optimistic PointState = iota
	// Widened points have failed at least once.
	Widened
	// Stable points are at the widest type and can no longer fail.
	Stable
)

func (s PointState) String() string {
	switch s {
	case Widened:
		return "widened"
	case Stable:
		return "stable"
	default:
		return "optimistic"
	}
}

type entry struct {
	mu    sync.Mutex
	types map[ir.ProgramPoint]types.Type
}

// Store holds widened types per function key and program point. Safe for
// concurrent use; each key has its own lock.
type Store struct {
	mu      sync.RWMutex
	entries map[FunctionKey]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[FunctionKey]*entry)}
}

func (s *Store) entry(key FunctionKey, create bool) *entry {
	s.mu.RLock()
	e := s.entries[key]
	s.mu.RUnlock()
	if e != nil || !create {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.entries[key]; e == nil {
		e = &entry{types: make(map[ir.ProgramPoint]types.Type)}
		s.entries[key] = e
	}
	return e
}

// Widen records t for pp unless the stored type is already at least as wide.
// It reports whether the entry changed. Entries never become narrower.
func (s *Store) Widen(key FunctionKey, pp ir.ProgramPoint, t types.Type) bool {
	if !pp.IsValid() || !t.IsValid() {
		return false
	}
	e := s.entry(key, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	old, ok := e.types[pp]
	if ok && t.LessEq(old) {
		return false
	}
	if ok {
		t = types.Join(old, t)
	}
	e.types[pp] = t
	return true
}

// Lookup returns the recorded type for pp.
func (s *Store) Lookup(key FunctionKey, pp ir.ProgramPoint) (types.Type, bool) {
	e := s.entry(key, false)
	if e == nil {
		return types.Invalid, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.types[pp]
	return t, ok
}

// State classifies pp.
func (s *Store) State(key FunctionKey, pp ir.ProgramPoint) PointState {
	t, ok := s.Lookup(key, pp)
	switch {
	case !ok:
		return Optimistic
	case t.IsWidest():
		return Stable
	default:
		return Widened
	}
}

// Snapshot copies the entries of key.
func (s *Store) Snapshot(key FunctionKey) map[ir.ProgramPoint]types.Type {
	e := s.entry(key, false)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[ir.ProgramPoint]types.Type, len(e.types))
	for pp, t := range e.types {
		out[pp] = t
	}
	return out
}

// Restore merges saved entries into key with widening semantics.
func (s *Store) Restore(key FunctionKey, saved map[ir.ProgramPoint]types.Type) {
	for pp, t := range saved {
		s.Widen(key, pp, t)
	}
}

// Keys lists the keys with entries, sorted.
func (s *Store) Keys() []FunctionKey {
	s.mu.RLock()
	keys := make([]FunctionKey, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Function != keys[j].Function {
			return keys[i].Function < keys[j].Function
		}
		return keys[i].Context < keys[j].Context
	})
	return keys
}

// KeysOf lists the keys belonging to function.
func (s *Store) KeysOf(function string) []FunctionKey {
	var out []FunctionKey
	for _, k := range s.Keys() {
		if k.Function == function {
			out = append(out, k)
		}
	}
	return out
}

// View is the store seen from one calling context, as consumed by the
// optimistic-types pass.
type View struct {
	store   *Store
	context string
}

// View returns the read side for context.
func (s *Store) View(context string) View {
	return View{store: s, context: context}
}

func (v View) Assumed(function string, pp ir.ProgramPoint) (types.Type, bool) {
	return v.store.Lookup(FunctionKey{Function: function, Context: v.context}, pp)
}
