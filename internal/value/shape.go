package value

import (
	"sync"
	"sync/atomic"
)

var shapeIDs atomic.Uint64

// Shape describes the property layout of an object: which names exist and in
// which slot each lives. Shapes are immutable once created and shared between
// objects with the same layout; adding a property follows a cached transition.
type Shape struct {
	id    uint64
	names []string
	index map[string]int

	mu          sync.Mutex
	transitions map[string]*Shape
}

var emptyShape = newShape(nil)

// EmptyShape is the root of all transition trees.
func EmptyShape() *Shape {
	return emptyShape
}

func newShape(names []string) *Shape {
	s := &Shape{
		id:    shapeIDs.Add(1),
		names: names,
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		s.index[n] = i
	}
	return s
}

func (s *Shape) ID() uint64 { return s.id }

// Lookup returns the slot of name.
func (s *Shape) Lookup(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Shape) Len() int { return len(s.names) }

// Names returns the property names in slot order.
func (s *Shape) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// With returns the shape after appending name.
func (s *Shape) With(name string) *Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, ok := s.transitions[name]; ok {
		return next
	}
	names := make([]string, len(s.names)+1)
	copy(names, s.names)
	names[len(s.names)] = name
	next := newShape(names)
	if s.transitions == nil {
		s.transitions = make(map[string]*Shape)
	}
	s.transitions[name] = next
	return next
}

// Without returns a fresh, uncached shape lacking name. Deletion is rare
// enough that caching its transitions is not worth the memory.
func (s *Shape) Without(name string) *Shape {
	names := make([]string, 0, len(s.names))
	for _, n := range s.names {
		if n != name {
			names = append(names, n)
		}
	}
	return newShape(names)
}

// SwitchPoint is a one-way invalidation flag. Cached dispatch decisions that
// depend on facts a guard cannot see (a prototype's layout, say) hold the
// switch point of those facts and are discarded once it flips.
type SwitchPoint struct {
	invalid atomic.Bool
}

func NewSwitchPoint() *SwitchPoint {
	return &SwitchPoint{}
}

func (sp *SwitchPoint) Invalidate() {
	if sp != nil {
		sp.invalid.Store(true)
	}
}

func (sp *SwitchPoint) Invalidated() bool {
	return sp != nil && sp.invalid.Load()
}
