package linker

import "tachyon/internal/value"

// Guard decides whether a cached implementation applies to this receiver.
// It must be cheap and free of side effects.
type Guard func(recv value.Value, args []value.Value) bool

// Invoker performs the operation.
type Invoker func(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error)

// GuardedImplementation is a linked operation together with the conditions
// under which it stays valid.
type GuardedImplementation struct {
	Guard  Guard
	Invoke Invoker
	// SwitchPoints cover facts the guard cannot test; if any flips the entry
	// is dropped.
	SwitchPoints []*value.SwitchPoint
	// Key identifies what the entry was linked for (shape, type, identity).
	// Two entries with equal non-nil keys are interchangeable, so racing
	// first links install only one.
	Key   any
	Label string
}

// Valid reports whether none of the switch points has been invalidated.
func (g *GuardedImplementation) Valid() bool {
	for _, sp := range g.SwitchPoints {
		if sp.Invalidated() {
			return false
		}
	}
	return true
}

// Applies reports whether g is valid and its guard accepts the receiver.
func (g *GuardedImplementation) Applies(recv value.Value, args []value.Value) bool {
	return g.Valid() && (g.Guard == nil || g.Guard(recv, args))
}
