package value

// Journal records the observable effects of one invocation attempt so the
// attempt can be abandoned without a trace.
//
// Mutations are applied in place and an undo action is recorded for each;
// host effects (output, calls into the embedder) are deferred until the
// outermost journal commits. A child journal (Begin) merges into its parent on
// Commit and restores the state it found on Rollback.
//
// Calls into Go code cannot be undone; they mark the journal irreversible,
// and the mark survives both Commit and Rollback of a child.
//
// A nil *Journal is valid: mutations are applied without recording and
// deferred effects run immediately.
type Journal struct {
	parent       *Journal
	undo         []func()
	deferred     []func()
	closed       bool
	irreversible bool
}

// NewJournal opens an outermost journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Begin opens a child journal.
func (j *Journal) Begin() *Journal {
	if j == nil {
		return NewJournal()
	}
	return &Journal{parent: j}
}

// OnRollback registers an undo action.
func (j *Journal) OnRollback(undo func()) {
	if j == nil || undo == nil {
		return
	}
	j.undo = append(j.undo, undo)
}

// Defer schedules a host-visible effect for commit time.
func (j *Journal) Defer(effect func()) {
	if effect == nil {
		return
	}
	if j == nil {
		effect()
		return
	}
	j.deferred = append(j.deferred, effect)
}

// MarkIrreversible records that an effect no undo action can retract has
// already happened under j.
func (j *Journal) MarkIrreversible() {
	if j != nil {
		j.irreversible = true
	}
}

// Irreversible reports whether j, or a child closed into it, performed an
// effect that cannot be rolled back.
func (j *Journal) Irreversible() bool {
	return j != nil && j.irreversible
}

// Commit keeps the recorded effects. For an outermost journal the deferred
// effects run now, in the order they were scheduled.
func (j *Journal) Commit() {
	if j == nil || j.closed {
		return
	}
	j.closed = true
	if j.parent != nil {
		j.parent.irreversible = j.parent.irreversible || j.irreversible
		j.parent.undo = append(j.parent.undo, j.undo...)
		j.parent.deferred = append(j.parent.deferred, j.deferred...)
	} else {
		for _, fx := range j.deferred {
			fx()
		}
	}
	j.undo = nil
	j.deferred = nil
}

// Rollback undoes every recorded mutation in reverse order and drops the
// deferred effects.
func (j *Journal) Rollback() {
	if j == nil || j.closed {
		return
	}
	j.closed = true
	if j.parent != nil && j.irreversible {
		j.parent.irreversible = true
	}
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
	j.deferred = nil
}

// Pending is the number of recorded undo actions; used by tests and traces.
func (j *Journal) Pending() int {
	if j == nil {
		return 0
	}
	return len(j.undo)
}
