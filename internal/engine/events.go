package engine

import (
	"time"

	"tachyon/internal/speculate"
)

// EventKind classifies runtime events.
type EventKind uint8

const (
	EventCompiled EventKind = iota + 1
	EventDeopt
	EventRestart
	EventDiverged
)

func (k EventKind) String() string {
	switch k {
	case EventCompiled:
		return "compiled"
	case EventDeopt:
		return "deopt"
	case EventRestart:
		return "restart"
	case EventDiverged:
		return "diverged"
	default:
		return "?"
	}
}

// Event is a progress notification for observers such as the CLI's live
// view. Delivery is best effort: when the buffer is full events are dropped.
type Event struct {
	Kind       EventKind
	Key        speculate.FunctionKey
	Generation uint64
	Detail     string
	At         time.Time
}

func (rt *Runtime) emit(ev Event) {
	ev.At = time.Now()
	rt.evMu.RLock()
	defer rt.evMu.RUnlock()
	if rt.evClosed {
		return
	}
	select {
	case rt.events <- ev:
	default:
		rt.dropped.Add(1)
	}
}

// Events returns the event stream. It is closed by Shutdown.
func (rt *Runtime) Events() <-chan Event { return rt.events }
