package trace

import "time"

// Kind is the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; lower is coarser.
type Scope uint8

const (
	// ScopeEngine covers runtime lifecycle and whole invocations.
	ScopeEngine Scope = iota + 1
	// ScopePass covers compiler passes of one generation.
	ScopePass
	// ScopeFunction covers per-function events: deopts, recompiles.
	ScopeFunction
	// ScopeSite covers call-site link, relink and collapse events.
	ScopeSite
)

func (s Scope) String() string {
	switch s {
	case ScopeEngine:
		return "engine"
	case ScopePass:
		return "pass"
	case ScopeFunction:
		return "function"
	case ScopeSite:
		return "site"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64
	Name     string // "compile", "deopt", "site:get x"
	Detail   string
	Extra    map[string]string
}
