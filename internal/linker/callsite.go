package linker

import (
	"fmt"
	"sync/atomic"

	"tachyon/internal/diag"
	"tachyon/internal/observ"
	"tachyon/internal/source"
	"tachyon/internal/trace"
	"tachyon/internal/value"
)

// SiteState is the polymorphism state of a call site.
type SiteState uint8

const (
	Unlinked SiteState = iota
	Monomorphic
	Polymorphic
	Megamorphic
)

func (s SiteState) String() string {
	switch s {
	case Unlinked:
		return "unlinked"
	case Monomorphic:
		return "monomorphic"
	case Polymorphic:
		return "polymorphic"
	case Megamorphic:
		return "megamorphic"
	default:
		return "?"
	}
}

type siteState struct {
	state SiteState
	chain []*GuardedImplementation
}

var unlinked = &siteState{state: Unlinked}

// SiteOption configures a call site.
type SiteOption func(*CallSite)

// WithBound overrides the linker's chain bound for one site.
func WithBound(n int) SiteOption {
	return func(s *CallSite) {
		if n > 0 {
			s.bound = n
		}
	}
}

// WithOverrides sets the construct-time overrides passed on every link
// request the site makes.
func WithOverrides(m map[string]value.Value) SiteOption {
	return func(s *CallSite) { s.overrides = m }
}

// WithSpan records where the operation is, for diagnostics.
func WithSpan(sp source.Span) SiteOption {
	return func(s *CallSite) { s.span = sp }
}

// CallSite caches linked implementations for one dynamic operation in one
// compiled function. It is safe for concurrent use; the chain is replaced
// wholesale with compare-and-swap.
type CallSite struct {
	desc      Descriptor
	linker    *Linker
	bound     int
	overrides map[string]value.Value
	span      source.Span

	cur atomic.Pointer[siteState]

	hits    atomic.Uint64
	misses  atomic.Uint64
	relinks atomic.Uint64
}

// NewSite creates an unlinked call site for desc.
func (l *Linker) NewSite(desc Descriptor, opts ...SiteOption) *CallSite {
	s := &CallSite{desc: desc, linker: l, bound: l.bound}
	for _, opt := range opts {
		opt(s)
	}
	s.cur.Store(unlinked)
	return s
}

func (s *CallSite) Descriptor() Descriptor { return s.desc }

func (s *CallSite) State() SiteState { return s.cur.Load().state }

// Invoke runs the operation, linking on a miss.
func (s *CallSite) Invoke(j *value.Journal, recv value.Value, args []value.Value) (value.Value, error) {
	st := s.cur.Load()
	if st.state != Megamorphic {
		for _, g := range st.chain {
			if g.Applies(recv, args) {
				s.hits.Add(1)
				return g.Invoke(j, recv, args)
			}
		}
	}
	s.misses.Add(1)
	impl, err := s.linker.Resolve(&Request{
		Desc:      s.desc,
		Receiver:  recv,
		Args:      args,
		Overrides: s.overrides,
	})
	if err != nil {
		return nil, err
	}
	if st.state != Megamorphic {
		s.install(impl)
	}
	return impl.Invoke(j, recv, args)
}

// install prepends impl, drops invalidated entries and collapses the site
// when the chain outgrows the bound. An entry whose key is already present
// was installed by a concurrent miss and is not added twice.
func (s *CallSite) install(impl *GuardedImplementation) {
	for {
		old := s.cur.Load()
		if old.state == Megamorphic {
			return
		}
		if impl.Key != nil {
			for _, g := range old.chain {
				if g.Key == impl.Key && g.Valid() {
					return
				}
			}
		}
		chain := make([]*GuardedImplementation, 0, len(old.chain)+1)
		chain = append(chain, impl)
		for _, g := range old.chain {
			if g.Valid() {
				chain = append(chain, g)
			}
		}
		next := &siteState{chain: chain}
		switch {
		case len(chain) > s.bound:
			next = &siteState{state: Megamorphic}
		case len(chain) == 1:
			next.state = Monomorphic
		default:
			next.state = Polymorphic
		}
		if !s.cur.CompareAndSwap(old, next) {
			continue
		}
		s.announce(old, next, impl)
		return
	}
}

func (s *CallSite) announce(old, next *siteState, impl *GuardedImplementation) {
	op := s.desc.Op.String()
	event := "link"
	if old.state != Unlinked {
		event = "relink"
		s.relinks.Add(1)
	}
	if next.state == Megamorphic {
		event = "megamorphic"
	}
	observ.RecordLink(op, event)
	trace.Point(s.linker.tracer, trace.ScopeSite, event,
		fmt.Sprintf("%s %s -> %s (%s)", s.desc, old.state, next.state, impl.Label))
	if next.state == Megamorphic {
		s.linker.log.Debug().
			Str("desc", s.desc.String()).
			Int("bound", s.bound).
			Msg("call site went megamorphic")
		diag.ReportWarning(s.linker.reporter, diag.LinkMegamorphic, s.span,
			fmt.Sprintf("%s saw more than %d receiver kinds", s.desc, s.bound)).Emit()
	}
}

// SiteStats is a snapshot of a site's counters.
type SiteStats struct {
	State   SiteState
	Chain   int
	Hits    uint64
	Misses  uint64
	Relinks uint64
}

func (s *CallSite) Stats() SiteStats {
	st := s.cur.Load()
	return SiteStats{
		State:   st.state,
		Chain:   len(st.chain),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Relinks: s.relinks.Load(),
	}
}

// Labels lists the chain entries, most recently linked first.
func (s *CallSite) Labels() []string {
	st := s.cur.Load()
	out := make([]string, len(st.chain))
	for i, g := range st.chain {
		out[i] = g.Label
	}
	return out
}
