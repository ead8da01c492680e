package linker

import (
	"github.com/rs/zerolog"

	"tachyon/internal/diag"
	"tachyon/internal/observ"
	"tachyon/internal/trace"
	"tachyon/internal/value"
)

// DefaultChainBound is the number of guarded entries a site keeps before it
// goes megamorphic.
const DefaultChainBound = 8

// Strategy links one family of receivers. Link returns (nil, nil) when the
// strategy declines the request after a closer look; the linker then tries
// the next one.
type Strategy interface {
	Name() string
	CanLink(recv value.Value) bool
	Link(req *Request) (*GuardedImplementation, error)
}

// Request is one link attempt: the operation, the receiver and arguments
// that missed, and the construct-time overrides the site carries.
type Request struct {
	Desc      Descriptor
	Receiver  value.Value
	Args      []value.Value
	Overrides map[string]value.Value
}

// Options configures a Linker.
type Options struct {
	ChainBound int
	Facts      *FactsCache
	Logger     zerolog.Logger
	Tracer     trace.Tracer
	// Reporter receives megamorphic collapses; nil drops them.
	Reporter   diag.Reporter
	// Strategies replaces the default strategy list when non-nil.
	Strategies []Strategy
}

// Linker resolves requests against an ordered list of strategies.
type Linker struct {
	strategies []Strategy
	bound      int
	facts      *FactsCache
	log        zerolog.Logger
	tracer     trace.Tracer
	reporter   diag.Reporter
}

// New builds a linker. Without explicit strategies it uses, in priority
// order: functions, host classes, arrays, primitives, script objects and
// host reflection.
func New(opts Options) *Linker {
	l := &Linker{
		bound:    opts.ChainBound,
		facts:    opts.Facts,
		log:      opts.Logger,
		tracer:   opts.Tracer,
		reporter: opts.Reporter,
	}
	if l.bound <= 0 {
		l.bound = DefaultChainBound
	}
	if l.facts == nil {
		l.facts = NewFactsCache()
		_ = l.facts.Start()
	}
	if l.tracer == nil {
		l.tracer = trace.Nop
	}
	l.strategies = opts.Strategies
	if l.strategies == nil {
		l.strategies = []Strategy{
			functionStrategy{},
			hostClassStrategy{},
			arrayStrategy{},
			primitiveStrategy{},
			objectStrategy{},
			hostStrategy{facts: l.facts},
		}
	}
	return l
}

// ChainBound is the polymorphism limit given to new sites.
func (l *Linker) ChainBound() int { return l.bound }

// Facts returns the host type cache the reflection strategy uses.
func (l *Linker) Facts() *FactsCache { return l.facts }

// Resolve finds an implementation for req. Failure to link is reported as a
// *ResolutionError wrapping ErrNoResolver.
func (l *Linker) Resolve(req *Request) (*GuardedImplementation, error) {
	for _, s := range l.strategies {
		if !s.CanLink(req.Receiver) {
			continue
		}
		impl, err := s.Link(req)
		if err != nil {
			return nil, err
		}
		if impl == nil {
			continue
		}
		if impl.Label == "" {
			impl.Label = s.Name()
		}
		return impl, nil
	}
	observ.RecordLinkFailure(req.Desc.Op.String())
	err := newResolutionError(req.Desc, req.Receiver)
	l.log.Debug().Str("desc", req.Desc.String()).Str("receiver", err.Receiver).Msg("link failed")
	trace.Point(l.tracer, trace.ScopeSite, "link-failure", err.Error())
	return nil, err
}
