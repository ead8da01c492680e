package trace

import "io"

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	tracers []Tracer
	level   Level
}

func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers, level: level}
}

// Emit hands each tracer its own copy, since tracers stamp Seq.
func (t *MultiTracer) Emit(ev *Event) {
	for _, tr := range t.tracers {
		c := *ev
		tr.Emit(&c)
	}
}

func (t *MultiTracer) Flush() error {
	var first error
	for _, tr := range t.tracers {
		if err := tr.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t *MultiTracer) Close() error {
	var first error
	for _, tr := range t.tracers {
		if err := tr.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t *MultiTracer) Level() Level  { return t.level }
func (t *MultiTracer) Enabled() bool { return t.level > LevelOff }

// DumpRing writes the contents of the first ring tracer found in t to w.
func DumpRing(t Tracer, w io.Writer, format Format) error {
	switch t := t.(type) {
	case *RingTracer:
		return t.Dump(w, format)
	case *MultiTracer:
		for _, tr := range t.tracers {
			if r, ok := tr.(*RingTracer); ok {
				return r.Dump(w, format)
			}
		}
	}
	return nil
}
