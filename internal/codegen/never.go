package codegen

import (
	"math/bits"

	"tachyon/internal/ir"
)

// NeverOptimistic is the set of a function's program points that must not be
// speculated on in the current generation.
type NeverOptimistic struct {
	words []uint64
}

func (s *NeverOptimistic) Set(pp ir.ProgramPoint) {
	if !pp.IsValid() {
		return
	}
	w := int(pp) / 64
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << (uint(pp) % 64)
}

func (s *NeverOptimistic) Has(pp ir.ProgramPoint) bool {
	if s == nil || !pp.IsValid() {
		return false
	}
	w := int(pp) / 64
	return w < len(s.words) && s.words[w]&(1<<(uint(pp)%64)) != 0
}

// Len is the number of points in the set.
func (s *NeverOptimistic) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Points lists the set in ascending order.
func (s *NeverOptimistic) Points() []ir.ProgramPoint {
	if s == nil {
		return nil
	}
	out := make([]ir.ProgramPoint, 0, s.Len())
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, ir.ProgramPoint(i*64+b))
			w &= w - 1
		}
	}
	return out
}
