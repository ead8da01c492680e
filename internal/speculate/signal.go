package speculate

import (
	"errors"
	"fmt"

	"tachyon/internal/ir"
	"tachyon/internal/types"
	"tachyon/internal/value"
)

// Signal is returned as an error by generated code whose speculation failed.
// It never resumes locally: the invocation is discarded and restarted on a
// recompiled generation.
type Signal struct {
	Key        FunctionKey
	Point      ir.ProgramPoint
	Value      value.Value // the value that did not fit
	Assumed    types.Type
	Generation uint64
}

func (s *Signal) Error() string {
	return fmt.Sprintf("speculation failed in %s at point %d: %s is not %s (generation %d)",
		s.Key, s.Point, value.Describe(s.Value), s.Assumed, s.Generation)
}

// Observed is the type of the offending value.
func (s *Signal) Observed() types.Type { return value.TypeOf(s.Value) }

// AsSignal unwraps err to a *Signal.
func AsSignal(err error) (*Signal, bool) {
	var sig *Signal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}
