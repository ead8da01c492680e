package linker

import (
	"errors"
	"fmt"

	"tachyon/internal/value"
)

// ErrNoResolver is wrapped by every ResolutionError.
var ErrNoResolver = errors.New("no linking strategy applies")

// ResolutionError reports an operation no strategy could link.
type ResolutionError struct {
	Desc     Descriptor
	Receiver string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot link %s on %s: %v", e.Desc, e.Receiver, ErrNoResolver)
}

func (e *ResolutionError) Unwrap() error { return ErrNoResolver }

func newResolutionError(d Descriptor, recv value.Value) *ResolutionError {
	return &ResolutionError{Desc: d, Receiver: describe(recv)}
}

func describe(v value.Value) string {
	switch v.(type) {
	case nil:
		return "<nil>"
	case *value.Object, *value.Function, *value.Array, *value.HostClass, string, int32, float64, bool:
		return value.Typeof(v)
	}
	if value.IsNullish(v) {
		return value.ToString(v)
	}
	return fmt.Sprintf("host %T", v)
}
