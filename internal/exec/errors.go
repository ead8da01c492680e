package exec

import (
	"context"
	"errors"
	"fmt"

	"tachyon/internal/linker"
	"tachyon/internal/speculate"
	"tachyon/internal/value"
)

// Journal is the effect journal generated code writes through.
type Journal = value.Journal

// Thrown is a script exception that escaped its function.
type Thrown struct {
	Value value.Value
}

func (e *Thrown) Error() string {
	if o, ok := e.Value.(*value.Object); ok {
		name, msg := value.ToString(o.Get("name")), value.ToString(o.Get("message"))
		return "uncaught " + name + ": " + msg
	}
	return "uncaught " + value.Describe(e.Value)
}

// ErrorObject builds the script value for a runtime error.
func ErrorObject(kind, msg string) *value.Object {
	o := value.NewObjectFrom(nil, []string{"name", "message"}, []value.Value{kind, msg})
	o.SetClassName(kind)
	return o
}

func throwError(kind, format string, args ...any) error {
	return &Thrown{Value: ErrorObject(kind, fmt.Sprintf(format, args...))}
}

// Catchable reports whether script try/catch may intercept err. Speculation
// signals, divergence and cancellation belong to the engine.
func Catchable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := speculate.AsSignal(err); ok {
		return false
	}
	var div *speculate.DivergedError
	if errors.As(err, &div) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// ThrownValue is what a catch clause binds for err.
func ThrownValue(err error) value.Value {
	var th *Thrown
	if errors.As(err, &th) {
		return th.Value
	}
	if errors.Is(err, linker.ErrNoResolver) {
		return ErrorObject("TypeError", err.Error())
	}
	return ErrorObject("Error", err.Error())
}
