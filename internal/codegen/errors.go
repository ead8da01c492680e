package codegen

import (
	"fmt"

	"tachyon/internal/ir"
	"tachyon/internal/source"
)

// ResourceExhaustedError reports a function with more speculation-capable
// operations than one generation can number.
type ResourceExhaustedError struct {
	Function string
	Limit    int
	Span     source.Span
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("function %q exceeds %d program points", e.Function, e.Limit)
}

// DefaultPointLimit is the number of points a function may use by default.
const DefaultPointLimit = int(ir.MaxProgramPoint) + 1
