package codegen

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"tachyon/internal/diag"
	"tachyon/internal/ir"
	"tachyon/internal/observ"
	"tachyon/internal/trace"
)

// Options configure one compilation.
type Options struct {
	// Lazy compiles only the root function; nested literals are compiled
	// when first invoked.
	Lazy bool
	// PointLimit caps the points per function; 0 means DefaultPointLimit.
	PointLimit int
	// Reporter receives CompileResourceExhausted; may be nil.
	Reporter diag.Reporter
}

// FunctionInfo is what one generation learned about a single function.
type FunctionInfo struct {
	Func   *ir.Function
	Points int
	Never  *NeverOptimistic
}

// Unit is the result of compiling a root function.
type Unit struct {
	Root      *ir.Function
	Functions map[string]*FunctionInfo
	Timings   []observ.Phase
}

// Info returns the data for the root function.
func (u *Unit) Info() *FunctionInfo { return u.Functions[u.Root.ID] }

// Compile runs the program-point and optimistic-types passes over fn.
func Compile(ctx context.Context, fn *ir.Function, assumptions Assumptions, opts Options) (*Unit, error) {
	if fn == nil || fn.Body == nil {
		return nil, errors.New("codegen: function has no body")
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, "compile:"+fn.ID)
	timer := observ.NewTimer()

	_, ppSpan := trace.Start(ctx, trace.ScopePass, "program-points")
	idx := timer.Begin("program-points")
	numbered, counts, err := AssignProgramPoints(fn, opts.Lazy, opts.PointLimit)
	if err != nil {
		timer.End(idx, "failed")
		ppSpan.End(err.Error())
		span.End("failed")
		var rerr *ResourceExhaustedError
		if errors.As(err, &rerr) && opts.Reporter != nil {
			diag.ReportError(opts.Reporter, diag.CompileResourceExhausted, rerr.Span, rerr.Error()).
				WithNote(fn.Span(), "in function "+fn.ID).
				Emit()
		}
		return nil, fmt.Errorf("compile %s: %w", fn.ID, err)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	timer.End(idx, strconv.Itoa(total)+" points")
	ppSpan.WithExtra("points", strconv.Itoa(total)).End("")

	_, otSpan := trace.Start(ctx, trace.ScopePass, "optimistic-types")
	idx = timer.Begin("optimistic-types")
	annotated, never := CalculateOptimisticTypes(numbered, opts.Lazy, assumptions)
	conservative := 0
	for _, s := range never {
		conservative += s.Len()
	}
	timer.End(idx, strconv.Itoa(conservative)+" never-optimistic")
	otSpan.WithExtra("never", strconv.Itoa(conservative)).End("")

	unit := &Unit{Root: annotated, Functions: make(map[string]*FunctionInfo, len(counts))}
	collect := func(f *ir.Function) {
		unit.Functions[f.ID] = &FunctionInfo{Func: f, Points: counts[f.ID], Never: never[f.ID]}
	}
	collect(annotated)
	if !opts.Lazy {
		var walk func(*ir.Function)
		walk = func(f *ir.Function) {
			for _, nested := range ir.NestedFunctions(f) {
				collect(nested)
				walk(nested)
			}
		}
		walk(annotated)
	}
	unit.Timings = timer.Phases()
	span.End("")
	return unit, nil
}

// PointsOf converts a point count for code that indexes per-point tables.
func PointsOf(info *FunctionInfo) (ir.ProgramPoint, error) {
	n, err := safecast.Conv[int32](info.Points)
	if err != nil {
		return 0, fmt.Errorf("point count of %s: %w", info.Func.ID, err)
	}
	return ir.ProgramPoint(n), nil
}
