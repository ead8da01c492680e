// Package trace records what the engine does: compile generations, passes,
// deoptimizations and call-site relinks.
//
// Tracers travel with a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "program-points", parent)
//	defer span.End("")
//
// Instant events use Point:
//
//	trace.Point(t, trace.ScopeFunction, "deopt", "pp=3 int->number")
//
// A stream tracer writes text or NDJSON as events happen, a ring tracer keeps
// the last N events for dumping after a failure, and Both combines them.
//
// Levels filter by scope: LevelPhase shows engine and pass boundaries,
// LevelDetail adds per-function events (deopts, recompiles), LevelDebug adds
// per-call-site events.
package trace
