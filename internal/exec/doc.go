// Package exec is the reference code generator. It turns an annotated
// function tree into a tree of Go closures and runs it.
//
// Every operation that carries a program point and an optimistic type
// narrower than its widest possible result is checked: when the produced
// value does not fit, the closure returns a *speculate.Signal instead of
// continuing. Generated code never resumes after a signal; the engine rolls
// back the attempt's journal and re-invokes on a recompiled generation.
// Once the journal is irreversible (Go code has run) the check lets the
// value through and records the failure; see Code.Attempt.
//
// Dynamic operations (property access, calls, construction) go through
// linker call sites owned by the generated code, one per operation.
package exec
