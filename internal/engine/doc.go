// Package engine owns the lifecycle of speculatively compiled functions:
// loading function templates, compiling a generation per calling context,
// invoking it inside an effect journal, and restarting on a recompiled
// generation when a speculation fails.
//
// A Runtime is one isolated instance. It holds the speculation store (and
// optionally its on-disk cache), the deoptimization controller, the linker
// with its host facts cache, and the global scope.
package engine
