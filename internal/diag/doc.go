// Package diag is the diagnostic model shared by the compiler passes, the
// linker and the engine.
//
// A Diagnostic carries a Severity, a stable Code, a short Message, the
// primary source.Span of the offending node and optional Notes. Producers
// emit through a Reporter so they never depend on where diagnostics end up;
// BagReporter collects them into a Bag for sorting, deduplication and
// conversion into an error.
//
// Codes are grouped by producer: 1xxx compilation, 2xxx speculation,
// 3xxx linking, 9xxx internal. Their ID form (C1001, S2001, L3001) is
// stable and safe to match on in tests and tooling.
package diag
