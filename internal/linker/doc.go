// Package linker resolves dynamic operations (property get/set/delete, call,
// construct) to guarded implementations and caches them per call site.
//
// A CallSite starts unlinked. On a miss it asks the Linker, which consults
// its strategies in priority order; the first strategy that handles the
// receiver returns a GuardedImplementation. The site prepends it to its
// chain. Up to the chain bound the site stays monomorphic or polymorphic;
// past it the site collapses to megamorphic and resolves every call afresh.
//
// Guards test facts visible on the receiver (its shape, prototype, Go type,
// identity). Facts a guard cannot see, such as the layout of a prototype,
// are covered by switch points: once one flips, the entry is treated as a
// miss and dropped from the chain.
package linker
