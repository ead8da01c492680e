// Package speculate records what speculation has learned and reacts when it
// turns out wrong.
//
// A Store maps (function, calling context, program point) to the widest
// type observed so far. Entries only ever widen. Generated code that finds a
// value outside its assumed type returns a *Signal instead of a result; the
// Controller widens the entry, drops the generation and has the function
// recompiled. Store contents can be persisted per function source digest so
// a later process starts from types already learned.
package speculate
