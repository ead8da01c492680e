// Package ir is the tree the speculative compiler passes work on.
//
// Trees are built outside the engine (a parser, a test, a scenario) and are
// treated as owned values: passes never mutate a node in place. A visit that
// wants to change a node returns a modified copy, and Rewrite rebuilds the
// parents on the way up, so the input tree stays valid and reusable. This is
// what lets the engine recompile the same source tree for every generation and
// get identical program points each time.
//
// Expressions whose result type can be speculated on implement Optimistic and
// carry two slots: a program point and the type the generated code assumes.
package ir
