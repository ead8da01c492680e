// Package codegen runs the two speculative-typing passes of one compile
// generation over an ir tree.
//
// The program-point pass numbers every speculation-capable node of each
// function densely from ir.FirstProgramPoint in post-order. The
// optimistic-types pass then decides, per point, whether generated code may
// speculate: points in a never-optimistic context get the widest type, the
// rest get the join of what the speculation store has learned and the node's
// most optimistic type.
//
// Both passes return new trees; the input is never modified, so recompiling
// an unchanged function yields the same points for the same nodes.
package codegen
