package ir

import "tachyon/internal/types"

// ProgramPoint identifies one speculation-capable operation within a single
// compilation generation of a function.
type ProgramPoint int32

const (
	// InvalidProgramPoint marks nodes that were not assigned a point.
	InvalidProgramPoint ProgramPoint = -1
	// FirstProgramPoint is the base every function's counter starts from.
	FirstProgramPoint ProgramPoint = 0
	// MaxProgramPoint is the largest representable point; call-site flag
	// encodings in code generators reserve the remaining bits.
	MaxProgramPoint ProgramPoint = 1<<18 - 1
)

// IsValid reports whether pp was assigned.
func (pp ProgramPoint) IsValid() bool {
	return pp >= FirstProgramPoint
}

// Optimism holds the two speculation slots. It is embedded by value in every
// Optimistic node; the zero value means "no program point, no type", so nodes
// built with plain struct literals start out unassigned.
type Optimism struct {
	point int32 // program point + 1; 0 means unassigned
	typ   types.Type
}

// ProgramPoint returns the assigned point or InvalidProgramPoint.
func (o Optimism) ProgramPoint() ProgramPoint {
	return ProgramPoint(o.point - 1)
}

// OptimisticType returns the assumed result type, Invalid when unresolved.
func (o Optimism) OptimisticType() types.Type {
	return o.typ
}

func (o *Optimism) setPoint(pp ProgramPoint) {
	if !pp.IsValid() {
		o.point = 0
		return
	}
	o.point = int32(pp) + 1
}

func (o *Optimism) setType(t types.Type) {
	o.typ = t
}

// Optimistic is the capability shared by every node kind the allocator can
// tag: identifier loads, property and element access, calls, unary and
// binary operators.
type Optimistic interface {
	Expr
	// CanBeOptimistic reports whether this particular node is eligible at all.
	CanBeOptimistic() bool
	ProgramPoint() ProgramPoint
	// WithProgramPoint returns a copy tagged with pp.
	WithProgramPoint(pp ProgramPoint) Optimistic
	OptimisticType() types.Type
	// WithOptimisticType returns a copy assuming t.
	WithOptimisticType(t types.Type) Optimistic
	// MostOptimisticType is the narrowest type consistent with static
	// evidence, used when nothing has been learned at run time yet.
	MostOptimisticType() types.Type
	// MostPessimisticType is the widest type the operation can produce.
	// Code assuming at least this type needs no runtime check.
	MostPessimisticType() types.Type
}

// NeedsCheck reports whether code generated for n has to verify its result
// against the assumed type.
func NeedsCheck(n Optimistic) bool {
	t := n.OptimisticType()
	return t.IsValid() && t.NarrowerThan(n.MostPessimisticType())
}
