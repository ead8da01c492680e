// Package types is the small type lattice that speculative compilation works
// against.
//
// The lattice is intentionally not the full type system of the hosted
// language. It only has to order the representations the code generator can
// specialize for:
//
//	Int ─▶ Number ─▶ Object
//	Boolean ───────▶ Object
//	String ────────▶ Object
//
// Invalid sits below everything and means "not assigned yet". Object is the
// widest (conservative) type: a value of any kind fits it.
package types

import "fmt"

// Type is a point in the speculation lattice.
type Type uint8

const (
	Invalid Type = iota
	Boolean
	Int
	Number
	String
	Object
)

// Widest is the conservative type used for never-optimistic contexts.
const Widest = Object

// Height is the longest chain of strict widenings starting from a valid type.
const Height = 2

func (t Type) String() string {
	switch t {
	case Invalid:
		return "invalid"
	case Boolean:
		return "boolean"
	case Int:
		return "int"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Parse is the inverse of String.
func Parse(s string) (Type, error) {
	switch s {
	case "invalid":
		return Invalid, nil
	case "boolean":
		return Boolean, nil
	case "int":
		return Int, nil
	case "number":
		return Number, nil
	case "string":
		return String, nil
	case "object":
		return Object, nil
	}
	return Invalid, fmt.Errorf("unknown type %q", s)
}

// IsValid reports whether t is a real lattice point.
func (t Type) IsValid() bool {
	return t > Invalid && t <= Object
}

// IsWidest reports whether no further widening is possible.
func (t Type) IsWidest() bool {
	return t == Object
}

// IsNumeric reports whether values of t are numbers.
func (t Type) IsNumeric() bool {
	return t == Int || t == Number
}

// LessEq reports whether t is at or below u in the lattice.
func (t Type) LessEq(u Type) bool {
	if t == u || t == Invalid || u == Object {
		return true
	}
	return t == Int && u == Number
}

// NarrowerThan reports whether t is strictly below u.
func (t Type) NarrowerThan(u Type) bool {
	return t != u && t.LessEq(u)
}

// Join returns the least upper bound of t and u.
func Join(t, u Type) Type {
	switch {
	case t.LessEq(u):
		return u
	case u.LessEq(t):
		return t
	default:
		return Object
	}
}

// Next returns the type one widening step above t. Object is its own
// successor; Invalid steps to Int, the most optimistic numeric assumption.
func (t Type) Next() Type {
	switch t {
	case Invalid:
		return Int
	case Int:
		return Number
	default:
		return Object
	}
}
