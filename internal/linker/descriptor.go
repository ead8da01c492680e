package linker

import (
	"strconv"
	"strings"
)

// Op is the kind of dynamic operation.
type Op uint8

const (
	OpGet Op = iota + 1
	OpSet
	OpDelete
	OpCall
	OpConstruct
)

func (op Op) String() string {
	switch op {
	case OpGet:
		return "GET"
	case OpSet:
		return "SET"
	case OpDelete:
		return "DELETE"
	case OpCall:
		return "CALL"
	case OpConstruct:
		return "CONSTRUCT"
	default:
		return "?"
	}
}

// Descriptor is what a call site knows statically about its operation.
//
// Argument conventions for Invoke:
//
//	GET    named: recv              unnamed: recv, args[0]=key
//	SET    named: recv, args[0]=v   unnamed: recv, args[0]=key, args[1]=v
//	DELETE named: recv              unnamed: recv, args[0]=key
//	CALL       recv=callee, args[0]=this, args[1:]=arguments
//	CONSTRUCT  recv=constructor, args=arguments
type Descriptor struct {
	Op    Op
	Name  string // property name when Named
	Named bool
	Arity int // argument count for CALL and CONSTRUCT
}

// Get, Set and Delete build named property descriptors.
func Get(name string) Descriptor    { return Descriptor{Op: OpGet, Name: name, Named: true} }
func Set(name string) Descriptor    { return Descriptor{Op: OpSet, Name: name, Named: true} }
func Delete(name string) Descriptor { return Descriptor{Op: OpDelete, Name: name, Named: true} }

// Call builds a call descriptor for argc arguments.
func Call(argc int) Descriptor { return Descriptor{Op: OpCall, Arity: argc} }

// Construct builds a construct descriptor for argc arguments.
func Construct(argc int) Descriptor { return Descriptor{Op: OpConstruct, Arity: argc} }

// Element builds an unnamed (computed key) descriptor.
func Element(op Op) Descriptor { return Descriptor{Op: op} }

func (d Descriptor) String() string {
	var sb strings.Builder
	sb.WriteString(d.Op.String())
	switch {
	case d.Named:
		sb.WriteString(":")
		sb.WriteString(d.Name)
	case d.Op == OpCall || d.Op == OpConstruct:
		sb.WriteString("(")
		sb.WriteString(strconv.Itoa(d.Arity))
		sb.WriteString(")")
	default:
		sb.WriteString("[]")
	}
	return sb.String()
}
