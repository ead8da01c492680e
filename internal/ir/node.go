package ir

import (
	"tachyon/internal/source"
)

// Kind tags every node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFunction
	KindBlock
	KindVar
	KindExprStmt
	KindIf
	KindWhile
	KindFor
	KindReturn
	KindBreak
	KindContinue
	KindThrow
	KindTry
	KindCatch
	KindIdent
	KindLiteral
	KindArrayLit
	KindObjectLit
	KindProperty
	KindAccess
	KindIndex
	KindCall
	KindUnary
	KindBinary
	KindTernary
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "Function"
	case KindBlock:
		return "Block"
	case KindVar:
		return "Var"
	case KindExprStmt:
		return "ExprStmt"
	case KindIf:
		return "If"
	case KindWhile:
		return "While"
	case KindFor:
		return "For"
	case KindReturn:
		return "Return"
	case KindBreak:
		return "Break"
	case KindContinue:
		return "Continue"
	case KindThrow:
		return "Throw"
	case KindTry:
		return "Try"
	case KindCatch:
		return "Catch"
	case KindIdent:
		return "Ident"
	case KindLiteral:
		return "Literal"
	case KindArrayLit:
		return "ArrayLit"
	case KindObjectLit:
		return "ObjectLit"
	case KindProperty:
		return "Property"
	case KindAccess:
		return "Access"
	case KindIndex:
		return "Index"
	case KindCall:
		return "Call"
	case KindUnary:
		return "Unary"
	case KindBinary:
		return "Binary"
	case KindTernary:
		return "Ternary"
	default:
		return "Invalid"
	}
}

// Node is any tree node.
type Node interface {
	Kind() Kind
	Span() source.Span
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node executed for effect.
type Stmt interface {
	Node
	stmtNode()
}

// SymbolFlags describe where a binding lives.
type SymbolFlags uint8

const (
	// SymLocal bindings live in the function frame and have statically
	// provable types; loads from them are never speculated on.
	SymLocal SymbolFlags = 1 << iota
	// SymParam marks function parameters.
	SymParam
	// SymScope bindings live in a scope object (globals, captured variables)
	// and are read through dynamic lookups.
	SymScope
	// SymInternal marks compiler-introduced temporaries.
	SymInternal
)

// Symbol is the binding an identifier resolves to. Symbols are shared, not
// rewritten, by passes.
type Symbol struct {
	Name  string
	Flags SymbolFlags
}

func (s *Symbol) Has(f SymbolFlags) bool {
	return s != nil && s.Flags&f != 0
}
