package ir

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota + 1
	OpPlus
	OpNot
	OpBitNot
	OpTypeof
	OpVoid
	OpDelete
	OpNew
	OpPreIncr
	OpPreDecr
	OpPostIncr
	OpPostDecr
)

var unaryNames = [...]string{
	OpNeg:      "-",
	OpPlus:     "+",
	OpNot:      "!",
	OpBitNot:   "~",
	OpTypeof:   "typeof",
	OpVoid:     "void",
	OpDelete:   "delete",
	OpNew:      "new",
	OpPreIncr:  "++x",
	OpPreDecr:  "--x",
	OpPostIncr: "x++",
	OpPostDecr: "x--",
}

func (op UnaryOp) String() string {
	if int(op) < len(unaryNames) && unaryNames[op] != "" {
		return unaryNames[op]
	}
	return "?"
}

// IsIncDec reports the four increment/decrement forms.
func (op UnaryOp) IsIncDec() bool {
	return op >= OpPreIncr && op <= OpPostDecr
}

// BinaryOp enumerates binary operators, including assignments.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpSar
	OpShr
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpInstanceOf
	OpIn
	OpAnd
	OpOr
	OpAssign
	OpAssignAdd
	OpAssignSub
	OpAssignMul
	OpAssignDiv
	OpAssignMod
	OpAssignBitAnd
	OpAssignBitOr
	OpAssignBitXor
	OpAssignShl
	OpAssignSar
	OpAssignShr
)

var binaryNames = [...]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpBitAnd:       "&",
	OpBitOr:        "|",
	OpBitXor:       "^",
	OpShl:          "<<",
	OpSar:          ">>",
	OpShr:          ">>>",
	OpEq:           "==",
	OpNe:           "!=",
	OpStrictEq:     "===",
	OpStrictNe:     "!==",
	OpLt:           "<",
	OpLe:           "<=",
	OpGt:           ">",
	OpGe:           ">=",
	OpInstanceOf:   "instanceof",
	OpIn:           "in",
	OpAnd:          "&&",
	OpOr:           "||",
	OpAssign:       "=",
	OpAssignAdd:    "+=",
	OpAssignSub:    "-=",
	OpAssignMul:    "*=",
	OpAssignDiv:    "/=",
	OpAssignMod:    "%=",
	OpAssignBitAnd: "&=",
	OpAssignBitOr:  "|=",
	OpAssignBitXor: "^=",
	OpAssignShl:    "<<=",
	OpAssignSar:    ">>=",
	OpAssignShr:    ">>>=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) && binaryNames[op] != "" {
		return binaryNames[op]
	}
	return "?"
}

// IsAssignment reports plain and compound assignment.
func (op BinaryOp) IsAssignment() bool {
	return op >= OpAssign
}

// IsSelfModifying reports compound assignments, whose target is both read and
// written.
func (op BinaryOp) IsSelfModifying() bool {
	return op > OpAssign
}

// Arith returns the arithmetic operator behind a compound assignment, or op
// itself.
func (op BinaryOp) Arith() BinaryOp {
	if op.IsSelfModifying() {
		return op - OpAssignAdd + OpAdd
	}
	return op
}

// IsBitwise reports operators whose result is always an int32.
func (op BinaryOp) IsBitwise() bool {
	switch op.Arith() {
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpSar:
		return true
	}
	return false
}

// IsComparison reports operators producing a boolean.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpIn
}

// IsStrictEquality reports === and !==.
func (op BinaryOp) IsStrictEquality() bool {
	return op == OpStrictEq || op == OpStrictNe
}
