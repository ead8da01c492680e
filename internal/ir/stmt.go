package ir

import "tachyon/internal/source"

// Function is a function literal; the outermost Function of a compilation
// unit has IsProgram set.
type Function struct {
	ID        string
	Name      string
	Params    []*Ident
	VarArg    bool
	IsProgram bool
	Body      *Block
	Sp        source.Span
}

func (*Function) Kind() Kind          { return KindFunction }
func (n *Function) Span() source.Span { return n.Sp }
func (*Function) exprNode()           {}

// Arity is the declared parameter count.
func (n *Function) Arity() int { return len(n.Params) }

type Block struct {
	Stmts []Stmt
	Sp    source.Span
}

func (*Block) Kind() Kind          { return KindBlock }
func (n *Block) Span() source.Span { return n.Sp }
func (*Block) stmtNode()           {}

// VarStmt declares Name, optionally initialised.
type VarStmt struct {
	Name *Ident
	Init Expr
	Sp   source.Span
}

func (*VarStmt) Kind() Kind          { return KindVar }
func (n *VarStmt) Span() source.Span { return n.Sp }
func (*VarStmt) stmtNode()           {}

// ExprStmt evaluates X and discards the result.
type ExprStmt struct {
	X  Expr
	Sp source.Span
}

func (*ExprStmt) Kind() Kind          { return KindExprStmt }
func (n *ExprStmt) Span() source.Span { return n.Sp }
func (*ExprStmt) stmtNode()           {}

type If struct {
	Test Expr
	Then Stmt
	Else Stmt
	Sp   source.Span
}

func (*If) Kind() Kind          { return KindIf }
func (n *If) Span() source.Span { return n.Sp }
func (*If) stmtNode()           {}

// While covers while and do-while loops.
type While struct {
	Test    Expr
	Body    Stmt
	DoWhile bool
	Sp      source.Span
}

func (*While) Kind() Kind          { return KindWhile }
func (n *While) Span() source.Span { return n.Sp }
func (*While) stmtNode()           {}

// ForMode selects the loop form.
type ForMode uint8

const (
	ForClassic ForMode = iota
	ForIn
	ForOf
)

// For covers the classic three-clause loop (Init, Test, Update) and the
// iteration forms (Binding, Iterable).
type For struct {
	Mode     ForMode
	Init     Stmt
	Test     Expr
	Update   Expr
	Binding  *Ident
	Iterable Expr
	Body     Stmt
	Sp       source.Span
}

func (*For) Kind() Kind          { return KindFor }
func (n *For) Span() source.Span { return n.Sp }
func (*For) stmtNode()           {}

type Return struct {
	Value Expr
	Sp    source.Span
}

func (*Return) Kind() Kind          { return KindReturn }
func (n *Return) Span() source.Span { return n.Sp }
func (*Return) stmtNode()           {}

type Break struct {
	Sp source.Span
}

func (*Break) Kind() Kind          { return KindBreak }
func (n *Break) Span() source.Span { return n.Sp }
func (*Break) stmtNode()           {}

type Continue struct {
	Sp source.Span
}

func (*Continue) Kind() Kind          { return KindContinue }
func (n *Continue) Span() source.Span { return n.Sp }
func (*Continue) stmtNode()           {}

type Throw struct {
	Value Expr
	Sp    source.Span
}

func (*Throw) Kind() Kind          { return KindThrow }
func (n *Throw) Span() source.Span { return n.Sp }
func (*Throw) stmtNode()           {}

// Try has an optional Catch and an optional Finally.
type Try struct {
	Body    *Block
	Catch   *Catch
	Finally *Block
	Sp      source.Span
}

func (*Try) Kind() Kind          { return KindTry }
func (n *Try) Span() source.Span { return n.Sp }
func (*Try) stmtNode()           {}

// Catch binds the thrown value to Param. A non-nil Condition makes the clause
// conditional: the value is rethrown when it evaluates falsy.
type Catch struct {
	Param     *Ident
	Condition Expr
	Body      *Block
	Sp        source.Span
}

func (*Catch) Kind() Kind          { return KindCatch }
func (n *Catch) Span() source.Span { return n.Sp }
