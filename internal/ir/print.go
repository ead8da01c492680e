package ir

import (
	"fmt"
	"io"
	"strings"

	"tachyon/internal/value"
)

// DumpOptions configures tree dumping.
type DumpOptions struct {
	// Never, when set, marks program points reported as never-optimistic for
	// the named function with a trailing "!".
	Never func(function string, pp ProgramPoint) bool
}

// Printer writes a tree as indented text. Optimistic nodes are suffixed with
// @point:type once assigned.
type Printer struct {
	w      io.Writer
	indent int
	opts   DumpOptions
	fn     []string
	plain  bool
	err    error
}

// NewPrinter creates a printer with the given options.
func NewPrinter(w io.Writer, opts DumpOptions) *Printer {
	return &Printer{w: w, opts: opts}
}

// Dump writes fn to w.
func Dump(w io.Writer, fn *Function, opts DumpOptions) error {
	p := NewPrinter(w, opts)
	p.PrintFunction(fn)
	return p.err
}

// String renders an expression on one line without annotations.
func String(e Expr) string {
	var sb strings.Builder
	p := &Printer{w: &sb, plain: true}
	p.printExpr(e)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) line(format string, args ...any) {
	p.printf("%s", strings.Repeat("  ", p.indent))
	p.printf(format, args...)
	p.printf("\n")
}

// PrintFunction prints fn and all nested function literals.
func (p *Printer) PrintFunction(fn *Function) {
	p.fn = append(p.fn, fn.ID)
	defer func() { p.fn = p.fn[:len(p.fn)-1] }()

	names := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		names[i] = param.Name
	}
	params := strings.Join(names, ", ")
	if fn.VarArg {
		params += "..."
	}
	p.line("function %s(%s) id=%s", fn.Name, params, fn.ID)
	p.indent++
	p.printBlock(fn.Body)
	for _, nested := range NestedFunctions(fn) {
		p.PrintFunction(nested)
	}
	p.indent--
}

// NestedFunctions returns the function literals directly inside fn, in
// source order, without descending into them.
func NestedFunctions(fn *Function) []*Function {
	var out []*Function
	Inspect(fn, func(n Node) bool {
		if f, ok := n.(*Function); ok && f != fn {
			out = append(out, f)
			return false
		}
		return true
	})
	return out
}

func (p *Printer) printBlock(b *Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		p.printStmt(s)
	}
}

func (p *Printer) printNested(s Stmt) {
	p.indent++
	if b, ok := s.(*Block); ok {
		p.printBlock(b)
	} else if s != nil {
		p.printStmt(s)
	}
	p.indent--
}

func (p *Printer) printStmt(s Stmt) {
	switch s := s.(type) {
	case *Block:
		p.line("{")
		p.printNested(s)
		p.line("}")
	case *VarStmt:
		if s.Init == nil {
			p.line("var %s", s.Name.Name)
			return
		}
		p.line("var %s = %s", s.Name.Name, p.expr(s.Init))
	case *ExprStmt:
		p.line("%s", p.expr(s.X))
	case *If:
		p.line("if %s", p.expr(s.Test))
		p.printNested(s.Then)
		if s.Else != nil {
			p.line("else")
			p.printNested(s.Else)
		}
	case *While:
		if s.DoWhile {
			p.line("do")
			p.printNested(s.Body)
			p.line("while %s", p.expr(s.Test))
			return
		}
		p.line("while %s", p.expr(s.Test))
		p.printNested(s.Body)
	case *For:
		switch s.Mode {
		case ForIn, ForOf:
			kw := "in"
			if s.Mode == ForOf {
				kw = "of"
			}
			p.line("for %s %s %s", s.Binding.Name, kw, p.expr(s.Iterable))
		default:
			p.line("for")
			p.indent++
			if s.Init != nil {
				p.printStmt(s.Init)
			}
			if s.Test != nil {
				p.line("test %s", p.expr(s.Test))
			}
			if s.Update != nil {
				p.line("update %s", p.expr(s.Update))
			}
			p.indent--
		}
		p.printNested(s.Body)
	case *Return:
		if s.Value == nil {
			p.line("return")
			return
		}
		p.line("return %s", p.expr(s.Value))
	case *Break:
		p.line("break")
	case *Continue:
		p.line("continue")
	case *Throw:
		p.line("throw %s", p.expr(s.Value))
	case *Try:
		p.line("try")
		p.printNested(s.Body)
		if c := s.Catch; c != nil {
			if c.Condition != nil {
				p.line("catch %s if %s", c.Param.Name, p.expr(c.Condition))
			} else {
				p.line("catch %s", c.Param.Name)
			}
			p.printNested(c.Body)
		}
		if s.Finally != nil {
			p.line("finally")
			p.printNested(s.Finally)
		}
	default:
		p.line("<%T>", s)
	}
}

func (p *Printer) expr(e Expr) string {
	var sb strings.Builder
	sub := &Printer{w: &sb, opts: p.opts, fn: p.fn, plain: p.plain}
	sub.printExpr(e)
	if sub.err != nil && p.err == nil {
		p.err = sub.err
	}
	return sb.String()
}

func (p *Printer) printExpr(e Expr) {
	switch e := e.(type) {
	case nil:
		p.printf("<nil>")
	case *Ident:
		p.printf("%s", e.Name)
	case *Literal:
		if s, ok := e.Value.(string); ok {
			p.printf("%q", s)
		} else {
			p.printf("%s", value.Describe(e.Value))
		}
	case *ArrayLit:
		p.printf("[")
		for i, el := range e.Elems {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(el)
		}
		p.printf("]")
		if e.Split {
			p.printf("#split")
		}
	case *ObjectLit:
		p.printf("{")
		for i, prop := range e.Props {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s: ", prop.Key.Name)
			p.printExpr(prop.Value)
		}
		p.printf("}")
		if e.Split {
			p.printf("#split")
		}
	case *Access:
		p.printExpr(e.Base)
		p.printf(".%s", e.Property.Name)
	case *Index:
		p.printExpr(e.Base)
		p.printf("[")
		p.printExpr(e.Index)
		p.printf("]")
	case *Call:
		p.printExpr(e.Callee)
		p.printf("(")
		for i, a := range e.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(a)
		}
		p.printf(")")
	case *Unary:
		switch e.Op {
		case OpPostIncr, OpPostDecr:
			p.printf("(")
			p.printExpr(e.X)
			p.printf("%s)", e.Op.String()[1:])
		case OpPreIncr, OpPreDecr:
			p.printf("(%s", e.Op.String()[:2])
			p.printExpr(e.X)
			p.printf(")")
		default:
			p.printf("(%s ", e.Op)
			p.printExpr(e.X)
			p.printf(")")
		}
	case *Binary:
		p.printf("(")
		p.printExpr(e.L)
		p.printf(" %s ", e.Op)
		p.printExpr(e.R)
		p.printf(")")
	case *Ternary:
		p.printf("(")
		p.printExpr(e.Test)
		p.printf(" ? ")
		p.printExpr(e.Then)
		p.printf(" : ")
		p.printExpr(e.Else)
		p.printf(")")
	case *Function:
		p.printf("function %s#%s", e.Name, e.ID)
	default:
		p.printf("<%T>", e)
	}
	if o, ok := e.(Optimistic); ok {
		p.annotate(o)
	}
}

func (p *Printer) annotate(o Optimistic) {
	pp := o.ProgramPoint()
	if p.plain || !pp.IsValid() {
		return
	}
	p.printf("@%d", pp)
	if t := o.OptimisticType(); t.IsValid() {
		p.printf(":%s", t)
	}
	if p.opts.Never != nil && len(p.fn) > 0 && p.opts.Never(p.fn[len(p.fn)-1], pp) {
		p.printf("!")
	}
}
