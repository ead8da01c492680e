package diag

import (
	"fmt"

	"tachyon/internal/source"
)

// Severity orders diagnostics; Bag.Sort puts higher severities first.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one engine report. Primary is the span of the node that
// triggered it, or the zero span for whole-function reports.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s[%s] %s: %s", d.Severity, d.Code.ID(), d.Primary, d.Message)
	for _, n := range d.Notes {
		s += fmt.Sprintf("\n  note %s: %s", n.Span, n.Msg)
	}
	return s
}
