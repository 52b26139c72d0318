package compiler

import (
	"fmt"
	"strings"
)

// Pos is a source position.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// ErrorKind classifies compile failures.
type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	TypeError
	SemanticError
	InternalError
)

var errorKindNames = [...]string{
	SyntaxError:   "syntax error",
	TypeError:     "type error",
	SemanticError: "error",
	InternalError: "internal compiler error",
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a positioned compile diagnostic. Snippet, when present, is the
// trimmed source line the diagnostic points at.
type Error struct {
	Kind    ErrorKind
	Pos     Pos
	Msg     string
	Snippet string
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", e.Pos, e.Kind, e.Msg)
	if e.Snippet != "" {
		fmt.Fprintf(&sb, "\n  |> %s", e.Snippet)
	}
	return sb.String()
}

func errorf(kind ErrorKind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func typeErrorf(pos Pos, format string, args ...any) *Error {
	return errorf(TypeError, pos, format, args...)
}

func semanticErrorf(pos Pos, format string, args ...any) *Error {
	return errorf(SemanticError, pos, format, args...)
}

func internalErrorf(pos Pos, format string, args ...any) *Error {
	return errorf(InternalError, pos, format, args...)
}
