package compiler

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RuntimeImport is the package generated controllers are built on.
const RuntimeImport = "goslicc/pkg/ruby"

const generatedHeader = "// Code generated by slicc from "

// IsGenerated reports whether src is a file written by Generate.
func IsGenerated(src []byte) bool {
	return bytes.HasPrefix(src, []byte(generatedHeader))
}

// emitter accumulates one generated Go file. Lines are written unindented;
// gofmt lays them out.
type emitter struct {
	out     strings.Builder
	imports map[string]bool
}

func newEmitter() *emitter {
	return &emitter{imports: make(map[string]bool)}
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.out, format+"\n", args...)
}

func (e *emitter) comment(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	text = strings.ReplaceAll(text, "\n", " ")
	e.out.WriteString("// " + text + "\n")
}

func (e *emitter) use(path string) {
	e.imports[path] = true
}

// file assembles the header, package clause and imports and gofmts the
// result.
func (e *emitter) file(origin, pkg string) ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s. DO NOT EDIT.\n\n", generatedHeader, origin)
	fmt.Fprintf(&sb, "package %s\n\n", pkg)
	if len(e.imports) > 0 {
		paths := make([]string, 0, len(e.imports))
		for p := range e.imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		sb.WriteString("import (\n")
		for _, p := range paths {
			fmt.Fprintf(&sb, "%q\n", p)
		}
		sb.WriteString(")\n\n")
	}
	sb.WriteString(e.out.String())

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, internalErrorf(Pos{File: origin}, "generated code does not parse: %v", err)
	}
	return src, nil
}

// goIdent makes a source identifier usable as a Go identifier.
func goIdent(name string) string {
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}

// exported upper-cases the first letter of a structure field name.
func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == '_' || !unicode.IsLetter(r) {
		return "F" + name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// goType returns the Go spelling of t.
func goType(t *Type) string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindAddress:
		return "ruby.Addr"
	case KindEnum, KindStruct:
		if t.Machine != "" {
			return t.Machine + "_" + t.Name
		}
		return t.Name
	case KindInPort:
		return "*ruby.InPort"
	case KindOutPort:
		return "*ruby.OutPort"
	}
	return "struct{}"
}

// enumConst returns the Go constant naming member of enumeration t.
func enumConst(t *Type, member string) string {
	return goType(t) + "_" + member
}

// usesAddress reports whether the Go form of t mentions ruby.Addr.
func usesAddress(t *Type) bool {
	return t.Kind == KindAddress
}
