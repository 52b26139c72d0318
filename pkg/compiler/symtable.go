package compiler

import (
	"fmt"
	"sort"
	"strings"
)

type ScopeType int

const (
	ScopeGlobal ScopeType = iota
	ScopeMachine
	ScopeBlock
)

type SymbolKind int

const (
	SymType    SymbolKind = iota
	SymFunc               // built-in function
	SymMachine            // a declared machine name
	SymVar                // per-address storage of the enclosing machine
	SymLocal              // address, in_msg, out_msg
	SymInPort
	SymOutPort
	SymAction
)

var symbolKindNames = [...]string{
	SymType:    "type",
	SymFunc:    "function",
	SymMachine: "machine",
	SymVar:     "per-address variable",
	SymLocal:   "local",
	SymInPort:  "in_port",
	SymOutPort: "out_port",
	SymAction:  "action",
}

func (k SymbolKind) String() string {
	if int(k) >= 0 && int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is one named entity visible in a scope.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Type     *Type
	Pos      Pos
	ReadOnly bool

	Func   *Builtin
	Action *Action
}

type scope struct {
	kind ScopeType
	syms map[string]*Symbol
}

// SymbolTable is an explicit stack of scopes: the global scope at the
// bottom, at most one machine scope above it, then nested block scopes.
// Lookup walks from the innermost scope outwards, so a machine-local
// declaration shadows a global one.
type SymbolTable struct {
	scopes  []*scope
	machine string
}

// NewSymbolTable returns a table whose global scope holds the predeclared
// types and built-in functions.
func NewSymbolTable() *SymbolTable {
	s := &SymbolTable{}
	s.push(ScopeGlobal)
	for _, t := range predeclared {
		s.scopes[0].syms[t.Name] = &Symbol{Name: t.Name, Kind: SymType, Type: t}
	}
	for _, b := range builtins {
		s.scopes[0].syms[b.Name] = &Symbol{Name: b.Name, Kind: SymFunc, Type: b.Result, Func: b}
	}
	return s
}

func (s *SymbolTable) push(kind ScopeType) {
	s.scopes = append(s.scopes, &scope{kind: kind, syms: make(map[string]*Symbol)})
}

func (s *SymbolTable) EnterMachine(name string) {
	if s.machine != "" {
		panic("EnterMachine called inside machine " + s.machine)
	}
	s.machine = name
	s.push(ScopeMachine)
}

func (s *SymbolTable) ExitMachine() {
	for len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
	s.machine = ""
}

// Machine returns the name of the machine being checked, if any.
func (s *SymbolTable) Machine() string {
	return s.machine
}

func (s *SymbolTable) EnterScope() {
	if s.machine == "" {
		panic("EnterScope called outside machine")
	}
	s.push(ScopeBlock)
}

func (s *SymbolTable) ExitScope() {
	if len(s.scopes) > 0 && s.scopes[len(s.scopes)-1].kind == ScopeBlock {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Define adds sym to the current scope. Redeclaring a name already present
// in the same scope is an error; shadowing an outer scope is not, except
// that predeclared types and functions cannot be shadowed anywhere.
func (s *SymbolTable) Define(sym *Symbol) error {
	if prev, ok := s.scopes[0].syms[sym.Name]; ok && prev.Pos.Line == 0 {
		return semanticErrorf(sym.Pos, "%q redeclares a predeclared %s", sym.Name, prev.Kind)
	}
	cur := s.scopes[len(s.scopes)-1]
	if prev, ok := cur.syms[sym.Name]; ok {
		return semanticErrorf(sym.Pos, "%q already declared as %s at %s", sym.Name, prev.Kind, prev.Pos)
	}
	cur.syms[sym.Name] = sym
	return nil
}

// Lookup returns the symbol and whether it was found.
func (s *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if sym, ok := s.scopes[i].syms[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupType resolves a type name.
func (s *SymbolTable) LookupType(name string) (*Type, bool) {
	sym, ok := s.Lookup(name)
	if !ok || sym.Kind != SymType {
		return nil, false
	}
	return sym.Type, true
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	for i, sc := range s.scopes {
		switch sc.kind {
		case ScopeGlobal:
			sb.WriteString("Global:\n")
		case ScopeMachine:
			fmt.Fprintf(&sb, "Machine %s:\n", s.machine)
		default:
			fmt.Fprintf(&sb, "Scope %d:\n", i)
		}
		names := make([]string, 0, len(sc.syms))
		for name := range sc.syms {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sym := sc.syms[name]
			fmt.Fprintf(&sb, "  %-20s  %s (Type: %s)\n", name, sym.Kind, sym.Type)
		}
	}
	return sb.String()
}
