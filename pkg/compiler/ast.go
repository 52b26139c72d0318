package compiler

import (
	"fmt"
	"strings"
)

// Node is implemented by every AST node.
type Node interface {
	Position() Pos
	String() string
}

// Pair is a key="value" annotation such as desc="Idle" or default="IDLE".
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered annotation list.
type Pairs []Pair

// Get returns the value for key and whether it was present.
func (ps Pairs) Get(key string) (string, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

//  Top-level declarations

// Decl is a declaration at file scope.
type Decl interface {
	Node
	declNode()
}

// IncludeDecl represents  include "file.sm";
type IncludeDecl struct {
	Pos  Pos
	Path string
}

func (*IncludeDecl) declNode()        {}
func (d *IncludeDecl) Position() Pos  { return d.Pos }
func (d *IncludeDecl) String() string { return fmt.Sprintf("Include(%q)", d.Path) }

// EnumMember is one enumerator of an enumeration or state declaration.
type EnumMember struct {
	Pos   Pos
	Name  string
	Pairs Pairs
}

// EnumDecl represents enumeration(Name, desc="...") { A; B, desc="..."; }.
// It is legal both at file scope and inside a machine.
type EnumDecl struct {
	Pos     Pos
	Name    string
	Pairs   Pairs
	Members []EnumMember
}

func (*EnumDecl) declNode()       {}
func (*EnumDecl) memberNode()     {}
func (d *EnumDecl) Position() Pos { return d.Pos }
func (d *EnumDecl) String() string {
	return fmt.Sprintf("Enum(%s, members=%s)", d.Name, memberNames(d.Members))
}

// FieldDecl is one field of a structure.
type FieldDecl struct {
	Pos      Pos
	TypeName string
	Name     string
	Pairs    Pairs
}

// StructDecl represents structure(Name) { Address addr; int acks; }
type StructDecl struct {
	Pos    Pos
	Name   string
	Pairs  Pairs
	Fields []FieldDecl
}

func (*StructDecl) declNode()       {}
func (d *StructDecl) Position() Pos { return d.Pos }
func (d *StructDecl) String() string {
	return fmt.Sprintf("Struct(%s, fields=%d)", d.Name, len(d.Fields))
}

// MachineDecl represents machine(Name, desc="...") { members... }
type MachineDecl struct {
	Pos     Pos
	Name    string
	Pairs   Pairs
	Members []MachineMember
}

func (*MachineDecl) declNode()       {}
func (d *MachineDecl) Position() Pos { return d.Pos }
func (d *MachineDecl) String() string {
	return fmt.Sprintf("Machine(%s, members=%d)", d.Name, len(d.Members))
}

//  Machine members

// MachineMember is a declaration inside a machine body.
type MachineMember interface {
	Node
	memberNode()
}

// StateDecl represents state_declaration(State, default="...") { IDLE; BUSY; }
type StateDecl struct {
	Pos      Pos
	TypeName string
	Pairs    Pairs
	Members  []EnumMember
}

func (*StateDecl) memberNode()     {}
func (d *StateDecl) Position() Pos { return d.Pos }
func (d *StateDecl) String() string {
	return fmt.Sprintf("StateDecl(%s, members=%s)", d.TypeName, memberNames(d.Members))
}

// VarDecl declares per-address storage:  int acks;
type VarDecl struct {
	Pos      Pos
	TypeName string
	Name     string
	Pairs    Pairs
}

func (*VarDecl) memberNode()      {}
func (d *VarDecl) Position() Pos  { return d.Pos }
func (d *VarDecl) String() string { return fmt.Sprintf("Var(%s %s)", d.TypeName, d.Name) }

// InPortDecl represents in_port(name, MsgType, link="...") { body }
type InPortDecl struct {
	Pos     Pos
	Name    string
	MsgType string
	Pairs   Pairs
	Body    []Stmt
}

func (*InPortDecl) memberNode()     {}
func (d *InPortDecl) Position() Pos { return d.Pos }
func (d *InPortDecl) String() string {
	return fmt.Sprintf("InPort(%s, %s, body=%d)", d.Name, d.MsgType, len(d.Body))
}

// OutPortDecl represents out_port(name, MsgType, link="...");
type OutPortDecl struct {
	Pos     Pos
	Name    string
	MsgType string
	Pairs   Pairs
}

func (*OutPortDecl) memberNode()      {}
func (d *OutPortDecl) Position() Pos  { return d.Pos }
func (d *OutPortDecl) String() string { return fmt.Sprintf("OutPort(%s, %s)", d.Name, d.MsgType) }

// ActionDecl represents action(name, "short", desc="...") { body }
type ActionDecl struct {
	Pos   Pos
	Name  string
	Short string
	Pairs Pairs
	Body  []Stmt
}

func (*ActionDecl) memberNode()     {}
func (d *ActionDecl) Position() Pos { return d.Pos }
func (d *ActionDecl) String() string {
	return fmt.Sprintf("Action(%s, %q, body=%d)", d.Name, d.Short, len(d.Body))
}

// ActionRef names one action in a transition's action list.
type ActionRef struct {
	Pos  Pos
	Name string
}

// TransitionDecl represents
//
//	transition({S1, S2}, E, NEXT) { a_action; b_action; }
//	           ^^^^^^^^  ^  ^^^^
//	           States  Events Next (empty: stay in the current state)
type TransitionDecl struct {
	Pos     Pos
	States  []string
	Events  []string
	Next    string
	Pairs   Pairs
	Actions []ActionRef
}

func (*TransitionDecl) memberNode()     {}
func (d *TransitionDecl) Position() Pos { return d.Pos }
func (d *TransitionDecl) String() string {
	next := d.Next
	if next == "" {
		next = "-"
	}
	names := make([]string, len(d.Actions))
	for i, a := range d.Actions {
		names[i] = a.Name
	}
	return fmt.Sprintf("Transition({%s}, {%s}, %s, actions=%v)",
		strings.Join(d.States, ","), strings.Join(d.Events, ","), next, names)
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	Node
	stmtNode()
}

// AssignStmt represents  Left := Right;
type AssignStmt struct {
	Pos   Pos
	Left  Expr
	Right Expr
}

func (*AssignStmt) stmtNode()        {}
func (s *AssignStmt) Position() Pos  { return s.Pos }
func (s *AssignStmt) String() string { return fmt.Sprintf("Assign(%s := %s)", s.Left, s.Right) }

// IfStmt represents if (Cond) { Then } else { Else }. An "else if" chain is
// an Else holding a single IfStmt.
type IfStmt struct {
	Pos  Pos
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (*IfStmt) stmtNode()       {}
func (s *IfStmt) Position() Pos { return s.Pos }
func (s *IfStmt) String() string {
	return fmt.Sprintf("If(%s, then=%d, else=%d)", s.Cond, len(s.Then), len(s.Else))
}

// EnqueueStmt represents enqueue(port, MsgType, latency) { out_msg.f := ...; }
type EnqueueStmt struct {
	Pos     Pos
	Port    string
	MsgType string
	Latency Expr // may be nil
	Body    []Stmt

	port    *Symbol
	msgType *Type
}

func (*EnqueueStmt) stmtNode()       {}
func (s *EnqueueStmt) Position() Pos { return s.Pos }
func (s *EnqueueStmt) String() string {
	return fmt.Sprintf("Enqueue(%s, %s, body=%d)", s.Port, s.MsgType, len(s.Body))
}

// PeekStmt represents peek(port, MsgType) { ... in_msg ... }
type PeekStmt struct {
	Pos     Pos
	Port    string
	MsgType string
	Body    []Stmt

	port    *Symbol
	msgType *Type
}

func (*PeekStmt) stmtNode()       {}
func (s *PeekStmt) Position() Pos { return s.Pos }
func (s *PeekStmt) String() string {
	return fmt.Sprintf("Peek(%s, %s, body=%d)", s.Port, s.MsgType, len(s.Body))
}

// TriggerStmt represents trigger(Event:X, addr); it ends the in-port handler.
type TriggerStmt struct {
	Pos   Pos
	Event Expr
	Addr  Expr
}

func (*TriggerStmt) stmtNode()        {}
func (s *TriggerStmt) Position() Pos  { return s.Pos }
func (s *TriggerStmt) String() string { return fmt.Sprintf("Trigger(%s, %s)", s.Event, s.Addr) }

// WakeUpDependentsStmt represents wakeUpDependents(addr); the operand must be
// Address-typed before the statement may be generated.
type WakeUpDependentsStmt struct {
	Pos  Pos
	Addr Expr

	checked bool
}

func (*WakeUpDependentsStmt) stmtNode()       {}
func (s *WakeUpDependentsStmt) Position() Pos { return s.Pos }
func (s *WakeUpDependentsStmt) String() string {
	return fmt.Sprintf("WakeUpDependents(%s)", s.Addr)
}

// WakeUpAllDependentsStmt represents wakeUpAllDependents();
type WakeUpAllDependentsStmt struct {
	Pos Pos
}

func (*WakeUpAllDependentsStmt) stmtNode()       {}
func (s *WakeUpAllDependentsStmt) Position() Pos { return s.Pos }
func (s *WakeUpAllDependentsStmt) String() string {
	return "WakeUpAllDependents"
}

// ExprStmt is an expression evaluated for its side effects (e.g. error("...")).
type ExprStmt struct {
	Pos  Pos
	Expr Expr
}

func (*ExprStmt) stmtNode()        {}
func (s *ExprStmt) Position() Pos  { return s.Pos }
func (s *ExprStmt) String() string { return fmt.Sprintf("ExprStmt(%s)", s.Expr) }

//  Expression nodes

// Expr is implemented by every node that produces a value. Type returns the
// static type resolved by the type checker, or nil before checking.
type Expr interface {
	Node
	exprNode()
	Type() *Type
}

// typed carries the resolved type of an expression. conv, when set, is the
// type the checked context converts the value to.
type typed struct {
	typ  *Type
	conv *Type
}

func (t *typed) Type() *Type { return t.typ }

// IntLit is an integer constant.
type IntLit struct {
	typed
	Pos   Pos
	Value int64
}

func (*IntLit) exprNode()        {}
func (e *IntLit) Position() Pos  { return e.Pos }
func (e *IntLit) String() string { return fmt.Sprintf("%d", e.Value) }

// BoolLit is true or false.
type BoolLit struct {
	typed
	Pos   Pos
	Value bool
}

func (*BoolLit) exprNode()        {}
func (e *BoolLit) Position() Pos  { return e.Pos }
func (e *BoolLit) String() string { return fmt.Sprintf("%t", e.Value) }

// StringLit is a string constant "..."
type StringLit struct {
	typed
	Pos   Pos
	Value string
}

func (*StringLit) exprNode()        {}
func (e *StringLit) Position() Pos  { return e.Pos }
func (e *StringLit) String() string { return fmt.Sprintf("%q", e.Value) }

// EnumLit is a qualified enumerator:
//
//	Event:GET
//	^^^^^ ^^^
//	TypeName Member
type EnumLit struct {
	typed
	Pos      Pos
	TypeName string
	Member   string
}

func (*EnumLit) exprNode()        {}
func (e *EnumLit) Position() Pos  { return e.Pos }
func (e *EnumLit) String() string { return e.TypeName + ":" + e.Member }

// Ident is a read of a named variable, port or per-address field.
type Ident struct {
	typed
	Pos  Pos
	Name string

	sym *Symbol
}

func (*Ident) exprNode()        {}
func (e *Ident) Position() Pos  { return e.Pos }
func (e *Ident) String() string { return e.Name }

// FieldExpr represents X.Field
type FieldExpr struct {
	typed
	Pos   Pos
	X     Expr
	Field string
}

func (*FieldExpr) exprNode()        {}
func (e *FieldExpr) Position() Pos  { return e.Pos }
func (e *FieldExpr) String() string { return fmt.Sprintf("(%s.%s)", e.X, e.Field) }

// MethodCall represents X.Method(Args)
type MethodCall struct {
	typed
	Pos    Pos
	X      Expr
	Method string
	Args   []Expr
}

func (*MethodCall) exprNode()       {}
func (e *MethodCall) Position() Pos { return e.Pos }
func (e *MethodCall) String() string {
	return fmt.Sprintf("MethodCall(%s.%s, args=%v)", e.X, e.Method, e.Args)
}

// CallExpr represents Name(Args) for a built-in function. The parser emits a
// CallExpr for every Name(...) form; the type checker turns calls whose Name
// resolves to a type into a ConstructorExpr.
type CallExpr struct {
	typed
	Pos  Pos
	Name string
	Args []Expr

	fn *Builtin
}

func (*CallExpr) exprNode()       {}
func (e *CallExpr) Position() Pos { return e.Pos }
func (e *CallExpr) String() string {
	return fmt.Sprintf("Call(%s, args=%v)", e.Name, e.Args)
}

// ConstructorExpr represents TypeName(Args): Address(0x40) or a positional
// structure literal.
type ConstructorExpr struct {
	typed
	Pos      Pos
	TypeName string
	Args     []Expr
}

func (*ConstructorExpr) exprNode()       {}
func (e *ConstructorExpr) Position() Pos { return e.Pos }
func (e *ConstructorExpr) String() string {
	return fmt.Sprintf("New(%s, args=%v)", e.TypeName, e.Args)
}

// BinaryExpr represents Left Op Right.
type BinaryExpr struct {
	typed
	Pos   Pos
	Op    TokenType
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode()       {}
func (e *BinaryExpr) Position() Pos { return e.Pos }
func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, operatorText[e.Op], e.Right)
}

// UnaryExpr represents Op X (! or -).
type UnaryExpr struct {
	typed
	Pos Pos
	Op  TokenType
	X   Expr
}

func (*UnaryExpr) exprNode()        {}
func (e *UnaryExpr) Position() Pos  { return e.Pos }
func (e *UnaryExpr) String() string { return fmt.Sprintf("(%s%s)", operatorText[e.Op], e.X) }

func memberNames(ms []EnumMember) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return "[" + strings.Join(names, " ") + "]"
}
