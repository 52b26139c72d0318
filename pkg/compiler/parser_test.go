package compiler

import (
	"errors"
	"reflect"
	"testing"
)

func parseOne(t *testing.T, src string) Decl {
	t.Helper()
	decls, err := ParseSource("t.sm", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	return decls[0]
}

func TestParseDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Include", `include "types.sm";`, `Include("types.sm")`},
		{"Enumeration", `enumeration(CoherenceRequestType, desc="x") { GETS; GETX, desc="y"; }`, "Enum(CoherenceRequestType, members=[GETS GETX])"},
		{"Structure", `structure(Msg) { Address addr; int acks, desc="pending"; }`, "Struct(Msg, fields=2)"},
		{"Machine", `machine(Dir, desc="d") { state_declaration(State) { I; } enumeration(Event) { E; } }`, "Machine(Dir, members=2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseOne(t, tt.input).String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseMachineMembers(t *testing.T) {
	src := `machine(Dir) {
  state_declaration(State, default="Dir_State_B") { I; B; }
  enumeration(Event) { Get; Put; }
  int acks, desc="outstanding";
  in_port(reqIn, Req, link="req") { peek(reqIn, Req) { trigger(Event:Get, in_msg.addr); } }
  out_port(respOut, Resp, link="resp");
  action(a_ack, "A", desc="ack") { acks := acks + 1; }
  transition({I, B}, {Get, Put}, B) { a_ack; }
  transition(B, Put);
}`
	m := parseOne(t, src).(*MachineDecl)

	var got []string
	for _, mem := range m.Members {
		got = append(got, mem.String())
	}
	want := []string{
		"StateDecl(State, members=[I B])",
		"Enum(Event, members=[Get Put])",
		"Var(int acks)",
		"InPort(reqIn, Req, body=1)",
		"OutPort(respOut, Resp)",
		`Action(a_ack, "A", body=1)`,
		"Transition({I,B}, {Get,Put}, B, actions=[a_ack])",
		"Transition({B}, {Put}, -, actions=[])",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("member mismatch\nwant %q\ngot  %q", want, got)
	}

	state := m.Members[0].(*StateDecl)
	if def, _ := state.Pairs.Get("default"); def != "Dir_State_B" {
		t.Errorf("expected default pair, got %q", def)
	}
	port := m.Members[3].(*InPortDecl)
	if link, _ := port.Pairs.Get("link"); link != "req" {
		t.Errorf("expected link pair, got %q", link)
	}
}

func TestParseStatements(t *testing.T) {
	src := `machine(M) {
  action(a, "A") {
    if (x == 1 && !done) { y := 2; } else if (x > 3) { y := 4; } else { error("bad"); }
    enqueue(out, Msg, 2) { out_msg.addr := address + 64; }
    wakeUpDependents(address);
    wakeUpAllDependents();
    assert(-x < 0 || flag.isReady());
  }
}`
	m := parseOne(t, src).(*MachineDecl)
	body := m.Members[0].(*ActionDecl).Body

	var got []string
	for _, s := range body {
		got = append(got, s.String())
	}
	want := []string{
		"If(((x == 1) && (!done)), then=1, else=1)",
		"Enqueue(out, Msg, body=1)",
		"WakeUpDependents(address)",
		"WakeUpAllDependents",
		"ExprStmt(Call(assert, args=[(((-x) < 0) || MethodCall(flag.isReady, args=[]))]))",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("statement mismatch\nwant %q\ngot  %q", want, got)
	}

	elseIf, ok := body[0].(*IfStmt).Else[0].(*IfStmt)
	if !ok {
		t.Fatalf("expected else-if to parse as a nested IfStmt")
	}
	if len(elseIf.Else) != 1 {
		t.Errorf("expected the final else to hang off the nested if")
	}
	if enq := body[1].(*EnqueueStmt); enq.Latency == nil || enq.Latency.String() != "2" {
		t.Errorf("expected latency 2, got %v", enq.Latency)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantMsg     string
		wantLine    int
		wantSnippet string
	}{
		{
			name:        "MissingSemicolon",
			input:       "machine(M) {\n  int x\n}",
			wantMsg:     "expected SEMICOLON",
			wantLine:    3,
			wantSnippet: "}",
		},
		{
			name:     "FileScopeStatement",
			input:    "\ntrigger(Event:A, a);",
			wantMsg:  "at file scope",
			wantLine: 2,
		},
		{
			name:     "UnterminatedMachine",
			input:    "machine(M) {\n  int x;\n",
			wantMsg:  "unterminated machine",
			wantLine: 3,
		},
		{
			name:     "DuplicateAnnotation",
			input:    `enumeration(E, desc="a", desc="b") { A; }`,
			wantMsg:  `duplicate annotation "desc"`,
			wantLine: 1,
		},
		{
			name:        "BadExpression",
			input:       "machine(M) {\n  action(a, \"A\") {\n    x := ;\n  }\n}",
			wantMsg:     "in expression",
			wantLine:    3,
			wantSnippet: "x := ;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource("t.sm", tt.input)
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected a *compiler.Error, got %v", err)
			}
			if ce.Kind != SyntaxError {
				t.Errorf("expected a syntax error, got %s", ce.Kind)
			}
			assertContains(t, ce.Msg, tt.wantMsg)
			if ce.Pos.Line != tt.wantLine {
				t.Errorf("expected line %d, got %d", tt.wantLine, ce.Pos.Line)
			}
			if tt.wantSnippet != "" && ce.Snippet != tt.wantSnippet {
				t.Errorf("expected snippet %q, got %q", tt.wantSnippet, ce.Snippet)
			}
		})
	}
}

func TestParseSourceWrapsLexErrors(t *testing.T) {
	_, err := ParseSource("bad.sm", "machine(M) { @ }")
	if err == nil {
		t.Fatal("expected an error")
	}
	assertContains(t, err.Error(), "bad.sm: syntax error: unexpected character '@'")
}
