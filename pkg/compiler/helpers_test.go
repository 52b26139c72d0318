package compiler

import (
	"errors"
	"strings"
	"testing"
)

func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

func assertNotContains(t *testing.T, code, unexpected string) {
	t.Helper()
	if strings.Contains(code, unexpected) {
		t.Errorf("Expected code not to contain %q, but it did.\nCode:\n%s", unexpected, code)
	}
}

func mustCheck(t *testing.T, src string) *Program {
	t.Helper()
	decls, err := ParseSource("t.sm", src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	prog, err := Check(decls)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	return prog
}

func mustCompile(t testing.TB, src string) *Result {
	t.Helper()
	res, err := CompileSource("proto", "t.sm", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return res
}

// compileError compiles src and returns the diagnostic it fails with.
func compileError(t *testing.T, src string) *Error {
	t.Helper()
	_, err := CompileSource("proto", "t.sm", src)
	if err == nil {
		t.Fatalf("expected compilation to fail")
	}
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected a *compiler.Error, got %T: %v", err, err)
	}
	return ce
}

// lockMachine wraps machine members in a minimal machine with the types
// the bodies below rely on.
func lockMachine(members string) string {
	return `
structure(Req) { Address addr; int who; }
machine(L) {
  state_declaration(State) { I; B; }
  enumeration(Event) { Get; Done; }
  int owner;
  in_port(reqIn, Req, link="req") {
    peek(reqIn, Req) { trigger(Event:Get, in_msg.addr); }
  }
  out_port(respOut, Req, link="resp");
` + members + `
}
`
}

// twoPortMachine is a machine with a request and an ack in-port. ackBody
// is the body of the ack port.
func twoPortMachine(ackBody, members string) string {
	return `
structure(Req) { Address addr; int who; }
structure(Ack) { Address addr; }
machine(L) {
  state_declaration(State) { I; B; }
  enumeration(Event) { Get; Done; }
  int owner;
  in_port(reqIn, Req, link="req") {
    peek(reqIn, Req) { trigger(Event:Get, in_msg.addr); }
  }
  in_port(ackIn, Ack, link="ack") {
` + ackBody + `
  }
  action(r_record, "R") { peek(reqIn, Req) { owner := in_msg.who; } }
  action(c_clear, "C") { peek(ackIn, Ack) { owner := 0; } }
` + members + `
}
`
}

const ackDone = `peek(ackIn, Ack) { trigger(Event:Done, in_msg.addr); }`
