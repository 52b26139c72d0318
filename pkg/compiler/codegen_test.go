package compiler

import (
	"errors"
	"go/parser"
	"go/token"
	"reflect"
	"strings"
	"testing"
)

func controllerCode(t *testing.T, members string) string {
	t.Helper()
	res := mustCompile(t, lockMachine(members))
	return string(res.Files["l_controller.go"])
}

func TestGenerateFiles(t *testing.T) {
	res := mustCompile(t, lockMachine(""))

	if got := res.FileNames(); !reflect.DeepEqual(got, []string{"l_controller.go", "protocol_types.go"}) {
		t.Fatalf("unexpected files %v", got)
	}
	fset := token.NewFileSet()
	for name, src := range res.Files {
		code := string(src)
		if !strings.HasPrefix(code, "// Code generated by slicc from t.sm. DO NOT EDIT.\n") || !IsGenerated(src) {
			t.Errorf("%s: missing generated header", name)
		}
		assertContains(t, code, "package proto\n")
		if _, err := parser.ParseFile(fset, name, src, parser.AllErrors); err != nil {
			t.Errorf("%s does not parse: %v", name, err)
		}
	}
}

func TestIsGenerated(t *testing.T) {
	if IsGenerated([]byte("package proto\n")) {
		t.Errorf("expected a hand-written file not to count as generated")
	}
	if IsGenerated([]byte("// Code generated by stringer. DO NOT EDIT.\n")) {
		t.Errorf("expected another generator's file not to count as generated")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	src := lockMachine(`action(a, "A") { owner := owner + 1; }
  action(w, "W") { wakeUpAllDependents(); }
  transition(I, Get, B) { a; }
  transition(B, Done, I) { w; }
`)
	first, err := CompileSource("proto", "t.sm", src)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := CompileSource("proto", "t.sm", src)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Files, again.Files) {
			t.Fatalf("run %d generated different output", i)
		}
	}
}

func TestGenerateController(t *testing.T) {
	code := controllerCode(t, `action(a, "A", desc="grab the line") { owner := 1; }
  transition(I, Get, B) { a; }
`)
	tests := []struct {
		name string
		want string
	}{
		{"Entry", "type L_Entry struct {"},
		{"EmbedsRuntime", "*ruby.Controller"},
		{"Constructor", "func NewL_Controller(sys *ruby.System, p ruby.ControllerParams) (*L_Controller, error) {"},
		{"InPort", `c.reqIn = c.AddInPort("reqIn", "req")`},
		{"OutPort", `c.respOut = c.AddOutPort("respOut", "resp")`},
		{"DefaultState", "return L_State_I"},
		{"Dispatch", "return c.wakeup_reqIn(m)"},
		{"Unhandled", "return ruby.TransitionUnhandled"},
		{"Peek", "if in_msg, ok := ruby.Peek[*Req](c.Controller, c.reqIn); ok {"},
		{"Trigger", "return c.doTransition(L_Event_Get, in_msg.Addr, m)"},
		{"Stall", "return c.StallAndWait(addr, m)"},
		{"Commit", "c.setState(addr, next)"},
		{"RowActions", "c.a(addr, m)"},
		{"RowNext", "return L_State_B, true"},
		{"ActionDoc", "// a [A]: grab the line"},
		{"ActionFunc", "func (c *L_Controller) a(addr ruby.Addr, m *ruby.Message) {"},
		{"VarAssign", "c.entry(addr).owner = 1"},
		{"StateNames", `var _L_State_names = [...]string{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, code, tt.want)
		})
	}

	// One transition leaves three stall rows.
	if n := strings.Count(code, "return state, false"); n != 3 {
		t.Errorf("expected 3 stall rows, got %d", n)
	}
}

func TestGenerateTwoInPorts(t *testing.T) {
	res := mustCompile(t, twoPortMachine(ackDone, `transition(I, Get, B) { r_record; }
  transition(B, Done, I) { c_clear; }`))
	code := string(res.Files["l_controller.go"])

	for _, want := range []string{
		"case c.reqIn:\n\t\treturn c.wakeup_reqIn(m)",
		"case c.ackIn:\n\t\treturn c.wakeup_ackIn(m)",
		"if in_msg, ok := ruby.Peek[*Req](c.Controller, c.reqIn); ok {",
		"if in_msg, ok := ruby.Peek[*Ack](c.Controller, c.ackIn); ok {",
		"return c.doTransition(L_Event_Done, in_msg.Addr, m)",
	} {
		assertContains(t, code, want)
	}
}

func TestGenerateWakeGuard(t *testing.T) {
	code := controllerCode(t, `action(w, "W") { wakeUpDependents(address); }
  action(l, "L") { wakeUpDependents(makeLineAddress(address + 64)); }
  action(x, "X") { wakeUpAllDependents(); }
`)
	assertContains(t, code, "if c.WaitBuffers().HasWaiters(addr) {")
	assertContains(t, code, "c.WakeUpBuffers(addr)")
	assertContains(t, code, "if c.WaitBuffers().HasWaiters(ruby.LineAddress(addr + ruby.Addr(64))) {")
	assertContains(t, code, "c.WakeUpAllBuffers()")
	if n := strings.Count(code, "c.WakeUpBuffers("); n != 2 {
		t.Errorf("expected 2 guarded wake-ups, got %d", n)
	}
}

func TestGenerateWakeRequiresCheckedOperand(t *testing.T) {
	g := &codeGen{m: &Machine{Name: "L"}, e: newEmitter()}
	err := g.stmt(&WakeUpDependentsStmt{Pos: Pos{"t.sm", 3}, Addr: &IntLit{Value: 5}})
	if err == nil {
		t.Fatal("expected an internal error")
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != InternalError {
		t.Fatalf("expected an internal compiler error, got %v", err)
	}
	assertContains(t, err.Error(), "t.sm:3: internal compiler error: wakeUpDependents(5) was not type-checked")
	if g.e.out.Len() != 0 {
		t.Errorf("expected nothing emitted, got %q", g.e.out.String())
	}
}

func TestGenerateStatements(t *testing.T) {
	res := mustCompile(t, lockMachine(`Copy last;
  int type;
  action(a, "A") {
    if (owner == 0) {
      owner := 1;
    } else if (owner == 1) {
      owner := 2;
    } else {
      error("too many owners");
    }
    peek(reqIn, Req) {
      last := in_msg;
      type := in_msg.who;
    }
    enqueue(respOut, Req, owner) {
      out_msg.addr := address + 64;
      out_msg.who := -owner;
    }
    assert(!(owner < 0) && curCycle() >= 0);
  }
`)+`structure(Copy) { Address addr; int who; }`)
	code := string(res.Files["l_controller.go"])
	tests := []struct {
		name string
		want string
	}{
		{"If", "if c.entry(addr).owner == 0 {"},
		{"ElseIf", "} else if c.entry(addr).owner == 1 {"},
		{"Else", "} else {"},
		{"Error", `c.Fail("too many owners")`},
		{"StructConversion", "c.entry(addr).last = Copy{Addr: (*in_msg).Addr, Who: (*in_msg).Who}"},
		{"KeywordVar", "c.entry(addr).type_ = in_msg.Who"},
		{"OutMsg", "out_msg := &Req{}"},
		{"AddressArith", "out_msg.Addr = addr + ruby.Addr(64)"},
		{"Unary", "out_msg.Who = -c.entry(addr).owner"},
		{"Enqueue", "c.Enqueue(c.respOut, out_msg.Addr, out_msg, c.entry(addr).owner)"},
		{"Assert", `c.Assert((!(c.entry(addr).owner < 0)) && (c.CurCycle() >= 0), "t.sm:`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, code, tt.want)
		})
	}
}

func TestGenerateDefaultLatency(t *testing.T) {
	res := mustCompile(t, `
structure(Msg) { Address addr; }
machine(Dir, latency="4") {
  state_declaration(State) { I; }
  enumeration(Event) { E; }
  out_port(out, Msg);
  action(s, "S") { enqueue(out, Msg) { out_msg.addr := address; } }
}`)
	code := string(res.Files["dir_controller.go"])
	assertContains(t, code, "c.Enqueue(c.out, out_msg.Addr, out_msg, 4)")
	assertContains(t, code, `c.out = c.AddOutPort("out", "out")`)
}

func TestGenerateTypes(t *testing.T) {
	res := mustCompile(t, `
enumeration(Color, desc="line colors") { Red; Green, desc="go"; }
structure(Msg) { Address addr; Color color; int _n; }
machine(M) {
  state_declaration(State) { I; }
  enumeration(Event) { E; }
  enumeration(Kind) { Small; Large; }
}`)
	types := string(res.Files[TypesFile])
	for _, want := range []string{
		"// Color: line colors",
		"type Color int",
		"Color_Red",
		"= iota",
		"// go",
		`var _Color_names = [...]string{`,
		`return fmt.Sprintf("Color(%d)", int(e))`,
		"type Msg struct {",
		"ruby.Addr",
		"F_n",
		`"goslicc/pkg/ruby"`,
	} {
		assertContains(t, types, want)
	}

	ctrl := string(res.Files["m_controller.go"])
	assertContains(t, ctrl, "type M_Kind int")
	assertContains(t, ctrl, "M_Kind_Large")
	assertNotContains(t, ctrl, "type Color int")
}
