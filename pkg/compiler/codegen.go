package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// TypesFile is the generated file holding the global types.
const TypesFile = "protocol_types.go"

// ControllerFile returns the generated file name of machine m.
func ControllerFile(m *Machine) string {
	return strings.ToLower(m.Name) + "_controller.go"
}

// generatedMembers are the members every generated controller defines or
// calls on itself; ports and actions must not take these names.
var generatedMembers = map[string]bool{
	"Controller":         true,
	"states":             true,
	"entries":            true,
	"entry":              true,
	"State":              true,
	"setState":           true,
	"Wakeup":             true,
	"doTransition":       true,
	"doTransitionWorker": true,
	"Enqueue":            true,
	"StallAndWait":       true,
	"WaitBuffers":        true,
	"WakeUpBuffers":      true,
	"WakeUpAllBuffers":   true,
	"RecordTransition":   true,
	"CurCycle":           true,
	"Fail":               true,
	"Assert":             true,
	"AddInPort":          true,
	"AddOutPort":         true,
}

// Generate emits the Go source of a checked program: one file for the
// global types and one per machine, keyed by file name. origin names the
// specification in the generated header.
func Generate(prog *Program, pkg, origin string) (map[string][]byte, error) {
	files := make(map[string][]byte)

	e := newEmitter()
	for _, t := range prog.Types {
		if err := genType(e, t); err != nil {
			return nil, err
		}
	}
	src, err := e.file(origin, pkg)
	if err != nil {
		return nil, err
	}
	files[TypesFile] = src

	for _, m := range prog.Machines {
		g := &codeGen{m: m, e: newEmitter()}
		src, err := g.machine(origin, pkg)
		if err != nil {
			return nil, err
		}
		files[ControllerFile(m)] = src
	}
	return files, nil
}

func genType(e *emitter, t *Type) error {
	switch t.Kind {
	case KindEnum:
		genEnum(e, t)
	case KindStruct:
		genStruct(e, t)
	default:
		return internalErrorf(t.Pos, "cannot declare type %s", t)
	}
	return nil
}

func genEnum(e *emitter, t *Type) {
	name := goType(t)
	e.use("fmt")
	if t.Desc != "" {
		e.comment("%s: %s", name, t.Desc)
	}
	e.line("type %s int", name)
	e.line("")
	e.line("const (")
	for i, en := range t.Enumerators {
		decl := enumConst(t, en.Name)
		if i == 0 {
			decl += " " + name + " = iota"
		}
		if en.Desc != "" {
			decl += " // " + strings.ReplaceAll(en.Desc, "\n", " ")
		}
		e.line("%s", decl)
	}
	e.line(")")
	e.line("")
	e.line("var _%s_names = [...]string{", name)
	for _, en := range t.Enumerators {
		e.line("%q,", en.Name)
	}
	e.line("}")
	e.line("")
	e.line("func (e %s) String() string {", name)
	e.line("if e >= 0 && int(e) < len(_%s_names) {", name)
	e.line("return _%s_names[e]", name)
	e.line("}")
	e.line("return fmt.Sprintf(\"%s(%%d)\", int(e))", name)
	e.line("}")
	e.line("")
}

func genStruct(e *emitter, t *Type) {
	name := goType(t)
	if t.Desc != "" {
		e.comment("%s: %s", name, t.Desc)
	}
	e.line("type %s struct {", name)
	for _, f := range t.Fields {
		if usesAddress(f.Type) {
			e.use(RuntimeImport)
		}
		e.line("%s %s", exported(f.Name), goType(f.Type))
	}
	e.line("}")
	e.line("")
}

// codeGen emits the controller of one machine.
type codeGen struct {
	m      *Machine
	e      *emitter
	action *Action // action being generated, nil in in-port handlers
}

func (g *codeGen) ctrl() string  { return g.m.Name + "_Controller" }
func (g *codeGen) entry() string { return g.m.Name + "_Entry" }

func (g *codeGen) machine(origin, pkg string) ([]byte, error) {
	m := g.m
	if m.Table == nil {
		return nil, internalErrorf(m.Pos, "machine %s has no transition table", m.Name)
	}
	g.e.use("fmt")
	g.e.use(RuntimeImport)

	genEnum(g.e, m.State)
	genEnum(g.e, m.Event)
	for _, t := range m.Types {
		genEnum(g.e, t)
	}

	g.genTypes()
	g.genConstructor()
	g.genAccessors()
	if err := g.genInPorts(); err != nil {
		return nil, err
	}
	g.genDoTransition()
	g.genWorker()
	for _, a := range m.Actions {
		if err := g.genAction(a); err != nil {
			return nil, err
		}
	}
	return g.e.file(origin, pkg)
}

func (g *codeGen) genTypes() {
	m, e := g.m, g.e
	e.comment("%s holds the per-address storage of %s.", g.entry(), m.Name)
	e.line("type %s struct {", g.entry())
	for _, v := range m.Vars {
		e.line("%s %s", goIdent(v.Name), goType(v.Type))
	}
	e.line("}")
	e.line("")
	if m.Desc != "" {
		e.comment("%s: %s", g.ctrl(), m.Desc)
	}
	e.line("type %s struct {", g.ctrl())
	e.line("*ruby.Controller")
	e.line("")
	e.line("states map[ruby.Addr]%s", goType(m.State))
	e.line("entries map[ruby.Addr]*%s", g.entry())
	e.line("")
	for _, p := range m.InPorts {
		e.line("%s *ruby.InPort", goIdent(p.Name))
	}
	for _, p := range m.OutPorts {
		e.line("%s *ruby.OutPort", goIdent(p.Name))
	}
	e.line("}")
	e.line("")
}

func (g *codeGen) genConstructor() {
	m, e := g.m, g.e
	e.comment("New%s attaches a %s controller to sys.", g.ctrl(), m.Name)
	e.line("func New%s(sys *ruby.System, p ruby.ControllerParams) (*%s, error) {", g.ctrl(), g.ctrl())
	e.line("c := &%s{", g.ctrl())
	e.line("states: make(map[ruby.Addr]%s),", goType(m.State))
	e.line("entries: make(map[ruby.Addr]*%s),", g.entry())
	e.line("}")
	e.line("ctrl, err := sys.NewController(p, c)")
	e.line("if err != nil {")
	e.line("return nil, err")
	e.line("}")
	e.line("c.Controller = ctrl")
	for _, p := range m.InPorts {
		e.line("c.%s = c.AddInPort(%q, %q)", goIdent(p.Name), p.Name, p.Link)
	}
	for _, p := range m.OutPorts {
		e.line("c.%s = c.AddOutPort(%q, %q)", goIdent(p.Name), p.Name, p.Link)
	}
	e.line("return c, nil")
	e.line("}")
	e.line("")
}

func (g *codeGen) genAccessors() {
	m, e := g.m, g.e
	state := goType(m.State)
	e.comment("State returns the protocol state of addr.")
	e.line("func (c *%s) State(addr ruby.Addr) %s {", g.ctrl(), state)
	e.line("if s, ok := c.states[addr]; ok {")
	e.line("return s")
	e.line("}")
	e.line("return %s", enumConst(m.State, m.Default))
	e.line("}")
	e.line("")
	e.line("func (c *%s) setState(addr ruby.Addr, s %s) {", g.ctrl(), state)
	e.line("c.states[addr] = s")
	e.line("}")
	e.line("")
	e.line("func (c *%s) entry(addr ruby.Addr) *%s {", g.ctrl(), g.entry())
	e.line("en, ok := c.entries[addr]")
	e.line("if !ok {")
	e.line("en = &%s{}", g.entry())
	e.line("c.entries[addr] = en")
	e.line("}")
	e.line("return en")
	e.line("}")
	e.line("")
}

func (g *codeGen) genInPorts() error {
	m, e := g.m, g.e
	e.comment("Wakeup runs the handler of the in-port m arrived on.")
	e.line("func (c *%s) Wakeup(port *ruby.InPort, m *ruby.Message) ruby.TransitionResult {", g.ctrl())
	e.line("switch port {")
	for _, p := range m.InPorts {
		e.line("case c.%s:", goIdent(p.Name))
		e.line("return c.wakeup_%s(m)", p.Name)
	}
	e.line("}")
	e.line("return ruby.TransitionUnhandled")
	e.line("}")
	e.line("")

	for _, p := range m.InPorts {
		e.line("func (c *%s) wakeup_%s(m *ruby.Message) ruby.TransitionResult {", g.ctrl(), p.Name)
		if err := g.stmts(p.Body); err != nil {
			return err
		}
		e.line("return ruby.TransitionUnhandled")
		e.line("}")
		e.line("")
	}
	return nil
}

func (g *codeGen) genDoTransition() {
	m, e := g.m, g.e
	e.line("func (c *%s) doTransition(event %s, addr ruby.Addr, m *ruby.Message) ruby.TransitionResult {",
		g.ctrl(), goType(m.Event))
	e.line("state := c.State(addr)")
	e.line("next, ok := c.doTransitionWorker(state, event, addr, m)")
	e.line("if !ok {")
	e.line("return c.StallAndWait(addr, m)")
	e.line("}")
	e.line("c.setState(addr, next)")
	e.line("c.RecordTransition(addr, state.String(), event.String(), next.String())")
	e.line("return ruby.TransitionValid")
	e.line("}")
	e.line("")
}

// genWorker emits one branch per table row. Stall rows report failure so
// doTransition parks the message without touching state.
func (g *codeGen) genWorker() {
	m, e := g.m, g.e
	t := m.Table
	e.line("func (c *%s) doTransitionWorker(state %s, event %s, addr ruby.Addr, m *ruby.Message) (%s, bool) {",
		g.ctrl(), goType(m.State), goType(m.Event), goType(m.State))
	e.line("switch state {")
	for si := range t.Rows {
		e.line("case %s:", enumConst(m.State, t.States[si]))
		e.line("switch event {")
		for ei := range t.Rows[si] {
			r := &t.Rows[si][ei]
			e.line("case %s:", enumConst(m.Event, r.Event))
			if r.IsStall() {
				e.line("return state, false")
				continue
			}
			for _, a := range r.Actions {
				e.line("c.%s(addr, m)", goIdent(a.Name))
			}
			e.line("return %s, true", enumConst(m.State, r.Next))
		}
		e.line("}")
	}
	e.line("}")
	e.line("panic(fmt.Sprintf(\"%s: invalid transition %%s x %%s\", state, event))", m.Name)
	e.line("}")
	e.line("")
}

func (g *codeGen) genAction(a *Action) error {
	e := g.e
	g.action = a
	defer func() { g.action = nil }()

	switch {
	case a.Desc != "" && a.Short != "":
		e.comment("%s [%s]: %s", a.Name, a.Short, a.Desc)
	case a.Desc != "":
		e.comment("%s: %s", a.Name, a.Desc)
	}
	e.line("func (c *%s) %s(addr ruby.Addr, m *ruby.Message) {", g.ctrl(), goIdent(a.Name))
	if err := g.stmts(a.Body); err != nil {
		return err
	}
	e.line("}")
	e.line("")
	return nil
}

//  Statements

func (g *codeGen) stmts(stmts []Stmt) error {
	for _, s := range stmts {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *codeGen) stmt(s Stmt) error {
	e := g.e
	switch s := s.(type) {
	case *AssignStmt:
		left, err := g.expr(s.Left)
		if err != nil {
			return err
		}
		right, err := g.expr(s.Right)
		if err != nil {
			return err
		}
		e.line("%s = %s", left, right)

	case *IfStmt:
		return g.genIf(s)

	case *EnqueueStmt:
		if s.port == nil || s.msgType == nil {
			return internalErrorf(s.Pos, "enqueue on %s was not type-checked", s.Port)
		}
		latency := strconv.Itoa(g.m.Latency)
		if s.Latency != nil {
			l, err := g.expr(s.Latency)
			if err != nil {
				return err
			}
			latency = l
		}
		e.line("{")
		e.line("%s := &%s{}", outMsgName, goType(s.msgType))
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		e.line("c.Enqueue(c.%s, %s.Addr, %s, %s)", goIdent(s.Port), outMsgName, outMsgName, latency)
		e.line("}")

	case *PeekStmt:
		if s.port == nil || s.msgType == nil {
			return internalErrorf(s.Pos, "peek on %s was not type-checked", s.Port)
		}
		e.line("if %s, ok := ruby.Peek[*%s](c.Controller, c.%s); ok {", inMsgName, goType(s.msgType), goIdent(s.Port))
		e.line("_ = %s", inMsgName)
		if err := g.stmts(s.Body); err != nil {
			return err
		}
		e.line("}")

	case *TriggerStmt:
		ev, err := g.expr(s.Event)
		if err != nil {
			return err
		}
		addr, err := g.expr(s.Addr)
		if err != nil {
			return err
		}
		e.line("return c.doTransition(%s, %s, m)", ev, addr)

	case *WakeUpDependentsStmt:
		// Only an operand proven to be an Address reaches this point.
		if !s.checked || s.Addr.Type() != TypeAddress {
			return internalErrorf(s.Pos, "wakeUpDependents(%s) was not type-checked", s.Addr)
		}
		addr, err := g.expr(s.Addr)
		if err != nil {
			return err
		}
		e.line("if c.WaitBuffers().HasWaiters(%s) {", addr)
		e.line("c.WakeUpBuffers(%s)", addr)
		e.line("}")

	case *WakeUpAllDependentsStmt:
		e.line("c.WakeUpAllBuffers()")

	case *ExprStmt:
		x, err := g.expr(s.Expr)
		if err != nil {
			return err
		}
		e.line("%s", x)

	default:
		return internalErrorf(s.Position(), "cannot generate statement %T", s)
	}
	return nil
}

func (g *codeGen) genIf(s *IfStmt) error {
	cond, err := g.expr(s.Cond)
	if err != nil {
		return err
	}
	g.e.line("if %s {", cond)
	if err := g.stmts(s.Then); err != nil {
		return err
	}
	if len(s.Else) == 1 {
		if elif, ok := s.Else[0].(*IfStmt); ok {
			g.e.out.WriteString("} else ")
			return g.genIf(elif)
		}
	}
	if len(s.Else) > 0 {
		g.e.line("} else {")
		if err := g.stmts(s.Else); err != nil {
			return err
		}
	}
	g.e.line("}")
	return nil
}

//  Expressions

// expr returns the Go form of e, converted to the type its context
// requires.
func (g *codeGen) expr(e Expr) (string, error) {
	if e.Type() == nil {
		return "", internalErrorf(e.Position(), "expression %s was not type-checked", e)
	}
	code, err := g.rawExpr(e)
	if err != nil {
		return "", err
	}
	conv := e.(interface{ Conv() *Type }).Conv()
	if conv == nil || conv == e.Type() {
		return code, nil
	}
	if conv.Kind == KindStruct {
		return convertStruct(conv, e.Type(), code), nil
	}
	return goType(conv) + "(" + code + ")", nil
}

// convertStruct copies a value of structure src into the structurally
// identical structure dst field by field.
func convertStruct(dst, src *Type, code string) string {
	if strings.HasPrefix(code, "*") {
		code = "(" + code + ")"
	}
	parts := make([]string, len(dst.Fields))
	for i, df := range dst.Fields {
		sf := src.Fields[i]
		v := code + "." + exported(sf.Name)
		if df.Type != sf.Type && df.Type.Kind == KindStruct {
			v = convertStruct(df.Type, sf.Type, v)
		}
		parts[i] = exported(df.Name) + ": " + v
	}
	return goType(dst) + "{" + strings.Join(parts, ", ") + "}"
}

func (g *codeGen) rawExpr(e Expr) (string, error) {
	switch e := e.(type) {
	case *IntLit:
		return strconv.FormatInt(e.Value, 10), nil
	case *BoolLit:
		return strconv.FormatBool(e.Value), nil
	case *StringLit:
		return strconv.Quote(e.Value), nil
	case *EnumLit:
		return enumConst(e.Type(), e.Member), nil

	case *Ident:
		if e.sym == nil {
			return "", internalErrorf(e.Pos, "identifier %s was not resolved", e.Name)
		}
		switch e.sym.Kind {
		case SymVar:
			if g.action == nil {
				return "", internalErrorf(e.Pos, "per-address variable %s outside an action", e.Name)
			}
			return "c.entry(addr)." + goIdent(e.Name), nil
		case SymInPort, SymOutPort:
			return "c." + goIdent(e.Name), nil
		case SymLocal:
			switch e.Name {
			case addressName:
				return "addr", nil
			case inMsgName, outMsgName:
				return "*" + e.Name, nil
			}
		}
		return "", internalErrorf(e.Pos, "cannot generate %s %s", e.sym.Kind, e.Name)

	case *FieldExpr:
		var x string
		if id, ok := e.X.(*Ident); ok && (id.Name == inMsgName || id.Name == outMsgName) && id.sym != nil && id.sym.Kind == SymLocal {
			x = id.Name
		} else {
			var err error
			if x, err = g.expr(e.X); err != nil {
				return "", err
			}
			if strings.HasPrefix(x, "*") {
				x = "(" + x + ")"
			}
		}
		return x + "." + exported(e.Field), nil

	case *MethodCall:
		x, err := g.expr(e.X)
		if err != nil {
			return "", err
		}
		switch e.Method {
		case "isReady":
			return x + ".IsReady()", nil
		}
		return "", internalErrorf(e.Pos, "cannot generate method %s", e.Method)

	case *CallExpr:
		if e.fn == nil {
			return "", internalErrorf(e.Pos, "call of %s was not resolved", e.Name)
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			s, err := g.expr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		switch e.Name {
		case "error":
			return "c.Fail(" + args[0] + ")", nil
		case "assert":
			return "c.Assert(" + args[0] + ", " + strconv.Quote(e.Pos.String()) + ")", nil
		case "makeLineAddress":
			return "ruby.LineAddress(" + args[0] + ")", nil
		case "curCycle":
			return "c.CurCycle()", nil
		}
		return "", internalErrorf(e.Pos, "cannot generate call of %s", e.Name)

	case *ConstructorExpr:
		t := e.Type()
		if t == TypeAddress {
			return g.expr(e.Args[0])
		}
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			s, err := g.expr(a)
			if err != nil {
				return "", err
			}
			parts[i] = exported(t.Fields[i].Name) + ": " + s
		}
		return goType(t) + "{" + strings.Join(parts, ", ") + "}", nil

	case *BinaryExpr:
		l, err := g.operand(e.Left)
		if err != nil {
			return "", err
		}
		r, err := g.operand(e.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", l, operatorText[e.Op], r), nil

	case *UnaryExpr:
		x, err := g.operand(e.X)
		if err != nil {
			return "", err
		}
		return operatorText[e.Op] + x, nil
	}
	return "", internalErrorf(e.Position(), "cannot generate expression %T", e)
}

// operand parenthesizes nested operators.
func (g *codeGen) operand(e Expr) (string, error) {
	s, err := g.expr(e)
	if err != nil {
		return "", err
	}
	switch e.(type) {
	case *BinaryExpr, *UnaryExpr:
		return "(" + s + ")", nil
	}
	return s, nil
}
