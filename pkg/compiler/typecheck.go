package compiler

import (
	"strconv"
	"strings"
)

// Names bound implicitly inside bodies.
const (
	addressName = "address"
	inMsgName   = "in_msg"
	outMsgName  = "out_msg"
)

type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyInPort
	bodyAction
)

// checker resolves every identifier and type of a parsed file set. The first
// error stops the walk.
type checker struct {
	syms    *SymbolTable
	prog    *Program
	machine *Machine
	body    bodyKind
	action  *Action
	port    *Port // in-port whose body is being checked
}

// Check type-checks the declarations and builds the transition table of
// every machine. On success every expression carries its resolved type.
func Check(decls []Decl) (*Program, error) {
	c := &checker{syms: NewSymbolTable(), prog: &Program{}}
	if err := c.declareGlobals(decls); err != nil {
		return nil, err
	}
	for _, d := range decls {
		md, ok := d.(*MachineDecl)
		if !ok {
			continue
		}
		m, err := c.checkMachine(md)
		if err != nil {
			return nil, err
		}
		c.prog.Machines = append(c.prog.Machines, m)
	}
	if err := checkGoNames(c.prog); err != nil {
		return nil, err
	}
	return c.prog, nil
}

func (c *checker) declareGlobals(decls []Decl) error {
	var structs []*StructDecl
	var structTypes []*Type
	for _, d := range decls {
		switch d := d.(type) {
		case *IncludeDecl:
			return semanticErrorf(d.Pos, "include %q was not resolved; load the file with LoadFiles", d.Path)
		case *EnumDecl:
			t, err := newEnum(d.Name, "", d.Pos, d.Pairs, d.Members)
			if err != nil {
				return err
			}
			if err := c.syms.Define(&Symbol{Name: d.Name, Kind: SymType, Type: t, Pos: d.Pos}); err != nil {
				return err
			}
			c.prog.Types = append(c.prog.Types, t)
		case *StructDecl:
			t := &Type{Name: d.Name, Kind: KindStruct, Pos: d.Pos}
			t.Desc, _ = d.Pairs.Get("desc")
			if err := c.syms.Define(&Symbol{Name: d.Name, Kind: SymType, Type: t, Pos: d.Pos}); err != nil {
				return err
			}
			structs = append(structs, d)
			structTypes = append(structTypes, t)
			c.prog.Types = append(c.prog.Types, t)
		case *MachineDecl:
			if err := c.syms.Define(&Symbol{Name: d.Name, Kind: SymMachine, Pos: d.Pos}); err != nil {
				return err
			}
		default:
			return internalErrorf(d.Position(), "unexpected declaration %T", d)
		}
	}

	// Fields resolve after every global name is known so structures may
	// refer to types declared later in the file.
	for i, d := range structs {
		t := structTypes[i]
		for _, f := range d.Fields {
			if _, dup := t.Field(f.Name); dup {
				return semanticErrorf(f.Pos, "duplicate field %s in structure %s", f.Name, d.Name)
			}
			ft, err := c.resolveValueType(f.TypeName, f.Pos)
			if err != nil {
				return err
			}
			t.Fields = append(t.Fields, Field{Name: f.Name, Type: ft, Pos: f.Pos})
		}
	}
	return checkStructCycles(structTypes)
}

func newEnum(name, machine string, pos Pos, pairs Pairs, members []EnumMember) (*Type, error) {
	t := &Type{Name: name, Kind: KindEnum, Machine: machine, Pos: pos}
	t.Desc, _ = pairs.Get("desc")
	if len(members) == 0 {
		return nil, semanticErrorf(pos, "enumeration %s has no members", name)
	}
	for _, m := range members {
		if _, dup := t.EnumIndex(m.Name); dup {
			return nil, semanticErrorf(m.Pos, "duplicate enumerator %s in %s", m.Name, name)
		}
		desc, _ := m.Pairs.Get("desc")
		t.Enumerators = append(t.Enumerators, Enumerator{Name: m.Name, Desc: desc, Pos: m.Pos})
	}
	return t, nil
}

func checkStructCycles(types []*Type) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*Type]int)
	var visit func(t *Type) error
	visit = func(t *Type) error {
		switch state[t] {
		case visiting:
			return typeErrorf(t.Pos, "invalid recursive structure %s", t.Name)
		case done:
			return nil
		}
		state[t] = visiting
		for _, f := range t.Fields {
			if f.Type.Kind == KindStruct {
				if err := visit(f.Type); err != nil {
					return err
				}
			}
		}
		state[t] = done
		return nil
	}
	for _, t := range types {
		if err := visit(t); err != nil {
			return err
		}
	}
	return nil
}

// resolveValueType resolves a type name usable for storage: any declared
// type except ports.
func (c *checker) resolveValueType(name string, pos Pos) (*Type, error) {
	t, ok := c.syms.LookupType(name)
	if !ok {
		return nil, semanticErrorf(pos, "undeclared type %q", name)
	}
	if t.Kind == KindVoid || t.Kind == KindInPort || t.Kind == KindOutPort {
		return nil, typeErrorf(pos, "type %s cannot be stored", t)
	}
	return t, nil
}

// portMessage resolves the message type of a port. Messages are routed by
// address, so they must carry an addr field of type Address.
func (c *checker) portMessage(name string, pos Pos) (*Type, error) {
	t, err := c.resolveValueType(name, pos)
	if err != nil {
		return nil, err
	}
	if t.Kind != KindStruct {
		return nil, typeErrorf(pos, "port message type %s is not a structure", t)
	}
	f, ok := t.Field("addr")
	if !ok || f.Type != TypeAddress {
		return nil, typeErrorf(pos, "port message type %s must have an addr field of type %s", t, AddressTypeName)
	}
	return t, nil
}

func (c *checker) checkMachine(md *MachineDecl) (*Machine, error) {
	m := &Machine{Name: md.Name, Pos: md.Pos, Latency: 1}
	m.Desc, _ = md.Pairs.Get("desc")
	if lat, ok := md.Pairs.Get("latency"); ok {
		n, err := strconv.Atoi(lat)
		if err != nil || n < 0 {
			return nil, semanticErrorf(md.Pos, "invalid latency %q on machine %s", lat, md.Name)
		}
		m.Latency = n
	}

	c.syms.EnterMachine(md.Name)
	defer c.syms.ExitMachine()
	c.machine = m
	defer func() { c.machine = nil }()

	// Types first: variables, ports and bodies may refer to any of them.
	var stateDecl *StateDecl
	for _, mem := range md.Members {
		switch d := mem.(type) {
		case *StateDecl:
			if stateDecl != nil {
				return nil, semanticErrorf(d.Pos, "machine %s already has a state_declaration at %s", md.Name, stateDecl.Pos)
			}
			stateDecl = d
			t, err := newEnum(d.TypeName, md.Name, d.Pos, d.Pairs, d.Members)
			if err != nil {
				return nil, err
			}
			if err := c.syms.Define(&Symbol{Name: d.TypeName, Kind: SymType, Type: t, Pos: d.Pos}); err != nil {
				return nil, err
			}
			m.State = t
		case *EnumDecl:
			t, err := newEnum(d.Name, md.Name, d.Pos, d.Pairs, d.Members)
			if err != nil {
				return nil, err
			}
			if err := c.syms.Define(&Symbol{Name: d.Name, Kind: SymType, Type: t, Pos: d.Pos}); err != nil {
				return nil, err
			}
			if d.Name == "Event" {
				m.Event = t
			} else {
				m.Types = append(m.Types, t)
			}
		}
	}
	if m.State == nil {
		return nil, semanticErrorf(md.Pos, "machine %s has no state_declaration", md.Name)
	}
	if m.Event == nil {
		return nil, semanticErrorf(md.Pos, "machine %s has no enumeration(Event, ...)", md.Name)
	}
	m.Default = m.State.Enumerators[0].Name
	if def, ok := stateDecl.Pairs.Get("default"); ok {
		def = strings.TrimPrefix(def, md.Name+"_"+m.State.Name+"_")
		if _, ok := m.State.EnumIndex(def); !ok {
			return nil, semanticErrorf(stateDecl.Pos, "default state %q is not a member of %s", def, m.State.Name)
		}
		m.Default = def
	}

	for _, mem := range md.Members {
		switch d := mem.(type) {
		case *StateDecl, *EnumDecl:
		case *VarDecl:
			switch d.Name {
			case addressName, inMsgName, outMsgName:
				return nil, semanticErrorf(d.Pos, "%q is reserved", d.Name)
			}
			t, err := c.resolveValueType(d.TypeName, d.Pos)
			if err != nil {
				return nil, err
			}
			if err := c.syms.Define(&Symbol{Name: d.Name, Kind: SymVar, Type: t, Pos: d.Pos}); err != nil {
				return nil, err
			}
			m.Vars = append(m.Vars, &Var{Name: d.Name, Type: t, Pos: d.Pos})
		case *InPortDecl:
			p, err := c.declarePort(d.Name, d.MsgType, d.Pairs, d.Pos, KindInPort)
			if err != nil {
				return nil, err
			}
			p.Body = d.Body
			m.InPorts = append(m.InPorts, p)
		case *OutPortDecl:
			p, err := c.declarePort(d.Name, d.MsgType, d.Pairs, d.Pos, KindOutPort)
			if err != nil {
				return nil, err
			}
			m.OutPorts = append(m.OutPorts, p)
		case *ActionDecl:
			if generatedMembers[d.Name] {
				return nil, semanticErrorf(d.Pos, "action name %q is reserved", d.Name)
			}
			a := &Action{Name: d.Name, Short: d.Short, Pos: d.Pos, Body: d.Body}
			a.Desc, _ = d.Pairs.Get("desc")
			if err := c.syms.Define(&Symbol{Name: d.Name, Kind: SymAction, Pos: d.Pos, Action: a}); err != nil {
				return nil, err
			}
			m.Actions = append(m.Actions, a)
		case *TransitionDecl:
			m.Transitions = append(m.Transitions, d)
		default:
			return nil, internalErrorf(mem.Position(), "unexpected machine member %T", mem)
		}
	}

	for _, p := range m.InPorts {
		c.body, c.port = bodyInPort, p
		err := c.checkBlock(p.Body)
		c.body, c.port = bodyNone, nil
		if err != nil {
			return nil, err
		}
	}
	for _, a := range m.Actions {
		if err := c.checkAction(a); err != nil {
			return nil, err
		}
	}

	t, err := BuildTable(m)
	if err != nil {
		return nil, err
	}
	m.Table = t
	return m, nil
}

func (c *checker) declarePort(name, msgType string, pairs Pairs, pos Pos, kind Kind) (*Port, error) {
	if generatedMembers[name] {
		return nil, semanticErrorf(pos, "port name %q is reserved", name)
	}
	msg, err := c.portMessage(msgType, pos)
	if err != nil {
		return nil, err
	}
	p := &Port{Name: name, Link: name, Msg: msg, Pos: pos}
	if link, ok := pairs.Get("link"); ok {
		p.Link = link
	}
	t := &Type{Name: name, Kind: kind, Machine: c.machine.Name, Msg: msg, Pos: pos}
	symKind := SymInPort
	if kind == KindOutPort {
		symKind = SymOutPort
	}
	if err := c.syms.Define(&Symbol{Name: name, Kind: symKind, Type: t, Pos: pos}); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *checker) checkAction(a *Action) error {
	c.body, c.action = bodyAction, a
	defer func() { c.body, c.action = bodyNone, nil }()

	c.syms.EnterScope()
	defer c.syms.ExitScope()
	if err := c.syms.Define(&Symbol{Name: addressName, Kind: SymLocal, Type: TypeAddress, Pos: a.Pos, ReadOnly: true}); err != nil {
		return err
	}
	return c.checkStmts(a.Body)
}

// AssertType fails with a type error unless e has the type called name in
// the current scope.
func (c *checker) AssertType(e Expr, name string) error {
	want, ok := c.syms.LookupType(name)
	if !ok {
		return internalErrorf(e.Position(), "assertion against unknown type %q", name)
	}
	got := e.Type()
	if got == nil {
		return internalErrorf(e.Position(), "expression %s was not type-checked", e)
	}
	if got == want {
		return nil
	}
	if Identical(want, got) {
		setConv(e, want)
		return nil
	}
	return typeErrorf(e.Position(), "expected type %s, got %s in %s", want, got, e)
}

// assign checks that e may be stored into a slot of type dst.
func assign(e Expr, dst *Type, context string) error {
	src := e.Type()
	if src == dst {
		return nil
	}
	if Identical(dst, src) {
		setConv(e, dst)
		return nil
	}
	return typeErrorf(e.Position(), "cannot use %s (type %s) as type %s in %s", e, src, dst, context)
}

func setType(e Expr, t *Type) { e.(interface{ setType(*Type) }).setType(t) }
func setConv(e Expr, t *Type) { e.(interface{ setConv(*Type) }).setConv(t) }

func (t *typed) setType(typ *Type) { t.typ = typ }
func (t *typed) setConv(typ *Type) { t.conv = typ }

// Conv returns the type the value is converted to at its use site, if any.
func (t *typed) Conv() *Type { return t.conv }

//  Statements

func (c *checker) checkBlock(stmts []Stmt) error {
	c.syms.EnterScope()
	defer c.syms.ExitScope()
	return c.checkStmts(stmts)
}

func (c *checker) checkStmts(stmts []Stmt) error {
	for _, s := range stmts {
		if err := c.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkStmt(s Stmt) error {
	switch s := s.(type) {
	case *AssignStmt:
		left, err := c.checkExpr(s.Left)
		if err != nil {
			return err
		}
		s.Left = left
		if err := c.checkLValue(left); err != nil {
			return err
		}
		right, err := c.checkExpr(s.Right)
		if err != nil {
			return err
		}
		s.Right = right
		return assign(right, left.Type(), "assignment")

	case *IfStmt:
		cond, err := c.checkExpr(s.Cond)
		if err != nil {
			return err
		}
		s.Cond = cond
		if err := c.AssertType(cond, "bool"); err != nil {
			return err
		}
		if err := c.checkBlock(s.Then); err != nil {
			return err
		}
		return c.checkBlock(s.Else)

	case *EnqueueStmt:
		if c.body != bodyAction {
			return semanticErrorf(s.Pos, "enqueue outside an action")
		}
		sym, msg, err := c.resolvePortUse(s.Port, s.MsgType, SymOutPort, s.Pos)
		if err != nil {
			return err
		}
		s.port, s.msgType = sym, msg
		if s.Latency != nil {
			lat, err := c.checkExpr(s.Latency)
			if err != nil {
				return err
			}
			s.Latency = lat
			if err := c.AssertType(lat, "int"); err != nil {
				return err
			}
		}
		c.syms.EnterScope()
		defer c.syms.ExitScope()
		if err := c.syms.Define(&Symbol{Name: outMsgName, Kind: SymLocal, Type: msg, Pos: s.Pos}); err != nil {
			return err
		}
		return c.checkStmts(s.Body)

	case *PeekStmt:
		if c.body == bodyNone {
			return internalErrorf(s.Pos, "peek outside a body")
		}
		sym, msg, err := c.resolvePortUse(s.Port, s.MsgType, SymInPort, s.Pos)
		if err != nil {
			return err
		}
		s.port, s.msgType = sym, msg
		// Only the message being handled can be read.
		if c.body == bodyInPort && s.Port != c.port.Name {
			return semanticErrorf(s.Pos, "in_port %s cannot peek %s", c.port.Name, s.Port)
		}
		if c.body == bodyAction {
			c.action.addPeek(s.Port)
		}
		c.syms.EnterScope()
		defer c.syms.ExitScope()
		if err := c.syms.Define(&Symbol{Name: inMsgName, Kind: SymLocal, Type: msg, Pos: s.Pos, ReadOnly: true}); err != nil {
			return err
		}
		return c.checkStmts(s.Body)

	case *TriggerStmt:
		if c.body != bodyInPort {
			return semanticErrorf(s.Pos, "trigger outside an in_port")
		}
		ev, err := c.checkExpr(s.Event)
		if err != nil {
			return err
		}
		s.Event = ev
		if err := c.AssertType(ev, c.machine.Event.Name); err != nil {
			return err
		}
		if lit, ok := ev.(*EnumLit); ok {
			c.port.addTrigger(lit.Member)
		} else {
			c.port.TriggersAny = true
		}
		addr, err := c.checkExpr(s.Addr)
		if err != nil {
			return err
		}
		s.Addr = addr
		return c.AssertType(addr, AddressTypeName)

	case *WakeUpDependentsStmt:
		if c.body != bodyAction {
			return semanticErrorf(s.Pos, "wakeUpDependents outside an action")
		}
		addr, err := c.checkExpr(s.Addr)
		if err != nil {
			return err
		}
		s.Addr = addr
		if err := c.AssertType(addr, AddressTypeName); err != nil {
			return err
		}
		s.checked = true
		switch {
		case isAddressParam(addr):
			c.action.WakesAddress = true
		case isLineOfAddress(addr):
			c.action.WakesLine = true
		}
		return nil

	case *WakeUpAllDependentsStmt:
		if c.body != bodyAction {
			return semanticErrorf(s.Pos, "wakeUpAllDependents outside an action")
		}
		c.action.WakesAll = true
		return nil

	case *ExprStmt:
		e, err := c.checkExpr(s.Expr)
		if err != nil {
			return err
		}
		s.Expr = e
		if call, ok := e.(*CallExpr); ok && call.Type() == TypeVoid {
			return nil
		}
		return semanticErrorf(s.Pos, "%s evaluated but not used", e)

	default:
		return internalErrorf(s.Position(), "unexpected statement %T", s)
	}
}

func isAddressParam(e Expr) bool {
	id, ok := e.(*Ident)
	return ok && id.Name == addressName && id.sym.Kind == SymLocal
}

// isLineOfAddress matches makeLineAddress(address).
func isLineOfAddress(e Expr) bool {
	call, ok := e.(*CallExpr)
	return ok && call.Name == "makeLineAddress" && len(call.Args) == 1 && isAddressParam(call.Args[0])
}

// resolvePortUse checks the (port, message type) operands of peek and enqueue.
func (c *checker) resolvePortUse(port, msgType string, kind SymbolKind, pos Pos) (*Symbol, *Type, error) {
	sym, ok := c.syms.Lookup(port)
	if !ok {
		return nil, nil, semanticErrorf(pos, "undeclared port %q", port)
	}
	if sym.Kind != kind {
		return nil, nil, semanticErrorf(pos, "%q is a %s, not an %s", port, sym.Kind, kind)
	}
	msg, err := c.resolveValueType(msgType, pos)
	if err != nil {
		return nil, nil, err
	}
	if !Identical(sym.Type.Msg, msg) {
		return nil, nil, typeErrorf(pos, "port %s carries %s, not %s", port, sym.Type.Msg, msg)
	}
	return sym, msg, nil
}

// checkLValue reports whether e denotes writable storage: a per-address
// variable, or a field reached from one or from out_msg.
func (c *checker) checkLValue(e Expr) error {
	root := e
	for {
		f, ok := root.(*FieldExpr)
		if !ok {
			break
		}
		root = f.X
	}
	id, ok := root.(*Ident)
	if !ok {
		return semanticErrorf(e.Position(), "cannot assign to %s", e)
	}
	switch {
	case id.sym.Kind == SymVar:
		return nil
	case id.sym.Kind == SymLocal && !id.sym.ReadOnly && root != e:
		return nil
	case id.sym.ReadOnly:
		return semanticErrorf(e.Position(), "cannot assign to %s: %s is read-only", e, id.Name)
	}
	return semanticErrorf(e.Position(), "cannot assign to %s", e)
}

//  Expressions

// checkExpr resolves e and returns the checked expression, which replaces
// e in its parent: calls naming a type come back as a ConstructorExpr.
func (c *checker) checkExpr(e Expr) (Expr, error) {
	switch e := e.(type) {
	case *IntLit:
		setType(e, TypeInt)
	case *BoolLit:
		setType(e, TypeBool)
	case *StringLit:
		setType(e, TypeString)

	case *EnumLit:
		t, ok := c.syms.LookupType(e.TypeName)
		if !ok {
			return nil, semanticErrorf(e.Pos, "undeclared type %q", e.TypeName)
		}
		if t.Kind != KindEnum {
			return nil, typeErrorf(e.Pos, "%s is not an enumeration", t)
		}
		if _, ok := t.EnumIndex(e.Member); !ok {
			return nil, semanticErrorf(e.Pos, "%q is not a member of %s", e.Member, t)
		}
		setType(e, t)

	case *Ident:
		sym, ok := c.syms.Lookup(e.Name)
		if !ok {
			return nil, semanticErrorf(e.Pos, "undeclared identifier %q", e.Name)
		}
		switch sym.Kind {
		case SymVar:
			if c.body != bodyAction {
				return nil, semanticErrorf(e.Pos, "per-address variable %q used outside an action", e.Name)
			}
		case SymLocal, SymInPort, SymOutPort:
		default:
			return nil, semanticErrorf(e.Pos, "%s %q used as a value", sym.Kind, e.Name)
		}
		e.sym = sym
		setType(e, sym.Type)

	case *FieldExpr:
		x, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		e.X = x
		xt := x.Type()
		if xt.Kind != KindStruct {
			return nil, typeErrorf(e.Pos, "%s (type %s) has no field %s", x, xt, e.Field)
		}
		f, ok := xt.Field(e.Field)
		if !ok {
			return nil, semanticErrorf(e.Pos, "%s has no field %q", xt, e.Field)
		}
		setType(e, f.Type)

	case *MethodCall:
		x, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		e.X = x
		m, ok := portMethods[e.Method]
		if !ok || x.Type().Kind != KindInPort {
			return nil, typeErrorf(e.Pos, "%s (type %s) has no method %s", x, x.Type(), e.Method)
		}
		if err := c.checkArgs(e.Method, e.Args, m.Params, e.Pos); err != nil {
			return nil, err
		}
		setType(e, m.Result)

	case *CallExpr:
		sym, ok := c.syms.Lookup(e.Name)
		if !ok {
			return nil, semanticErrorf(e.Pos, "undeclared function %q", e.Name)
		}
		switch sym.Kind {
		case SymType:
			return c.checkConstructor(&ConstructorExpr{Pos: e.Pos, TypeName: e.Name, Args: e.Args}, sym.Type)
		case SymFunc:
		default:
			return nil, semanticErrorf(e.Pos, "%s %q is not a function", sym.Kind, e.Name)
		}
		if err := c.checkArgs(e.Name, e.Args, sym.Func.Params, e.Pos); err != nil {
			return nil, err
		}
		e.fn = sym.Func
		setType(e, sym.Func.Result)

	case *ConstructorExpr:
		t, ok := c.syms.LookupType(e.TypeName)
		if !ok {
			return nil, semanticErrorf(e.Pos, "undeclared type %q", e.TypeName)
		}
		return c.checkConstructor(e, t)

	case *BinaryExpr:
		return c.checkBinary(e)

	case *UnaryExpr:
		x, err := c.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		e.X = x
		switch e.Op {
		case NOT:
			if err := c.AssertType(x, "bool"); err != nil {
				return nil, err
			}
			setType(e, TypeBool)
		case MINUS:
			if err := c.AssertType(x, "int"); err != nil {
				return nil, err
			}
			setType(e, TypeInt)
		default:
			return nil, internalErrorf(e.Pos, "unexpected unary operator %s", e.Op)
		}

	default:
		return nil, internalErrorf(e.Position(), "unexpected expression %T", e)
	}
	return e, nil
}

func (c *checker) checkArgs(name string, args []Expr, params []*Type, pos Pos) error {
	if len(args) != len(params) {
		return typeErrorf(pos, "%s takes %d argument(s), got %d", name, len(params), len(args))
	}
	for i := range args {
		a, err := c.checkExpr(args[i])
		if err != nil {
			return err
		}
		args[i] = a
		if err := assign(a, params[i], "argument to "+name); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkConstructor(e *ConstructorExpr, t *Type) (Expr, error) {
	for i := range e.Args {
		a, err := c.checkExpr(e.Args[i])
		if err != nil {
			return nil, err
		}
		e.Args[i] = a
	}
	switch {
	case t == TypeAddress:
		if len(e.Args) != 1 {
			return nil, typeErrorf(e.Pos, "%s takes 1 argument, got %d", AddressTypeName, len(e.Args))
		}
		switch e.Args[0].Type() {
		case TypeAddress:
		case TypeInt:
			setConv(e.Args[0], TypeAddress)
		default:
			return nil, typeErrorf(e.Pos, "cannot convert %s (type %s) to %s", e.Args[0], e.Args[0].Type(), AddressTypeName)
		}
	case t.Kind == KindStruct:
		// No arguments is the zero value.
		if len(e.Args) != 0 && len(e.Args) != len(t.Fields) {
			return nil, typeErrorf(e.Pos, "%s has %d fields, got %d values", t, len(t.Fields), len(e.Args))
		}
		for i, a := range e.Args {
			f := t.Fields[i]
			if err := assign(a, f.Type, "field "+f.Name+" of "+t.Name); err != nil {
				return nil, err
			}
		}
	default:
		return nil, typeErrorf(e.Pos, "cannot construct a value of type %s", t)
	}
	setType(e, t)
	return e, nil
}

func (c *checker) checkBinary(e *BinaryExpr) (Expr, error) {
	left, err := c.checkExpr(e.Left)
	if err != nil {
		return nil, err
	}
	e.Left = left
	right, err := c.checkExpr(e.Right)
	if err != nil {
		return nil, err
	}
	e.Right = right
	lt, rt := left.Type(), right.Type()

	switch e.Op {
	case AND_LOGICAL, OR_LOGICAL:
		if err := c.AssertType(left, "bool"); err != nil {
			return nil, err
		}
		if err := c.AssertType(right, "bool"); err != nil {
			return nil, err
		}
		setType(e, TypeBool)

	case EQUALS, NOT_EQ:
		if !Identical(lt, rt) {
			return nil, typeErrorf(e.Pos, "mismatched types %s and %s in %s", lt, rt, e)
		}
		if !lt.Comparable() {
			return nil, typeErrorf(e.Pos, "values of type %s cannot be compared", lt)
		}
		setType(e, TypeBool)

	case LESS, GREATER, LESS_EQ, GREATER_EQ:
		if lt != rt || (lt != TypeInt && lt != TypeAddress) {
			return nil, typeErrorf(e.Pos, "cannot order %s and %s in %s", lt, rt, e)
		}
		setType(e, TypeBool)

	case PLUS, MINUS:
		switch {
		case lt == TypeInt && rt == TypeInt:
			setType(e, TypeInt)
		case lt == TypeAddress && rt == TypeInt:
			setConv(right, TypeAddress)
			setType(e, TypeAddress)
		case lt == TypeInt && rt == TypeAddress && e.Op == PLUS:
			setConv(left, TypeAddress)
			setType(e, TypeAddress)
		default:
			return nil, typeErrorf(e.Pos, "invalid operation %s: mismatched types %s and %s", e, lt, rt)
		}

	default:
		return nil, internalErrorf(e.Pos, "unexpected binary operator %s", e.Op)
	}
	return e, nil
}
