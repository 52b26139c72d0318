package compiler

import "go/token"

// packageReserved are the names generated code refers to without
// declaring: imports, Go builtins, and the parameters and locals of
// generated functions, which would shadow a package-level type.
var packageReserved = []string{
	"fmt", "ruby",
	"bool", "int", "string", "error", "len", "make", "panic", "nil", "true", "false", "iota",
	"c", "m", "e", "s", "p", "en", "ok", "err", "sys", "ctrl", "addr", "port",
	"state", "event", "next", inMsgName, outMsgName,
}

// goScope is one namespace of generated Go identifiers. Each name records
// the source declaration that produced it so a clash can name both.
type goScope struct {
	what  string
	noun  string
	names map[string]goName
}

type goName struct {
	src string
	pos Pos // zero for reserved names
}

func newGoScope(what string, reserved []string) *goScope {
	s := &goScope{what: what, noun: "Go name", names: make(map[string]goName)}
	for _, name := range reserved {
		s.names[name] = goName{src: name}
	}
	return s
}

// claim records that the declaration src at pos generates name.
func (s *goScope) claim(name, src string, pos Pos) error {
	if token.IsKeyword(name) {
		return semanticErrorf(pos, "%s generates Go keyword %s", src, name)
	}
	prev, ok := s.names[name]
	if !ok {
		s.names[name] = goName{src: src, pos: pos}
		return nil
	}
	if prev.pos.Line == 0 {
		return semanticErrorf(pos, "%s generates %s %s, which is reserved in %s", src, s.noun, name, s.what)
	}
	return semanticErrorf(pos, "%s generates %s %s in %s, as does %s at %s", src, s.noun, name, s.what, prev.src, prev.pos)
}

// checkGoNames rejects programs whose distinct declarations would map to
// the same Go identifier or output file.
func checkGoNames(prog *Program) error {
	pkg := newGoScope("the package", packageReserved)
	for _, t := range prog.Types {
		if err := claimType(pkg, t); err != nil {
			return err
		}
	}

	files := newGoScope("the output", []string{TypesFile})
	files.noun = "file"
	for _, m := range prog.Machines {
		if err := files.claim(ControllerFile(m), "machine "+m.Name, m.Pos); err != nil {
			return err
		}
		for _, name := range []string{m.Name + "_Entry", m.Name + "_Controller", "New" + m.Name + "_Controller"} {
			if err := pkg.claim(name, "machine "+m.Name, m.Pos); err != nil {
				return err
			}
		}
		for _, t := range append([]*Type{m.State, m.Event}, m.Types...) {
			if err := claimType(pkg, t); err != nil {
				return err
			}
		}
		if err := checkMemberNames(m); err != nil {
			return err
		}
	}
	return nil
}

// claimType claims the type name of t and, for an enumeration, its
// constants and name table. Structure fields are checked per structure.
func claimType(pkg *goScope, t *Type) error {
	name := goType(t)
	src := t.Kind.String() + " " + t.Name
	if err := pkg.claim(name, src, t.Pos); err != nil {
		return err
	}
	switch t.Kind {
	case KindEnum:
		if err := pkg.claim("_"+name+"_names", src, t.Pos); err != nil {
			return err
		}
		for _, en := range t.Enumerators {
			if err := pkg.claim(enumConst(t, en.Name), "enumerator "+t.Name+":"+en.Name, en.Pos); err != nil {
				return err
			}
		}
	case KindStruct:
		fields := newGoScope("structure "+t.Name, nil)
		for _, f := range t.Fields {
			if err := fields.claim(exported(f.Name), "field "+f.Name, f.Pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkMemberNames checks the entry fields and controller members of m.
// Port names are used verbatim in the in-port handler names.
func checkMemberNames(m *Machine) error {
	entry := newGoScope(m.Name+"_Entry", nil)
	for _, v := range m.Vars {
		if err := entry.claim(goIdent(v.Name), "variable "+v.Name, v.Pos); err != nil {
			return err
		}
	}

	var reserved []string
	for name := range generatedMembers {
		reserved = append(reserved, name)
	}
	ctrl := newGoScope(m.Name+"_Controller", reserved)
	for _, p := range m.InPorts {
		if err := ctrl.claim(goIdent(p.Name), "in_port "+p.Name, p.Pos); err != nil {
			return err
		}
		if err := ctrl.claim("wakeup_"+p.Name, "in_port "+p.Name, p.Pos); err != nil {
			return err
		}
	}
	for _, p := range m.OutPorts {
		if err := ctrl.claim(goIdent(p.Name), "out_port "+p.Name, p.Pos); err != nil {
			return err
		}
	}
	for _, a := range m.Actions {
		if err := ctrl.claim(goIdent(a.Name), "action "+a.Name, a.Pos); err != nil {
			return err
		}
	}
	return nil
}
