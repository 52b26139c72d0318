package compiler

import (
	"fmt"
	"strings"
)

// Program is the checked model of a specification file set.
type Program struct {
	Types    []*Type // global enumerations and structures, declaration order
	Machines []*Machine
}

// Machine returns the named machine.
func (p *Program) Machine(name string) (*Machine, bool) {
	for _, m := range p.Machines {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Machine is one checked controller declaration.
type Machine struct {
	Name    string
	Desc    string
	Pos     Pos
	Latency int // default enqueue latency in cycles

	State    *Type
	Event    *Type
	Default  string  // initial state
	Types    []*Type // other machine-local enumerations
	Vars     []*Var  // per-address storage
	InPorts  []*Port
	OutPorts []*Port
	Actions  []*Action

	Transitions []*TransitionDecl
	Table       *Table
}

// Action returns the named action.
func (m *Machine) Action(name string) (*Action, bool) {
	for _, a := range m.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Var is one per-address storage slot.
type Var struct {
	Name string
	Type *Type
	Pos  Pos
}

// Port is an in_port or out_port. Body and the trigger set are only set
// for in_ports.
type Port struct {
	Name string
	Link string
	Msg  *Type
	Pos  Pos
	Body []Stmt

	Triggers    []string // events triggered by literal
	TriggersAny bool     // some trigger computes its event
}

func (p *Port) addTrigger(event string) {
	if indexOf(p.Triggers, event) < 0 {
		p.Triggers = append(p.Triggers, event)
	}
}

// CanTrigger reports whether a message on p may raise event.
func (p *Port) CanTrigger(event string) bool {
	return p.TriggersAny || indexOf(p.Triggers, event) >= 0
}

// Action is one named executable step.
type Action struct {
	Name  string
	Short string
	Desc  string
	Pos   Pos
	Body  []Stmt

	WakesAddress bool     // calls wakeUpDependents(address)
	WakesLine    bool     // calls wakeUpDependents(makeLineAddress(address))
	WakesAll     bool     // calls wakeUpAllDependents()
	Peeks        []string // in-ports read with peek
}

func (a *Action) addPeek(port string) {
	if indexOf(a.Peeks, port) < 0 {
		a.Peeks = append(a.Peeks, port)
	}
}

// wakes reports whether a is known to wake waiters of the row's address
// or its line.
func (a *Action) wakes() bool {
	return a.WakesAddress || a.WakesLine || a.WakesAll
}

type RowKind int

const (
	RowTransition RowKind = iota
	RowStall
)

// Row is one (state, event) entry of a table.
type Row struct {
	State   string
	Event   string
	Kind    RowKind
	Next    string // equals State when the transition stays put
	Actions []*Action
	Pos     Pos // source transition; zero for stall rows

	// Wakes reports whether any action of the row wakes waiters of the
	// row's address, its line, or every address.
	Wakes bool
}

func (r *Row) IsStall() bool { return r.Kind == RowStall }

// Table is the complete State x Event transition table of a machine.
type Table struct {
	Machine string
	States  []string
	Events  []string
	Rows    [][]Row // [state][event]
}

// Lookup returns the row for a (state, event) pair.
func (t *Table) Lookup(state, event string) (*Row, bool) {
	si := indexOf(t.States, state)
	ei := indexOf(t.Events, event)
	if si < 0 || ei < 0 {
		return nil, false
	}
	return &t.Rows[si][ei], true
}

// StallCount returns the number of implicit stall rows.
func (t *Table) StallCount() int {
	n := 0
	for si := range t.Rows {
		for ei := range t.Rows[si] {
			if t.Rows[si][ei].IsStall() {
				n++
			}
		}
	}
	return n
}

// String prints the table in declaration order of states and events.
func (t *Table) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Table %s (%d states x %d events)\n", t.Machine, len(t.States), len(t.Events))
	for si := range t.Rows {
		for ei := range t.Rows[si] {
			r := &t.Rows[si][ei]
			if r.IsStall() {
				fmt.Fprintf(&sb, "  %-12s %-12s stall\n", r.State, r.Event)
				continue
			}
			names := make([]string, len(r.Actions))
			for i, a := range r.Actions {
				names[i] = a.Name
			}
			wake := ""
			if r.Wakes {
				wake = " [wakes]"
			}
			fmt.Fprintf(&sb, "  %-12s %-12s -> %-12s {%s}%s\n",
				r.State, r.Event, r.Next, strings.Join(names, ", "), wake)
		}
	}
	return sb.String()
}

// BuildTable expands the machine's transitions into a complete table.
// Pairs without an explicit transition become stall rows; a pair defined
// twice is rejected.
func BuildTable(m *Machine) (*Table, error) {
	if m.State == nil || m.Event == nil {
		return nil, internalErrorf(m.Pos, "machine %s has no State or Event type", m.Name)
	}
	t := &Table{Machine: m.Name}
	for _, e := range m.State.Enumerators {
		t.States = append(t.States, e.Name)
	}
	for _, e := range m.Event.Enumerators {
		t.Events = append(t.Events, e.Name)
	}

	t.Rows = make([][]Row, len(t.States))
	defined := make([][]bool, len(t.States))
	for si, s := range t.States {
		t.Rows[si] = make([]Row, len(t.Events))
		defined[si] = make([]bool, len(t.Events))
		for ei, e := range t.Events {
			t.Rows[si][ei] = Row{State: s, Event: e, Kind: RowStall, Next: s}
		}
	}

	for _, tr := range m.Transitions {
		actions := make([]*Action, 0, len(tr.Actions))
		wakes := false
		for _, ref := range tr.Actions {
			a, ok := m.Action(ref.Name)
			if !ok {
				return nil, semanticErrorf(ref.Pos, "undeclared action %q in transition", ref.Name)
			}
			actions = append(actions, a)
			wakes = wakes || a.wakes()
		}
		if tr.Next != "" {
			if _, ok := m.State.EnumIndex(tr.Next); !ok {
				return nil, semanticErrorf(tr.Pos, "undeclared next state %q in transition", tr.Next)
			}
		}
		for _, s := range tr.States {
			si := indexOf(t.States, s)
			if si < 0 {
				return nil, semanticErrorf(tr.Pos, "undeclared state %q in transition", s)
			}
			for _, e := range tr.Events {
				ei := indexOf(t.Events, e)
				if ei < 0 {
					return nil, semanticErrorf(tr.Pos, "undeclared event %q in transition", e)
				}
				if err := checkPeeks(m, tr, e); err != nil {
					return nil, err
				}
				if defined[si][ei] {
					prev := t.Rows[si][ei].Pos
					return nil, semanticErrorf(tr.Pos, "duplicate transition (%s, %s): first defined at %s, redefined at %s",
						s, e, prev, tr.Pos)
				}
				next := tr.Next
				if next == "" {
					next = s
				}
				defined[si][ei] = true
				t.Rows[si][ei] = Row{
					State:   s,
					Event:   e,
					Kind:    RowTransition,
					Next:    next,
					Actions: actions,
					Pos:     tr.Pos,
					Wakes:   wakes,
				}
			}
		}
	}
	return t, nil
}

// checkPeeks rejects an action of tr that reads an in-port other than the
// one event e arrives on; the port would have no message to read.
func checkPeeks(m *Machine, tr *TransitionDecl, e string) error {
	for _, ref := range tr.Actions {
		a, _ := m.Action(ref.Name)
		for _, p := range a.Peeks {
			for _, q := range m.InPorts {
				if q.Name != p && q.CanTrigger(e) {
					return semanticErrorf(ref.Pos, "action %s peeks %s, but event %s arrives on %s", a.Name, p, e, q.Name)
				}
			}
		}
	}
	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
