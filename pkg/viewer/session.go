// Package viewer replays event traces against a compiled transition table.
// It runs the same stall and wake-up rules as generated controllers, so a
// protocol can be stepped through before any Go is generated.
//
// Only wakes of the step's address, its line and all addresses are
// replayed; a wakeUpDependents on any other computed address wakes nobody.
package viewer

import (
	"fmt"
	"sort"

	"goslicc/pkg/compiler"
	"goslicc/pkg/ruby"
)

// Outcome records what one step, or one re-dispatched waiter, did.
type Outcome struct {
	Step    Step
	From    string
	To      string
	Row     *compiler.Row
	Stalled bool
	Woken   bool // re-dispatched from the wait buffer
}

func (o Outcome) String() string {
	tag := ""
	if o.Woken {
		tag = " (woken)"
	}
	if o.Stalled {
		return fmt.Sprintf("%s: %s x %s stall%s", o.Step.Addr, o.From, o.Step.Event, tag)
	}
	names := make([]string, len(o.Row.Actions))
	for i, a := range o.Row.Actions {
		names[i] = a.Name
	}
	return fmt.Sprintf("%s: %s x %s -> %s %v%s", o.Step.Addr, o.From, o.Step.Event, o.To, names, tag)
}

// Session steps a trace through the table of one machine.
type Session struct {
	m       *compiler.Machine
	steps   []Step
	pos     int
	states  map[ruby.Addr]string
	waiting *ruby.WaitBuffers
	history []Outcome

	pending  []ruby.Addr
	draining bool
}

// NewSession checks that every event of steps belongs to m.
func NewSession(m *compiler.Machine, steps []Step) (*Session, error) {
	if m.Table == nil {
		return nil, fmt.Errorf("machine %s has no transition table", m.Name)
	}
	for _, st := range steps {
		if _, ok := m.Event.EnumIndex(st.Event); !ok {
			return nil, fmt.Errorf("line %d: %q is not an event of %s", st.Line, st.Event, m.Name)
		}
	}
	return &Session{
		m:       m,
		steps:   steps,
		states:  make(map[ruby.Addr]string),
		waiting: ruby.NewWaitBuffers(),
	}, nil
}

func (s *Session) Machine() *compiler.Machine { return s.m }
func (s *Session) Waiting() *ruby.WaitBuffers { return s.waiting }
func (s *Session) History() []Outcome         { return s.history }
func (s *Session) Done() bool                 { return s.pos >= len(s.steps) }
func (s *Session) Remaining() int             { return len(s.steps) - s.pos }

// State returns the state of addr, the machine's default until an event
// moved it.
func (s *Session) State(addr ruby.Addr) string {
	if st, ok := s.states[addr]; ok {
		return st
	}
	return s.m.Default
}

// Addresses returns every address the trace has touched so far in
// ascending order.
func (s *Session) Addresses() []ruby.Addr {
	seen := make(map[ruby.Addr]bool)
	for _, st := range s.steps[:s.pos] {
		seen[st.Addr] = true
	}
	addrs := make([]ruby.Addr, 0, len(seen))
	for a := range seen {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Step applies the next trace line and returns everything it caused: the
// step itself followed by any waiters it woke.
func (s *Session) Step() ([]Outcome, bool) {
	if s.Done() {
		return nil, false
	}
	st := s.steps[s.pos]
	s.pos++
	start := len(s.history)

	msg := &ruby.Message{ID: uint64(s.pos), Addr: st.Addr, Payload: st}
	if row, ok := s.apply(st, false); ok {
		s.wakeAfter(row, st.Addr)
	} else {
		s.waiting.Stall(st.Addr, msg)
	}
	return s.history[start:], true
}

// Run applies the rest of the trace.
func (s *Session) Run() []Outcome {
	for !s.Done() {
		s.Step()
	}
	return s.history
}

// apply looks up the row of st and, unless it stalls, moves the state.
func (s *Session) apply(st Step, woken bool) (*compiler.Row, bool) {
	from := s.State(st.Addr)
	row, ok := s.m.Table.Lookup(from, st.Event)
	if !ok {
		// events were validated by NewSession; states come from the table
		panic(fmt.Sprintf("no row for (%s, %s)", from, st.Event))
	}
	out := Outcome{Step: st, From: from, To: row.Next, Row: row, Stalled: row.IsStall(), Woken: woken}
	s.history = append(s.history, out)
	if row.IsStall() {
		return row, false
	}
	s.states[st.Addr] = row.Next
	return row, true
}

// wakeAfter queues the wake-ups of row and, unless a drain is already
// running, serves them in request order.
func (s *Session) wakeAfter(row *compiler.Row, addr ruby.Addr) {
	s.pending = append(s.pending, s.wakeTargets(row, addr)...)
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	for len(s.pending) > 0 {
		a := s.pending[0]
		s.pending = s.pending[1:]
		s.waiting.Wake(a, func(m *ruby.Message) bool {
			row, ok := s.apply(m.Payload.(Step), true)
			if ok {
				s.wakeAfter(row, m.Addr)
			}
			return ok
		})
	}
}

func (s *Session) wakeTargets(row *compiler.Row, addr ruby.Addr) []ruby.Addr {
	if !row.Wakes {
		return nil
	}
	var targets []ruby.Addr
	for _, a := range row.Actions {
		if a.WakesAll {
			return s.waiting.Addresses()
		}
		if a.WakesAddress && !containsAddr(targets, addr) {
			targets = append(targets, addr)
		}
		if line := ruby.LineAddress(addr); a.WakesLine && !containsAddr(targets, line) {
			targets = append(targets, line)
		}
	}
	return targets
}

func containsAddr(as []ruby.Addr, a ruby.Addr) bool {
	for _, b := range as {
		if a == b {
			return true
		}
	}
	return false
}
