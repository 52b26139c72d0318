package viewer

import (
	"reflect"
	"strings"
	"testing"

	"goslicc/pkg/compiler"
	"goslicc/pkg/ruby"
)

const lockSource = `
machine(M) {
  state_declaration(State) { I; B; }
  enumeration(Event) { Get; Done; }

  action(w_wake, "W") { wakeUpDependents(address); }
  action(w_all, "A") { wakeUpAllDependents(); }

  transition(I, Get, B);
  transition(B, Done, I) { w_wake; }
  transition(I, Done) { w_all; }
}
`

func compileLock(t *testing.T) *compiler.Machine {
	t.Helper()
	res, err := compiler.CompileSource("lock", "lock.sm", lockSource)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	return res.Program.Machines[0]
}

func newSession(t *testing.T, trace string) *Session {
	t.Helper()
	steps, err := ParseTrace(strings.NewReader(trace))
	if err != nil {
		t.Fatalf("ParseTrace failed: %v", err)
	}
	s, err := NewSession(compileLock(t), steps)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func outcomes(outs []Outcome) []string {
	var lines []string
	for _, o := range outs {
		lines = append(lines, o.String())
	}
	return lines
}

func TestParseTrace(t *testing.T) {
	steps, err := ParseTrace(strings.NewReader("# header\n0x40 Get\n\n64 Done # same line\n"))
	if err != nil {
		t.Fatalf("ParseTrace failed: %v", err)
	}
	want := []Step{
		{Line: 2, Addr: 0x40, Event: "Get"},
		{Line: 4, Addr: 0x40, Event: "Done"},
	}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("expected %v, got %v", want, steps)
	}

	tests := []struct {
		name, input, wantErr string
	}{
		{"MissingEvent", "0x40 Get\n0x40\n", "line 2"},
		{"BadAddress", "zz Get\n", "invalid address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTrace(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUnknownEventRejected(t *testing.T) {
	steps := []Step{{Line: 3, Addr: 0x40, Event: "Evict"}}
	_, err := NewSession(compileLock(t), steps)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected an error naming line 3, got %v", err)
	}
}

func TestStallAndWake(t *testing.T) {
	s := newSession(t, "0x40 Get\n0x40 Get\n0x40 Get\n0x40 Done\n")

	var got [][]string
	for !s.Done() {
		outs, _ := s.Step()
		got = append(got, outcomes(outs))
	}

	want := [][]string{
		{"0x40: I x Get -> B []"},
		{"0x40: B x Get stall"},
		{"0x40: B x Get stall"},
		{
			"0x40: B x Done -> I [w_wake]",
			"0x40: I x Get -> B [] (woken)",
			"0x40: B x Get stall (woken)",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("outcome mismatch\nwant %q\ngot  %q", want, got)
	}
	if s.State(0x40) != "B" {
		t.Errorf("expected B, got %s", s.State(0x40))
	}
	if s.Waiting().Len(0x40) != 1 {
		t.Errorf("expected one waiter left, got %d", s.Waiting().Len(0x40))
	}
	if _, ok := s.Step(); ok {
		t.Errorf("expected Step to report the end of the trace")
	}
}

func TestWakeAllRedispatchesEveryAddress(t *testing.T) {
	s := newSession(t, "0x40 Get\n0x40 Get\n0x80 Get\n0x80 Get\n0xc0 Done\n")
	s.Run()

	h := s.History()
	got := outcomes(h[len(h)-3:])
	want := []string{
		"0xc0: I x Done -> I [w_all]",
		"0x40: B x Get stall (woken)",
		"0x80: B x Get stall (woken)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("outcome mismatch\nwant %q\ngot  %q", want, got)
	}
	if s.Waiting().Total() != 2 {
		t.Errorf("expected both waiters kept, got %d", s.Waiting().Total())
	}
	if want := []ruby.Addr{0x40, 0x80, 0xc0}; !reflect.DeepEqual(s.Addresses(), want) {
		t.Errorf("expected addresses %v, got %v", want, s.Addresses())
	}
}

const lineSource = `
machine(M) {
  state_declaration(State) { I; B; }
  enumeration(Event) { Get; Done; Poke; }

  action(w_line, "L") { wakeUpDependents(makeLineAddress(address)); }

  transition(I, Get, B);
  transition(B, Done, I);
  transition(I, Poke) { w_line; }
}
`

func TestWakeLineAddress(t *testing.T) {
	res, err := compiler.CompileSource("line", "line.sm", lineSource)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	m := res.Program.Machines[0]
	if row, _ := m.Table.Lookup("I", "Poke"); !row.Wakes {
		t.Fatalf("expected (I, Poke) to wake waiters")
	}

	steps, err := ParseTrace(strings.NewReader("0x40 Get\n0x40 Get\n0x40 Done\n0x48 Poke\n"))
	if err != nil {
		t.Fatalf("ParseTrace failed: %v", err)
	}
	s, err := NewSession(m, steps)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	s.Run()

	h := s.History()
	got := outcomes(h[len(h)-2:])
	want := []string{
		"0x48: I x Poke -> I [w_line]",
		"0x40: I x Get -> B [] (woken)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("outcome mismatch\nwant %q\ngot  %q", want, got)
	}
	if s.Waiting().Total() != 0 {
		t.Errorf("expected no waiters left, got %d", s.Waiting().Total())
	}
}
