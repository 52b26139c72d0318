package idlebusy

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/sarchlab/akita/v3/sim"

	"goslicc/pkg/compiler"
	"goslicc/pkg/ruby"
)

// requestors collects the responses the directory sends.
type requestors struct {
	got []*Response
}

func (r *requestors) Wakeup(port *ruby.InPort, m *ruby.Message) ruby.TransitionResult {
	r.got = append(r.got, m.Payload.(*Response))
	return ruby.TransitionValid
}

func (r *requestors) owners() []int {
	var ids []int
	for _, resp := range r.got {
		ids = append(ids, resp.Requestor)
	}
	return ids
}

type testSystem struct {
	sys   *ruby.System
	dir   *Directory_Controller
	reqs  *requestors
	trace *bytes.Buffer
}

func newTestSystem(t *testing.T) *testSystem {
	t.Helper()
	ts := &testSystem{sys: ruby.NewSystem(), reqs: &requestors{}, trace: &bytes.Buffer{}}
	ts.sys.SetTracer(ruby.NewTracer(ts.trace, ruby.TraceDebug, ""))

	dir, err := NewDirectory_Controller(ts.sys, ruby.ControllerParams{Name: "dir"})
	if err != nil {
		t.Fatalf("NewDirectory_Controller failed: %v", err)
	}
	ts.dir = dir

	ctrl, err := ts.sys.NewController(ruby.ControllerParams{Name: "requestors"}, ts.reqs)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	ctrl.AddInPort("in", "response")
	return ts
}

func (ts *testSystem) inject(t *testing.T, at int, typ RequestType, addr ruby.Addr, who int) {
	t.Helper()
	req := &Request{Addr: addr, Type: typ, Requestor: who}
	if err := ts.sys.Inject(sim.VTimeInSec(at), "request", addr, req); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
}

func TestStallUntilRelease(t *testing.T) {
	ts := newTestSystem(t)
	const line = ruby.Addr(0x40)

	ts.inject(t, 1, RequestType_GET, line, 1)
	ts.inject(t, 2, RequestType_GET, line, 2)
	ts.inject(t, 5, RequestType_DONE, line, 1)

	if err := ts.sys.Run(); err != nil {
		t.Fatalf("Run failed: %v\ntrace:\n%s", err, ts.trace)
	}

	if got := ts.dir.State(line); got != Directory_State_BUSY {
		t.Errorf("expected final state BUSY, got %s", got)
	}
	if en := ts.dir.entry(line); en.owner != 2 || en.grants != 2 {
		t.Errorf("expected owner 2 with 2 grants, got owner %d with %d grants", en.owner, en.grants)
	}
	if ts.dir.WaitBuffers().HasWaiters(line) {
		t.Errorf("expected an empty wait buffer, still waiting: %v", ts.dir.Waiting())
	}
	if want := []int{1, 2}; !reflect.DeepEqual(ts.reqs.owners(), want) {
		t.Errorf("expected grants to %v, got %v", want, ts.reqs.owners())
	}

	want := ruby.Stats{Delivered: 3, Transitions: 3, Stalls: 1, Wakeups: 1, Redispatches: 1}
	if got := ts.dir.Stats(); got != want {
		t.Errorf("stats mismatch\nwant %+v\ngot  %+v", want, got)
	}

	assertContains(t, ts.trace.String(), "dir 0x40: stall")
	assertContains(t, ts.trace.String(), "dir 0x40: BUSY x DONE -> IDLE")
}

func TestReleaseWithoutWaitersDoesNotWake(t *testing.T) {
	ts := newTestSystem(t)

	ts.inject(t, 1, RequestType_GET, 0x80, 7)
	ts.inject(t, 3, RequestType_DONE, 0x80, 7)

	if err := ts.sys.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := ts.dir.State(0x80); got != Directory_State_IDLE {
		t.Errorf("expected IDLE, got %s", got)
	}
	if st := ts.dir.Stats(); st.Wakeups != 0 || st.Stalls != 0 {
		t.Errorf("expected no stalls or wake-ups, got %+v", st)
	}
	if ts.dir.WaitBuffers().Total() != 0 {
		t.Errorf("expected no wait-buffer entries")
	}
}

func TestLinesAreIndependent(t *testing.T) {
	ts := newTestSystem(t)

	ts.inject(t, 1, RequestType_GET, 0x40, 1)
	ts.inject(t, 2, RequestType_GET, 0x80, 2)

	if err := ts.sys.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, addr := range []ruby.Addr{0x40, 0x80} {
		if got := ts.dir.State(addr); got != Directory_State_BUSY {
			t.Errorf("%s: expected BUSY, got %s", addr, got)
		}
	}
	if ts.dir.Stats().Stalls != 0 {
		t.Errorf("expected no stalls across distinct lines")
	}
}

func TestWaiterLeftWhenNeverReleased(t *testing.T) {
	ts := newTestSystem(t)

	ts.inject(t, 1, RequestType_GET, 0x40, 1)
	ts.inject(t, 2, RequestType_GET, 0x40, 2)
	ts.inject(t, 3, RequestType_GET, 0x40, 3)

	if err := ts.sys.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := ts.dir.WaitBuffers().Len(0x40); got != 2 {
		t.Fatalf("expected 2 waiters, got %d", got)
	}
	var who []int
	for _, m := range ts.dir.WaitBuffers().Waiters(0x40) {
		who = append(who, m.Payload.(*Request).Requestor)
	}
	if want := []int{2, 3}; !reflect.DeepEqual(who, want) {
		t.Errorf("expected waiters in arrival order %v, got %v", want, who)
	}
	assertContains(t, ts.trace.String(), "still waiting")
}

func TestSameTimeRequestsKeepSendOrder(t *testing.T) {
	ts := newTestSystem(t)
	for who := 1; who <= 4; who++ {
		ts.inject(t, 1, RequestType_GET, 0x40, who)
	}
	ts.inject(t, 2, RequestType_DONE, 0x40, 1)

	if err := ts.sys.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(ts.reqs.owners(), want) {
		t.Errorf("expected grants to %v, got %v", want, ts.reqs.owners())
	}
	var who []int
	for _, m := range ts.dir.WaitBuffers().Waiters(0x40) {
		who = append(who, m.Payload.(*Request).Requestor)
	}
	if want := []int{3, 4}; !reflect.DeepEqual(who, want) {
		t.Errorf("expected waiters in send order %v, got %v", want, who)
	}
}

func TestUnexpectedRequestFails(t *testing.T) {
	ts := newTestSystem(t)
	ts.inject(t, 1, RequestType(9), 0x40, 1)

	err := ts.sys.Run()
	if err == nil {
		t.Fatal("expected a protocol error")
	}
	assertContains(t, err.Error(), "unexpected request type")
}

func TestGeneratedCodeMatchesSpecification(t *testing.T) {
	res, err := compiler.Compile("idlebusy", "IdleBusy.sm")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if want := []string{"directory_controller.go", "protocol_types.go"}; !reflect.DeepEqual(res.FileNames(), want) {
		t.Fatalf("expected files %v, got %v", want, res.FileNames())
	}

	ctrl := string(res.Files["directory_controller.go"])
	for _, want := range []string{
		"// Code generated by slicc from IdleBusy.sm. DO NOT EDIT.",
		"func NewDirectory_Controller(sys *ruby.System, p ruby.ControllerParams) (*Directory_Controller, error) {",
		"if c.WaitBuffers().HasWaiters(addr) {",
		"c.WakeUpBuffers(addr)",
		"return Directory_State_BUSY, true",
		"return state, false",
		"c.Enqueue(c.responseOut, out_msg.Addr, out_msg, 1)",
	} {
		assertContains(t, ctrl, want)
	}
	assertContains(t, string(res.Files["protocol_types.go"]), "RequestType_DONE")

	tab := res.Program.Machines[0].Table
	if tab.StallCount() != 2 {
		t.Errorf("expected 2 stall rows, got %d\n%s", tab.StallCount(), tab)
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot:\n%s", want, got)
	}
}
