package ruby

import (
	"fmt"

	"github.com/sarchlab/akita/v3/sim"
)

// TransitionResult is the outcome of handling one message.
type TransitionResult int

const (
	TransitionValid TransitionResult = iota
	ProtocolStall
	TransitionUnhandled
)

func (r TransitionResult) String() string {
	switch r {
	case TransitionValid:
		return "valid"
	case ProtocolStall:
		return "stall"
	case TransitionUnhandled:
		return "unhandled"
	}
	return fmt.Sprintf("TransitionResult(%d)", int(r))
}

// Dispatcher is implemented by generated controllers: it runs the in-port
// handler of port for m.
type Dispatcher interface {
	Wakeup(port *InPort, m *Message) TransitionResult
}

// Stats counts what a controller did.
type Stats struct {
	Delivered    uint64
	Transitions  uint64
	Stalls       uint64
	Wakeups      uint64
	Redispatches uint64
}

type wakeRequest struct {
	addr Addr
	all  bool
}

// Controller is the machine-independent half of a generated controller. It
// owns the wait buffers and serializes the work on each address: a wake-up
// requested while a transition runs is deferred until that transition has
// committed its next state.
type Controller struct {
	params     ControllerParams
	sys        *System
	dispatcher Dispatcher

	inPorts  []*InPort
	outPorts []*OutPort
	waiting  *WaitBuffers

	depth         int // nesting of dispatch calls
	redispatching *Message
	pending       []wakeRequest
	wakingUp      bool

	stats Stats
	err   error
}

func (c *Controller) Name() string              { return c.params.Name }
func (c *Controller) Params() ControllerParams  { return c.params }
func (c *Controller) WaitBuffers() *WaitBuffers { return c.waiting }
func (c *Controller) Stats() Stats              { return c.stats }
func (c *Controller) Err() error                { return c.err }

// Waiting returns the addresses that still have stalled messages.
func (c *Controller) Waiting() []Addr {
	return c.waiting.Addresses()
}

// AddInPort registers an in-port receiving the messages of link.
func (c *Controller) AddInPort(name, link string) *InPort {
	p := &InPort{name: name, link: link}
	c.inPorts = append(c.inPorts, p)
	return p
}

// AddOutPort registers an out-port sending on link.
func (c *Controller) AddOutPort(name, link string) *OutPort {
	p := &OutPort{name: name, link: link}
	c.outPorts = append(c.outPorts, p)
	return p
}

func (c *Controller) inPortFor(link string) *InPort {
	for _, p := range c.inPorts {
		if p.link == link {
			return p
		}
	}
	return nil
}

// CurCycle returns the current simulated cycle of the controller's clock.
func (c *Controller) CurCycle() int {
	return int(c.sys.Now() / c.params.Period)
}

// Enqueue sends payload for addr on port, arriving latency cycles from now.
func (c *Controller) Enqueue(port *OutPort, addr Addr, payload any, latency int) {
	port.Sent++
	delay := sim.VTimeInSec(latency) * c.params.Period
	if err := c.sys.send(c.sys.Now()+delay, port.link, addr, payload); err != nil {
		c.Fail(err.Error())
	}
}

// Fail records a protocol error. The first one is reported by System.Run.
func (c *Controller) Fail(msg string) {
	c.sys.tracer.Errorf("%s: %s", c.params.Name, msg)
	if c.err == nil {
		c.err = fmt.Errorf("%s: %s", c.params.Name, msg)
	}
}

// Assert fails the controller unless cond holds.
func (c *Controller) Assert(cond bool, where string) {
	if !cond {
		c.Fail("assertion failed at " + where)
	}
}

// RecordTransition counts a committed transition.
func (c *Controller) RecordTransition(addr Addr, state, event, next string) {
	c.stats.Transitions++
	c.sys.tracer.Debugf("%s %s: %s x %s -> %s", c.params.Name, addr, state, event, next)
}

// StallAndWait parks m on addr without touching protocol state. A message
// being re-dispatched from the wait buffer is already owned by the buffer
// and is not appended a second time.
func (c *Controller) StallAndWait(addr Addr, m *Message) TransitionResult {
	if m == c.redispatching {
		return ProtocolStall
	}
	c.stats.Stalls++
	c.sys.tracer.Debugf("%s %s: stall %s", c.params.Name, addr, m)
	c.waiting.Stall(addr, m)
	return ProtocolStall
}

// WakeUpBuffers re-dispatches the waiters of addr in the order they
// stalled.
func (c *Controller) WakeUpBuffers(addr Addr) {
	c.requestWake(wakeRequest{addr: addr})
}

// WakeUpAllBuffers re-dispatches the waiters of every address, lowest
// address first.
func (c *Controller) WakeUpAllBuffers() {
	c.requestWake(wakeRequest{all: true})
}

func (c *Controller) requestWake(r wakeRequest) {
	c.pending = append(c.pending, r)
	if c.depth == 0 {
		c.drainPending()
	}
}

// drainPending serves wake requests in the order they were made. Only the
// outermost call loops; requests made by re-dispatched messages are queued
// behind the current one.
func (c *Controller) drainPending() {
	if c.wakingUp {
		return
	}
	c.wakingUp = true
	defer func() { c.wakingUp = false }()

	for len(c.pending) > 0 {
		r := c.pending[0]
		c.pending = c.pending[1:]
		if !r.all {
			c.wake(r.addr)
			continue
		}
		for _, addr := range c.waiting.Addresses() {
			c.wake(addr)
		}
	}
	c.pending = nil
}

func (c *Controller) wake(addr Addr) {
	if !c.waiting.HasWaiters(addr) {
		return
	}
	c.stats.Wakeups++
	c.sys.tracer.Debugf("%s %s: wake %d waiter(s)", c.params.Name, addr, c.waiting.Len(addr))
	c.waiting.Wake(addr, c.redispatch)
}

func (c *Controller) redispatch(m *Message) bool {
	c.stats.Redispatches++
	prev := c.redispatching
	c.redispatching = m
	res := c.dispatch(m.port, m)
	c.redispatching = prev
	return res != ProtocolStall
}

func (c *Controller) dispatch(port *InPort, m *Message) TransitionResult {
	prev := port.current
	port.current = m
	c.depth++
	res := c.dispatcher.Wakeup(port, m)
	c.depth--
	port.current = prev

	if res == TransitionUnhandled {
		c.Fail(fmt.Sprintf("%s on %s was not handled", m, port.name))
	}
	if c.depth == 0 {
		c.drainPending()
	}
	return res
}

func (c *Controller) deliver(port *InPort, m *Message, now sim.VTimeInSec) {
	m.port = port
	m.ArriveTime = now
	port.Received++
	c.stats.Delivered++
	c.sys.tracer.Debugf("%s %s: arrive %s on %s", c.params.Name, m.Addr, m, port.name)
	c.dispatch(port, m)
}
