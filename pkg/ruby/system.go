package ruby

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/akita/v3/sim"
)

// System connects controllers by link name and runs them on a serial akita
// engine. Messages due at the same time are delivered in the order they
// were sent: the engine's queue does not order equal times, so each time
// gets one arrival event that drains its messages oldest first.
type System struct {
	engine   *sim.SerialEngine
	ctrls    []*Controller
	nextID   uint64
	tracer   *Tracer
	arrivals map[sim.VTimeInSec][]arrival
}

// arrival is a message bound for the in-port of a controller.
type arrival struct {
	ctrl *Controller
	port *InPort
	msg  *Message
}

// arrivalEvent delivers every message due at its time.
type arrivalEvent struct {
	*sim.EventBase
}

func NewSystem() *System {
	return &System{
		engine:   sim.NewSerialEngine(),
		arrivals: make(map[sim.VTimeInSec][]arrival),
	}
}

// SetTracer installs the protocol trace; nil disables it.
func (s *System) SetTracer(t *Tracer) {
	s.tracer = t
}

// Engine returns the underlying event engine.
func (s *System) Engine() sim.Engine {
	return s.engine
}

// Now returns the current simulated time.
func (s *System) Now() sim.VTimeInSec {
	return s.engine.CurrentTime()
}

// Controllers returns the controllers in attachment order.
func (s *System) Controllers() []*Controller {
	return s.ctrls
}

// NewController attaches a controller driven by d. Generated constructors
// call it; d is the generated controller embedding the result.
func (s *System) NewController(p ControllerParams, d Dispatcher) (*Controller, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	for _, c := range s.ctrls {
		if c.params.Name == p.Name {
			return nil, fmt.Errorf("controller %s already attached", p.Name)
		}
	}
	c := &Controller{
		params:     p.withDefaults(),
		sys:        s,
		dispatcher: d,
		waiting:    NewWaitBuffers(),
	}
	s.ctrls = append(s.ctrls, c)
	return c, nil
}

// route finds the in-port listening on link whose controller owns addr.
// Controllers are searched in attachment order.
func (s *System) route(link string, addr Addr) (*Controller, *InPort) {
	for _, c := range s.ctrls {
		if !c.params.Range.Contains(addr) {
			continue
		}
		if p := c.inPortFor(link); p != nil {
			return c, p
		}
	}
	return nil, nil
}

func (s *System) send(at sim.VTimeInSec, link string, addr Addr, payload any) error {
	c, p := s.route(link, addr)
	if c == nil {
		return fmt.Errorf("no controller listens on %s for %s", link, addr)
	}
	s.nextID++
	m := &Message{
		ID:       s.nextID,
		Addr:     addr,
		Link:     link,
		Payload:  payload,
		SendTime: s.Now(),
	}
	if _, ok := s.arrivals[at]; !ok {
		s.engine.Schedule(&arrivalEvent{sim.NewEventBase(at, s)})
	}
	s.arrivals[at] = append(s.arrivals[at], arrival{ctrl: c, port: p, msg: m})
	return nil
}

// Handle defines how the system handles events.
func (s *System) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *arrivalEvent:
		s.deliverAll(e.Time())
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}
	return nil
}

// deliverAll hands out the messages due at now in send order. Messages sent
// with zero latency while draining join the same queue.
func (s *System) deliverAll(now sim.VTimeInSec) {
	for len(s.arrivals[now]) > 0 {
		a := s.arrivals[now][0]
		s.arrivals[now] = s.arrivals[now][1:]
		a.ctrl.deliver(a.port, a.msg, now)
	}
	delete(s.arrivals, now)
}

// Inject schedules an external message for delivery at time at.
func (s *System) Inject(at sim.VTimeInSec, link string, addr Addr, payload any) error {
	return s.send(at, link, addr, payload)
}

// Run processes events until none are left and returns the first protocol
// error of any controller.
func (s *System) Run() error {
	if err := s.engine.Run(); err != nil {
		return err
	}
	for _, c := range s.ctrls {
		if c.err != nil {
			return c.err
		}
	}
	for _, c := range s.ctrls {
		if n := c.waiting.Total(); n > 0 {
			s.tracer.Warnf("%s: %d message(s) still waiting on %v", c.params.Name, n, c.Waiting())
		}
	}
	return nil
}
