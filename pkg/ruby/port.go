package ruby

import "fmt"

// InPort receives the messages of one link. It holds the message being
// handled so generated code can ask whether the port is ready.
type InPort struct {
	name    string
	link    string
	current *Message

	Received uint64
}

func (p *InPort) Name() string { return p.name }
func (p *InPort) Link() string { return p.link }

// IsReady reports whether a message is waiting to be handled.
func (p *InPort) IsReady() bool {
	return p.current != nil
}

// Peek returns the message being handled on p as a T. A port without a
// current message, or one carrying another type, fails c and reports false.
func Peek[T any](c *Controller, p *InPort) (T, bool) {
	var zero T
	m := p.current
	if m == nil {
		c.Fail(fmt.Sprintf("peek on %s without a message", p.name))
		return zero, false
	}
	v, ok := m.Payload.(T)
	if !ok {
		c.Fail(fmt.Sprintf("%s on %s carries %T, not %T", m, p.name, m.Payload, zero))
		return zero, false
	}
	return v, true
}

// OutPort sends messages on one link.
type OutPort struct {
	name string
	link string

	Sent uint64
}

func (p *OutPort) Name() string { return p.name }
func (p *OutPort) Link() string { return p.link }
