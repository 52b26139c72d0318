package ruby

import (
	"fmt"

	"github.com/sarchlab/akita/v3/sim"
)

// Message is one protocol message in flight or buffered at a controller.
// Payload holds the generated message structure.
type Message struct {
	ID      uint64
	Addr    Addr
	Link    string
	Payload any

	SendTime   sim.VTimeInSec
	ArriveTime sim.VTimeInSec

	port *InPort // set on arrival
}

// Port returns the in-port the message arrived on.
func (m *Message) Port() *InPort {
	return m.port
}

func (m *Message) String() string {
	return fmt.Sprintf("msg#%d(%s@%s)", m.ID, m.Link, m.Addr)
}
