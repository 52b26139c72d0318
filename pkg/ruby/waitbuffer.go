// Package ruby is the runtime that generated protocol controllers execute
// on: per-address wait buffers, controllers, ports and a system that moves
// messages between controllers as akita events.
package ruby

import "sort"

// WaitBuffers holds, per address, the messages that stalled on it in the
// order they stalled. Queues are created on the first stall and removed
// once drained.
type WaitBuffers struct {
	queues   map[Addr][]*Message
	draining map[Addr]bool
}

func NewWaitBuffers() *WaitBuffers {
	return &WaitBuffers{
		queues:   make(map[Addr][]*Message),
		draining: make(map[Addr]bool),
	}
}

// Stall appends m to the queue of addr.
func (w *WaitBuffers) Stall(addr Addr, m *Message) {
	w.queues[addr] = append(w.queues[addr], m)
}

// HasWaiters reports whether addr has a non-empty queue.
func (w *WaitBuffers) HasWaiters(addr Addr) bool {
	return len(w.queues[addr]) > 0
}

// Len returns the number of messages waiting on addr.
func (w *WaitBuffers) Len(addr Addr) int {
	return len(w.queues[addr])
}

// Total returns the number of waiting messages over all addresses.
func (w *WaitBuffers) Total() int {
	n := 0
	for _, q := range w.queues {
		n += len(q)
	}
	return n
}

// Addresses returns every address with waiters in ascending order.
func (w *WaitBuffers) Addresses() []Addr {
	addrs := make([]Addr, 0, len(w.queues))
	for a := range w.queues {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Waiters returns a copy of the queue of addr, oldest first.
func (w *WaitBuffers) Waiters(addr Addr) []*Message {
	q := w.queues[addr]
	if len(q) == 0 {
		return nil
	}
	return append([]*Message(nil), q...)
}

// Draining reports whether a Wake on addr is in progress.
func (w *WaitBuffers) Draining(addr Addr) bool {
	return w.draining[addr]
}

// Wake re-dispatches the waiters of addr oldest first and returns how many
// made progress. dispatch reports whether its message made progress; a
// message that did not goes back to the head of the queue and ends the
// drain, so each iteration either shrinks the queue or stops.
//
// Waking an address without waiters does nothing. A Wake on an address that
// is already being drained returns immediately: the outer drain owns the
// queue and picks up whatever is still in it.
func (w *WaitBuffers) Wake(addr Addr, dispatch func(*Message) bool) int {
	if len(w.queues[addr]) == 0 || w.draining[addr] {
		return 0
	}
	w.draining[addr] = true
	defer delete(w.draining, addr)

	woken := 0
	for {
		q := w.queues[addr]
		if len(q) == 0 {
			delete(w.queues, addr)
			return woken
		}
		m := q[0]
		q[0] = nil
		w.queues[addr] = q[1:]

		if !dispatch(m) {
			w.queues[addr] = append([]*Message{m}, w.queues[addr]...)
			return woken
		}
		woken++
	}
}
