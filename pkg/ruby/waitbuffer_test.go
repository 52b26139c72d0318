package ruby

import (
	"reflect"
	"testing"
)

func ids(msgs []*Message) []uint64 {
	var out []uint64
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestWakeEmptyAddressIsNoop(t *testing.T) {
	w := NewWaitBuffers()
	called := false
	n := w.Wake(0x40, func(*Message) bool {
		called = true
		return true
	})
	if n != 0 || called {
		t.Errorf("expected no dispatch, got n=%d called=%v", n, called)
	}
	if len(w.queues) != 0 {
		t.Errorf("expected no queue to be allocated, got %d", len(w.queues))
	}
	if w.HasWaiters(0x40) {
		t.Errorf("expected no waiters")
	}
}

func TestWakeDrainsInStallOrder(t *testing.T) {
	w := NewWaitBuffers()
	for i := uint64(1); i <= 3; i++ {
		w.Stall(0x40, &Message{ID: i, Addr: 0x40})
	}
	w.Stall(0x80, &Message{ID: 9, Addr: 0x80})

	var order []uint64
	n := w.Wake(0x40, func(m *Message) bool {
		order = append(order, m.ID)
		return true
	})

	if n != 3 {
		t.Errorf("expected 3 woken, got %d", n)
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(order, want) {
		t.Errorf("expected order %v, got %v", want, order)
	}
	if _, ok := w.queues[0x40]; ok {
		t.Errorf("expected the drained queue to be removed")
	}
	if w.Len(0x80) != 1 {
		t.Errorf("expected other addresses untouched")
	}
}

func TestWakeStopsAtRestall(t *testing.T) {
	w := NewWaitBuffers()
	for i := uint64(1); i <= 3; i++ {
		w.Stall(0x40, &Message{ID: i})
	}

	n := w.Wake(0x40, func(m *Message) bool {
		return m.ID != 2
	})

	if n != 1 {
		t.Errorf("expected 1 woken, got %d", n)
	}
	if want := []uint64{2, 3}; !reflect.DeepEqual(ids(w.Waiters(0x40)), want) {
		t.Errorf("expected remaining %v, got %v", want, ids(w.Waiters(0x40)))
	}
	if w.Draining(0x40) {
		t.Errorf("expected the drain to have finished")
	}
}

func TestNestedWakeIsNoop(t *testing.T) {
	w := NewWaitBuffers()
	w.Stall(0x40, &Message{ID: 1})
	w.Stall(0x40, &Message{ID: 2})

	var order []uint64
	var nested []int
	var dispatch func(m *Message) bool
	dispatch = func(m *Message) bool {
		order = append(order, m.ID)
		if m.ID == 1 {
			// A message stalling while the queue drains joins the tail.
			w.Stall(0x40, &Message{ID: 3})
			nested = append(nested, w.Wake(0x40, dispatch))
		}
		return true
	}

	if n := w.Wake(0x40, dispatch); n != 3 {
		t.Errorf("expected 3 woken by the outer drain, got %d", n)
	}
	if want := []int{0}; !reflect.DeepEqual(nested, want) {
		t.Errorf("expected the nested wake to do nothing, got %v", nested)
	}
	if want := []uint64{1, 2, 3}; !reflect.DeepEqual(order, want) {
		t.Errorf("expected order %v, got %v", want, order)
	}
}

func TestWaitBufferQueries(t *testing.T) {
	w := NewWaitBuffers()
	w.Stall(0x100, &Message{ID: 1})
	w.Stall(0x40, &Message{ID: 2})
	w.Stall(0x40, &Message{ID: 3})

	if want := []Addr{0x40, 0x100}; !reflect.DeepEqual(w.Addresses(), want) {
		t.Errorf("expected addresses %v, got %v", want, w.Addresses())
	}
	if w.Total() != 3 {
		t.Errorf("expected 3 waiting, got %d", w.Total())
	}

	got := w.Waiters(0x40)
	got[0] = nil
	if w.Waiters(0x40)[0] == nil {
		t.Errorf("Waiters must return a copy")
	}
	if w.Waiters(0x80) != nil {
		t.Errorf("expected nil for an address without waiters")
	}
}
