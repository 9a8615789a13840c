package relay

import "sync"

// Observer receives published states. Callbacks run outside the
// Subscription's internal lock; a reentrant Start() or Retry() from inside
// a callback is deferred to the next delivery turn.
type Observer[T any] func(State[T])

// Handle identifies an attached observer for Unsubscribe.
type Handle int

// dispatcher holds the latest published state and delivers distinct states
// to attached observers in transition order.
//
// Publication is split in two: enqueue runs under the Subscription's lock
// and fixes delivery order; drain runs outside it and performs the
// callbacks. A single active drainer at a time keeps delivery ordered and
// makes reentrant subscription calls from observers safe: states enqueued
// during a callback are picked up by the already-running drain loop.
type dispatcher[T any] struct {
	mu         sync.Mutex
	next       Handle
	observers  map[Handle]Observer[T]
	last       State[T]
	queue      []State[T]
	delivering bool
	closed     bool
}

func newDispatcher[T any]() *dispatcher[T] {
	return &dispatcher[T]{
		observers: make(map[Handle]Observer[T]),
		last:      idleState[T](),
	}
}

// subscribe attaches an observer and returns its handle.
func (d *dispatcher[T]) subscribe(o Observer[T]) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	h := d.next
	d.observers[h] = o
	return h
}

// unsubscribe detaches one observer. Delivery to the others is unaffected.
func (d *dispatcher[T]) unsubscribe(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.observers, h)
}

// enqueue records a state for delivery if it differs structurally from the
// last published state. Safe to call under the Subscription's lock.
func (d *dispatcher[T]) enqueue(st State[T]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || st.Equal(d.last) {
		return
	}
	d.last = st
	d.queue = append(d.queue, st)
}

// drain delivers queued states to all attached observers, in order.
// Only one drainer runs at a time; concurrent callers return immediately
// and the active drainer picks up their enqueued states.
func (d *dispatcher[T]) drain() {
	d.mu.Lock()
	if d.delivering {
		d.mu.Unlock()
		return
	}
	d.delivering = true
	for len(d.queue) > 0 {
		st := d.queue[0]
		d.queue = d.queue[1:]

		obs := make([]Observer[T], 0, len(d.observers))
		for _, o := range d.observers {
			obs = append(obs, o)
		}
		d.mu.Unlock()

		for _, o := range obs {
			o(st)
		}

		d.mu.Lock()
		if d.closed {
			d.queue = nil
			break
		}
	}
	d.delivering = false
	d.mu.Unlock()
}

// close drops pending deliveries and suppresses all future notification.
// Called on cancellation; cancellation itself is never observed.
func (d *dispatcher[T]) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.queue = nil
	d.observers = make(map[Handle]Observer[T])
}
