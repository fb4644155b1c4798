// Package stream provides the two observable primitives the repository and
// service tiers are built on: State, a last-value-retained stream that
// replays its current value to every new subscriber, and Events, a
// fire-per-emission stream with no retention (used for error reporting).
package stream

import "sync"

// Subscription represents an active subscription to a State or Events stream.
// Cancelling it is idempotent.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel detaches the subscriber. No callbacks are invoked after Cancel
// returns from the subscriber's own goroutine.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// State is a stateful stream: it always holds a current value, and a new
// subscriber immediately receives that value before any subsequent ones.
// Callbacks run synchronously on the goroutine that calls Set, so propagation
// through a chain of streams is a single sequential dispatch.
type State[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]func(T)
	next  int
}

// NewState creates a State holding the given initial value.
func NewState[T any](initial T) *State[T] {
	return &State[T]{value: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v as the current value and notifies all subscribers.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Subscribers run outside the lock so they may subscribe, cancel, or set
	// other streams without deadlocking.
	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe registers fn and immediately replays the current value to it.
func (s *State[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	v := s.value
	s.mu.Unlock()

	fn(v)
	return &Subscription{cancel: func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}}
}

// Watch returns a channel that receives the current value and every update
// after it, plus a cancel function releasing the underlying subscription.
// Updates that arrive while the channel buffer is full are dropped in favour
// of the newest value, so a slow reader always converges on the latest state.
func (s *State[T]) Watch(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)
	var mu sync.Mutex
	closed := false

	sub := s.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		for {
			select {
			case ch <- v:
				return
			default:
				// Buffer full: evict the oldest pending value.
				select {
				case <-ch:
				default:
				}
			}
		}
	})

	return ch, func() {
		sub.Cancel()
		mu.Lock()
		if !closed {
			closed = true
			close(ch)
		}
		mu.Unlock()
	}
}

// Events is a stateless stream: subscribers receive only emissions that
// happen after they subscribe. Used for error channels, where replaying an
// old failure to a new consumer would be misleading.
type Events[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

// NewEvents creates an empty Events stream.
func NewEvents[T any]() *Events[T] {
	return &Events[T]{subs: make(map[int]func(T))}
}

// Publish delivers v to all current subscribers.
func (e *Events[T]) Publish(v T) {
	e.mu.Lock()
	fns := make([]func(T), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe registers fn for future emissions. Nothing is replayed.
func (e *Events[T]) Subscribe(fn func(T)) *Subscription {
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = fn
	e.mu.Unlock()

	return &Subscription{cancel: func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}}
}
