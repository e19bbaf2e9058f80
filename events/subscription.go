package events

import (
	"context"
	"sync"
)

// ISubscription defines the contract for subscription objects
type ISubscription[T any] interface {
	// Chan returns a read-only channel for self-handling events
	Chan() <-chan T
	// Cancel unsubscribes and closes the channel. Safe for repeated calls
	Cancel()
	// Watch starts a goroutine that calls cb on each event.
	// When parentCtx finishes, the subscription is automatically cancelled
	Watch(parentCtx context.Context, cb func(T)) ISubscription[T]
}

// ISubscriptionManager defines the contract for managing subscriptions
type ISubscriptionManager[T any] interface {
	// Subscribe creates a new subscription and returns it
	Subscribe() ISubscription[T]
	// Unsubscribe removes a subscription by its channel
	Unsubscribe(ch chan T)
	// Emit queues v for all subscribers without blocking
	Emit(ctx context.Context, v T)
}

// Subscription receives every emitted value in emission order. Values are
// queued until the subscriber reads them, so a slow reader never loses one.
type Subscription[T any] struct {
	ch     chan T
	mgr    *SubscriptionManager[T]
	cancel context.CancelFunc
	once   sync.Once

	mu      sync.Mutex
	queue   []T
	pending chan struct{}
	done    chan struct{}
}

func newSubscription[T any](mgr *SubscriptionManager[T]) *Subscription[T] {
	s := &Subscription[T]{
		ch:      make(chan T),
		mgr:     mgr,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.deliver()
	return s
}

// Chan returns a read-only channel for self-handling events.
func (s *Subscription[T]) Chan() <-chan T { return s.ch }

// Cancel unsubscribes and closes the channel. Safe for repeated calls.
// Values that were not read yet are discarded.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.mgr.Unsubscribe(s.ch)
	})
}

// Watch starts a goroutine that calls cb on each event.
// When parentCtx finishes, the subscription is automatically cancelled.
func (s *Subscription[T]) Watch(parentCtx context.Context, cb func(T)) ISubscription[T] {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	go func(ctx context.Context) {
		defer s.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-s.ch:
				if !ok {
					return
				}
				cb(v)
			}
		}
	}(ctx)

	return s
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.pending <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) close() {
	close(s.done)
}

// deliver forwards queued values to ch and closes ch once the subscription ends
func (s *Subscription[T]) deliver() {
	defer close(s.ch)

	for {
		select {
		case <-s.done:
			return
		case <-s.pending:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			v := s.queue[0]
			var zero T
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.ch <- v:
			case <-s.done:
				return
			}
		}
	}
}

// SubscriptionManager fans values out to subscribers. Every subscriber gets
// every value, in emission order.
type SubscriptionManager[T any] struct {
	mu          sync.Mutex
	subscribers map[chan T]*Subscription[T]
}

func NewSubscriptionManager[T any]() *SubscriptionManager[T] {
	return &SubscriptionManager[T]{
		subscribers: make(map[chan T]*Subscription[T]),
	}
}

func (m *SubscriptionManager[T]) Subscribe() ISubscription[T] {
	sub := newSubscription(m)

	m.mu.Lock()
	m.subscribers[sub.ch] = sub
	m.mu.Unlock()

	return sub
}

func (m *SubscriptionManager[T]) Unsubscribe(ch chan T) {
	m.mu.Lock()
	if sub, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		sub.close()
	}
	m.mu.Unlock()
}

// Count returns the number of active subscribers
func (m *SubscriptionManager[T]) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Emit queues v for every subscriber. It never blocks on a slow reader.
func (m *SubscriptionManager[T]) Emit(ctx context.Context, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	for _, sub := range m.subscribers {
		sub.push(v)
	}
}
