package repository

import (
	"sync"
	"sync/atomic"
)

// notifier fans change notifications out to subscribers grouped by key
// (a chat id or a user id). Each subscriber gets its own delivery
// goroutine and queue, so publishers never block and every subscriber
// sees notifications in publish order. Cancel stops future deliveries;
// a callback already in flight may still complete, so consumers that
// re-subscribe must discard stale deliveries themselves.
type notifier[T any] struct {
	mu   sync.Mutex
	subs map[string][]*subscriber[T]
}

type subscriber[T any] struct {
	n        *notifier[T]
	key      string
	fn       func(T)
	queue    chan T
	done     chan struct{}
	canceled atomic.Bool
}

const subscriberQueueSize = 16

func newNotifier[T any]() *notifier[T] {
	return &notifier[T]{subs: make(map[string][]*subscriber[T])}
}

// subscribe registers fn for notifications published under key
func (n *notifier[T]) subscribe(key string, fn func(T)) *subscriber[T] {
	s := &subscriber[T]{
		n:     n,
		key:   key,
		fn:    fn,
		queue: make(chan T, subscriberQueueSize),
		done:  make(chan struct{}),
	}
	n.mu.Lock()
	n.subs[key] = append(n.subs[key], s)
	n.mu.Unlock()

	go s.deliver()
	return s
}

// publish queues value for every subscriber registered under key
func (n *notifier[T]) publish(key string, value T) {
	n.mu.Lock()
	subs := make([]*subscriber[T], len(n.subs[key]))
	copy(subs, n.subs[key])
	n.mu.Unlock()

	for _, s := range subs {
		select {
		case s.queue <- value:
		case <-s.done:
		}
	}
}

func (s *subscriber[T]) deliver() {
	for {
		select {
		case v := <-s.queue:
			if !s.canceled.Load() {
				s.fn(v)
			}
		case <-s.done:
			return
		}
	}
}

// Cancel removes the subscriber and stops future deliveries
func (s *subscriber[T]) Cancel() {
	if !s.canceled.CompareAndSwap(false, true) {
		return
	}
	close(s.done)

	s.n.mu.Lock()
	subs := s.n.subs[s.key]
	for i, cur := range subs {
		if cur == s {
			s.n.subs[s.key] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	s.n.mu.Unlock()
}
