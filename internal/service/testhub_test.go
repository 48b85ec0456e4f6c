package service

import (
	"sync"
	"sync/atomic"

	"github.com/elevateai/elevate/internal/domain"
)

// testHub mimics the delivery semantics of the real repositories'
// change notification: async, in order per subscriber, keyed fan-out.
type testHub[T any] struct {
	mu   sync.Mutex
	subs map[string][]*testSub[T]
}

type testSub[T any] struct {
	hub      *testHub[T]
	key      string
	fn       func(T)
	queue    chan T
	done     chan struct{}
	canceled atomic.Bool
}

func newTestHub[T any]() *testHub[T] {
	return &testHub[T]{subs: make(map[string][]*testSub[T])}
}

func (h *testHub[T]) subscribe(key string, fn func(T)) domain.Subscription {
	s := &testSub[T]{
		hub:   h,
		key:   key,
		fn:    fn,
		queue: make(chan T, 64),
		done:  make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[key] = append(h.subs[key], s)
	h.mu.Unlock()

	go func() {
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
	}()
	return s
}

func (h *testHub[T]) publish(key string, value T) {
	h.mu.Lock()
	subs := make([]*testSub[T], len(h.subs[key]))
	copy(subs, h.subs[key])
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.queue <- value:
		case <-s.done:
		}
	}
}

func (s *testSub[T]) Cancel() {
	if !s.canceled.CompareAndSwap(false, true) {
		return
	}
	close(s.done)

	s.hub.mu.Lock()
	subs := s.hub.subs[s.key]
	for i, cur := range subs {
		if cur == s {
			s.hub.subs[s.key] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	s.hub.mu.Unlock()
}
