package service

import (
	"sync"
	"sync/atomic"

	"github.com/elevateai/elevate/internal/domain"
)

// Listener receives controller output. OnView gets a fresh state
// snapshot after every transition; OnNotice gets transient failure
// signals. Either callback may be nil. Callbacks run on a dedicated
// delivery goroutine, in order, and must not call back into the
// controller.
type Listener struct {
	OnView   func(domain.ChatView)
	OnNotice func(domain.Notice)
}

type event struct {
	view   *domain.ChatView
	notice *domain.Notice
}

// watcherHub fans controller events out to listeners, one queue and
// delivery goroutine per listener so a slow consumer cannot stall the
// controller or reorder another listener's events.
type watcherHub struct {
	mu       sync.Mutex
	watchers []*watcher
}

type watcher struct {
	hub      *watcherHub
	listener Listener
	queue    chan event
	done     chan struct{}
	canceled atomic.Bool
}

const watcherQueueSize = 32

func newWatcherHub() *watcherHub {
	return &watcherHub{}
}

func (h *watcherHub) add(l Listener) *watcher {
	w := &watcher{
		hub:      h,
		listener: l,
		queue:    make(chan event, watcherQueueSize),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.watchers = append(h.watchers, w)
	h.mu.Unlock()

	go w.deliver()
	return w
}

// broadcastTo queues an event for a single watcher
func (h *watcherHub) broadcastTo(w *watcher, ev event) {
	select {
	case w.queue <- ev:
	case <-w.done:
	}
}

func (h *watcherHub) broadcast(ev event) {
	h.mu.Lock()
	watchers := make([]*watcher, len(h.watchers))
	copy(watchers, h.watchers)
	h.mu.Unlock()

	for _, w := range watchers {
		select {
		case w.queue <- ev:
		case <-w.done:
		}
	}
}

func (w *watcher) deliver() {
	for {
		select {
		case ev := <-w.queue:
			if w.canceled.Load() {
				continue
			}
			if ev.view != nil && w.listener.OnView != nil {
				w.listener.OnView(*ev.view)
			}
			if ev.notice != nil && w.listener.OnNotice != nil {
				w.listener.OnNotice(*ev.notice)
			}
		case <-w.done:
			return
		}
	}
}

// Cancel detaches the listener and stops future deliveries
func (w *watcher) Cancel() {
	if !w.canceled.CompareAndSwap(false, true) {
		return
	}
	close(w.done)

	w.hub.mu.Lock()
	for i, cur := range w.hub.watchers {
		if cur == w {
			w.hub.watchers = append(w.hub.watchers[:i], w.hub.watchers[i+1:]...)
			break
		}
	}
	w.hub.mu.Unlock()
}
