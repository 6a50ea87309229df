// Package waiter lets host goroutines sleep until the machine signals one of
// a set of events, such as an interrupt becoming pending or the CPU going
// idle.
package waiter

import (
	"container/list"
	"sync"

	"github.com/jonjonleee/Linux-like-OS/log"
)

type EventType uint64

type Waiter struct {
	mu sync.RWMutex

	count   int
	waiters list.List
}

// Event is one registration. The channel gets at most one pending signal.
type Event struct {
	elem *list.Element

	Mask EventType
	C    chan struct{}
}

// RegisterChannel signals c whenever an event in mask is notified.
func (w *Waiter) RegisterChannel(mask EventType, c chan struct{}) *Event {
	e := &Event{Mask: mask, C: c}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.count++
	e.elem = w.waiters.PushBack(e)

	return e
}

// Unregister is safe to call more than once.
func (w *Waiter) Unregister(e *Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.elem == nil {
		return
	}

	w.count--

	w.waiters.Remove(e.elem)
	e.elem = nil
}

func (w *Waiter) Notify(mask EventType) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	log.L.Trace("machine-event", "waiters", w.count, "mask", mask)

	for it := w.waiters.Front(); it != nil; it = it.Next() {
		e := it.Value.(*Event)
		if mask&e.Mask == 0 {
			continue
		}

		select {
		case e.C <- struct{}{}:
		default:
		}
	}
}
