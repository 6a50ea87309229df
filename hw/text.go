package hw

import "sync"

// EntryFunc is code that starts running at an entry address after an iret.
type EntryFunc func(c *CPU, frame IretFrame)

// Text maps code addresses to the code found there.
type Text struct {
	mu      sync.RWMutex
	entries map[uint32]EntryFunc
}

func NewText() *Text {
	return &Text{entries: make(map[uint32]EntryFunc)}
}

func (t *Text) Register(addr uint32, fn EntryFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[addr] = fn
}

func (t *Text) Lookup(addr uint32) (EntryFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fn, ok := t.entries[addr]
	return fn, ok
}
