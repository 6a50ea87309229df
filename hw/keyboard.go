package hw

import "sync"

// Keyboard is the 8042 output buffer. IRQ1 stays asserted while scancodes
// remain.
type Keyboard struct {
	mu   sync.Mutex
	fifo []byte

	pic *PIC
}

// Push queues scancodes as if keys were struck.
func (k *Keyboard) Push(codes ...byte) {
	if len(codes) == 0 {
		return
	}

	k.mu.Lock()
	empty := len(k.fifo) == 0
	k.fifo = append(k.fifo, codes...)
	k.mu.Unlock()

	if empty {
		k.pic.Raise(1)
	}
}

// Read pops one scancode from the data port.
func (k *Keyboard) Read() byte {
	k.mu.Lock()

	if len(k.fifo) == 0 {
		k.mu.Unlock()
		return 0
	}

	b := k.fifo[0]
	k.fifo = k.fifo[1:]
	more := len(k.fifo) > 0

	k.mu.Unlock()

	if more {
		k.pic.Raise(1)
	}

	return b
}

func (k *Keyboard) Buffered() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.fifo)
}
