package hw

import (
	"context"
	"sync"
	"time"
)

// PITFrequency is the 8253/8254 input clock in Hz.
const PITFrequency = 1193182

// PIT is channel 0 of the interval timer, wired to IRQ0.
type PIT struct {
	mu sync.Mutex

	mode    uint8
	divisor uint16
	latchHi bool
	ticks   uint64

	pic *PIC
}

// Command writes the mode/command register.
func (p *PIT) Command(b uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mode = b
	p.latchHi = false
}

// Data writes the channel 0 reload value, low byte then high byte.
func (p *PIT) Data(b uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.latchHi {
		p.divisor = p.divisor&0x00FF | uint16(b)<<8
	} else {
		p.divisor = p.divisor&0xFF00 | uint16(b)
	}

	p.latchHi = !p.latchHi
}

func (p *PIT) Mode() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.mode
}

// Period is the time between IRQ0 edges for the programmed divisor.
func (p *PIT) Period() time.Duration {
	p.mu.Lock()
	div := int64(p.divisor)
	p.mu.Unlock()

	if div == 0 {
		div = 1 << 16
	}

	return time.Duration(div * int64(time.Second) / PITFrequency)
}

// Tick fires one timer interrupt.
func (p *PIT) Tick() {
	p.mu.Lock()
	p.ticks++
	p.mu.Unlock()

	p.pic.Raise(0)
}

func (p *PIT) Ticks() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ticks
}

// Run ticks at the programmed period until ctx is done.
func (p *PIT) Run(ctx context.Context) {
	t := time.NewTicker(p.Period())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Tick()
		}
	}
}
