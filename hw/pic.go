package hw

import (
	"sync"

	"github.com/jonjonleee/Linux-like-OS/pkg/waiter"
)

// PIC is a master/slave 8259A pair cascaded on master line 2.
type PIC struct {
	mu sync.Mutex

	irr, isr uint16
	imr      uint16

	masterOffset, slaveOffset uint8

	eoi [16]int

	events *waiter.Waiter
}

const cascadeLine = 2

// priority is the fully nested order: slave lines sit at the cascade line.
func priority(irq int) int {
	switch {
	case irq < cascadeLine:
		return irq
	case irq == cascadeLine:
		return cascadeLine
	case irq >= 8:
		return cascadeLine + (irq - 8)
	default:
		return 10 + (irq - 3)
	}
}

// Init runs the ICW sequence: vector offsets, cascade, 8086 mode. Every line
// starts masked.
func (p *PIC) Init(master, slave uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.masterOffset = master
	p.slaveOffset = slave
	p.irr = 0
	p.isr = 0
	p.imr = 0xFFFF
}

func (p *PIC) Enable(irq int) {
	p.mu.Lock()
	p.imr &^= 1 << uint(irq)
	if irq >= 8 {
		p.imr &^= 1 << cascadeLine
	}
	p.mu.Unlock()

	p.events.Notify(evIRQ)
}

func (p *PIC) Disable(irq int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.imr |= 1 << uint(irq)
}

func (p *PIC) Masked(irq int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.imr&(1<<uint(irq)) != 0
}

// Raise asserts an IRQ line.
func (p *PIC) Raise(irq int) {
	p.mu.Lock()
	p.irr |= 1 << uint(irq)
	p.mu.Unlock()

	p.events.Notify(evIRQ)
}

// EOI acknowledges irq. Slave lines are acknowledged on both chips.
func (p *PIC) EOI(irq int) {
	p.mu.Lock()
	p.isr &^= 1 << uint(irq)
	if irq >= 8 {
		p.isr &^= 1 << cascadeLine
	}
	p.eoi[irq]++
	p.mu.Unlock()

	p.events.Notify(evIRQ)
}

// EOICount is the number of EOIs sent for irq.
func (p *PIC) EOICount(irq int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.eoi[irq]
}

func (p *PIC) InService(irq int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.isr&(1<<uint(irq)) != 0
}

func (p *PIC) Pending(irq int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.irr&(1<<uint(irq)) != 0
}

func (p *PIC) next() (int, bool) {
	best, bestPrio := -1, 1<<10

	for irq := 0; irq < 16; irq++ {
		bit := uint16(1) << uint(irq)
		if p.irr&bit == 0 || p.imr&bit != 0 || irq == cascadeLine {
			continue
		}

		if irq >= 8 && p.imr&(1<<cascadeLine) != 0 {
			continue
		}

		if pr := priority(irq); pr < bestPrio {
			best, bestPrio = irq, pr
		}
	}

	if best < 0 {
		return 0, false
	}

	for irq := 0; irq < 16; irq++ {
		if p.isr&(1<<uint(irq)) != 0 && priority(irq) <= bestPrio {
			return 0, false
		}
	}

	return best, true
}

func (p *PIC) deliverable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.next()
	return ok
}

// ack is the INTA cycle: the highest priority deliverable line moves from
// IRR to ISR and its vector is returned.
func (p *PIC) ack() (uint8, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	irq, ok := p.next()
	if !ok {
		return 0, false
	}

	p.irr &^= 1 << uint(irq)
	p.isr |= 1 << uint(irq)

	if irq >= 8 {
		p.isr |= 1 << cascadeLine
		return p.slaveOffset + uint8(irq-8), true
	}

	return p.masterOffset + uint8(irq), true
}
