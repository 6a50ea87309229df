// Package hw is a single-CPU i386-style machine: processor, interrupt
// controllers, timers, keyboard controller and physical memory.
package hw

import "github.com/jonjonleee/Linux-like-OS/pkg/waiter"

type Machine struct {
	CPU      *CPU
	PIC      *PIC
	PIT      *PIT
	RTC      *RTC
	Keyboard *Keyboard
	Mem      *PhysMem
	Text     *Text
}

func NewMachine() *Machine {
	events := &waiter.Waiter{}

	pic := &PIC{events: events, imr: 0xFFFF}
	mem := NewPhysMem()
	text := NewText()

	cpu := &CPU{
		pic:    pic,
		mem:    mem,
		text:   text,
		events: events,
		dead:   make(chan struct{}),
	}

	return &Machine{
		CPU:      cpu,
		PIC:      pic,
		PIT:      &PIT{pic: pic},
		RTC:      &RTC{pic: pic},
		Keyboard: &Keyboard{pic: pic},
		Mem:      mem,
		Text:     text,
	}
}

// Shutdown stops the CPU and every context parked on it.
func (m *Machine) Shutdown() {
	m.CPU.Shutdown()
}
