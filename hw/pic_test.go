package hw

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

func TestPIC(t *testing.T) {
	n := neko.Modern(t)

	setup := func() *PIC {
		m := NewMachine()
		m.PIC.Init(0x20, 0x28)
		return m.PIC
	}

	n.It("keeps masked lines pending", func(t *testing.T) {
		p := setup()

		p.Raise(0)

		_, ok := p.ack()
		require.False(t, ok)

		p.Enable(0)

		vec, ok := p.ack()
		require.True(t, ok)
		require.Equal(t, uint8(0x20), vec)
		require.True(t, p.InService(0))
	})

	n.It("delivers the highest priority line first", func(t *testing.T) {
		p := setup()
		p.Enable(0)
		p.Enable(1)
		p.Enable(8)

		p.Raise(8)
		p.Raise(1)
		p.Raise(0)

		vec, ok := p.ack()
		require.True(t, ok)
		require.Equal(t, uint8(0x20), vec)

		_, ok = p.ack()
		require.False(t, ok, "irq0 in service blocks lower priorities")

		p.EOI(0)

		vec, ok = p.ack()
		require.True(t, ok)
		require.Equal(t, uint8(0x21), vec)
		p.EOI(1)

		vec, ok = p.ack()
		require.True(t, ok)
		require.Equal(t, uint8(0x28), vec)
	})

	n.It("routes slave lines through the cascade", func(t *testing.T) {
		p := setup()
		p.Enable(8)

		require.False(t, p.Masked(2))

		p.Raise(8)

		_, ok := p.ack()
		require.True(t, ok)
		require.True(t, p.InService(8))
		require.True(t, p.InService(2))

		p.EOI(8)

		require.False(t, p.InService(8))
		require.False(t, p.InService(2))
		require.Equal(t, 1, p.EOICount(8))
	})

	n.It("lets a higher priority line preempt one in service", func(t *testing.T) {
		p := setup()
		p.Enable(0)
		p.Enable(8)

		p.Raise(8)
		_, ok := p.ack()
		require.True(t, ok)

		p.Raise(0)
		vec, ok := p.ack()
		require.True(t, ok)
		require.Equal(t, uint8(0x20), vec)
	})

	n.Meow()
}
