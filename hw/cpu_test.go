package hw

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

type identityMMU struct {
	limit uint32
}

var errUnmapped = errors.New("unmapped")

func (m identityMMU) Translate(vaddr uint32, user, write bool) (uint32, error) {
	if vaddr >= m.limit {
		return 0, errUnmapped
	}

	return vaddr, nil
}

func waitIdle(t *testing.T, c *CPU) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.WaitIdle(ctx))
}

func TestCPU(t *testing.T) {
	n := neko.Modern(t)

	n.It("switches between contexts and carries values", func(t *testing.T) {
		m := NewMachine()
		defer m.Shutdown()

		var (
			boot  *Context
			trace []string
			done  = make(chan struct{})
		)

		m.Text.Register(0x1000, func(c *CPU, f IretFrame) {
			trace = append(trace, fmt.Sprintf("user cpl=%d if=%v esp=%#x", c.CPL(), c.IF(), f.ESP))
			v := c.SwitchTo(boot, 7)
			trace = append(trace, fmt.Sprintf("user got %d", v))
			c.ExitTo(boot, 9)
		})

		m.CPU.Boot(func() {
			boot = m.CPU.Current()

			ctx := m.CPU.NewContext("a", IretFrame{
				EIP:    0x1000,
				CS:     UserCS,
				EFLAGS: FlagIF,
				ESP:    0x4000,
				SS:     UserDS,
			})

			v := m.CPU.SwitchTo(ctx, 0)
			trace = append(trace, fmt.Sprintf("boot got %d", v))

			v = m.CPU.SwitchTo(ctx, 3)
			trace = append(trace, fmt.Sprintf("boot got %d", v))

			close(done)

			m.CPU.Cli()
			for {
				m.CPU.Hlt()
			}
		})

		<-done

		require.Equal(t, []string{
			"user cpl=3 if=true esp=0x4000",
			"boot got 7",
			"user got 3",
			"boot got 9",
		}, trace)
	})

	n.It("treats a switch to the running context as a no-op", func(t *testing.T) {
		m := NewMachine()
		defer m.Shutdown()

		got := make(chan int32, 1)

		m.CPU.Boot(func() {
			got <- m.CPU.SwitchTo(m.CPU.Current(), 5)

			for {
				m.CPU.Hlt()
			}
		})

		require.Equal(t, int32(5), <-got)
	})

	n.It("delivers IRQs from hlt and reports idle", func(t *testing.T) {
		m := NewMachine()
		defer m.Shutdown()

		m.PIC.Init(0x20, 0x28)

		var ticks int

		m.CPU.SetGate(0x20, Gate{
			Present: true,
			Kind:    InterruptGate,
			Handler: func(r *Registers) {
				m.PIC.EOI(0)
				ticks++
			},
		})

		m.CPU.Boot(func() {
			m.PIC.Enable(0)
			m.CPU.Sti()

			for {
				m.CPU.Hlt()
			}
		})

		waitIdle(t, m.CPU)

		m.PIT.Tick()
		waitIdle(t, m.CPU)

		m.PIT.Tick()
		waitIdle(t, m.CPU)

		require.Equal(t, 2, ticks)
		require.Equal(t, 2, m.PIC.EOICount(0))
		require.True(t, m.CPU.IF())
	})

	n.It("clears IF inside interrupt gates but not trap gates", func(t *testing.T) {
		m := NewMachine()
		defer m.Shutdown()

		var inInt, inTrap bool

		m.CPU.SetGate(0x40, Gate{Present: true, Kind: InterruptGate, Handler: func(*Registers) {
			inInt = m.CPU.IF()
		}})
		m.CPU.SetGate(0x41, Gate{Present: true, Kind: TrapGate, Handler: func(*Registers) {
			inTrap = m.CPU.IF()
		}})

		m.CPU.Sti()
		m.CPU.Int(0x40, &Registers{})
		m.CPU.Int(0x41, &Registers{})

		require.False(t, inInt)
		require.True(t, inTrap)
		require.True(t, m.CPU.IF())
	})

	n.It("raises a general protection fault on a privileged gate", func(t *testing.T) {
		m := NewMachine()
		defer m.Shutdown()

		var faults []uint8
		var sys int

		m.CPU.SetGate(uint8(GPFException), Gate{Present: true, Handler: func(r *Registers) {
			faults = append(faults, r.Vector)
		}})
		m.CPU.SetGate(0x80, Gate{Present: true, DPL: 3, Kind: TrapGate, Handler: func(r *Registers) {
			sys++
			r.EAX = 99
		}})
		m.CPU.SetGate(0x81, Gate{Present: true, DPL: 0, Handler: func(r *Registers) {
			sys++
		}})

		m.CPU.cpl = 3

		regs := &Registers{EAX: 1}
		m.CPU.Int(0x80, regs)
		m.CPU.Int(0x81, &Registers{})

		require.Equal(t, 1, sys)
		require.Equal(t, uint32(99), regs.EAX)
		require.Equal(t, []uint8{uint8(GPFException)}, faults)
		require.Equal(t, uint8(3), m.CPU.CPL())
	})

	n.It("escalates a missing gate", func(t *testing.T) {
		m := NewMachine()
		defer m.Shutdown()

		var got []uint8

		m.CPU.SetGate(uint8(DoubleFault), Gate{Present: true, Handler: func(r *Registers) {
			got = append(got, r.Vector)
		}})

		m.CPU.Fault(DivideError, 0)

		require.Equal(t, []uint8{uint8(DoubleFault)}, got)

		m.CPU.SetGate(uint8(DoubleFault), Gate{})
		require.Panics(t, func() {
			m.CPU.Fault(DivideError, 0)
		})
	})

	n.It("raises a page fault for an untranslatable access", func(t *testing.T) {
		m := NewMachine()
		defer m.Shutdown()

		m.CPU.SetMMU(identityMMU{limit: 0x2000})

		var code uint32

		m.CPU.SetGate(uint8(PageFaultException), Gate{Present: true, Handler: func(r *Registers) {
			code = r.ErrorCode
		}})

		m.CPU.cpl = 3

		data := []byte("hello")
		require.NoError(t, m.CPU.WriteVirtual(data, 0x1FFB))

		buf := make([]byte, 5)
		require.NoError(t, m.CPU.ReadVirtual(buf, 0x1FFB))
		require.Equal(t, data, buf)

		err := m.CPU.WriteVirtual(data, 0x1FFC)
		require.Error(t, err)
		require.Equal(t, uint32(0x2000), m.CPU.CR2)
		require.Equal(t, uint32(6), code)
	})

	n.It("unblocks WaitIdle on shutdown", func(t *testing.T) {
		m := NewMachine()

		m.Shutdown()

		err := m.CPU.WaitIdle(context.Background())
		require.Equal(t, ErrShutdown, err)
	})

	n.Meow()
}

func TestDevices(t *testing.T) {
	n := neko.Modern(t)

	n.It("derives a 20ms period from the divisor", func(t *testing.T) {
		m := NewMachine()

		m.PIT.Command(0x36)
		m.PIT.Data(23862 & 0xFF)
		m.PIT.Data(23862 >> 8)

		require.InDelta(t, float64(20*time.Millisecond), float64(m.PIT.Period()), float64(time.Millisecond/10))
		require.Equal(t, uint8(0x36), m.PIT.Mode())
	})

	n.It("latches one RTC interrupt until register C is read", func(t *testing.T) {
		m := NewMachine()
		m.PIC.Init(0x20, 0x28)

		m.RTC.Fire()
		require.False(t, m.PIC.Pending(8), "periodic interrupts disabled")

		m.RTC.EnablePeriodic()
		m.RTC.Fire()
		m.RTC.Fire()

		require.True(t, m.PIC.Pending(8))
		require.Equal(t, uint64(1), m.RTC.Fired())

		require.Equal(t, uint8(RegCPeriodic), m.RTC.ReadC())
		require.Equal(t, uint8(0), m.RTC.ReadC())

		m.RTC.Fire()
		require.Equal(t, uint64(2), m.RTC.Fired())
	})

	n.It("computes the RTC frequency from the rate nibble", func(t *testing.T) {
		m := NewMachine()

		m.RTC.SetRate(0x0F)
		require.Equal(t, 2, m.RTC.Frequency())

		m.RTC.SetRate(0x06)
		require.Equal(t, 1024, m.RTC.Frequency())
	})

	n.It("keeps IRQ1 raised while scancodes remain", func(t *testing.T) {
		m := NewMachine()
		m.PIC.Init(0x20, 0x28)

		m.Keyboard.Push(0x1E, 0x9E)
		require.True(t, m.PIC.Pending(1))

		m.PIC.Enable(1)
		_, ok := m.PIC.ack()
		require.True(t, ok)
		require.False(t, m.PIC.Pending(1))

		require.Equal(t, byte(0x1E), m.Keyboard.Read())
		require.True(t, m.PIC.Pending(1))

		m.PIC.EOI(1)
		_, ok = m.PIC.ack()
		require.True(t, ok)

		require.Equal(t, byte(0x9E), m.Keyboard.Read())
		require.False(t, m.PIC.Pending(1))
		require.Equal(t, 0, m.Keyboard.Buffered())
	})

	n.Meow()
}
