package kernel_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/device/tty"
	"github.com/jonjonleee/Linux-like-OS/hw"
	"github.com/jonjonleee/Linux-like-OS/kernel"
	"github.com/jonjonleee/Linux-like-OS/syscalls"
	"github.com/jonjonleee/Linux-like-OS/user"
)

// extra is a program added to the default image for one test.
type extra struct {
	name string
	data []byte
	main func(p *user.Proc)
}

type rig struct {
	m *hw.Machine
	k *kernel.Kernel
}

func extraEntry(i int) uint32 {
	return abi.LoadAddress + 0x2000 + uint32(i)*0x40
}

func boot(t *testing.T, extras ...extra) *rig {
	return bootConfig(t, kernel.Config{}, extras...)
}

func bootConfig(t *testing.T, cfg kernel.Config, extras ...extra) *rig {
	m := hw.NewMachine()
	t.Cleanup(m.Shutdown)

	user.Install(m.Text)

	b, err := user.NewBuilder()
	require.NoError(t, err)

	for i, e := range extras {
		main := e.main
		entry := extraEntry(i)

		data := e.data
		if data == nil {
			data = user.Executable(e.name, entry)

			m.Text.Register(entry, func(c *hw.CPU, frame hw.IretFrame) {
				p := user.New(c)
				main(p)
				p.Halt(0)
			})
		}

		require.NoError(t, b.AddFile(e.name, data))
	}

	img, err := b.Image()
	require.NoError(t, err)

	k, err := kernel.NewKernel(m, img, cfg)
	require.NoError(t, err)

	syscalls.Install(k)

	k.Boot()

	r := &rig{m: m, k: k}
	r.idle(t)

	return r
}

func (r *rig) idle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, r.m.CPU.WaitIdle(ctx))
}

func (r *rig) tick(t *testing.T, n int) {
	for i := 0; i < n; i++ {
		r.m.PIT.Tick()
		r.idle(t)
	}
}

// shells brings up all three terminals and leaves terminal 0's shell on
// the CPU.
func (r *rig) shells(t *testing.T) {
	r.tick(t, 2*abi.NumTerminals)
	require.Equal(t, 0, r.k.Running().Pid)
}

func (r *rig) press(t *testing.T, codes []byte) {
	r.m.Keyboard.Push(codes...)
	r.idle(t)
}

func (r *rig) typeLine(t *testing.T, s string) {
	r.press(t, tty.Scancodes(s+"\n"))
}

// rtc fires the periodic interrupt n times.
func (r *rig) rtc(t *testing.T, n int) {
	for i := 0; i < n; i++ {
		r.m.RTC.Fire()
		r.idle(t)
	}
}

func (r *rig) screen(t int) string {
	return r.k.Terminal(t).Screen.Text()
}

func (r *rig) lastLine(t int) string {
	lines := strings.Split(r.screen(t), "\n")
	return lines[len(lines)-1]
}
