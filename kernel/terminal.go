package kernel

import (
	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/device/tty"
	"github.com/jonjonleee/Linux-like-OS/device/vga"
)

const interruptNotice = "\nInterrupt!!! Program interrupted by user"

// Terminal is one of the virtual consoles.
type Terminal struct {
	ID int

	// Pid is the innermost process running on the terminal, -1 until the
	// terminal is first scheduled.
	Pid int
	On  bool

	Screen *vga.Screen
	Line   tty.LineBuffer

	// interrupted holds a ctrl+C typed while the terminal's process was off
	// the CPU.
	interrupted bool
}

func (k *Kernel) newTerminal(id int) *Terminal {
	return &Terminal{
		ID:  id,
		Pid: -1,
		Screen: vga.New(k.M.Mem, func() uint32 {
			if k.foreground == id {
				return abi.VideoPage
			}

			return abi.TerminalBacking(id)
		}),
	}
}

// Interrupted reports a pending ctrl+C.
func (t *Terminal) Interrupted() bool {
	return t.interrupted
}

// openTerminal makes id the displayed terminal, swapping video contents
// through the backing pages.
func (k *Kernel) openTerminal(id int) {
	if id < 0 || id >= abi.NumTerminals || id == k.foreground {
		return
	}

	old := k.foreground

	k.M.Mem.CopyPage(abi.TerminalBacking(old), abi.VideoPage)
	k.foreground = id
	k.M.Mem.CopyPage(abi.VideoPage, abi.TerminalBacking(id))

	k.terms[old].Screen.Mirror = nil
	k.terms[id].Screen.Mirror = k.console

	if p := k.Running(); p != nil {
		k.Mem.BindTerminalVideo(p.Terminal, p.Terminal == k.foreground)
	}

	k.L.Debug("switch-terminal", "from", old, "to", id)
}

// keyboard is the IRQ1 body.
func (k *Kernel) keyboard() {
	sc := k.M.Keyboard.Read()

	key, ok := k.decoder.Feed(sc)
	if !ok {
		return
	}

	t := k.terms[k.foreground]

	switch {
	case key.Alt && key.Fn >= 1 && key.Fn <= abi.NumTerminals:
		k.openTerminal(key.Fn - 1)

	case key.Fn != 0:

	case key.Backspace:
		c, ok := t.Line.Backspace()
		if !ok {
			return
		}

		cells := 1
		if c == '\t' {
			cells = tty.TabWidth
		}

		for i := 0; i < cells; i++ {
			t.Screen.Backspace()
		}

	case key.Ctrl && (key.Char == 'l' || key.Char == 'L'):
		t.Screen.Clear()

	case key.Ctrl && (key.Char == 'c' || key.Char == 'C'):
		k.interrupt(t)

	case key.Ctrl || key.Alt:

	case key.Char == '\n':
		if t.Line.Enter() {
			t.Screen.Putc('\n')
		}

	case key.Char != 0:
		if !t.Line.Add(key.Char) {
			return
		}

		if key.Char == '\t' {
			for i := 0; i < tty.TabWidth; i++ {
				t.Screen.Putc(' ')
			}
		} else {
			t.Screen.Putc(key.Char)
		}
	}
}

// interrupt handles ctrl+C on the displayed terminal. A process already on
// the CPU halts now, otherwise the request waits for its next timeslice.
func (k *Kernel) interrupt(t *Terminal) {
	if t.Pid < 0 {
		return
	}

	if t.Pid == k.running {
		k.Halt(HaltInterrupted, 0)
		return
	}

	t.interrupted = true
}

// checkInterrupt halts the running process if its terminal has a pending
// ctrl+C.
func (k *Kernel) checkInterrupt() {
	p := k.Running()
	if p == nil {
		return
	}

	t := k.terms[p.Terminal]
	if !t.interrupted || t.Pid != p.Pid {
		return
	}

	t.interrupted = false

	k.Halt(HaltInterrupted, 0)
}

// terminalRead waits for a completed line on p's terminal.
func (k *Kernel) terminalRead(p *Process, buf []byte) int {
	t := k.terms[p.Terminal]

	for !t.Line.Ready() {
		k.cpu.Hlt()
	}

	return copy(buf, t.Line.Take(len(buf)))
}
