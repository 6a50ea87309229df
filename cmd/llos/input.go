package main

import (
	"bufio"
	"context"
	"io"

	"github.com/jonjonleee/Linux-like-OS/device/tty"
	"github.com/jonjonleee/Linux-like-OS/hw"
)

// scancodes translates one byte of host input. ESC followed by 1, 2 or 3
// selects a terminal the way alt+F1..F3 does.
func scancodes(r *bufio.Reader, c byte) []byte {
	switch c {
	case 0x03:
		return tty.Ctrl('c')
	case 0x0C:
		return tty.Ctrl('l')
	case 0x7F, 0x08:
		return tty.Scancodes("\b")
	case '\r':
		return tty.Scancodes("\n")
	case 0x1B:
		next, err := r.ReadByte()
		if err != nil {
			return nil
		}

		if next >= '1' && next <= '3' {
			return tty.AltF(int(next - '1'))
		}

		r.UnreadByte()
		return nil
	default:
		return tty.Scancodes(string([]byte{c}))
	}
}

// feed types host input on the keyboard until EOF.
func feed(ctx context.Context, in io.Reader, kbd *hw.Keyboard) error {
	r := bufio.NewReader(in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		c, err := r.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		kbd.Push(scancodes(r, c)...)
	}
}
