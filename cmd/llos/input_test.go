package main

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"

	"github.com/jonjonleee/Linux-like-OS/device/tty"
	"github.com/jonjonleee/Linux-like-OS/hw"
)

func TestInput(t *testing.T) {
	n := neko.Modern(t)

	n.It("maps control bytes to key chords", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader(""))

		require.Equal(t, tty.Ctrl('c'), scancodes(r, 0x03))
		require.Equal(t, tty.Ctrl('l'), scancodes(r, 0x0C))
		require.Equal(t, tty.Scancodes("\b"), scancodes(r, 0x7F))
		require.Equal(t, tty.Scancodes("\n"), scancodes(r, '\r'))
		require.Equal(t, tty.Scancodes("q"), scancodes(r, 'q'))
	})

	n.It("switches terminals on escape digits", func(t *testing.T) {
		r := bufio.NewReader(strings.NewReader("2x"))

		require.Equal(t, tty.AltF(1), scancodes(r, 0x1B))

		r = bufio.NewReader(strings.NewReader("x"))
		require.Nil(t, scancodes(r, 0x1B))

		c, err := r.ReadByte()
		require.NoError(t, err)
		require.Equal(t, byte('x'), c)
	})

	n.It("pushes input onto the keyboard until EOF", func(t *testing.T) {
		m := hw.NewMachine()
		kbd := m.Keyboard

		err := feed(context.Background(), strings.NewReader("ls\r"), kbd)
		require.NoError(t, err)

		require.Equal(t, len(tty.Scancodes("ls\n")), kbd.Buffered())
	})

	n.Meow()
}
