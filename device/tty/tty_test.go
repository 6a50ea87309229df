package tty

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

func decode(d *Decoder, codes []byte) []Key {
	var keys []Key

	for _, sc := range codes {
		if k, ok := d.Feed(sc); ok {
			keys = append(keys, k)
		}
	}

	return keys
}

func text(keys []Key) string {
	var sb strings.Builder

	for _, k := range keys {
		sb.WriteByte(k.Char)
	}

	return sb.String()
}

func TestDecoder(t *testing.T) {
	n := neko.Modern(t)

	n.It("round trips printable text", func(t *testing.T) {
		var d Decoder

		in := "Hello, World! cat frame0.txt\n"
		require.Equal(t, in, text(decode(&d, Scancodes(in))))
	})

	n.It("combines caps lock with shift for letters only", func(t *testing.T) {
		var d Decoder

		keys := decode(&d, []byte{ScanCaps, 0x1E, 0x02, ScanLShift, 0x1E, 0x02, ScanLShift | Release})
		require.Equal(t, "A1a!", text(keys))
	})

	n.It("reports modifiers with the key", func(t *testing.T) {
		var d Decoder

		keys := decode(&d, Ctrl('c'))
		require.Len(t, keys, 1)
		require.True(t, keys[0].Ctrl)
		require.Equal(t, byte('c'), keys[0].Char)

		keys = decode(&d, AltF(2))
		require.Len(t, keys, 1)
		require.True(t, keys[0].Alt)
		require.Equal(t, 3, keys[0].Fn)

		keys = decode(&d, []byte{0x1E})
		require.False(t, keys[0].Ctrl)
		require.False(t, keys[0].Alt)
	})

	n.It("decodes backspace", func(t *testing.T) {
		var d Decoder

		keys := decode(&d, Scancodes("\b"))
		require.Len(t, keys, 1)
		require.True(t, keys[0].Backspace)
	})

	n.Meow()
}

func TestLineBuffer(t *testing.T) {
	n := neko.Modern(t)

	n.It("keeps the last byte for the newline", func(t *testing.T) {
		var l LineBuffer

		for i := 0; i < LineSize; i++ {
			l.Add('x')
		}

		require.Equal(t, LineSize-1, l.Len())
		require.True(t, l.Enter())
		require.True(t, l.Ready())

		line := l.Take(1024)
		require.Len(t, line, LineSize)
		require.Equal(t, byte('\n'), line[LineSize-1])
		require.False(t, l.Ready())
		require.Equal(t, 0, l.Len())
	})

	n.It("caps a take at the reader's size", func(t *testing.T) {
		var l LineBuffer

		for _, c := range []byte("hello") {
			l.Add(c)
		}
		l.Enter()

		require.Equal(t, "hel", string(l.Take(3)))
		require.Equal(t, 0, l.Len())
	})

	n.It("erases from the end", func(t *testing.T) {
		var l LineBuffer

		l.Add('a')
		l.Add('\t')

		c, ok := l.Backspace()
		require.True(t, ok)
		require.Equal(t, byte('\t'), c)

		l.Backspace()
		_, ok = l.Backspace()
		require.False(t, ok)
	})

	n.Meow()
}
