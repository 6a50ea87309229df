package tty

// LineSize is the capacity of a line buffer. The last byte is kept for the
// newline.
const LineSize = 128

// TabWidth is how many cells a tab occupies on screen.
const TabWidth = 4

// LineBuffer accumulates keyboard input until Enter.
type LineBuffer struct {
	buf   [LineSize]byte
	n     int
	ready bool
}

// Add appends a character, leaving room for the newline.
func (l *LineBuffer) Add(c byte) bool {
	if l.n >= LineSize-1 {
		return false
	}

	l.buf[l.n] = c
	l.n++
	return true
}

// Enter terminates the line and marks it ready.
func (l *LineBuffer) Enter() bool {
	if l.n >= LineSize {
		return false
	}

	l.buf[l.n] = '\n'
	l.n++
	l.ready = true
	return true
}

// Backspace removes the last character and returns it.
func (l *LineBuffer) Backspace() (byte, bool) {
	if l.n == 0 {
		return 0, false
	}

	l.n--
	c := l.buf[l.n]
	l.buf[l.n] = 0

	return c, true
}

func (l *LineBuffer) Ready() bool {
	return l.ready
}

func (l *LineBuffer) Len() int {
	return l.n
}

// Take returns the line up to and including the first newline, capped at
// max bytes, and empties the buffer.
func (l *LineBuffer) Take(max int) []byte {
	end := l.n
	for i := 0; i < l.n; i++ {
		if l.buf[i] == '\n' {
			end = i + 1
			break
		}
	}

	if end > max {
		end = max
	}

	out := make([]byte, end)
	copy(out, l.buf[:end])

	l.Clear()

	return out
}

func (l *LineBuffer) Clear() {
	l.buf = [LineSize]byte{}
	l.n = 0
	l.ready = false
}
