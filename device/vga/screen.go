// Package vga renders an 80x25 text screen into a page of video memory.
package vga

import (
	"io"
	"strings"
)

const (
	Cols = 80
	Rows = 25

	// Attr is light grey on black.
	Attr = 0x07

	cellSize = 2
)

// Memory is the physical memory the screen draws into.
type Memory interface {
	io.ReaderAt
	io.WriterAt
}

// Screen is one text console. Page reports where its cells currently live,
// which moves between the live buffer and an off-screen page.
type Screen struct {
	X, Y int

	Page   func() uint32
	Mirror io.Writer

	mem Memory
}

func New(mem Memory, page func() uint32) *Screen {
	return &Screen{mem: mem, Page: page}
}

func (s *Screen) cell(x, y int) int64 {
	return int64(s.Page()) + int64((y*Cols+x)*cellSize)
}

func (s *Screen) put(x, y int, c byte) {
	s.mem.WriteAt([]byte{c, Attr}, s.cell(x, y))
}

func (s *Screen) scroll() {
	page := make([]byte, Rows*Cols*cellSize)
	s.mem.ReadAt(page, int64(s.Page()))

	row := Cols * cellSize
	copy(page, page[row:])

	last := page[(Rows-1)*row:]
	for i := 0; i < len(last); i += cellSize {
		last[i] = ' '
		last[i+1] = Attr
	}

	s.mem.WriteAt(page, int64(s.Page()))
}

func (s *Screen) newline() {
	s.X = 0
	s.Y++

	if s.Y >= Rows {
		s.scroll()
		s.Y = Rows - 1
	}
}

// Putc draws one character and advances the cursor, wrapping and scrolling.
func (s *Screen) Putc(c byte) {
	switch c {
	case '\n', '\r':
		s.newline()
	case 0:
	default:
		s.put(s.X, s.Y, c)
		s.X++

		if s.X >= Cols {
			s.newline()
		}
	}

	if s.Mirror != nil {
		if c == '\n' {
			s.Mirror.Write([]byte("\r\n"))
		} else if c != 0 {
			s.Mirror.Write([]byte{c})
		}
	}
}

func (s *Screen) Write(p []byte) (int, error) {
	for _, c := range p {
		s.Putc(c)
	}

	return len(p), nil
}

// Backspace erases the cell before the cursor, moving up a line at column 0.
func (s *Screen) Backspace() {
	switch {
	case s.X > 0:
		s.X--
	case s.Y > 0:
		s.Y--
		s.X = Cols - 1
	default:
		return
	}

	s.put(s.X, s.Y, ' ')

	if s.Mirror != nil {
		s.Mirror.Write([]byte("\b \b"))
	}
}

// Clear blanks the screen and homes the cursor.
func (s *Screen) Clear() {
	page := make([]byte, Rows*Cols*cellSize)
	for i := 0; i < len(page); i += cellSize {
		page[i] = ' '
		page[i+1] = Attr
	}

	s.mem.WriteAt(page, int64(s.Page()))
	s.X, s.Y = 0, 0

	if s.Mirror != nil {
		s.Mirror.Write([]byte("\x1b[2J\x1b[H"))
	}
}

// Lines returns the screen contents with trailing blanks trimmed.
func (s *Screen) Lines() []string {
	page := make([]byte, Rows*Cols*cellSize)
	s.mem.ReadAt(page, int64(s.Page()))

	return Render(page)
}

// Text is the screen as newline-joined lines without trailing empty rows.
func (s *Screen) Text() string {
	lines := s.Lines()

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}

// Render decodes a page of cells into rows.
func Render(page []byte) []string {
	lines := make([]string, Rows)

	for y := 0; y < Rows; y++ {
		row := make([]byte, Cols)

		for x := 0; x < Cols; x++ {
			c := page[(y*Cols+x)*cellSize]
			if c == 0 {
				c = ' '
			}

			row[x] = c
		}

		lines[y] = strings.TrimRight(string(row), " ")
	}

	return lines
}
