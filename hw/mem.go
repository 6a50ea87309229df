package hw

import (
	"sync"

	"github.com/pkg/errors"
)

const (
	PageSize = 4096

	// MemorySize covers the kernel page plus six 4MB program frames.
	MemorySize = 32 << 20
)

var ErrBusError = errors.New("physical address out of range")

// PhysMem is sparse physical memory. Frames are allocated on first touch.
type PhysMem struct {
	mu     sync.Mutex
	frames map[uint32]*[PageSize]byte
}

func NewPhysMem() *PhysMem {
	return &PhysMem{
		frames: make(map[uint32]*[PageSize]byte),
	}
}

func (m *PhysMem) frame(addr uint32) *[PageSize]byte {
	base := addr &^ (PageSize - 1)

	f, ok := m.frames[base]
	if !ok {
		f = new([PageSize]byte)
		m.frames[base] = f
	}

	return f
}

func (m *PhysMem) rw(p []byte, off int64, write bool) (int, error) {
	if off < 0 || off+int64(len(p)) > MemorySize {
		return 0, errors.Wrapf(ErrBusError, "addr=%#x len=%d", off, len(p))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	addr := uint32(off)

	for done := 0; done < len(p); {
		f := m.frame(addr)
		start := int(addr % PageSize)

		var n int
		if write {
			n = copy(f[start:], p[done:])
		} else {
			n = copy(p[done:], f[start:])
		}

		done += n
		addr += uint32(n)
	}

	return len(p), nil
}

func (m *PhysMem) ReadAt(p []byte, off int64) (int, error) {
	return m.rw(p, off, false)
}

func (m *PhysMem) WriteAt(p []byte, off int64) (int, error) {
	return m.rw(p, off, true)
}

// Page returns a copy of the 4KB frame holding addr.
func (m *PhysMem) Page(addr uint32) []byte {
	buf := make([]byte, PageSize)
	m.ReadAt(buf, int64(addr&^(PageSize-1)))
	return buf
}

// CopyPage copies the frame at src over the frame at dst.
func (m *PhysMem) CopyPage(dst, src uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	*m.frame(dst) = *m.frame(src)
}
