// Package memory owns the page directory: the kernel page, the low table
// holding the video page, the user window, and the user video mapping.
package memory

import (
	"encoding/binary"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/hw"
	"github.com/jonjonleee/Linux-like-OS/log"
)

// Where the paging structures live inside the kernel page.
const (
	DirectoryAddr  = 0x00402000
	LowTableAddr   = 0x00403000
	VideoTableAddr = 0x00404000
)

var (
	ErrPageFault      = errors.New("page fault")
	ErrBadUserPointer = errors.New("pointer outside user window")
)

type tlbEntry struct {
	frame uint32
	user  bool
	rw    bool
}

// AddressSpace is the single page directory of the machine.
type AddressSpace struct {
	Directory PageTable
	Low       PageTable
	Video     PageTable

	phys *hw.PhysMem

	tables  map[uint32]*PageTable
	tlb     map[uint32]tlbEntry
	flushes int
	bound   int
}

func NewAddressSpace(phys *hw.PhysMem) *AddressSpace {
	as := &AddressSpace{
		phys:  phys,
		tlb:   make(map[uint32]tlbEntry),
		bound: -1,
	}

	as.tables = map[uint32]*PageTable{
		LowTableAddr:   &as.Low,
		VideoTableAddr: &as.Video,
	}

	return as
}

// Init builds the boot mappings: slot 0 through the low table with only the
// video pages present, slot 1 as the 4MB kernel page, everything else absent.
func (as *AddressSpace) Init() {
	as.Directory = PageTable{}
	as.Low = PageTable{}
	as.Video = PageTable{}

	dir0 := &as.Directory[0]
	dir0.SetFrame(LowTableAddr)
	dir0.SetFlags(FlagPresent | FlagRW)

	video := &as.Low[abi.VideoPage>>12]
	video.SetFrame(abi.VideoPage)
	video.SetFlags(FlagPresent | FlagRW)

	for t := 0; t < abi.NumTerminals; t++ {
		page := abi.TerminalBacking(t)

		e := &as.Low[page>>12]
		e.SetFrame(page)
		e.SetFlags(FlagPresent | FlagRW)
	}

	kernel := &as.Directory[abi.KernelBase/abi.LargePage]
	kernel.SetFrame(abi.KernelBase)
	kernel.SetFlags(FlagPresent | FlagRW | FlagHugePage | FlagGlobal)

	as.bound = -1
	as.Flush()
}

// BindProcess points the user window at pid's program frame and flushes
// the TLB.
func (as *AddressSpace) BindProcess(pid int) {
	e := &as.Directory[abi.UserWindowSlot]

	*e = 0
	e.SetFrame(abi.UserFrame(pid))
	e.SetFlags(FlagPresent | FlagRW | FlagUserAccessible | FlagHugePage)

	as.bound = pid
	as.Flush()

	log.L.Trace("bind-process", "pid", pid, "frame", hclog.Hex(e.Frame()))
}

// Bound is the pid whose frame sits in the user window, or -1.
func (as *AddressSpace) Bound() int {
	return as.bound
}

// UserFrame is the physical frame mapped at the user window.
func (as *AddressSpace) UserFrame() (uint32, bool) {
	e := as.Directory[abi.UserWindowSlot]
	if !e.HasFlags(FlagPresent) {
		return 0, false
	}

	return e.Frame(), true
}

// BindTerminalVideo points the user video page at the live buffer when the
// terminal is displayed, or at its off-screen page otherwise.
func (as *AddressSpace) BindTerminalVideo(terminal int, foreground bool) {
	page := uint32(abi.VideoPage)
	if !foreground {
		page = abi.TerminalBacking(terminal)
	}

	e := &as.Video[0]

	*e = 0
	e.SetFrame(page)
	e.SetFlags(FlagPresent | FlagRW | FlagUserAccessible)

	as.Flush()
}

// SetUserVideo toggles the user video directory slot.
func (as *AddressSpace) SetUserVideo(enabled bool) {
	e := &as.Directory[abi.UserVideoSlot]

	if enabled {
		*e = 0
		e.SetFrame(VideoTableAddr)
		e.SetFlags(FlagPresent | FlagRW | FlagUserAccessible)
	} else {
		*e = 0
	}

	as.Flush()
}

// MapUserVideo validates ptr, maps the video page into user space and
// returns the user address of the mapping.
func (as *AddressSpace) MapUserVideo(ptr uint32) (uint32, error) {
	if ptr < abi.UserWindow || ptr >= abi.UserStack {
		return 0, errors.Wrapf(ErrBadUserPointer, "ptr=%#x", ptr)
	}

	e := &as.Video[0]

	*e = 0
	e.SetFrame(abi.VideoPage)
	e.SetFlags(FlagPresent | FlagRW | FlagUserAccessible)

	as.SetUserVideo(true)

	return abi.UserVideo, nil
}

// Flush drops every cached translation.
func (as *AddressSpace) Flush() {
	as.tlb = make(map[uint32]tlbEntry)
	as.flushes++
}

// Flushes counts TLB flushes.
func (as *AddressSpace) Flushes() int {
	return as.flushes
}

func fault(vaddr uint32, user, write bool, why string) error {
	return errors.Wrapf(ErrPageFault, "%s: vaddr=%#x user=%v write=%v", why, vaddr, user, write)
}

// Translate walks the directory. Translations are cached until Flush, the
// same as a hardware TLB.
func (as *AddressSpace) Translate(vaddr uint32, user, write bool) (uint32, error) {
	vpn := vaddr >> 12

	te, ok := as.tlb[vpn]
	if !ok {
		var err error

		te, err = as.walk(vaddr)
		if err != nil {
			return 0, fault(vaddr, user, write, err.Error())
		}

		as.tlb[vpn] = te
	}

	if user && !te.user {
		return 0, fault(vaddr, user, write, "supervisor page")
	}

	if user && write && !te.rw {
		return 0, fault(vaddr, user, write, "read-only page")
	}

	return te.frame | vaddr&0xFFF, nil
}

func (as *AddressSpace) walk(vaddr uint32) (tlbEntry, error) {
	de := as.Directory[vaddr>>22]
	if !de.HasFlags(FlagPresent) {
		return tlbEntry{}, errors.New("directory entry not present")
	}

	if de.HasFlags(FlagHugePage) {
		return tlbEntry{
			frame: de.Frame()&0xFFC00000 | vaddr&0x003FF000,
			user:  de.HasFlags(FlagUserAccessible),
			rw:    de.HasFlags(FlagRW),
		}, nil
	}

	table, ok := as.tables[de.Frame()]
	if !ok {
		return tlbEntry{}, errors.Errorf("no page table at %#x", de.Frame())
	}

	pte := table[(vaddr>>12)&0x3FF]
	if !pte.HasFlags(FlagPresent) {
		return tlbEntry{}, errors.New("page table entry not present")
	}

	return tlbEntry{
		frame: pte.Frame(),
		user:  de.HasFlags(FlagUserAccessible) && pte.HasFlags(FlagUserAccessible),
		rw:    de.HasFlags(FlagRW) && pte.HasFlags(FlagRW),
	}, nil
}

// Project returns a copy of size bytes at vaddr as the kernel sees them.
func (as *AddressSpace) Project(vaddr, size uint32) ([]byte, error) {
	buf := make([]byte, size)

	_, err := as.ReadAt(buf, int64(vaddr))
	if err != nil {
		return nil, err
	}

	return buf, nil
}

// ReadAt reads virtual memory with supervisor privilege.
func (as *AddressSpace) ReadAt(p []byte, off int64) (int, error) {
	return as.rw(p, off, false)
}

// WriteAt writes virtual memory with supervisor privilege.
func (as *AddressSpace) WriteAt(p []byte, off int64) (int, error) {
	return as.rw(p, off, true)
}

func (as *AddressSpace) rw(p []byte, off int64, write bool) (int, error) {
	vaddr := uint32(off)

	for done := 0; done < len(p); {
		va := vaddr + uint32(done)

		pa, err := as.Translate(va, false, write)
		if err != nil {
			return done, err
		}

		n := abi.PageSize - int(pa%abi.PageSize)
		if n > len(p)-done {
			n = len(p) - done
		}

		if write {
			_, err = as.phys.WriteAt(p[done:done+n], int64(pa))
		} else {
			_, err = as.phys.ReadAt(p[done:done+n], int64(pa))
		}
		if err != nil {
			return done, err
		}

		done += n
	}

	return len(p), nil
}

// PutUint32 stores a little-endian word at vaddr.
func (as *AddressSpace) PutUint32(vaddr, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)

	_, err := as.WriteAt(buf[:], int64(vaddr))
	return err
}
