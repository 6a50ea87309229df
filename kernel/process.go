package kernel

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/hw"
	"github.com/jonjonleee/Linux-like-OS/log"
)

var (
	ErrUnknownFile   = errors.New("unknown file")
	ErrNoFreeSlot    = errors.New("no free process slot")
	ErrNoFreeFD      = errors.New("no free file descriptor")
	ErrBadFD         = errors.New("bad file descriptor")
	ErrBadAddress    = errors.New("address outside user window")
	ErrNoArgs        = errors.New("no arguments")
	ErrArgsTooLong   = errors.New("arguments do not fit buffer")
	ErrNotExecutable = errors.New("not an executable")
	ErrBadCommand    = errors.New("bad command")
	ErrSlotBusy      = errors.New("process slot in use")
)

// NoParent marks a root shell.
const NoParent = -1

type prockey struct{}

func GetTask(ctx context.Context) (*Task, bool) {
	if v := ctx.Value(prockey{}); v != nil {
		return v.(*Task), true
	}

	return nil, false
}

func SetTask(ctx context.Context, t *Task) context.Context {
	return context.WithValue(ctx, prockey{}, t)
}

// Task is the process a system call runs on behalf of.
type Task struct {
	*Process
}

// Process is a process control block.
type Process struct {
	Kernel *Kernel

	Pid       int
	ParentPid int
	Terminal  int

	// Program is where a timeslice switch left the process. Parent is the
	// caller of execute, resumed by halt.
	Program *hw.Context
	Parent  *hw.Context

	SS0  uint16
	ESP0 uint32

	Files [abi.MaxFiles]File

	// Command is the full command line the process was started with.
	Command   string
	VidMapped bool
}

// Root reports whether halting p relaunches a shell instead of returning.
func (p *Process) Root() bool {
	return p.ParentPid == NoParent
}

// ReadAt reads from user memory. The range must lie inside the user window.
func (p *Process) ReadAt(b []byte, off int64) (int, error) {
	if err := checkUser(off, len(b)); err != nil {
		return 0, err
	}

	return p.Kernel.Mem.ReadAt(b, off)
}

// WriteAt writes to user memory. The range must lie inside the user window.
func (p *Process) WriteAt(b []byte, off int64) (int, error) {
	if err := checkUser(off, len(b)); err != nil {
		return 0, err
	}

	return p.Kernel.Mem.WriteAt(b, off)
}

// CheckRange fails unless n bytes at addr are user memory.
func (p *Process) CheckRange(addr int32, n int) error {
	return checkUser(int64(uint32(addr)), n)
}

func checkUser(off int64, n int) error {
	if off < abi.UserWindow || off+int64(n) > abi.UserWindowEnd {
		return errors.Wrapf(ErrBadAddress, "addr=%#x len=%d", off, n)
	}

	return nil
}

func (p *Process) ReadCString(ptr int32, max int) ([]byte, error) {
	var buf bytes.Buffer

	var t [1]byte

	off := int64(uint32(ptr))

	for buf.Len() <= max {
		_, err := p.ReadAt(t[:], off)
		if err != nil {
			return nil, err
		}

		if t[0] == 0 {
			return buf.Bytes(), nil
		}

		buf.WriteByte(t[0])
		off += 1
	}

	return nil, errors.Wrapf(ErrBadCommand, "string at %#x longer than %d", ptr, max)
}

type writeAdapter struct {
	sub    io.WriterAt
	offset int64
}

func (wa writeAdapter) Write(b []byte) (int, error) {
	return wa.sub.WriteAt(b, wa.offset)
}

func (p *Process) CopyOut(addr int32, val interface{}) error {
	return binary.Write(writeAdapter{sub: p, offset: int64(uint32(addr))}, binary.LittleEndian, val)
}

type readAdapter struct {
	sub    io.ReaderAt
	offset int64
}

func (ra readAdapter) Read(b []byte) (int, error) {
	return ra.sub.ReadAt(b, ra.offset)
}

func (p *Process) CopyIn(addr int32, val interface{}) error {
	return binary.Read(readAdapter{sub: p, offset: int64(uint32(addr))}, binary.LittleEndian, val)
}

// GetFile returns the open descriptor fd.
func (p *Process) GetFile(fd int) (*File, bool) {
	if fd < 0 || fd >= abi.MaxFiles {
		return nil, false
	}

	f := &p.Files[fd]
	if !f.Open {
		return nil, false
	}

	return f, true
}

// Addr is the physical address of the PCB. The kernel stack grows down
// from the top of the same 8KB block.
func (p *Process) Addr() uint32 {
	return abi.PCBAddr(p.Pid)
}

// ProcessTable is the fixed set of PCB slots. Pids are slot indices. The
// first NumTerminals slots belong to the root shells, pid t on terminal t.
type ProcessTable struct {
	used [abi.MaxProcs]bool
	pcbs [abi.MaxProcs]Process
}

func (pt *ProcessTable) claim(pid int) *Process {
	pt.used[pid] = true
	pt.pcbs[pid] = Process{Pid: pid, ParentPid: NoParent}

	log.L.Trace("pcb-alloc", "pid", pid, "addr", abi.PCBAddr(pid))

	return &pt.pcbs[pid]
}

// Allocate claims the lowest free slot above the root shell slots and
// returns it zeroed.
func (pt *ProcessTable) Allocate() (*Process, error) {
	for pid := abi.NumTerminals; pid < abi.MaxProcs; pid++ {
		if !pt.used[pid] {
			return pt.claim(pid), nil
		}
	}

	return nil, ErrNoFreeSlot
}

// AllocateRoot claims the root shell slot for terminal t.
func (pt *ProcessTable) AllocateRoot(t int) (*Process, error) {
	if t < 0 || t >= abi.NumTerminals {
		return nil, errors.Errorf("kernel: no root slot for terminal %d", t)
	}

	if pt.used[t] {
		return nil, errors.Wrapf(ErrSlotBusy, "root slot %d", t)
	}

	return pt.claim(t), nil
}

func (pt *ProcessTable) Free(pid int) {
	pt.used[pid] = false
}

// Get returns the PCB for an allocated pid.
func (pt *ProcessTable) Get(pid int) *Process {
	if pid < 0 || pid >= abi.MaxProcs || !pt.used[pid] {
		panic(errors.Errorf("kernel: pid %d not allocated", pid))
	}

	return &pt.pcbs[pid]
}

func (pt *ProcessTable) InUse(pid int) bool {
	return pid >= 0 && pid < abi.MaxProcs && pt.used[pid]
}

// Count is the number of allocated slots.
func (pt *ProcessTable) Count() int {
	var n int

	for _, u := range pt.used {
		if u {
			n++
		}
	}

	return n
}
