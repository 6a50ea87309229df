// Package user holds the programs that run at privilege level 3 and the
// trap stubs they use to reach the kernel.
package user

import (
	"fmt"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/hw"
)

// HeapBase is where Alloc starts handing out memory, past any image.
const HeapBase = 0x08300000

const scratchSize = 1024

// Proc is a user program's handle on the CPU.
type Proc struct {
	cpu *hw.CPU
	brk uint32

	scratch uint32
}

func New(c *hw.CPU) *Proc {
	return &Proc{cpu: c, brk: HeapBase}
}

// Step is an instruction boundary. Long running loops call it so the timer
// can preempt them.
func (p *Proc) Step() {
	p.cpu.Boundary()
}

// Alloc reserves n bytes of user memory, word aligned.
func (p *Proc) Alloc(n int) uint32 {
	addr := p.brk
	p.brk += uint32(n+3) &^ 3

	if p.brk > abi.UserStack-abi.PageSize {
		panic(fmt.Sprintf("user: heap exhausted allocating %d bytes", n))
	}

	return addr
}

// Load reads n bytes at addr. A fault ends the program.
func (p *Proc) Load(addr uint32, n int) []byte {
	p.Step()

	b := make([]byte, n)
	if err := p.cpu.ReadVirtual(b, addr); err != nil {
		panic(fmt.Sprintf("user: fault at %#x survived: %v", addr, err))
	}

	return b
}

// Store writes b at addr. A fault ends the program.
func (p *Proc) Store(addr uint32, b []byte) {
	p.Step()

	if err := p.cpu.WriteVirtual(b, addr); err != nil {
		panic(fmt.Sprintf("user: fault at %#x survived: %v", addr, err))
	}
}

// CString places a NUL terminated copy of s in user memory.
func (p *Proc) CString(s string) uint32 {
	addr := p.Alloc(len(s) + 1)
	p.Store(addr, append([]byte(s), 0))
	return addr
}

// Syscall traps through int 0x80.
func (p *Proc) Syscall(num, a, b, c uint32) int32 {
	regs := &hw.Registers{EAX: num, EBX: a, ECX: b, EDX: c}
	p.cpu.Int(abi.VecSyscall, regs)
	return int32(regs.EAX)
}

func (p *Proc) Halt(status uint8) {
	p.Syscall(abi.SysHalt, uint32(status), 0, 0)
	panic("user: halt returned")
}

func (p *Proc) Execute(cmd uint32) int32 {
	return p.Syscall(abi.SysExecute, cmd, 0, 0)
}

func (p *Proc) Read(fd int32, buf uint32, n int32) int32 {
	return p.Syscall(abi.SysRead, uint32(fd), buf, uint32(n))
}

func (p *Proc) Write(fd int32, buf uint32, n int32) int32 {
	return p.Syscall(abi.SysWrite, uint32(fd), buf, uint32(n))
}

func (p *Proc) Open(name uint32) int32 {
	return p.Syscall(abi.SysOpen, name, 0, 0)
}

func (p *Proc) Close(fd int32) int32 {
	return p.Syscall(abi.SysClose, uint32(fd), 0, 0)
}

func (p *Proc) GetArgs(buf uint32, n int32) int32 {
	return p.Syscall(abi.SysGetArgs, buf, uint32(n), 0)
}

func (p *Proc) Vidmap(screenStart uint32) int32 {
	return p.Syscall(abi.SysVidmap, screenStart, 0, 0)
}

func (p *Proc) SetHandler(signum int32, handler uint32) int32 {
	return p.Syscall(abi.SysSetHandler, uint32(signum), handler, 0)
}

func (p *Proc) Sigreturn() int32 {
	return p.Syscall(abi.SysSigreturn, 0, 0, 0)
}

func (p *Proc) scratchBuf() uint32 {
	if p.scratch == 0 {
		p.scratch = p.Alloc(scratchSize)
	}

	return p.scratch
}

// Print writes s to stdout through the scratch buffer.
func (p *Proc) Print(s string) int32 {
	buf := p.scratchBuf()

	var total int32

	for len(s) > 0 {
		chunk := s
		if len(chunk) > scratchSize {
			chunk = chunk[:scratchSize]
		}

		p.Store(buf, []byte(chunk))

		n := p.Write(1, buf, int32(len(chunk)))
		if n < 0 {
			return n
		}

		total += n
		s = s[len(chunk):]
	}

	return total
}

// ReadLine reads up to n bytes from stdin.
func (p *Proc) ReadLine(buf uint32, n int32) []byte {
	got := p.Read(0, buf, n)
	if got <= 0 {
		return nil
	}

	return p.Load(buf, int(got))
}

// Args returns the command line arguments or "" when there are none.
func (p *Proc) Args() string {
	buf := p.scratchBuf()
	if p.GetArgs(buf, abi.CommandSize) != 0 {
		return ""
	}

	b := p.Load(buf, abi.CommandSize)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}

	return string(b)
}
