package hw

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/log"
	"github.com/jonjonleee/Linux-like-OS/pkg/waiter"
)

// InterruptNumber describes an x86 exception vector.
type InterruptNumber uint8

const (
	// DivideError occurs on a division by zero.
	DivideError = InterruptNumber(0)

	// Debug is raised by the debug registers.
	Debug = InterruptNumber(1)

	// NMI is the non-maskable interrupt.
	NMI = InterruptNumber(2)

	// Breakpoint is raised by int3.
	Breakpoint = InterruptNumber(3)

	// Overflow is raised by into when the overflow flag is set.
	Overflow = InterruptNumber(4)

	// BoundRangeExceeded is raised by bound.
	BoundRangeExceeded = InterruptNumber(5)

	// InvalidOpcode occurs when the CPU fetches an instruction it cannot
	// decode. Jumping to an address with no registered code raises it.
	InvalidOpcode = InterruptNumber(6)

	// DeviceNotAvailable occurs on FPU use with no FPU present.
	DeviceNotAvailable = InterruptNumber(7)

	// DoubleFault occurs when an exception is unhandled or when an exception
	// occurs while the CPU is trying to call an exception handler.
	DoubleFault = InterruptNumber(8)

	CoprocessorSegmentOverrun = InterruptNumber(9)

	// InvalidTSS occurs when a task switch references an invalid TSS.
	InvalidTSS = InterruptNumber(10)

	// SegmentNotPresent occurs when a gate or segment is marked absent.
	SegmentNotPresent = InterruptNumber(11)

	StackSegmentFault = InterruptNumber(12)

	// GPFException is raised for privilege violations, including a
	// software interrupt through a gate whose DPL is below the caller's CPL.
	GPFException = InterruptNumber(13)

	// PageFaultException is raised when a translation fails. CR2 holds the
	// faulting address.
	PageFaultException = InterruptNumber(14)

	Reserved15 = InterruptNumber(15)

	FloatingPointException = InterruptNumber(16)

	AlignmentCheck = InterruptNumber(17)

	MachineCheck = InterruptNumber(18)

	SIMDFloatingPointException = InterruptNumber(19)
)

// GDT selectors.
const (
	KernelCS = 0x0010
	KernelDS = 0x0018
	UserCS   = 0x0023
	UserDS   = 0x002B
)

// FlagIF is the interrupt-enable bit of EFLAGS.
const FlagIF = 1 << 9

type GateKind int

const (
	InterruptGate GateKind = iota
	TrapGate
)

// Gate is one IDT descriptor.
type Gate struct {
	Present bool
	DPL     uint8
	Kind    GateKind
	Handler func(*Registers)
}

// Registers is the register image a handler sees. General registers carry
// system call arguments in and the return value out through EAX.
type Registers struct {
	EAX, EBX, ECX, EDX, ESI, EDI, EBP uint32

	Vector    uint8
	ErrorCode uint32

	EIP, CS, EFLAGS, ESP, SS uint32
}

// IretFrame is what an iret pops when returning to a less privileged level.
type IretFrame struct {
	EIP, CS, EFLAGS, ESP, SS uint32
}

// TSS holds the stack loaded on a privilege-0 entry.
type TSS struct {
	SS0  uint16
	ESP0 uint32
}

// MMU translates virtual addresses. The kernel's paging layer provides it.
type MMU interface {
	Translate(vaddr uint32, user, write bool) (uint32, error)
}

var ErrShutdown = errors.New("machine shut down")

const (
	evIRQ waiter.EventType = 1 << iota
	evIdle
)

// CPU is a single i386-style processor. Only the context holding the baton
// executes on it; the host may raise IRQs and observe idleness concurrently.
type CPU struct {
	IDT [256]Gate
	TSS TSS
	CR2 uint32

	mu     sync.Mutex
	iflag  bool
	halted bool

	cpl uint8
	cur *Context

	pic  *PIC
	mem  *PhysMem
	text *Text
	mmu  MMU

	events *waiter.Waiter

	dead     chan struct{}
	shutdown sync.Once
}

func (c *CPU) SetMMU(m MMU) {
	c.mmu = m
}

func (c *CPU) SetGate(vec uint8, g Gate) {
	c.IDT[vec] = g
}

// IF reports the interrupt-enable flag.
func (c *CPU) IF() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.iflag
}

func (c *CPU) setIF(v bool) {
	c.mu.Lock()
	c.iflag = v
	c.mu.Unlock()
}

// Cli clears IF and returns the previous value, like cli after pushfl.
func (c *CPU) Cli() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.iflag
	c.iflag = false
	return prev
}

func (c *CPU) Sti() {
	c.setIF(true)
}

// Restore sets IF back to a value returned by Cli.
func (c *CPU) Restore(flag bool) {
	c.setIF(flag)
}

// CPL is the current privilege level.
func (c *CPU) CPL() uint8 {
	return c.cpl
}

// Current is the context holding the CPU.
func (c *CPU) Current() *Context {
	return c.cur
}

// Boundary is an instruction boundary. Pending IRQs are delivered while IF
// is set.
func (c *CPU) Boundary() {
	for c.IF() {
		vec, ok := c.pic.ack()
		if !ok {
			return
		}

		c.dispatch(vec, &Registers{Vector: vec})
	}
}

// Hlt stops the CPU until an interrupt is delivered. It returns after at
// least one interrupt has been handled.
func (c *CPU) Hlt() {
	for {
		if c.deliverable() {
			c.Boundary()
			return
		}

		ch := make(chan struct{}, 1)
		ev := c.events.RegisterChannel(evIRQ, ch)

		c.setHalted(true)

		if !c.deliverable() {
			select {
			case <-ch:
			case <-c.dead:
				c.events.Unregister(ev)
				runtime.Goexit()
			}
		}

		c.setHalted(false)
		c.events.Unregister(ev)
	}
}

func (c *CPU) deliverable() bool {
	return c.IF() && c.pic.deliverable()
}

func (c *CPU) setHalted(v bool) {
	c.mu.Lock()
	c.halted = v
	c.mu.Unlock()

	if v {
		c.events.Notify(evIdle)
	}
}

// Idle reports whether the CPU is halted with nothing it could deliver.
func (c *CPU) Idle() bool {
	c.mu.Lock()
	halted, iflag := c.halted, c.iflag
	c.mu.Unlock()

	return halted && !(iflag && c.pic.deliverable())
}

// WaitIdle blocks until the CPU is idle.
func (c *CPU) WaitIdle(ctx context.Context) error {
	for {
		ch := make(chan struct{}, 1)
		ev := c.events.RegisterChannel(evIdle, ch)

		if c.Idle() {
			c.events.Unregister(ev)
			return nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			c.events.Unregister(ev)
			return ctx.Err()
		case <-c.dead:
			c.events.Unregister(ev)
			return ErrShutdown
		}

		c.events.Unregister(ev)
	}
}

// Int executes a software interrupt from the current privilege level.
func (c *CPU) Int(vec uint8, regs *Registers) {
	c.Boundary()

	g := c.IDT[vec]
	if !g.Present || g.DPL < c.cpl {
		log.L.Trace("int-gpf", "vector", vec, "cpl", c.cpl, "dpl", g.DPL)
		c.Fault(GPFException, uint32(vec)<<3|2)
		return
	}

	regs.Vector = vec
	c.dispatch(vec, regs)
}

// Fault raises an exception.
func (c *CPU) Fault(vec InterruptNumber, code uint32) {
	c.dispatch(uint8(vec), &Registers{Vector: uint8(vec), ErrorCode: code})
}

// PageFault records addr in CR2 and raises #PF.
func (c *CPU) PageFault(addr uint32, user, write bool) {
	c.CR2 = addr

	var code uint32
	if write {
		code |= 2
	}
	if user {
		code |= 4
	}

	c.Fault(PageFaultException, code)
}

func (c *CPU) dispatch(vec uint8, regs *Registers) {
	g := c.IDT[vec]
	if !g.Present {
		switch InterruptNumber(vec) {
		case DoubleFault:
			panic("hw: triple fault")
		case GPFException:
			c.Fault(DoubleFault, 0)
		default:
			c.Fault(GPFException, uint32(vec)<<3|2)
		}
		return
	}

	savedIF := c.IF()
	savedCPL := c.cpl

	if g.Kind == InterruptGate {
		c.setIF(false)
	}

	c.cpl = 0

	g.Handler(regs)

	// iret
	c.cpl = savedCPL
	c.setIF(savedIF)
}

// ReadVirtual copies from virtual memory at the current privilege. A failed
// translation raises #PF and returns the error if the handler comes back.
func (c *CPU) ReadVirtual(p []byte, vaddr uint32) error {
	return c.access(p, vaddr, false)
}

// WriteVirtual copies into virtual memory at the current privilege.
func (c *CPU) WriteVirtual(p []byte, vaddr uint32) error {
	return c.access(p, vaddr, true)
}

func (c *CPU) access(p []byte, vaddr uint32, write bool) error {
	user := c.cpl == 3

	for done := 0; done < len(p); {
		va := vaddr + uint32(done)

		pa, err := c.mmu.Translate(va, user, write)
		if err != nil {
			c.PageFault(va, user, write)
			return err
		}

		n := PageSize - int(pa%PageSize)
		if n > len(p)-done {
			n = len(p) - done
		}

		if write {
			_, err = c.mem.WriteAt(p[done:done+n], int64(pa))
		} else {
			_, err = c.mem.ReadAt(p[done:done+n], int64(pa))
		}
		if err != nil {
			return err
		}

		done += n
	}

	return nil
}

// Shutdown stops every context. Blocked contexts exit.
func (c *CPU) Shutdown() {
	c.shutdown.Do(func() {
		close(c.dead)
	})
}

func (c *CPU) String() string {
	return fmt.Sprintf("cpu{cpl=%d if=%v ctx=%s}", c.cpl, c.IF(), c.cur)
}
