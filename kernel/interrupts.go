package kernel

import (
	"github.com/davecgh/go-spew/spew"
	hclog "github.com/hashicorp/go-hclog"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/hw"
)

// FaultKind is a CPU exception vector as the kernel reports it.
type FaultKind int

var faultNames = [abi.NumExceptions]string{
	"Divide Error Exception",
	"Debug Exception",
	"NMI Interrupt",
	"Breakpoint",
	"Overflow",
	"BOUND Range Exceeded",
	"Invalid Opcode (Undefined Opcode)",
	"Device Not Available (No Math Coprocessor)",
	"Double Fault",
	"Coprocessor Segment Overrun(reserved)",
	"Invalid TSS",
	"Segment Not Present",
	"Stack-Segment Fault",
	"General Protection",
	"Page Fault",
	"Assertion Error",
	"x87 FPU Floating-Point Error (Math Fault)",
	"Alignment Check",
	"Machine Check",
	"SIMD Floating-Point Exception",
}

func (f FaultKind) String() string {
	if f < 0 || int(f) >= len(faultNames) {
		return "Unknown Exception"
	}

	return faultNames[f]
}

func (k *Kernel) installIDT() {
	for vec := 0; vec < abi.NumExceptions; vec++ {
		kind := FaultKind(vec)

		k.cpu.SetGate(uint8(vec), hw.Gate{
			Present: true,
			Kind:    hw.TrapGate,
			Handler: func(regs *hw.Registers) {
				k.exception(kind, regs)
			},
		})
	}

	k.cpu.SetGate(abi.VecPIT, k.irq(abi.IRQTimer, k.schedule))
	k.cpu.SetGate(abi.VecKeyboard, k.irq(abi.IRQKeyboard, k.keyboard))
	k.cpu.SetGate(abi.VecRTC, k.irq(abi.IRQRTC, k.RTC.Interrupt))

	k.cpu.SetGate(abi.VecSyscall, hw.Gate{
		Present: true,
		DPL:     3,
		Kind:    hw.TrapGate,
		Handler: k.syscall,
	})
}

// irq wraps a device handler. The line is acknowledged before the body
// runs since the timer body may not return to this context for a while.
func (k *Kernel) irq(line int, body func()) hw.Gate {
	return hw.Gate{
		Present: true,
		Kind:    hw.InterruptGate,
		Handler: func(regs *hw.Registers) {
			k.M.PIC.EOI(line)
			body()
			k.checkInterrupt()
		},
	}
}

// exception reports a fault on the faulting process's terminal and halts
// it.
func (k *Kernel) exception(kind FaultKind, regs *hw.Registers) {
	k.cpu.Cli()

	if kind < 0 || int(kind) >= abi.NumExceptions {
		return
	}

	p := k.Running()
	if p == nil {
		panic(spew.Sprintf("kernel: %s with no process: %+v", kind, regs))
	}

	k.L.Warn("exception", "pid", p.Pid, "fault", kind.String(), "code", hclog.Hex(regs.ErrorCode), "cr2", hclog.Hex(k.cpu.CR2))

	if k.L.IsDebug() {
		k.L.Debug("exception registers", "regs", spew.Sdump(regs))
	}

	k.terms[p.Terminal].Screen.Write([]byte(kind.String()))

	k.Halt(HaltException, abi.ExceptionHalt)
}

// syscall is the int 0x80 body. EAX selects the call, EBX, ECX and EDX
// carry arguments and the result goes back in EAX.
func (k *Kernel) syscall(regs *hw.Registers) {
	p := k.Running()
	if p == nil || k.invoker == nil {
		regs.EAX = ^uint32(0)
		return
	}

	args := abi.SysArgs{
		Index: int32(regs.EAX),
		Args: abi.SyscallRequest{
			R0: int32(regs.EBX),
			R1: int32(regs.ECX),
			R2: int32(regs.EDX),
		},
	}

	ctx := SetTask(k.ctx, &Task{Process: p})

	ret := k.invoker.InvokeSyscall(ctx, args)

	regs.EAX = uint32(ret)

	k.checkInterrupt()
}
