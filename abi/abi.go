// Package abi holds the numbers shared by the kernel and user programs: the
// system call table indices, the memory layout, and the interrupt vectors.
package abi

// System call numbers, passed in EAX.
const (
	SysHalt       = 1
	SysExecute    = 2
	SysRead       = 3
	SysWrite      = 4
	SysOpen       = 5
	SysClose      = 6
	SysGetArgs    = 7
	SysVidmap     = 8
	SysSetHandler = 9
	SysSigreturn  = 10

	NumSyscalls = 11
)

// Interrupt vectors.
const (
	VecPIT      = 0x20
	VecKeyboard = 0x21
	VecRTC      = 0x28
	VecSyscall  = 0x80

	// Exceptions 0 through 19 are CPU faults.
	NumExceptions = 20
)

// IRQ lines on the cascaded PIC pair.
const (
	IRQTimer    = 0
	IRQKeyboard = 1
	IRQCascade  = 2
	IRQRTC      = 8
)

const (
	KB = 1024
	MB = 1024 * KB

	PageSize  = 4 * KB
	LargePage = 4 * MB

	KernelBase = 4 * MB
	KernelEnd  = 8 * MB

	// PCBs and kernel stacks are carved down from the end of the kernel page.
	KernelStackSize = 8 * KB

	// Program frames start after the kernel page, one 4MB frame per pid.
	UserFrameBase = 8 * MB

	UserWindowSlot = 32
	UserWindow     = UserWindowSlot * LargePage // 0x08000000
	UserWindowEnd  = UserWindow + LargePage

	LoadAddress = 0x08048000
	UserStack   = UserWindowEnd - 4 // 0x083FFFFC

	UserVideoSlot = 34
	UserVideo     = UserVideoSlot * LargePage // 0x08800000

	VideoPage    = 0xB8000
	TerminalPage = 0xBA000

	MaxProcs     = 6
	NumTerminals = 3
	MaxFiles     = 8

	CommandSize = 128
	NameSize    = 32

	// ExecMagic is the executable signature checked by execute.
	ExecMagic = "\x7fELF"

	// EntryOffset is where the little-endian entry point lives in an image.
	EntryOffset = 24
	HeaderSize  = 28
)

// Exit statuses with special meaning.
const (
	// ExceptionHalt is the status passed to halt by the fault path.
	ExceptionHalt = 111

	// ExceptionStatus is what the parent's execute observes for a faulted child.
	ExceptionStatus = 256

	// UserInterrupt is the status for a ctrl+C halt.
	UserInterrupt = 42
)

// PCBAddr is the physical address of pid's control block.
func PCBAddr(pid int) uint32 {
	return uint32(KernelEnd - KernelStackSize*(pid+1))
}

// KernelStackTop is the ESP0 value for pid.
func KernelStackTop(pid int) uint32 {
	return uint32(KernelEnd - KernelStackSize*pid - 4)
}

// UserFrame is the physical 4MB frame backing pid's user window.
func UserFrame(pid int) uint32 {
	return uint32(UserFrameBase + pid*LargePage)
}

// TerminalBacking is the off-screen video page for terminal t.
func TerminalBacking(t int) uint32 {
	return uint32(TerminalPage + t*PageSize)
}

type SysArgs struct {
	Index int32
	Args  SyscallRequest
}

type SyscallRequest struct {
	R0, R1, R2 int32
}
