package kernel

import (
	"context"
	"io"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/device/rtc"
	"github.com/jonjonleee/Linux-like-OS/device/tty"
	"github.com/jonjonleee/Linux-like-OS/fs"
	"github.com/jonjonleee/Linux-like-OS/hw"
	"github.com/jonjonleee/Linux-like-OS/loader"
	"github.com/jonjonleee/Linux-like-OS/log"
	"github.com/jonjonleee/Linux-like-OS/memory"
)

// Invoker runs a system call for the task stored in ctx.
type Invoker interface {
	InvokeSyscall(ctx context.Context, args abi.SysArgs) int32
}

type Config struct {
	// Console receives a copy of whatever the displayed terminal prints.
	Console io.Writer

	// InitProgram is started on each terminal and restarted when it exits.
	InitProgram string
}

type Kernel struct {
	L hclog.Logger

	M   *hw.Machine
	cpu *hw.CPU

	Mem *memory.AddressSpace
	NS  *fs.Namespace
	RTC *rtc.Driver

	loader *loader.Loader

	procs ProcessTable
	terms [abi.NumTerminals]*Terminal

	// foreground is the displayed terminal, cursor the one the scheduler
	// last ran, running the pid on the CPU or -1.
	foreground int
	cursor     int
	running    int

	invoker Invoker
	decoder tty.Decoder
	console io.Writer
	init    string

	ctx context.Context
}

func NewKernel(m *hw.Machine, img *fs.Image, cfg Config) (*Kernel, error) {
	k := &Kernel{
		L:       log.L.Named("kernel"),
		M:       m,
		cpu:     m.CPU,
		Mem:     memory.NewAddressSpace(m.Mem),
		NS:      fs.NewNamespace(img),
		RTC:     rtc.New(m.CPU, m.RTC),
		loader:  loader.NewLoader(loader.NewLoaderCache()),
		running: -1,
		console: cfg.Console,
		init:    cfg.InitProgram,
		ctx:     context.Background(),
	}

	if k.init == "" {
		k.init = "shell"
	}

	for t := range k.terms {
		k.terms[t] = k.newTerminal(t)
	}

	return k, nil
}

func (k *Kernel) SetInvoker(inv Invoker) {
	k.invoker = inv
}

// Boot brings up paging, the interrupt controllers and the devices, then
// starts the idle context. The first timer tick launches the first shell.
func (k *Kernel) Boot() {
	k.Mem.Init()
	k.cpu.SetMMU(k.Mem)

	k.installIDT()

	pic := k.M.PIC
	pic.Init(abi.VecPIT, abi.VecPIT+8)

	k.M.PIT.Command(pitSquareWave)
	k.M.PIT.Data(pitDivisor & 0xFF)
	k.M.PIT.Data(pitDivisor >> 8)

	k.RTC.Init()

	for t := range k.terms {
		k.terms[t].Screen.Clear()
	}

	k.terms[k.foreground].Screen.Mirror = k.console

	pic.Enable(abi.IRQTimer)
	pic.Enable(abi.IRQKeyboard)
	pic.Enable(abi.IRQRTC)

	k.L.Info("boot", "terminals", abi.NumTerminals, "slots", abi.MaxProcs, "timeslice", k.M.PIT.Period())

	k.cpu.Boot(k.idle)
}

func (k *Kernel) idle() {
	k.cpu.Sti()

	for {
		k.cpu.Hlt()
	}
}

// Running is the process on the CPU, or nil while idle.
func (k *Kernel) Running() *Process {
	if k.running < 0 {
		return nil
	}

	return k.procs.Get(k.running)
}

// Process returns the PCB for pid if the slot is in use.
func (k *Kernel) Process(pid int) (*Process, bool) {
	if !k.procs.InUse(pid) {
		return nil, false
	}

	return k.procs.Get(pid), true
}

// Processes counts allocated PCBs.
func (k *Kernel) Processes() int {
	return k.procs.Count()
}

func (k *Kernel) Terminal(t int) *Terminal {
	return k.terms[t]
}

// Foreground is the displayed terminal.
func (k *Kernel) Foreground() int {
	return k.foreground
}
