package kernel

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/fs"
	"github.com/jonjonleee/Linux-like-OS/hw"
)

// HaltCause says why a process stopped, which decides the status its
// parent's execute returns.
type HaltCause int

const (
	HaltExit HaltCause = iota
	HaltException
	HaltInterrupted
)

func (c HaltCause) String() string {
	switch c {
	case HaltExit:
		return "exit"
	case HaltException:
		return "exception"
	case HaltInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// splitCommand returns the program name from a command line.
func splitCommand(command string) (string, error) {
	if command == "" {
		return "", errors.Wrap(ErrBadCommand, "empty command")
	}

	if len(command) > abi.CommandSize {
		return "", errors.Wrapf(ErrBadCommand, "command is %d bytes", len(command))
	}

	rest := strings.TrimLeft(command, " ")

	name := rest
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		name = rest[:i]
	}

	if name == "" {
		return "", errors.Wrap(ErrBadCommand, "no program name")
	}

	if len(name) > abi.NameSize {
		return "", errors.Wrapf(ErrBadCommand, "name %q too long", name)
	}

	return name, nil
}

// prepare validates command and builds a process for it on terminal t
// without running it. Nothing is allocated if validation fails.
func (k *Kernel) prepare(command string, t, parent int) (*Process, error) {
	name, err := splitCommand(command)
	if err != nil {
		return nil, err
	}

	d, err := k.NS.LookupDirent(k.ctx, name)
	if err != nil {
		return nil, err
	}

	if d.Type != fs.RegularFile {
		return nil, errors.Wrapf(ErrNotExecutable, "%s is a %s", d.Name, d.Type)
	}

	r, err := k.NS.Reader(d)
	if err != nil {
		return nil, err
	}

	exe, err := k.loader.Load(r)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}

	var p *Process
	if parent == NoParent {
		p, err = k.procs.AllocateRoot(t)
	} else {
		p, err = k.procs.Allocate()
	}
	if err != nil {
		return nil, err
	}

	p.Kernel = k
	p.ParentPid = parent
	p.Terminal = t
	p.Command = command
	p.stdio()

	k.Mem.BindProcess(p.Pid)
	k.Mem.SetUserVideo(false)
	k.Mem.BindTerminalVideo(t, t == k.foreground)

	if _, err := k.Mem.WriteAt(exe.Image, abi.LoadAddress); err != nil {
		panic(errors.Wrapf(err, "copying image for pid %d", p.Pid))
	}

	p.SS0 = hw.KernelDS
	p.ESP0 = abi.KernelStackTop(p.Pid)
	k.cpu.TSS.SS0 = p.SS0
	k.cpu.TSS.ESP0 = p.ESP0

	p.Parent = k.cpu.Current()
	p.Program = k.cpu.NewContext(fmt.Sprintf("pid%d:%s", p.Pid, name), hw.IretFrame{
		EIP:    exe.Entry,
		CS:     hw.UserCS,
		EFLAGS: hw.FlagIF,
		ESP:    abi.UserStack,
		SS:     hw.UserDS,
	})

	k.terms[t].Pid = p.Pid

	k.L.Debug("execute", "pid", p.Pid, "parent", parent, "terminal", t, "command", command)

	return p, nil
}

// launch gives the CPU to p. It returns the value the caller is resumed
// with.
func (k *Kernel) launch(p *Process) int32 {
	k.running = p.Pid
	return k.cpu.SwitchTo(p.Program, 0)
}

// Execute runs command as a child of the running process and returns the
// child's exit status once it halts, or -1 if it could not be started.
func (k *Kernel) Execute(command string) int32 {
	flag := k.cpu.Cli()
	defer k.cpu.Restore(flag)

	parent := k.Running()
	if parent == nil {
		k.L.Error("execute with no running process", "command", command)
		return -1
	}

	child, err := k.prepare(command, parent.Terminal, parent.Pid)
	if err != nil {
		k.L.Debug("execute failed", "command", command, "error", err)
		return -1
	}

	return k.launch(child)
}

// status maps a halt to what the parent's execute returns.
func haltStatus(cause HaltCause, code uint8) int32 {
	switch cause {
	case HaltException:
		return abi.ExceptionStatus
	case HaltInterrupted:
		return abi.UserInterrupt
	default:
		return int32(code)
	}
}

// Halt ends the running process and resumes whoever executed it. A root
// shell is replaced by a fresh one on the same terminal. Halt does not
// return.
func (k *Kernel) Halt(cause HaltCause, code uint8) {
	k.cpu.Cli()

	p := k.Running()
	if p == nil {
		panic(errors.Errorf("kernel: halt (%s) with no running process", cause))
	}

	for fd := range p.Files {
		if p.Files[fd].Open {
			p.closeFile(fd)
		}
	}

	k.procs.Free(p.Pid)

	t := k.terms[p.Terminal]
	t.interrupted = false

	if cause == HaltInterrupted {
		t.Screen.Write([]byte(interruptNotice))
	}

	t.Screen.Putc('\n')

	status := haltStatus(cause, code)

	k.L.Debug("halt", "pid", p.Pid, "cause", cause, "status", status, "terminal", p.Terminal)

	if p.Root() {
		shell, err := k.prepare(k.init, p.Terminal, NoParent)
		if err != nil {
			panic(errors.Wrapf(err, "kernel: relaunching %s on terminal %d", k.init, p.Terminal))
		}

		k.running = shell.Pid
		k.cpu.ExitTo(shell.Program, 0)
	}

	parent := k.procs.Get(p.ParentPid)

	k.Mem.BindProcess(parent.Pid)
	k.Mem.SetUserVideo(parent.VidMapped)
	k.Mem.BindTerminalVideo(parent.Terminal, parent.Terminal == k.foreground)

	k.cpu.TSS.SS0 = parent.SS0
	k.cpu.TSS.ESP0 = parent.ESP0

	t.Pid = parent.Pid
	k.running = parent.Pid

	k.cpu.ExitTo(p.Parent, status)
}
