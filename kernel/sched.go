package kernel

import (
	"github.com/jonjonleee/Linux-like-OS/abi"
)

// Channel 0, lobyte/hibyte, mode 3. 1193182/23862 is about 50Hz, a 20ms
// timeslice.
const (
	pitSquareWave = 0x36
	pitDivisor    = 23862
)

// schedule is the IRQ0 body. Each tick either brings up the shell on a
// terminal that has never run, or moves to the next terminal and resumes
// its process.
func (k *Kernel) schedule() {
	t := k.terms[k.cursor]

	if !t.On {
		k.seed(t)
		return
	}

	k.cursor = (k.cursor + 1) % abi.NumTerminals

	next := k.terms[k.cursor]
	if next.Pid < 0 {
		return
	}

	target := k.procs.Get(next.Pid)

	k.Mem.BindProcess(target.Pid)
	k.Mem.SetUserVideo(target.VidMapped)
	k.Mem.BindTerminalVideo(next.ID, next.ID == k.foreground)

	k.cpu.TSS.SS0 = target.SS0
	k.cpu.TSS.ESP0 = target.ESP0

	if cur := k.Running(); cur != nil {
		cur.Program = k.cpu.Current()
	}

	k.running = target.Pid

	k.cpu.SwitchTo(target.Program, 0)
}

// seed starts the first shell on t. The cursor stays on t so the next tick
// moves past it. If the shell cannot start the terminal stays off and is
// tried again the next time the cursor comes around.
func (k *Kernel) seed(t *Terminal) {
	shell, err := k.prepare(k.init, t.ID, NoParent)
	if err != nil {
		k.L.Error("unable to start shell", "terminal", t.ID, "error", err)
		k.cursor = (k.cursor + 1) % abi.NumTerminals
		return
	}

	t.On = true

	if cur := k.Running(); cur != nil {
		cur.Program = k.cpu.Current()
	}

	k.L.Info("terminal up", "terminal", t.ID, "pid", shell.Pid)

	k.launch(shell)
}
