package syscalls

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/kernel"
)

func sysExecute(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	var (
		cmdAddr = args.Args.R0
	)

	if cmdAddr == 0 {
		return Failure
	}

	cmd, err := task.ReadCString(cmdAddr, abi.CommandSize)
	if err != nil {
		l.Debug("error reading command", "error", err)
		return Failure
	}

	return task.Kernel.Execute(string(cmd))
}

func sysHalt(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	task.Kernel.Halt(kernel.HaltExit, uint8(args.Args.R0))
	return 0
}

func init() {
	Syscalls[abi.SysHalt] = sysHalt
	Syscalls[abi.SysExecute] = sysExecute
}
