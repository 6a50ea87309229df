package syscalls

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/kernel"
)

func sysGetArgs(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	var (
		ptr = args.Args.R0
		sz  = args.Args.R1
	)

	if ptr == 0 || sz < 1 {
		return Failure
	}

	out, err := task.GetArgs(int(sz))
	if err != nil {
		l.Trace("getargs failed", "pid", task.Pid, "error", err)
		return Failure
	}

	if _, err := task.WriteAt(out, int64(uint32(ptr))); err != nil {
		l.Debug("error copying args", "error", err)
		return Failure
	}

	return 0
}

func sysVidmap(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	var (
		ptr = args.Args.R0
	)

	if ptr == 0 {
		return Failure
	}

	if err := task.Vidmap(uint32(ptr)); err != nil {
		l.Debug("vidmap refused", "pid", task.Pid, "ptr", hclog.Hex(uint32(ptr)), "error", err)
		return Failure
	}

	return 0
}

func init() {
	Syscalls[abi.SysGetArgs] = sysGetArgs
	Syscalls[abi.SysVidmap] = sysVidmap
}
