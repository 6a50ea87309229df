package syscalls

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/kernel"
)

// Signals are not delivered, so neither call can succeed.

func sysSetHandler(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	l.Trace("set_handler unsupported", "pid", task.Pid, "signum", args.Args.R0)
	return Failure
}

func sysSigreturn(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	return Failure
}

func init() {
	Syscalls[abi.SysSetHandler] = sysSetHandler
	Syscalls[abi.SysSigreturn] = sysSigreturn
}
