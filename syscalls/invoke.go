package syscalls

import (
	"context"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/kernel"
	"github.com/jonjonleee/Linux-like-OS/log"
)

type Invoker struct {
	Kernel *kernel.Kernel
}

// Install registers the table with k.
func Install(k *kernel.Kernel) *Invoker {
	inv := &Invoker{Kernel: k}
	k.SetInvoker(inv)
	return inv
}

func (i *Invoker) InvokeSyscall(ctx context.Context, args abi.SysArgs) int32 {
	if args.Index < 0 || int(args.Index) >= len(Syscalls) {
		log.L.Trace("syscall out of range", "index", args.Index)
		return Failure
	}

	f := Syscalls[args.Index]
	if f == nil {
		return Failure
	}

	p, ok := kernel.GetTask(ctx)
	if !ok {
		return Failure
	}

	ret := f(ctx, log.L, p, args)

	log.L.Trace("syscall", "pid", p.Pid, "index", args.Index, "ret", ret)

	return ret
}
