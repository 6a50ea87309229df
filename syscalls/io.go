package syscalls

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/fs"
	"github.com/jonjonleee/Linux-like-OS/kernel"
)

func sysRead(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	var (
		fd  = args.Args.R0
		ptr = args.Args.R1
		sz  = args.Args.R2
	)

	if ptr == 0 || sz < 0 {
		return Failure
	}

	if err := task.CheckRange(ptr, int(sz)); err != nil {
		l.Debug("read into bad buffer", "pid", task.Pid, "error", err)
		return Failure
	}

	data := make([]byte, sz)

	n, err := task.ReadFile(int(fd), data)
	if err != nil {
		if errors.Cause(err) != kernel.ErrBadFD {
			l.Error("error reading file", "pid", task.Pid, "fd", fd, "error", err)
		}

		return Failure
	}

	_, err = task.WriteAt(data[:n], int64(uint32(ptr)))
	if err != nil {
		l.Error("error copying data to userspace", "error", err)
		return Failure
	}

	return int32(n)
}

func sysWrite(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	var (
		fd  = args.Args.R0
		ptr = args.Args.R1
		sz  = args.Args.R2
	)

	if ptr == 0 || sz < 0 {
		return Failure
	}

	if err := task.CheckRange(ptr, int(sz)); err != nil {
		l.Debug("write from bad buffer", "pid", task.Pid, "error", err)
		return Failure
	}

	data := make([]byte, sz)

	_, err := task.ReadAt(data, int64(uint32(ptr)))
	if err != nil {
		l.Error("error reading data from userspace", "error", err)
		return Failure
	}

	n, err := task.WriteFile(int(fd), data)
	if err != nil {
		l.Trace("write failed", "pid", task.Pid, "fd", fd, "error", err)
		return Failure
	}

	return int32(n)
}

func sysOpen(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	var (
		ptr = args.Args.R0
	)

	if ptr == 0 {
		return Failure
	}

	path, err := task.ReadCString(ptr, abi.CommandSize)
	if err != nil {
		l.Debug("error reading cstring", "error", err)
		return Failure
	}

	l.Trace("open file", "pid", task.Pid, "path", string(path))

	fd, err := task.OpenFile(string(path))
	if err != nil {
		if errors.Cause(err) != fs.ErrUnknownPath {
			l.Error("error opening file", "path", string(path), "error", err)
		}

		return Failure
	}

	return int32(fd)
}

func sysClose(ctx context.Context, l hclog.Logger, task *kernel.Task, args abi.SysArgs) int32 {
	var (
		fd = args.Args.R0
	)

	err := task.CloseFile(int(fd))
	if err != nil {
		switch errors.Cause(err) {
		case kernel.ErrBadFD, kernel.ErrUnknownFile:
		default:
			l.Error("error closing fd", "error", err, "fd", fd)
		}

		return Failure
	}

	return 0
}

func init() {
	Syscalls[abi.SysRead] = sysRead
	Syscalls[abi.SysWrite] = sysWrite
	Syscalls[abi.SysOpen] = sysOpen
	Syscalls[abi.SysClose] = sysClose
}
