// Package syscalls decodes int 0x80 requests and runs them against the
// calling process.
package syscalls

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/kernel"
)

// Failure is what every call returns when it cannot do what was asked.
const Failure = -1

var Syscalls [abi.NumSyscalls]func(context.Context, hclog.Logger, *kernel.Task, abi.SysArgs) int32
