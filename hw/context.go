package hw

import (
	"fmt"
	"runtime"
)

// Context is a resumable execution: a kernel stack and the register state
// saved on it. Each context runs on its own goroutine and only the one
// holding the CPU makes progress.
type Context struct {
	Name string

	wake chan int32
}

func (ctx *Context) String() string {
	if ctx == nil {
		return "<nil>"
	}

	return ctx.Name
}

func newContext(name string) *Context {
	return &Context{
		Name: name,
		wake: make(chan int32),
	}
}

// Boot starts fn as the first context on the CPU.
func (c *CPU) Boot(fn func()) *Context {
	ctx := newContext("boot")
	c.cur = ctx

	go func() {
		fn()
		panic("hw: boot context returned")
	}()

	return ctx
}

// NewContext prepares a context that, once switched to, performs an iret
// through frame.
func (c *CPU) NewContext(name string, frame IretFrame) *Context {
	ctx := newContext(name)

	go func() {
		c.park(ctx)
		c.enter(ctx, frame)
	}()

	return ctx
}

func (c *CPU) enter(ctx *Context, frame IretFrame) {
	c.cpl = uint8(frame.CS & 3)
	c.setIF(frame.EFLAGS&FlagIF != 0)

	fn, ok := c.text.Lookup(frame.EIP)
	if !ok {
		c.Fault(InvalidOpcode, 0)
		panic(fmt.Sprintf("hw: %s: no code at %#x", ctx.Name, frame.EIP))
	}

	fn(c, frame)

	panic(fmt.Sprintf("hw: %s: ran off the end of its code", ctx.Name))
}

func (c *CPU) park(ctx *Context) int32 {
	select {
	case v := <-ctx.wake:
		return v
	case <-c.dead:
		runtime.Goexit()
	}

	panic("unreachable")
}

func (c *CPU) handoff(to *Context, v int32) {
	c.cur = to

	select {
	case to.wake <- v:
	case <-c.dead:
		runtime.Goexit()
	}
}

// SwitchTo saves the current context and resumes to. It returns the value
// passed by whoever eventually resumes the caller.
func (c *CPU) SwitchTo(to *Context, v int32) int32 {
	from := c.cur
	if from == to {
		return v
	}

	c.handoff(to, v)

	return c.park(from)
}

// ExitTo resumes to and discards the current context.
func (c *CPU) ExitTo(to *Context, v int32) {
	c.handoff(to, v)
	runtime.Goexit()
}
