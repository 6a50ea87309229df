package kernel

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/abi"
)

// Args is the command line after the program name and the spaces that
// follow it.
func (p *Process) Args() string {
	rest := strings.TrimLeft(p.Command, " ")

	i := strings.IndexByte(rest, ' ')
	if i < 0 {
		return ""
	}

	return strings.TrimLeft(rest[i:], " ")
}

// GetArgs returns the arguments zero padded to n bytes, capped at the
// command buffer size.
func (p *Process) GetArgs(n int) ([]byte, error) {
	args := p.Args()
	if args == "" {
		return nil, ErrNoArgs
	}

	if len(args) > n {
		return nil, errors.Wrapf(ErrArgsTooLong, "%d bytes into %d", len(args), n)
	}

	size := n
	if size > abi.CommandSize {
		size = abi.CommandSize
	}

	out := make([]byte, size)
	copy(out, args)

	return out, nil
}

// Vidmap maps the terminal's video page into user space and stores its
// address at ptr.
func (p *Process) Vidmap(ptr uint32) error {
	k := p.Kernel

	addr, err := k.Mem.MapUserVideo(ptr)
	if err != nil {
		return err
	}

	p.VidMapped = true
	k.Mem.BindTerminalVideo(p.Terminal, p.Terminal == k.foreground)

	return k.Mem.PutUint32(ptr, addr)
}
