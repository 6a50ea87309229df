package kernel

import (
	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/fs"
)

// FileKind selects the operations a descriptor dispatches to.
type FileKind int

const (
	KindRTC FileKind = iota
	KindDirectory
	KindFile
	KindTerminal
)

func (k FileKind) String() string {
	switch k {
	case KindRTC:
		return "rtc"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Standard descriptors every process starts with.
const (
	Stdin  = 0
	Stdout = 1
)

var ErrReadOnly = errors.New("file is read only")

// File is one descriptor slot. Pos is a byte offset for regular files and
// an entry index for the directory.
type File struct {
	Kind  FileKind
	Inode uint32
	Pos   uint32
	Open  bool
}

func kindOf(t fs.InodeType) (FileKind, error) {
	switch t {
	case fs.RTC:
		return KindRTC, nil
	case fs.Directory:
		return KindDirectory, nil
	case fs.RegularFile:
		return KindFile, nil
	default:
		return 0, errors.Wrapf(fs.ErrBadInode, "type %d", t)
	}
}

func (f *File) open(k *Kernel) error {
	switch f.Kind {
	case KindRTC:
		return k.RTC.Open()
	default:
		return nil
	}
}

func (f *File) read(k *Kernel, p *Process, buf []byte) (int, error) {
	switch f.Kind {
	case KindRTC:
		return 0, k.RTC.Read()

	case KindDirectory:
		d, err := k.NS.Image.ReadDentryByIndex(f.Pos)
		if err != nil {
			return 0, nil
		}

		f.Pos++

		name := []byte(d.Name)
		if len(name) > abi.NameSize {
			name = name[:abi.NameSize]
		}

		return copy(buf, name), nil

	case KindFile:
		n, err := k.NS.Image.ReadData(f.Inode, f.Pos, buf)
		if err != nil {
			return 0, err
		}

		f.Pos += uint32(n)

		return n, nil

	case KindTerminal:
		return k.terminalRead(p, buf), nil
	}

	return 0, ErrUnknownFile
}

func (f *File) write(k *Kernel, p *Process, buf []byte) (int, error) {
	switch f.Kind {
	case KindRTC:
		if err := k.RTC.Write(buf); err != nil {
			return 0, err
		}

		return 0, nil

	case KindTerminal:
		return k.terms[p.Terminal].Screen.Write(buf)

	case KindDirectory, KindFile:
		return 0, ErrReadOnly
	}

	return 0, ErrUnknownFile
}

func (f *File) close(k *Kernel, p *Process) error {
	switch f.Kind {
	case KindRTC:
		return k.RTC.Close()
	case KindTerminal:
		k.terms[p.Terminal].Line.Clear()
	}

	return nil
}

func (p *Process) stdio() {
	p.Files = [abi.MaxFiles]File{}

	p.Files[Stdin] = File{Kind: KindTerminal, Open: true}
	p.Files[Stdout] = File{Kind: KindTerminal, Open: true}
}

// OpenFile looks name up and binds it to the lowest closed descriptor from 2.
func (p *Process) OpenFile(name string) (int, error) {
	d, err := p.Kernel.NS.LookupDirent(p.Kernel.ctx, name)
	if err != nil {
		return -1, err
	}

	kind, err := kindOf(d.Type)
	if err != nil {
		return -1, err
	}

	for fd := 2; fd < abi.MaxFiles; fd++ {
		f := &p.Files[fd]
		if f.Open {
			continue
		}

		*f = File{Kind: kind, Inode: d.Inode, Open: true}

		if err := f.open(p.Kernel); err != nil {
			*f = File{}
			return -1, err
		}

		return fd, nil
	}

	return -1, ErrNoFreeFD
}

// ReadFile reads from fd into buf.
func (p *Process) ReadFile(fd int, buf []byte) (int, error) {
	if fd == Stdout {
		return 0, ErrBadFD
	}

	f, ok := p.GetFile(fd)
	if !ok {
		return 0, ErrBadFD
	}

	return f.read(p.Kernel, p, buf)
}

// WriteFile writes buf to fd.
func (p *Process) WriteFile(fd int, buf []byte) (int, error) {
	if fd == Stdin {
		return 0, ErrBadFD
	}

	f, ok := p.GetFile(fd)
	if !ok {
		return 0, ErrBadFD
	}

	return f.write(p.Kernel, p, buf)
}

// CloseFile releases fd. The standard descriptors cannot be closed.
func (p *Process) CloseFile(fd int) error {
	if fd == Stdin || fd == Stdout {
		return ErrBadFD
	}

	return p.closeFile(fd)
}

func (p *Process) closeFile(fd int) error {
	f, ok := p.GetFile(fd)
	if !ok {
		return ErrUnknownFile
	}

	err := f.close(p.Kernel, p)

	*f = File{}

	return err
}
