package user

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/hw"
)

const Prompt = "391OS> "

// Program is a built-in executable.
type Program struct {
	Name string
	Main func(p *Proc)
}

var Programs = []Program{
	{"shell", shell},
	{"ls", ls},
	{"cat", cat},
	{"grep", grep},
	{"hello", hello},
	{"testprint", testprint},
	{"counter", counter},
	{"pingpong", pingpong},
	{"fish", fish},
	{"sigtest", sigtest},
	{"syserr", syserr},
	{"fault", fault},
}

// Entry is the code address program i starts at.
func Entry(i int) uint32 {
	return abi.LoadAddress + 0x1000 + uint32(i)*0x40
}

// Install registers every program at its entry address. A program that
// returns from Main exits with status 0.
func Install(text *hw.Text) {
	for i, prog := range Programs {
		main := prog.Main

		text.Register(Entry(i), func(c *hw.CPU, frame hw.IretFrame) {
			p := New(c)
			main(p)
			p.Halt(0)
		})
	}
}

// Executable is a file image named name that starts at entry.
func Executable(name string, entry uint32) []byte {
	var buf bytes.Buffer

	hdr := make([]byte, abi.HeaderSize)
	copy(hdr, abi.ExecMagic)
	binary.LittleEndian.PutUint32(hdr[abi.EntryOffset:], entry)

	buf.Write(hdr)
	buf.WriteString(name)
	buf.WriteByte(0)

	for buf.Len() < 512 {
		buf.WriteByte(0x90)
	}

	return buf.Bytes()
}

func shell(p *Proc) {
	line := p.Alloc(abi.CommandSize)
	cmd := p.Alloc(abi.CommandSize + 1)

	for {
		p.Print(Prompt)

		in := p.ReadLine(line, abi.CommandSize)
		text := strings.TrimRight(string(in), "\n")

		if text == "exit" {
			p.Halt(0)
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		p.Store(cmd, append([]byte(text), 0))

		switch p.Execute(cmd) {
		case -1:
			p.Print("no such command\n")
		case abi.ExceptionStatus:
			p.Print("program terminated abnormally\n")
		}
	}
}

func ls(p *Proc) {
	fd := p.Open(p.CString("."))
	if fd < 0 {
		p.Print("directory open failed\n")
		p.Halt(2)
	}

	buf := p.Alloc(abi.NameSize)

	for {
		n := p.Read(fd, buf, abi.NameSize)
		if n < 0 {
			p.Print("directory entry read failed\n")
			p.Halt(3)
		}

		if n == 0 {
			break
		}

		p.Print(string(p.Load(buf, int(n))) + "\n")
	}
}

// slurp reads fd to the end.
func slurp(p *Proc, fd int32) ([]byte, bool) {
	const chunk = 1024

	buf := p.Alloc(chunk)

	var out []byte

	for {
		n := p.Read(fd, buf, chunk)
		if n < 0 {
			return out, false
		}

		if n == 0 {
			return out, true
		}

		out = append(out, p.Load(buf, int(n))...)
	}
}

func cat(p *Proc) {
	name := p.Args()
	if name == "" {
		p.Print("could not read arguments\n")
		p.Halt(3)
	}

	fd := p.Open(p.CString(name))
	if fd < 0 {
		p.Print("file open failed\n")
		p.Halt(2)
	}

	data, ok := slurp(p, fd)
	if !ok {
		p.Print("file read failed\n")
		p.Halt(3)
	}

	p.Print(string(data))
}

func grep(p *Proc) {
	pattern := p.Args()
	if pattern == "" {
		p.Print("could not read arguments\n")
		p.Halt(3)
	}

	dir := p.Open(p.CString("."))
	if dir < 0 {
		p.Print("directory open failed\n")
		p.Halt(2)
	}

	names, _ := slurpNames(p, dir)

	for _, name := range names {
		if name == "." || name == "rtc" {
			continue
		}

		fd := p.Open(p.CString(name))
		if fd < 0 {
			continue
		}

		data, _ := slurp(p, fd)
		p.Close(fd)

		for _, line := range strings.Split(string(data), "\n") {
			p.Step()

			if strings.Contains(line, pattern) {
				p.Print(name + ":" + line + "\n")
			}
		}
	}
}

func slurpNames(p *Proc, dir int32) ([]string, bool) {
	buf := p.Alloc(abi.NameSize)

	var names []string

	for {
		n := p.Read(dir, buf, abi.NameSize)
		if n < 0 {
			return names, false
		}

		if n == 0 {
			return names, true
		}

		names = append(names, string(p.Load(buf, int(n))))
	}
}

func hello(p *Proc) {
	p.Print("Hi, what's your name? ")

	buf := p.Alloc(abi.CommandSize)

	name := p.ReadLine(buf, abi.CommandSize)
	if name == nil {
		p.Print("Can't read name from keyboard.\n")
		p.Halt(3)
	}

	p.Print("Hello, " + string(name))
}

func testprint(p *Proc) {
	p.Print("Hi!\nThis is a test of the print syscall.\n")
}

// counter prints a count up to its argument, default 10, one per RTC tick.
func counter(p *Proc) {
	limit := 10
	if n, err := strconv.Atoi(strings.TrimSpace(p.Args())); err == nil && n > 0 {
		limit = n
	}

	rtc := p.Open(p.CString("rtc"))
	if rtc < 0 {
		p.Print("rtc open failed\n")
		p.Halt(2)
	}

	rate := p.Alloc(4)
	p.Store(rate, le32(32))
	p.Write(rtc, rate, 4)

	scratch := p.Alloc(4)

	for i := 1; i <= limit; i++ {
		p.Read(rtc, scratch, 0)
		p.Print(strconv.Itoa(i) + "\n")
	}

	p.Close(rtc)
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// pingpong bounces a ball across one line, paced by the RTC, until ctrl+C.
func pingpong(p *Proc) {
	const width = 40

	rtc := p.Open(p.CString("rtc"))
	if rtc < 0 {
		p.Print("rtc open failed\n")
		p.Halt(2)
	}

	rate := p.Alloc(4)
	p.Store(rate, le32(64))
	p.Write(rtc, rate, 4)

	scratch := p.Alloc(4)

	pos, dir := 0, 1

	for {
		row := strings.Repeat(" ", pos) + "o" + strings.Repeat(" ", width-pos) + "\n"
		p.Print(row)

		p.Read(rtc, scratch, 0)

		pos += dir
		if pos == 0 || pos == width {
			dir = -dir
		}
	}
}

// fish draws the two frames alternately through the video mapping until
// ctrl+C.
func fish(p *Proc) {
	frames := make([][]byte, 2)

	for i, name := range []string{"frame0.txt", "frame1.txt"} {
		fd := p.Open(p.CString(name))
		if fd < 0 {
			p.Print("file open failed\n")
			p.Halt(2)
		}

		data, _ := slurp(p, fd)
		p.Close(fd)

		frames[i] = data
	}

	ptr := p.Alloc(4)
	if p.Vidmap(ptr) != 0 {
		p.Print("vidmap failed\n")
		p.Halt(3)
	}

	video := binary.LittleEndian.Uint32(p.Load(ptr, 4))

	rtc := p.Open(p.CString("rtc"))
	if rtc < 0 {
		p.Print("rtc open failed\n")
		p.Halt(2)
	}

	rate := p.Alloc(4)
	p.Store(rate, le32(8))
	p.Write(rtc, rate, 4)

	scratch := p.Alloc(4)

	for i := 0; ; i++ {
		drawFrame(p, video, frames[i%2])
		p.Read(rtc, scratch, 0)
	}
}

func drawFrame(p *Proc, video uint32, frame []byte) {
	const cols = 80

	x, y := 0, 0

	for _, c := range frame {
		if c == '\n' {
			x, y = 0, y+1
			continue
		}

		if x < cols {
			p.Store(video+uint32((y*cols+x)*2), []byte{c})
		}

		x++
	}
}

func sigtest(p *Proc) {
	if p.SetHandler(2, Entry(0)) == -1 {
		p.Print("set_handler is not supported\n")
	}

	if p.Sigreturn() == -1 {
		p.Print("sigreturn is not supported\n")
	}
}

// syserr runs a fixed set of invalid system calls and reports which of them
// failed as they should.
func syserr(p *Proc) {
	buf := p.Alloc(abi.CommandSize)
	file := p.CString("frame0.txt")

	checks := []struct {
		name string
		ret  int32
	}{
		{"read fd -1", p.Read(-1, buf, 10)},
		{"read fd 8", p.Read(8, buf, 10)},
		{"read stdout", p.Read(1, buf, 10)},
		{"read NULL", p.Read(0, 0, 10)},
		{"read closed", p.Read(5, buf, 10)},
		{"write stdin", p.Write(0, buf, 10)},
		{"write fd 8", p.Write(8, buf, 10)},
		{"write NULL", p.Write(1, 0, 10)},
		{"open missing", p.Open(p.CString("nonexistent"))},
		{"open NULL", p.Open(0)},
		{"close stdin", p.Close(0)},
		{"close stdout", p.Close(1)},
		{"close closed", p.Close(2)},
		{"close fd 8", p.Close(8)},
		{"getargs none", p.GetArgs(buf, abi.CommandSize)},
		{"vidmap NULL", p.Vidmap(0)},
		{"vidmap kernel", p.Vidmap(abi.KernelBase)},
		{"syscall 0", p.Syscall(0, 0, 0, 0)},
		{"syscall 11", p.Syscall(abi.NumSyscalls, 0, 0, 0)},
	}

	fd := p.Open(file)
	checks = append(checks, struct {
		name string
		ret  int32
	}{"write file", p.Write(fd, buf, 1)})
	p.Close(fd)

	failed := 0

	for _, c := range checks {
		if c.ret != -1 {
			p.Print("FAIL " + c.name + "\n")
			failed++
		}
	}

	if failed > 0 {
		p.Halt(1)
	}

	p.Print("PASS\n")
}

// fault dereferences NULL.
func fault(p *Proc) {
	p.Load(0, 4)
}
