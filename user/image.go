package user

import (
	"strings"

	"github.com/jonjonleee/Linux-like-OS/fs"
)

var frame0 = strings.Join([]string{
	"/~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~\\",
	"|                                                                          |",
	"|       o                                   ___                            |",
	"|      o    ><>                          __/   \\__       ><>               |",
	"|       o                      <><      /  o      >                        |",
	"|                                       \\__     __/                        |",
	"|           ___                            \\___/                           |",
	"|          /   \\          ><>                                              |",
	"|         /_____\\                                      <><                 |",
	"|   \\|/     | |       \\|/             \\|/                        \\|/       |",
	"\\~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~/",
	"",
}, "\n")

var frame1 = strings.Join([]string{
	"/~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~\\",
	"|      o                                                                   |",
	"|     o                                      ___                           |",
	"|      o     ><>                          __/   \\__        ><>             |",
	"|                             <><        /   o     >                       |",
	"|                                        \\__     __/                       |",
	"|           ___                             \\___/                          |",
	"|          /   \\           ><>                                             |",
	"|         /_____\\                                     <><                  |",
	"|   \\|/     | |       \\|/             \\|/                        \\|/       |",
	"\\~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~/",
	"",
}, "\n")

// LongName is exactly as long as a directory entry allows.
const LongName = "verylargetextwithverylongname.tx"

var longText = strings.Repeat("very large text with a very long name\n", 200) +
	"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ\n"

// NewBuilder lays out the default file system: the directory itself, the
// RTC, every program and the text files the programs read.
func NewBuilder() (*fs.Builder, error) {
	b := fs.NewBuilder()

	if err := b.AddDirectory("."); err != nil {
		return nil, err
	}

	for i, prog := range Programs {
		if err := b.AddFile(prog.Name, Executable(prog.Name, Entry(i))); err != nil {
			return nil, err
		}
	}

	if err := b.AddRTC("rtc"); err != nil {
		return nil, err
	}

	files := []struct {
		name string
		data string
	}{
		{"frame0.txt", frame0},
		{"frame1.txt", frame1},
		{LongName, longText},
		{"created.txt", "created by the image builder\n"},
	}

	for _, f := range files {
		if err := b.AddFile(f.name, []byte(f.data)); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// DefaultImage builds and opens the default file system.
func DefaultImage() (*fs.Image, error) {
	b, err := NewBuilder()
	if err != nil {
		return nil, err
	}

	return b.Image()
}
