package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"runtime/pprof"

	"github.com/spf13/pflag"

	"github.com/jonjonleee/Linux-like-OS/fs"
	"github.com/jonjonleee/Linux-like-OS/fs/host"
	"github.com/jonjonleee/Linux-like-OS/fs/tarfs"
	"github.com/jonjonleee/Linux-like-OS/hw"
	"github.com/jonjonleee/Linux-like-OS/kernel"
	clog "github.com/jonjonleee/Linux-like-OS/log"
	"github.com/jonjonleee/Linux-like-OS/syscalls"
	"github.com/jonjonleee/Linux-like-OS/user"
)

var (
	fImage = pflag.StringP("image", "i", "", "file system image, tar archive or directory (default: built-in image)")
	fRaw   = pflag.Bool("raw", false, "put the host terminal in raw mode")
	fRTC   = pflag.Bool("rtc", true, "drive the RTC from a host ticker")
	fLog   = pflag.String("log", "", "write kernel logs to this file instead of stderr")
	fDebug = pflag.Bool("debug", false, "enable debug logging")
	fInit  = pflag.String("init", "shell", "program started on each terminal")
)

func loadImage(path string) (*fs.Image, error) {
	if path == "" {
		return user.DefaultImage()
	}

	if st, err := os.Stat(path); err == nil && st.IsDir() {
		h, err := host.NewHostFS(path)
		if err != nil {
			return nil, err
		}

		return h.Image()
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if img, err := fs.Open(data); err == nil {
		return img, nil
	}

	tf, err := tarfs.NewTarFS(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return tf.Image()
}

func main() {
	cpuprofile := os.Getenv("CPUPROFILE")
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		fmt.Printf("pprof: profiling started\n")
	}

	pflag.Parse()

	if *fDebug {
		clog.EnableDebug()
	}

	if *fLog != "" {
		f, err := os.Create(*fLog)
		if err != nil {
			log.Fatal(err)
		}

		defer f.Close()

		clog.Redirect(f)
	}

	img, err := loadImage(*fImage)
	if err != nil {
		log.Fatal(err)
	}

	m := hw.NewMachine()
	user.Install(m.Text)

	k, err := kernel.NewKernel(m, img, kernel.Config{
		Console:     os.Stdout,
		InitProgram: *fInit,
	})
	if err != nil {
		log.Fatal(err)
	}

	syscalls.Install(k)

	if *fRaw {
		restore, err := makeRaw(int(os.Stdin.Fd()))
		if err != nil {
			log.Fatal(err)
		}

		defer restore()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	k.Boot()

	go m.PIT.Run(ctx)

	if *fRTC {
		go m.RTC.Run(ctx)
	}

	err = feed(ctx, os.Stdin, m.Keyboard)

	cancel()
	m.Shutdown()

	if cpuprofile != "" {
		pprof.StopCPUProfile()
		fmt.Printf("pprof: profiling finished\n")
	}

	if err != nil {
		clog.L.Error("input", "error", err)
	}
}
