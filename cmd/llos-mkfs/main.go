package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/jonjonleee/Linux-like-OS/fs"
	"github.com/jonjonleee/Linux-like-OS/fs/host"
	"github.com/jonjonleee/Linux-like-OS/fs/tarfs"
	"github.com/jonjonleee/Linux-like-OS/user"
)

var (
	fOutput = pflag.StringP("output", "o", "filesys_img", "where to write the image")
	fDump   = pflag.Bool("dump", false, "list the contents of an existing image instead")
	fDebug  = pflag.Bool("debug", false, "show full inode detail when dumping")
)

func build(args []string) (*fs.Builder, error) {
	if len(args) == 0 {
		return user.NewBuilder()
	}

	if st, err := os.Stat(args[0]); err == nil && st.IsDir() {
		h, err := host.NewHostFS(args[0])
		if err != nil {
			return nil, err
		}

		return h.Builder()
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, err
	}

	defer f.Close()

	tf, err := tarfs.NewTarFS(f)
	if err != nil {
		return nil, err
	}

	return tf.Builder()
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: llos-mkfs [-o image] [archive.tar | directory]\n")
		fmt.Fprintf(os.Stderr, "       llos-mkfs --dump image\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *fDump {
		if pflag.NArg() != 1 {
			pflag.Usage()
			os.Exit(1)
		}

		if err := dump(pflag.Arg(0), *fDebug); err != nil {
			log.Fatal(err)
		}

		return
	}

	b, err := build(pflag.Args())
	if err != nil {
		log.Fatal(err)
	}

	data := b.Bytes()

	if _, err := fs.Open(data); err != nil {
		log.Fatal(err)
	}

	if err := ioutil.WriteFile(*fOutput, data, 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("wrote %s (%d bytes)\n", *fOutput, len(data))
}
