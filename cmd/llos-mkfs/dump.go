package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"

	"github.com/jonjonleee/Linux-like-OS/fs"
)

func dump(path string, detail bool) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	img, err := fs.Open(data)
	if err != nil {
		return err
	}

	fmt.Printf("\n[boot block]\n")
	fmt.Printf("dentries=%d inodes=%d data_blocks=%d\n",
		img.DirCount, img.InodeCount, img.DataCount)

	fmt.Printf("\n[dentries]\n")

	tr := tabwriter.NewWriter(os.Stdout, 4, 8, 1, ' ', 0)

	for i, d := range img.Dirents() {
		if d.Type != fs.RegularFile {
			fmt.Fprintf(tr, "%d\t%s\t%s\n", i, d.Name, d.Type)
			continue
		}

		length, err := img.Length(d.Inode)
		if err != nil {
			return err
		}

		fmt.Fprintf(tr, "%d\t%s\t%s\tinode=%d len=%d\n", i, d.Name, d.Type, d.Inode, length)
	}

	tr.Flush()

	if !detail {
		return nil
	}

	fmt.Printf("\n[inodes]\n")

	for _, d := range img.Dirents() {
		if d.Type != fs.RegularFile {
			continue
		}

		ino, err := img.Inode(d.Inode)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s", d.Name, spew.Sdump(ino))
	}

	return nil
}
