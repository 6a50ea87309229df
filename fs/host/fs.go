// Package host builds a file system image from a directory on the host.
package host

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/fs"
	"github.com/jonjonleee/Linux-like-OS/log"
)

type HostFS struct {
	Path string

	names []string
	infos map[string]os.FileInfo
}

func typeOf(info os.FileInfo) (fs.InodeType, bool) {
	mode := info.Mode()

	switch {
	case mode.IsRegular():
		return fs.RegularFile, true
	case mode&os.ModeCharDevice != 0:
		return fs.RTC, true
	default:
		return 0, false
	}
}

// NewHostFS snapshots the top level of path. Subdirectories, symlinks and
// other special files are skipped since the image is flat.
func NewHostFS(path string) (*HostFS, error) {
	log.L.Trace("creating host fs", "path", path)

	stat, err := os.Lstat(path)
	if err != nil {
		log.L.Error("error stating hostfs path", "error", err)
		return nil, err
	}

	if !stat.IsDir() {
		return nil, errors.Wrapf(fs.ErrNotDirectory, "host fs %s", path)
	}

	infos, err := ioutil.ReadDir(path)
	if err != nil {
		return nil, err
	}

	h := &HostFS{
		Path:  path,
		infos: make(map[string]os.FileInfo),
	}

	for _, ent := range infos {
		if _, ok := typeOf(ent); !ok {
			log.L.Trace("hostfs-skip", "name", ent.Name(), "mode", ent.Mode())
			continue
		}

		h.names = append(h.names, ent.Name())
		h.infos[ent.Name()] = ent
	}

	sort.Strings(h.names)

	return h, nil
}

// Names lists the entries that will land in the image, in image order
// after ".".
func (h *HostFS) Names() []string {
	return h.names
}

func (h *HostFS) Builder() (*fs.Builder, error) {
	b := fs.NewBuilder()

	if err := b.AddDirectory("."); err != nil {
		return nil, err
	}

	for _, name := range h.names {
		info := h.infos[name]
		typ, _ := typeOf(info)

		if typ == fs.RTC {
			if err := b.AddRTC(name); err != nil {
				return nil, err
			}
			continue
		}

		data, err := ioutil.ReadFile(filepath.Join(h.Path, name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}

		if err := b.AddFile(name, data); err != nil {
			return nil, errors.Wrapf(err, "adding %s", name)
		}
	}

	return b, nil
}

func (h *HostFS) Image() (*fs.Image, error) {
	b, err := h.Builder()
	if err != nil {
		return nil, err
	}

	return b.Image()
}
