// Package tarfs builds a file system image from a tar archive.
package tarfs

import (
	"archive/tar"
	"io"
	"io/ioutil"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/jonjonleee/Linux-like-OS/fs"
	"github.com/jonjonleee/Linux-like-OS/log"
)

type entry struct {
	hdr  *tar.Header
	name string
	typ  fs.InodeType
	body []byte
}

func (e *entry) String() string {
	return spew.Sdump(e.hdr)
}

// TarFS is a flat view of an archive: every regular file by its base name,
// character devices as the RTC, and the archive root as ".".
type TarFS struct {
	entries []*entry
}

func cleanName(name string) string {
	if len(name) > 2 && name[:2] == "./" {
		name = name[2:]
	}

	if len(name) >= 1 && name[0] == '/' {
		name = name[1:]
	}

	return name
}

func NewTarFS(r io.Reader) (*TarFS, error) {
	tr := tar.NewReader(r)

	t := &TarFS{}

	sawRoot := false

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrapf(err, "reading archive")
		}

		name := cleanName(hdr.Name)

		e := &entry{hdr: hdr}

		switch hdr.Typeflag {
		case tar.TypeDir:
			// root!
			if name == "./" || name == "." || name == "" {
				if sawRoot {
					continue
				}

				sawRoot = true
				e.name = "."
				e.typ = fs.Directory
			} else {
				log.L.Trace("tarfs-skip-dir", "name", name)
				continue
			}
		case tar.TypeChar:
			e.name = filepath.Base(name)
			e.typ = fs.RTC
		case tar.TypeReg, tar.TypeRegA:
			data, err := ioutil.ReadAll(tr)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", name)
			}

			e.name = filepath.Base(name)
			e.typ = fs.RegularFile
			e.body = data
		default:
			log.L.Trace("tarfs-skip", "name", name, "type", hdr.Typeflag)
			continue
		}

		log.L.Trace("tarfs-entry", "entry", e)

		t.entries = append(t.entries, e)
	}

	if !sawRoot {
		t.entries = append([]*entry{{name: ".", typ: fs.Directory}}, t.entries...)
	}

	return t, nil
}

// Builder lays the archive out as an image.
func (t *TarFS) Builder() (*fs.Builder, error) {
	b := fs.NewBuilder()

	for _, e := range t.entries {
		var err error

		switch e.typ {
		case fs.Directory:
			err = b.AddDirectory(e.name)
		case fs.RTC:
			err = b.AddRTC(e.name)
		default:
			err = b.AddFile(e.name, e.body)
		}

		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func (t *TarFS) Image() (*fs.Image, error) {
	b, err := t.Builder()
	if err != nil {
		return nil, err
	}

	return b.Image()
}
