package fs

import (
	"github.com/pkg/errors"
)

type builderEntry struct {
	name string
	typ  InodeType
	data []byte
}

// Builder lays out a new image. Entries keep the order they were added in.
type Builder struct {
	entries []builderEntry
	names   map[string]struct{}
}

func NewBuilder() *Builder {
	b := &Builder{names: make(map[string]struct{})}
	return b
}

func (b *Builder) add(name string, typ InodeType, data []byte) error {
	if len(name) == 0 || len(name) > NameLen {
		return errors.Wrapf(ErrNameTooLong, "name %q", name)
	}

	if _, ok := b.names[name]; ok {
		return errors.Wrapf(ErrDuplicateName, "name %q", name)
	}

	if len(b.entries) >= MaxDentries {
		return errors.Wrapf(ErrTooManyFiles, "adding %q", name)
	}

	if len(data) > blocksPerInode*BlockSize {
		return errors.Wrapf(ErrFileTooLarge, "%q is %d bytes", name, len(data))
	}

	b.names[name] = struct{}{}
	b.entries = append(b.entries, builderEntry{name: name, typ: typ, data: data})

	return nil
}

func (b *Builder) AddFile(name string, data []byte) error {
	return b.add(name, RegularFile, data)
}

func (b *Builder) AddDirectory(name string) error {
	return b.add(name, Directory, nil)
}

func (b *Builder) AddRTC(name string) error {
	return b.add(name, RTC, nil)
}

// Bytes serializes the image.
func (b *Builder) Bytes() []byte {
	var (
		inodes  uint32
		nblocks uint32
	)

	for _, e := range b.entries {
		if e.typ == RegularFile {
			inodes++
			nblocks += uint32((len(e.data) + BlockSize - 1) / BlockSize)
		}
	}

	out := make([]byte, (1+inodes+nblocks)*BlockSize)

	le.PutUint32(out[0:], uint32(len(b.entries)))
	le.PutUint32(out[4:], inodes)
	le.PutUint32(out[8:], nblocks)

	var (
		ino   uint32
		block uint32
	)

	dataBase := (1 + inodes) * BlockSize

	for i, e := range b.entries {
		raw := out[statsSize+i*DentrySize:][:DentrySize]

		copy(raw[:NameLen], e.name)
		le.PutUint32(raw[NameLen:], uint32(e.typ))

		if e.typ != RegularFile {
			continue
		}

		le.PutUint32(raw[NameLen+4:], ino)

		inode := out[(1+ino)*BlockSize:][:BlockSize]
		le.PutUint32(inode, uint32(len(e.data)))

		for j := 0; j*BlockSize < len(e.data); j++ {
			le.PutUint32(inode[4+4*j:], block)

			chunk := e.data[j*BlockSize:]
			if len(chunk) > BlockSize {
				chunk = chunk[:BlockSize]
			}

			copy(out[dataBase+block*BlockSize:], chunk)
			block++
		}

		ino++
	}

	return out
}

// Image serializes and reopens the image.
func (b *Builder) Image() (*Image, error) {
	return Open(b.Bytes())
}
