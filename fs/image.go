// Package fs reads the kernel's read-only file system image. The image is a
// 4KB boot block of directory entries, then inodes, then data blocks, all
// 4KB.
package fs

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	BlockSize   = 4096
	NameLen     = 32
	DentrySize  = 64
	MaxDentries = 63

	statsSize      = 64
	blocksPerInode = BlockSize/4 - 1
)

var le = binary.LittleEndian

type Image struct {
	data []byte

	DirCount   uint32
	InodeCount uint32
	DataCount  uint32

	dirents []Dirent
}

// Open parses a boot block and checks that every region fits in data.
func Open(data []byte) (*Image, error) {
	if len(data) < BlockSize {
		return nil, errors.Wrapf(ErrCorruptImage, "image is %d bytes", len(data))
	}

	img := &Image{
		data:       data,
		DirCount:   le.Uint32(data[0:]),
		InodeCount: le.Uint32(data[4:]),
		DataCount:  le.Uint32(data[8:]),
	}

	if img.DirCount > MaxDentries {
		return nil, errors.Wrapf(ErrCorruptImage, "dir_count=%d", img.DirCount)
	}

	need := (1 + uint64(img.InodeCount) + uint64(img.DataCount)) * BlockSize
	if uint64(len(data)) < need {
		return nil, errors.Wrapf(ErrCorruptImage, "need %d bytes, have %d", need, len(data))
	}

	for i := uint32(0); i < img.DirCount; i++ {
		raw := data[statsSize+i*DentrySize:]

		img.dirents = append(img.dirents, Dirent{
			Name:  entryName(raw[:NameLen]),
			Type:  InodeType(le.Uint32(raw[NameLen:])),
			Inode: le.Uint32(raw[NameLen+4:]),
		})
	}

	return img, nil
}

// Dirents returns the directory in on-disk order.
func (img *Image) Dirents() []Dirent {
	return img.dirents
}

// ReadDentryByName finds an entry by exact name. A single trailing newline is
// ignored so a line read from the terminal can be passed directly.
func (img *Image) ReadDentryByName(name string) (Dirent, error) {
	if n := len(name); n > 0 && name[n-1] == '\n' {
		name = name[:n-1]
	}

	if name == "" || len(name) > NameLen {
		return Dirent{}, errors.Wrapf(ErrUnknownPath, "name %q", name)
	}

	for _, d := range img.dirents {
		if d.Name == name {
			return d, nil
		}
	}

	return Dirent{}, errors.Wrapf(ErrUnknownPath, "name %q", name)
}

// ReadDentryByIndex returns the index'th directory entry.
func (img *Image) ReadDentryByIndex(index uint32) (Dirent, error) {
	if index >= img.DirCount {
		return Dirent{}, errors.Wrapf(ErrUnknownPath, "index %d of %d", index, img.DirCount)
	}

	return img.dirents[index], nil
}

// Inode decodes inode index.
func (img *Image) Inode(index uint32) (*Inode, error) {
	if index >= img.InodeCount {
		return nil, errors.Wrapf(ErrBadInode, "inode %d of %d", index, img.InodeCount)
	}

	raw := img.data[(1+index)*BlockSize:][:BlockSize]

	ino := &Inode{
		Index:  index,
		Length: le.Uint32(raw),
	}

	nblocks := (ino.Length + BlockSize - 1) / BlockSize
	if nblocks > blocksPerInode {
		return nil, errors.Wrapf(ErrCorruptImage, "inode %d length %d", index, ino.Length)
	}

	for i := uint32(0); i < nblocks; i++ {
		ino.Blocks = append(ino.Blocks, le.Uint32(raw[4+4*i:]))
	}

	return ino, nil
}

// Length is the byte length of inode index.
func (img *Image) Length(index uint32) (uint32, error) {
	ino, err := img.Inode(index)
	if err != nil {
		return 0, err
	}

	return ino.Length, nil
}

// ReadData copies from inode index starting at offset. It returns 0 at or
// past the end of the file.
func (img *Image) ReadData(index, offset uint32, buf []byte) (int, error) {
	ino, err := img.Inode(index)
	if err != nil {
		return 0, err
	}

	if offset >= ino.Length {
		return 0, nil
	}

	want := ino.Length - offset
	if uint32(len(buf)) < want {
		want = uint32(len(buf))
	}

	dataBase := (1 + img.InodeCount) * BlockSize

	var done uint32
	for done < want {
		pos := offset + done

		block := ino.Blocks[pos/BlockSize]
		if block >= img.DataCount {
			return int(done), errors.Wrapf(ErrBadBlock, "inode %d block %d of %d", index, block, img.DataCount)
		}

		start := dataBase + block*BlockSize + pos%BlockSize
		chunk := BlockSize - pos%BlockSize
		if chunk > want-done {
			chunk = want - done
		}

		copy(buf[done:done+chunk], img.data[start:start+chunk])
		done += chunk
	}

	return int(done), nil
}
