package fs

import (
	"github.com/pkg/errors"
)

var (
	ErrUnknownPath   = errors.New("unknown path")
	ErrNotDirectory  = errors.New("not a directory")
	ErrNotFile       = errors.New("not a regular file")
	ErrBadInode      = errors.New("inode out of range")
	ErrBadBlock      = errors.New("data block out of range")
	ErrCorruptImage  = errors.New("corrupt file system image")
	ErrNameTooLong   = errors.New("name too long")
	ErrTooManyFiles  = errors.New("too many directory entries")
	ErrFileTooLarge  = errors.New("file too large for one inode")
	ErrDuplicateName = errors.New("duplicate name")
)

// InodeType is the file type recorded in a directory entry.
type InodeType uint32

const (
	// RTC is the real-time clock device.
	RTC InodeType = 0

	// Directory is the single, flat directory.
	Directory InodeType = 1

	// RegularFile is a file with an inode and data blocks.
	RegularFile InodeType = 2
)

// String returns a human-readable representation of the InodeType.
func (n InodeType) String() string {
	switch n {
	case RTC:
		return "rtc"
	case Directory:
		return "directory"
	case RegularFile:
		return "file"
	default:
		return "unknown"
	}
}

// Inode is a file's length and the data blocks holding its bytes, in order.
type Inode struct {
	Index  uint32
	Length uint32
	Blocks []uint32
}
