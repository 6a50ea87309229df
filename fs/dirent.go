package fs

import "bytes"

// Dirent is one 64-byte directory entry: a 32-byte name, the type, and the
// inode number (meaningful for regular files only).
type Dirent struct {
	Name  string
	Type  InodeType
	Inode uint32
}

// entryName trims a fixed-width name at its first NUL. A full 32-byte name
// has no terminator.
func entryName(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	return string(raw)
}
