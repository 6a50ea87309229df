package fs

import (
	"io"

	"github.com/pkg/errors"
)

// FileReader is an io.ReadSeeker over one inode.
type FileReader struct {
	img    *Image
	inode  uint32
	length int64
	pos    int64
}

func (f *FileReader) Read(b []byte) (int, error) {
	if f.pos >= f.length {
		return 0, io.EOF
	}

	n, err := f.img.ReadData(f.inode, uint32(f.pos), b)
	f.pos += int64(n)

	return n, err
}

func (f *FileReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64

	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = f.length + offset
	default:
		return 0, errors.Errorf("bad whence %d", whence)
	}

	if abs < 0 {
		return 0, errors.Errorf("negative position %d", abs)
	}

	f.pos = abs

	return abs, nil
}

func (f *FileReader) Size() int64 {
	return f.length
}
