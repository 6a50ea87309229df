package fs

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

const longName = "verylargetextwithverylongname.tx"

func testImage(t *testing.T) (*Image, []byte) {
	big := bytes.Repeat([]byte("0123456789"), 1000)

	b := NewBuilder()
	require.NoError(t, b.AddDirectory("."))
	require.NoError(t, b.AddFile("frame0.txt", []byte("/\\/\\/\\ fish\n")))
	require.NoError(t, b.AddRTC("rtc"))
	require.NoError(t, b.AddFile(longName, big))
	require.NoError(t, b.AddFile("empty", nil))

	img, err := b.Image()
	require.NoError(t, err)

	return img, big
}

func TestImage(t *testing.T) {
	n := neko.Modern(t)

	n.It("parses the boot block", func(t *testing.T) {
		img, _ := testImage(t)

		require.Equal(t, uint32(5), img.DirCount)
		require.Equal(t, uint32(3), img.InodeCount)
		require.Equal(t, uint32(4), img.DataCount)

		d, err := img.ReadDentryByIndex(2)
		require.NoError(t, err)
		require.Equal(t, Dirent{Name: "rtc", Type: RTC}, d)

		_, err = img.ReadDentryByIndex(5)
		require.Equal(t, ErrUnknownPath, errors.Cause(err))
	})

	n.It("matches names exactly", func(t *testing.T) {
		img, _ := testImage(t)

		d, err := img.ReadDentryByName("frame0.txt")
		require.NoError(t, err)
		require.Equal(t, RegularFile, d.Type)

		_, err = img.ReadDentryByName("frame0.tx")
		require.Error(t, err)

		_, err = img.ReadDentryByName("")
		require.Error(t, err)

		d, err = img.ReadDentryByName(longName)
		require.NoError(t, err)
		require.Equal(t, longName, d.Name)

		_, err = img.ReadDentryByName(longName + "t")
		require.Equal(t, ErrUnknownPath, errors.Cause(err))
	})

	n.It("ignores one trailing newline", func(t *testing.T) {
		img, _ := testImage(t)

		d, err := img.ReadDentryByName("rtc\n")
		require.NoError(t, err)
		require.Equal(t, "rtc", d.Name)
	})

	n.It("reads across block boundaries", func(t *testing.T) {
		img, big := testImage(t)

		d, err := img.ReadDentryByName(longName)
		require.NoError(t, err)

		length, err := img.Length(d.Inode)
		require.NoError(t, err)
		require.Equal(t, uint32(len(big)), length)

		buf := make([]byte, 100)
		n, err := img.ReadData(d.Inode, 4090, buf)
		require.NoError(t, err)
		require.Equal(t, 100, n)
		require.Equal(t, big[4090:4190], buf)

		n, err = img.ReadData(d.Inode, uint32(len(big)-10), buf)
		require.NoError(t, err)
		require.Equal(t, 10, n)

		n, err = img.ReadData(d.Inode, uint32(len(big)), buf)
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	n.It("rejects a bad inode", func(t *testing.T) {
		img, _ := testImage(t)

		_, err := img.ReadData(99, 0, make([]byte, 4))
		require.Equal(t, ErrBadInode, errors.Cause(err))
	})

	n.It("rejects a data block past the end", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddFile("a", []byte("abc")))

		data := b.Bytes()
		le.PutUint32(data[BlockSize+4:], 7)

		img, err := Open(data)
		require.NoError(t, err)

		_, err = img.ReadData(0, 0, make([]byte, 3))
		require.Equal(t, ErrBadBlock, errors.Cause(err))
	})

	n.It("rejects truncated images", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddFile("a", []byte("abc")))

		data := b.Bytes()

		_, err := Open(data[:len(data)-1])
		require.Equal(t, ErrCorruptImage, errors.Cause(err))

		_, err = Open(nil)
		require.Equal(t, ErrCorruptImage, errors.Cause(err))
	})

	n.Meow()
}

func TestBuilder(t *testing.T) {
	n := neko.Modern(t)

	n.It("refuses names the boot block cannot hold", func(t *testing.T) {
		b := NewBuilder()

		require.Equal(t, ErrNameTooLong, errors.Cause(b.AddFile(longName+"x", nil)))
		require.NoError(t, b.AddFile("a", nil))
		require.Equal(t, ErrDuplicateName, errors.Cause(b.AddFile("a", nil)))
	})

	n.It("caps the directory at 63 entries", func(t *testing.T) {
		b := NewBuilder()

		for i := 0; i < MaxDentries; i++ {
			require.NoError(t, b.AddRTC(string(rune('A'+i%26))+string(rune('a'+i/26))))
		}

		require.Equal(t, ErrTooManyFiles, errors.Cause(b.AddRTC("overflow")))
	})

	n.Meow()
}

func TestNamespace(t *testing.T) {
	n := neko.Modern(t)

	n.It("caches lookups", func(t *testing.T) {
		img, _ := testImage(t)
		ns := NewNamespace(img)

		ctx := context.Background()

		d, err := ns.LookupDirent(ctx, "frame0.txt")
		require.NoError(t, err)
		require.Equal(t, 1, ns.DirentCache.Len())

		again, err := ns.LookupDirent(ctx, "frame0.txt")
		require.NoError(t, err)
		require.Equal(t, d, again)

		_, err = ns.LookupDirent(ctx, "nope")
		require.Equal(t, ErrUnknownPath, errors.Cause(err))
		require.Equal(t, 1, ns.DirentCache.Len())
	})

	n.It("reads files through a seekable reader", func(t *testing.T) {
		img, big := testImage(t)
		ns := NewNamespace(img)

		d, err := ns.LookupDirent(context.Background(), longName)
		require.NoError(t, err)

		r, err := ns.Reader(d)
		require.NoError(t, err)
		require.Equal(t, int64(len(big)), r.Size())

		all, err := ioutil.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, big, all)

		_, err = r.Seek(-5, io.SeekEnd)
		require.NoError(t, err)

		tail, err := ioutil.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, big[len(big)-5:], tail)
	})

	n.It("refuses to read devices and directories", func(t *testing.T) {
		img, _ := testImage(t)
		ns := NewNamespace(img)

		d, err := ns.LookupDirent(context.Background(), "rtc")
		require.NoError(t, err)

		_, err = ns.Reader(d)
		require.Equal(t, ErrNotFile, errors.Cause(err))
	})

	n.Meow()
}
