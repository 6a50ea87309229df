package host

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"

	"github.com/jonjonleee/Linux-like-OS/fs"
)

func TestHostFS(t *testing.T) {
	n := neko.Modern(t)

	n.It("builds a flat image from a directory", func(t *testing.T) {
		dir := t.TempDir()

		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "b.txt"), []byte("bee"), 0644))
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "a.txt"), []byte("ay"), 0644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

		h, err := NewHostFS(dir)
		require.NoError(t, err)
		require.Equal(t, []string{"a.txt", "b.txt"}, h.Names())

		img, err := h.Image()
		require.NoError(t, err)

		d, err := img.ReadDentryByIndex(0)
		require.NoError(t, err)
		require.Equal(t, ".", d.Name)

		d, err = img.ReadDentryByName("b.txt")
		require.NoError(t, err)
		require.Equal(t, fs.RegularFile, d.Type)

		buf := make([]byte, 8)
		cnt, err := img.ReadData(d.Inode, 0, buf)
		require.NoError(t, err)
		require.Equal(t, "bee", string(buf[:cnt]))

		_, err = img.ReadDentryByName("sub")
		require.Error(t, err)
	})

	n.It("rejects a path that is not a directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, ioutil.WriteFile(path, nil, 0644))

		_, err := NewHostFS(path)
		require.Error(t, err)
	})

	n.Meow()
}
