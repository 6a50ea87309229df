package tarfs

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"

	"github.com/jonjonleee/Linux-like-OS/fs"
)

func archive(t *testing.T, hdrs []*tar.Header, bodies map[string]string) *bytes.Buffer {
	var buf bytes.Buffer

	tw := tar.NewWriter(&buf)

	for _, h := range hdrs {
		body := bodies[h.Name]
		h.Size = int64(len(body))

		require.NoError(t, tw.WriteHeader(h))

		if body != "" {
			_, err := tw.Write([]byte(body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())

	return &buf
}

func TestTarFS(t *testing.T) {
	n := neko.Modern(t)

	n.It("flattens files and maps devices", func(t *testing.T) {
		buf := archive(t, []*tar.Header{
			{Name: "./", Typeflag: tar.TypeDir, Mode: 0755},
			{Name: "./bin/", Typeflag: tar.TypeDir, Mode: 0755},
			{Name: "./bin/hello", Typeflag: tar.TypeReg, Mode: 0755},
			{Name: "./frame0.txt", Typeflag: tar.TypeReg, Mode: 0644},
			{Name: "./rtc", Typeflag: tar.TypeChar, Mode: 0644},
			{Name: "./link", Typeflag: tar.TypeSymlink, Linkname: "frame0.txt"},
		}, map[string]string{
			"./bin/hello":  "\x7fELF....",
			"./frame0.txt": "fish\n",
		})

		tf, err := NewTarFS(buf)
		require.NoError(t, err)

		img, err := tf.Image()
		require.NoError(t, err)

		var names []string
		for _, d := range img.Dirents() {
			names = append(names, d.Name+":"+d.Type.String())
		}

		require.Equal(t, []string{".:directory", "hello:file", "frame0.txt:file", "rtc:rtc"}, names)

		d, err := img.ReadDentryByName("frame0.txt")
		require.NoError(t, err)

		out := make([]byte, 16)
		n, err := img.ReadData(d.Inode, 0, out)
		require.NoError(t, err)
		require.Equal(t, "fish\n", string(out[:n]))
	})

	n.It("adds a root entry when the archive has none", func(t *testing.T) {
		buf := archive(t, []*tar.Header{
			{Name: "a", Typeflag: tar.TypeReg, Mode: 0644},
		}, map[string]string{"a": "x"})

		tf, err := NewTarFS(buf)
		require.NoError(t, err)

		img, err := tf.Image()
		require.NoError(t, err)

		d, err := img.ReadDentryByIndex(0)
		require.NoError(t, err)
		require.Equal(t, fs.Directory, d.Type)
	})

	n.It("fails on names the image cannot hold", func(t *testing.T) {
		buf := archive(t, []*tar.Header{
			{Name: "this-name-is-much-too-long-for-a-dentry", Typeflag: tar.TypeReg, Mode: 0644},
		}, nil)

		tf, err := NewTarFS(buf)
		require.NoError(t, err)

		_, err = tf.Image()
		require.Equal(t, fs.ErrNameTooLong, errors.Cause(err))
	})

	n.Meow()
}
