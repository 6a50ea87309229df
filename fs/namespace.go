package fs

import (
	"context"

	"github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Namespace resolves names against an image, remembering hits.
type Namespace struct {
	Image       *Image
	DirentCache *lru.ARCCache
}

func NewNamespace(img *Image) *Namespace {
	cache, err := lru.NewARC(MaxDentries)
	if err != nil {
		panic(err)
	}

	return &Namespace{
		Image:       img,
		DirentCache: cache,
	}
}

func (m *Namespace) LookupDirent(ctx context.Context, name string) (Dirent, error) {
	if val, ok := m.DirentCache.Get(name); ok {
		return val.(Dirent), nil
	}

	d, err := m.Image.ReadDentryByName(name)
	if err != nil {
		return Dirent{}, err
	}

	m.DirentCache.Add(name, d)

	return d, nil
}

// Reader opens a regular file for sequential reading.
func (m *Namespace) Reader(d Dirent) (*FileReader, error) {
	if d.Type != RegularFile {
		return nil, errors.Wrapf(ErrNotFile, "%s is a %s", d.Name, d.Type)
	}

	length, err := m.Image.Length(d.Inode)
	if err != nil {
		return nil, err
	}

	return &FileReader{img: m.Image, inode: d.Inode, length: int64(length)}, nil
}
