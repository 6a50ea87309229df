// Package loader validates executable images and extracts their entry point.
package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"io/ioutil"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/jonjonleee/Linux-like-OS/abi"
	"github.com/jonjonleee/Linux-like-OS/log"
)

var (
	ErrBadMagic  = errors.New("bad executable magic")
	ErrTruncated = errors.New("executable shorter than its header")
	ErrTooLarge  = errors.New("executable does not fit in the user window")
)

// MaxImage is the room between the load address and the user stack.
const MaxImage = abi.UserStack - abi.LoadAddress

// Executable is a validated image.
type Executable struct {
	Entry uint32
	Image []byte
}

type LoaderCache struct {
	mu sync.RWMutex

	cache *lru.ARCCache
}

func NewLoaderCache() *LoaderCache {
	cache, err := lru.NewARC(16)
	if err != nil {
		panic(err)
	}

	return &LoaderCache{cache: cache}
}

func (l *LoaderCache) Lookup(key string) (*Executable, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	val, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}

	return val.(*Executable), true
}

func (l *LoaderCache) Set(key string, e *Executable) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache.Add(key, e)
}

func (l *LoaderCache) Len() int {
	return l.cache.Len()
}

func NewLoader(cache *LoaderCache) *Loader {
	return &Loader{
		L:     log.L.Named("loader"),
		cache: cache,
	}
}

type Loader struct {
	L     hclog.Logger
	cache *LoaderCache
}

// Parse checks the magic, the header length and the size of data.
func Parse(data []byte) (*Executable, error) {
	if len(data) < len(abi.ExecMagic) || !bytes.Equal(data[:len(abi.ExecMagic)], []byte(abi.ExecMagic)) {
		return nil, ErrBadMagic
	}

	if len(data) < abi.HeaderSize {
		return nil, errors.Wrapf(ErrTruncated, "length %d", len(data))
	}

	if len(data) > MaxImage {
		return nil, errors.Wrapf(ErrTooLarge, "length %d", len(data))
	}

	return &Executable{
		Entry: binary.LittleEndian.Uint32(data[abi.EntryOffset:]),
		Image: data,
	}, nil
}

func (l *Loader) Load(r io.ReadSeeker) (*Executable, error) {
	var cacheKey string

	if l.cache != nil {
		l.L.Trace("calculating image cache key")

		h, err := blake2b.New256(nil)
		if err != nil {
			return nil, err
		}

		_, err = io.Copy(h, r)
		if err != nil {
			return nil, err
		}

		cacheKey = base64.URLEncoding.EncodeToString(h.Sum(nil))

		l.L.Trace("looking for cached image", "key", cacheKey)

		_, err = r.Seek(0, io.SeekStart)
		if err != nil {
			return nil, err
		}

		if exe, ok := l.cache.Lookup(cacheKey); ok {
			return exe, nil
		}
	}

	data, err := ioutil.ReadAll(io.LimitReader(r, MaxImage+1))
	if err != nil {
		return nil, err
	}

	exe, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		l.L.Trace("cached image", "key", cacheKey, "entry", hclog.Hex(exe.Entry))
		l.cache.Set(cacheKey, exe)
	}

	return exe, nil
}
