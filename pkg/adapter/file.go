package adapter

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// fileStorage implements Storage on a local directory. Writes go to a
// temporary file in the same directory and are renamed into place on Close,
// so readers never observe a half-written artifact.
type fileStorage struct {
	dir string
}

// NewFileStorage creates a Storage backed by the given directory
func NewFileStorage(dir string) (Storage, error) {
	if dir == "" {
		return nil, goerr.New("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create artifact directory", goerr.V("dir", dir))
	}
	return &fileStorage{dir: dir}, nil
}

func (s *fileStorage) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *fileStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(key)+".*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary artifact", goerr.V("key", key))
	}
	return &atomicFile{File: tmp, target: s.path(key)}, nil
}

func (s *fileStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(ErrObjectNotFound, "artifact does not exist", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to open artifact", goerr.V("key", key))
	}
	return f, nil
}

type atomicFile struct {
	*os.File
	target string
	closed bool
}

func (f *atomicFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if err := f.File.Sync(); err != nil {
		_ = f.File.Close()
		_ = os.Remove(f.File.Name())
		return goerr.Wrap(err, "failed to sync artifact", goerr.V("path", f.target))
	}
	if err := f.File.Close(); err != nil {
		_ = os.Remove(f.File.Name())
		return goerr.Wrap(err, "failed to close artifact", goerr.V("path", f.target))
	}
	if err := os.Rename(f.File.Name(), f.target); err != nil {
		_ = os.Remove(f.File.Name())
		return goerr.Wrap(err, "failed to replace artifact", goerr.V("path", f.target))
	}
	return nil
}

// Abort discards the temporary file without replacing the artifact
func (f *atomicFile) Abort() {
	if f.closed {
		return
	}
	f.closed = true
	_ = f.File.Close()
	_ = os.Remove(f.File.Name())
}
