// Package document reads tabular knowledge files into model.Document values.
// Only the structural shape matters: ordered sheets of ordered rows of named
// columns. The container format is chosen by file extension.
package document

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Vamsi1807/AI-Call-Center/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrUnsupportedFormat is returned for files whose extension has no reader
var ErrUnsupportedFormat = goerr.New("unsupported document format")

// Source is a named document that can be opened and parsed
type Source interface {
	Name() string
	Open(ctx context.Context) (*model.Document, error)
}

// SupportedExtension reports whether a file name has a known reader
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".yaml", ".yml":
		return true
	}
	return false
}

type fileSource struct {
	path string
}

// FileSource returns a Source that parses the file at path
func FileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Name() string {
	return filepath.Base(s.path)
}

func (s *fileSource) Open(ctx context.Context) (*model.Document, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open document", goerr.V("path", s.path))
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".xlsx", ".xlsm":
		return ParseWorkbook(s.Name(), f)
	case ".yaml", ".yml":
		return ParseYAML(s.Name(), f)
	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "no reader for document", goerr.V("path", s.path))
	}
}

// Dir returns a Source for every supported file in dir, ordered by file name
func Dir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read data directory", goerr.V("dir", dir))
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		if SupportedExtension(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, FileSource(filepath.Join(dir, name)))
	}
	return sources, nil
}

// Import copies uploaded files into dir, replacing files with the same name
func Import(dir string, paths []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
	}

	imported := make([]string, 0, len(paths))
	for _, path := range paths {
		if !SupportedExtension(path) {
			return imported, goerr.Wrap(ErrUnsupportedFormat, "cannot import file", goerr.V("path", path))
		}
		dst := filepath.Join(dir, filepath.Base(path))
		if sameFile(path, dst) {
			imported = append(imported, dst)
			continue
		}
		if err := copyFile(path, dst); err != nil {
			return imported, err
		}
		imported = append(imported, dst)
	}
	return imported, nil
}

// sameFile reports whether both paths name an existing file that is the
// same on disk
func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}

// copyFile writes src into a temp file next to dst and renames it into place,
// so dst is never left truncated
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return goerr.Wrap(err, "failed to open upload", goerr.V("path", src))
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return goerr.Wrap(err, "failed to create document file", goerr.V("path", dst))
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return goerr.Wrap(err, "failed to copy upload", goerr.V("path", src))
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return goerr.Wrap(err, "failed to close document file", goerr.V("path", dst))
	}
	if err := os.Rename(out.Name(), dst); err != nil {
		_ = os.Remove(out.Name())
		return goerr.Wrap(err, "failed to replace document file", goerr.V("path", dst))
	}
	return nil
}
