package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps blobs as flat files in one directory. The HTTP layer
// serves them under /blobs/{key}.
type FileStore struct {
	dir     string
	baseURL string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates dir if needed. baseURL is the public origin used to
// build object URLs; an empty baseURL yields root-relative URLs.
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("blob: file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("blob: mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileStore) path(key string) string { return filepath.Join(s.dir, key) }

func (s *FileStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a partial blob.
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("blob: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("blob: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blob: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("blob: commit %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (Object, error) {
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}

	f, err := os.Open(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, fmt.Errorf("blob: open %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Object{}, fmt.Errorf("blob: stat %s: %w", key, err)
	}
	return Object{Body: f, Size: info.Size()}, nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) URL(_ context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return s.baseURL + "/blobs/" + url.PathEscape(key), nil
}

func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("blob: %s is not a directory", s.dir)
	}
	return nil
}
