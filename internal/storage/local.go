package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes uploads beneath a directory that is served at URLPrefix.
type LocalStorage struct {
	Dir       string
	URLPrefix string
}

// NewLocalStorage constructs a LocalStorage rooted at dir and served under /uploads.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{Dir: dir, URLPrefix: "/uploads"}
}

// Save copies r to Dir/key and returns URLPrefix/key. The content type is not
// recorded; the static file server derives it from the extension.
func (s *LocalStorage) Save(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	key = path.Clean("/" + strings.TrimSpace(key))
	if key == "/" {
		return "", fmt.Errorf("local storage: %w", ErrEmptyKey)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("local storage: create dir: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("local storage: create %s: %w", key, err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n == 0 {
		err = ErrEmptyUpload
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("local storage: write %s: %w", key, err)
	}

	return strings.TrimSuffix(s.URLPrefix, "/") + key, nil
}
