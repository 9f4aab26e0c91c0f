package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage reads objects from the filesystem. Relative keys resolve
// against Root; absolute paths and file:// URIs are used as given.
type LocalStorage struct {
	Root string
}

// NewLocalStorage creates a filesystem storage rooted at root.
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{Root: root}
}

func (s *LocalStorage) resolve(key string) string {
	key = strings.TrimPrefix(key, "file://")
	if filepath.IsAbs(key) || s.Root == "" {
		return filepath.Clean(key)
	}
	return filepath.Join(s.Root, key)
}

// Download opens a local file
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.resolve(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

// Exists checks if a local file exists
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	info, err := os.Stat(s.resolve(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
