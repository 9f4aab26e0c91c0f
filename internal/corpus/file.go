package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// jsonFile persists a slice as a single JSON array, rewritten atomically on
// every append. Entries are cached after the first read.
type jsonFile[T any] struct {
	mu      sync.Mutex
	path    string
	loaded  bool
	entries []T
}

func (f *jsonFile[T]) readAll() ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return nil, err
	}
	return append([]T(nil), f.entries...), nil
}

func (f *jsonFile[T]) append(entry T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return err
	}
	next := append(append([]T(nil), f.entries...), entry)
	if err := f.write(next); err != nil {
		return err
	}
	f.entries = next
	return nil
}

func (f *jsonFile[T]) load() error {
	if f.loaded {
		return nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read corpus file %s: %w", f.path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.entries); err != nil {
			return fmt.Errorf("decode corpus file %s: %w", f.path, err)
		}
	}
	f.loaded = true
	return nil
}

func (f *jsonFile[T]) write(entries []T) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp corpus file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write corpus file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// FileTextStore keeps the text corpus in a JSON file.
type FileTextStore struct {
	file jsonFile[TextEntry]
}

// NewFileTextStore opens (lazily) the corpus at path.
func NewFileTextStore(path string) *FileTextStore {
	return &FileTextStore{file: jsonFile[TextEntry]{path: path}}
}

func (s *FileTextStore) ReadAll(ctx context.Context) ([]TextEntry, error) {
	return s.file.readAll()
}

func (s *FileTextStore) Append(ctx context.Context, entry TextEntry) error {
	return s.file.append(entry)
}

// FileFingerprintStore keeps image fingerprints in a JSON file.
type FileFingerprintStore struct {
	file jsonFile[Fingerprint]
}

// NewFileFingerprintStore opens (lazily) the store at path.
func NewFileFingerprintStore(path string) *FileFingerprintStore {
	return &FileFingerprintStore{file: jsonFile[Fingerprint]{path: path}}
}

func (s *FileFingerprintStore) ReadAll(ctx context.Context) ([]Fingerprint, error) {
	return s.file.readAll()
}

func (s *FileFingerprintStore) Append(ctx context.Context, fp Fingerprint) error {
	return s.file.append(fp)
}
