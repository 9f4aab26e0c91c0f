package corpus

import (
	"context"
	"sync"
)

// MemoryTextStore keeps the corpus in process memory.
type MemoryTextStore struct {
	mu      sync.RWMutex
	entries []TextEntry
}

// NewMemoryTextStore creates a store seeded with entries.
func NewMemoryTextStore(entries ...TextEntry) *MemoryTextStore {
	return &MemoryTextStore{entries: append([]TextEntry(nil), entries...)}
}

func (s *MemoryTextStore) ReadAll(ctx context.Context) ([]TextEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TextEntry(nil), s.entries...), nil
}

func (s *MemoryTextStore) Append(ctx context.Context, entry TextEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Len returns the number of entries.
func (s *MemoryTextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// MemoryFingerprintStore keeps fingerprints in process memory.
type MemoryFingerprintStore struct {
	mu  sync.RWMutex
	fps []Fingerprint
}

// NewMemoryFingerprintStore creates a store seeded with fps.
func NewMemoryFingerprintStore(fps ...Fingerprint) *MemoryFingerprintStore {
	return &MemoryFingerprintStore{fps: append([]Fingerprint(nil), fps...)}
}

func (s *MemoryFingerprintStore) ReadAll(ctx context.Context) ([]Fingerprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Fingerprint(nil), s.fps...), nil
}

func (s *MemoryFingerprintStore) Append(ctx context.Context, fp Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fps = append(s.fps, fp)
	return nil
}

// Len returns the number of fingerprints.
func (s *MemoryFingerprintStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fps)
}
