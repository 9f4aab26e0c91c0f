// Package corpus provides the append-only stores of previously analyzed
// listing texts and image fingerprints.
//
// Every store is read and appended under a Guard: a caller reads the whole
// corpus, compares, then appends while holding the guard, so two concurrent
// submissions can never both miss each other as duplicates.
package corpus

import (
	"context"
	"errors"
	"time"
)

// ErrLockTimeout is returned when a distributed lock could not be acquired
// before the context ended.
var ErrLockTimeout = errors.New("corpus lock not acquired")

// TextEntry is one previously analyzed listing text (already preprocessed).
type TextEntry struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Fingerprint is the perceptual hash of one previously seen image.
type Fingerprint struct {
	Path      string    `json:"path"`
	Hash      uint64    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

// TextStore is the append-only text corpus.
type TextStore interface {
	ReadAll(ctx context.Context) ([]TextEntry, error)
	Append(ctx context.Context, entry TextEntry) error
}

// FingerprintStore is the append-only image fingerprint store.
type FingerprintStore interface {
	ReadAll(ctx context.Context) ([]Fingerprint, error)
	Append(ctx context.Context, fp Fingerprint) error
}

// Locker is implemented by stores shared between processes. The returned
// unlock func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Guard serializes read→compare→append sequences on one store. Within a
// process it uses a mutex; if the store is a Locker it also takes the
// store's own lock.
type Guard struct {
	slot   chan struct{}
	locker Locker
}

// NewGuard creates the guard for store.
func NewGuard(store interface{}) *Guard {
	g := &Guard{slot: make(chan struct{}, 1)}
	if l, ok := store.(Locker); ok {
		g.locker = l
	}
	return g
}

// Do runs fn with exclusive access to the store.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.slot }()

	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx)
		if err != nil {
			return err
		}
		defer unlock()
	}

	return fn(ctx)
}
