package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"go.uber.org/zap"
)

// advisoryKey derives a stable pg_advisory_lock key from a table name.
func advisoryKey(table string) int64 {
	h := fnv.New64a()
	h.Write([]byte("corpus:" + table))
	return int64(h.Sum64())
}

// pgLock holds a session-level advisory lock on a dedicated connection.
func pgLock(ctx context.Context, db *sql.DB, key int64) (func(), error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("corpus lock connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(releaseCtx, "SELECT pg_advisory_unlock($1)", key); err != nil {
			logger.Warn("failed to release corpus advisory lock", zap.Int64("key", key), zap.Error(err))
		}
		conn.Close()
	}, nil
}

// PostgresTextStore keeps the text corpus in the text_corpus table.
type PostgresTextStore struct {
	db *sql.DB
}

// NewPostgresTextStore creates a text store backed by db.
func NewPostgresTextStore(db *sql.DB) *PostgresTextStore {
	return &PostgresTextStore{db: db}
}

// ReadAll returns every entry in insertion order.
func (s *PostgresTextStore) ReadAll(ctx context.Context) ([]TextEntry, error) {
	query := `
		SELECT id, body, metadata, created_at
		FROM text_corpus
		ORDER BY seq
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query text corpus: %w", err)
	}
	defer rows.Close()

	var entries []TextEntry
	for rows.Next() {
		var e TextEntry
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.Text, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode text corpus metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Append inserts entry.
func (s *PostgresTextStore) Append(ctx context.Context, entry TextEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO text_corpus (id, body, metadata, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.db.ExecContext(ctx, query, entry.ID, entry.Text, metadata, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert text corpus entry: %w", err)
	}
	return nil
}

// Lock implements Locker.
func (s *PostgresTextStore) Lock(ctx context.Context) (func(), error) {
	return pgLock(ctx, s.db, advisoryKey("text_corpus"))
}

// PostgresFingerprintStore keeps fingerprints in the image_fingerprints table.
// Hashes are stored as BIGINT with the same bit pattern.
type PostgresFingerprintStore struct {
	db *sql.DB
}

// NewPostgresFingerprintStore creates a fingerprint store backed by db.
func NewPostgresFingerprintStore(db *sql.DB) *PostgresFingerprintStore {
	return &PostgresFingerprintStore{db: db}
}

// ReadAll returns every fingerprint in insertion order.
func (s *PostgresFingerprintStore) ReadAll(ctx context.Context) ([]Fingerprint, error) {
	query := `
		SELECT source_path, phash, created_at
		FROM image_fingerprints
		ORDER BY seq
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query image fingerprints: %w", err)
	}
	defer rows.Close()

	var fps []Fingerprint
	for rows.Next() {
		var fp Fingerprint
		var hash int64
		if err := rows.Scan(&fp.Path, &hash, &fp.CreatedAt); err != nil {
			return nil, err
		}
		fp.Hash = uint64(hash)
		fps = append(fps, fp)
	}

	return fps, rows.Err()
}

// Append inserts fp.
func (s *PostgresFingerprintStore) Append(ctx context.Context, fp Fingerprint) error {
	query := `
		INSERT INTO image_fingerprints (source_path, phash, created_at)
		VALUES ($1, $2, $3)
	`

	if _, err := s.db.ExecContext(ctx, query, fp.Path, int64(fp.Hash), fp.CreatedAt); err != nil {
		return fmt.Errorf("insert image fingerprint: %w", err)
	}
	return nil
}

// Lock implements Locker.
func (s *PostgresFingerprintStore) Lock(ctx context.Context) (func(), error) {
	return pgLock(ctx, s.db, advisoryKey("image_fingerprints"))
}

var (
	_ Locker = (*PostgresTextStore)(nil)
	_ Locker = (*PostgresFingerprintStore)(nil)
)
