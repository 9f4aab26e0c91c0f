package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTextStore_ReadAll(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisTextStore(client, "corpus", time.Second)

	doc, _ := json.Marshal(TextEntry{ID: "1", Text: "sea facing flat"})
	mock.ExpectLRange("corpus:text", 0, -1).SetVal([]string{string(doc)})

	entries, err := store.ReadAll(context.Background())

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sea facing flat", entries[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTextStore_Append(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisTextStore(client, "corpus", time.Second)

	entry := TextEntry{ID: "2", Text: "garden villa", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	doc, _ := json.Marshal(entry)
	mock.ExpectRPush("corpus:text", string(doc)).SetVal(1)

	require.NoError(t, store.Append(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTextStore_ReadError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisTextStore(client, "corpus", time.Second)

	mock.ExpectLRange("corpus:text", 0, -1).SetErr(errors.New("connection refused"))

	_, err := store.ReadAll(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisFingerprintStore_LockAndUnlock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisFingerprintStore(client, "corpus", 5*time.Second)
	store.list.newToken = func() string { return "token-1" }

	mock.ExpectSetNX("corpus:images:lock", "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(unlockScript, []string{"corpus:images:lock"}, "token-1").SetVal(int64(1))

	unlock, err := store.Lock(context.Background())
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisFingerprintStore_LockTimeout(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisFingerprintStore(client, "corpus", 5*time.Second)
	store.list.newToken = func() string { return "token-2" }

	for i := 0; i < 5; i++ {
		mock.ExpectSetNX("corpus:images:lock", "token-2", 5*time.Second).SetVal(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_, err := store.Lock(ctx)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestRedisFingerprintStore_RoundTrip(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisFingerprintStore(client, "corpus", time.Second)

	fp := Fingerprint{Path: "s3://listings/a.jpg", Hash: 0xF0F0F0F0F0F0F0F0}
	doc, _ := json.Marshal(fp)
	mock.ExpectRPush("corpus:images", string(doc)).SetVal(1)
	mock.ExpectLRange("corpus:images", 0, -1).SetVal([]string{string(doc)})

	require.NoError(t, store.Append(context.Background(), fp))
	fps, err := store.ReadAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Fingerprint{fp}, fps)
}
