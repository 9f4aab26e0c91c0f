package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockRetryInterval = 50 * time.Millisecond

// unlockScript deletes the lock only if it still holds our token.
const unlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// redisList is an append-only Redis list of JSON documents with a SET NX
// lock shared by every replica.
type redisList struct {
	client   redis.UniversalClient
	key      string
	lockKey  string
	lockTTL  time.Duration
	newToken func() string
}

func newRedisList(client redis.UniversalClient, key string, lockTTL time.Duration) redisList {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return redisList{
		client:   client,
		key:      key,
		lockKey:  key + ":lock",
		lockTTL:  lockTTL,
		newToken: func() string { return uuid.New().String() },
	}
}

func (l redisList) readAll(ctx context.Context) ([]string, error) {
	items, err := l.client.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.key, err)
	}
	return items, nil
}

func (l redisList) append(ctx context.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := l.client.RPush(ctx, l.key, string(data)).Err(); err != nil {
		return fmt.Errorf("append %s: %w", l.key, err)
	}
	return nil
}

func (l redisList) lock(ctx context.Context) (func(), error) {
	token := l.newToken()
	for {
		ok, err := l.client.SetNX(ctx, l.lockKey, token, l.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", l.lockKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, l.lockKey, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.client.Eval(releaseCtx, unlockScript, []string{l.lockKey}, token)
	}, nil
}

// RedisTextStore shares the text corpus between replicas.
type RedisTextStore struct {
	list redisList
}

// NewRedisTextStore stores the corpus under "<prefix>:text".
func NewRedisTextStore(client redis.UniversalClient, prefix string, lockTTL time.Duration) *RedisTextStore {
	return &RedisTextStore{list: newRedisList(client, prefix+":text", lockTTL)}
}

func (s *RedisTextStore) ReadAll(ctx context.Context) ([]TextEntry, error) {
	items, err := s.list.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TextEntry, 0, len(items))
	for _, item := range items {
		var e TextEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode text entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisTextStore) Append(ctx context.Context, entry TextEntry) error {
	return s.list.append(ctx, entry)
}

// Lock implements Locker.
func (s *RedisTextStore) Lock(ctx context.Context) (func(), error) {
	return s.list.lock(ctx)
}

// RedisFingerprintStore shares image fingerprints between replicas.
type RedisFingerprintStore struct {
	list redisList
}

// NewRedisFingerprintStore stores fingerprints under "<prefix>:images".
func NewRedisFingerprintStore(client redis.UniversalClient, prefix string, lockTTL time.Duration) *RedisFingerprintStore {
	return &RedisFingerprintStore{list: newRedisList(client, prefix+":images", lockTTL)}
}

func (s *RedisFingerprintStore) ReadAll(ctx context.Context) ([]Fingerprint, error) {
	items, err := s.list.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Fingerprint, 0, len(items))
	for _, item := range items {
		var fp Fingerprint
		if err := json.Unmarshal([]byte(item), &fp); err != nil {
			return nil, fmt.Errorf("decode fingerprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, nil
}

func (s *RedisFingerprintStore) Append(ctx context.Context, fp Fingerprint) error {
	return s.list.append(ctx, fp)
}

// Lock implements Locker.
func (s *RedisFingerprintStore) Lock(ctx context.Context) (func(), error) {
	return s.list.lock(ctx)
}

var (
	_ Locker = (*RedisTextStore)(nil)
	_ Locker = (*RedisFingerprintStore)(nil)
)
