package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextChecker(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		check := ContextChecker(func(ctx context.Context) error { return nil }, time.Second)
		assert.NoError(t, check())
	})

	t.Run("error is returned", func(t *testing.T) {
		want := errors.New("down")
		check := ContextChecker(func(ctx context.Context) error { return want }, time.Second)
		assert.ErrorIs(t, check(), want)
	})

	t.Run("timeout applies", func(t *testing.T) {
		check := ContextChecker(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, 10*time.Millisecond)
		assert.ErrorIs(t, check(), context.DeadlineExceeded)
	})

	t.Run("zero timeout uses default", func(t *testing.T) {
		var deadline time.Time
		check := ContextChecker(func(ctx context.Context) error {
			deadline, _ = ctx.Deadline()
			return nil
		}, 0)
		require.NoError(t, check())
		assert.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
	})
}

func TestDatabaseChecker(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, DatabaseChecker(db)())

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.EqualError(t, DatabaseChecker(db)(), "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisChecker(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, RedisChecker(client)())

	mock.ExpectPing().SetErr(errors.New("redis unavailable"))
	assert.EqualError(t, RedisChecker(client)(), "redis unavailable")

	assert.NoError(t, mock.ExpectationsWereMet())
}
