package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("in-memory pool is pinned to one connection", func(t *testing.T) {
		db, err := New(ctx, WithMaxOpenConns(10))
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, 1, db.Stats().MaxOpenConnections)

		_, err = db.Exec(`CREATE TABLE t (v INTEGER); INSERT INTO t VALUES (1);`)
		require.NoError(t, err)

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("file database keeps configured pool size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "events.db")
		db, err := New(ctx, WithDataSource(path), WithMaxOpenConns(3))
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, 3, db.Stats().MaxOpenConnections)
	})

	t.Run("empty driver", func(t *testing.T) {
		_, err := New(ctx, WithDriver(""))
		assert.ErrorContains(t, err, "driver cannot be empty")
	})

	t.Run("empty data source", func(t *testing.T) {
		_, err := New(ctx, WithDataSource(""))
		assert.ErrorContains(t, err, "data source cannot be empty")
	})

	t.Run("unknown driver fails after retries", func(t *testing.T) {
		_, err := New(ctx, WithDriver("nope"), WithRetry(2, time.Millisecond))
		assert.ErrorContains(t, err, "after 2 attempts")
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := New(cctx, WithDriver("nope"), WithRetry(5, time.Hour))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsInMemory(t *testing.T) {
	assert.True(t, IsInMemory(":memory:"))
	assert.True(t, IsInMemory("file:test?mode=memory&cache=shared"))
	assert.False(t, IsInMemory("./data/events.db"))
}
