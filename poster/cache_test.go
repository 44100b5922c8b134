package poster

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	require.NoError(t, c.Put(ctx, "key", CachedResponse{Data: []byte("value")}))

	resp, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, resp)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("get and put", func(t *testing.T) {
		c := NewMemoryCache(2)
		_, hit, err := c.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, hit)

		require.NoError(t, c.Put(ctx, "a", CachedResponse{Data: []byte("1"), MIMEType: "image/jpeg"}))
		resp, hit, err := c.Get(ctx, "a")
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, []byte("1"), resp.Data)
		assert.Equal(t, "image/jpeg", resp.MIMEType)
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		c := NewMemoryCache(2)
		require.NoError(t, c.Put(ctx, "a", CachedResponse{Data: []byte("1")}))
		require.NoError(t, c.Put(ctx, "b", CachedResponse{Data: []byte("2")}))

		// touch a so b becomes the oldest
		_, _, _ = c.Get(ctx, "a")
		require.NoError(t, c.Put(ctx, "c", CachedResponse{Data: []byte("3")}))

		assert.Equal(t, 2, c.Len())
		_, hit, _ := c.Get(ctx, "b")
		assert.False(t, hit)
		_, hit, _ = c.Get(ctx, "a")
		assert.True(t, hit)
	})

	t.Run("replace keeps one entry", func(t *testing.T) {
		c := NewMemoryCache(2)
		require.NoError(t, c.Put(ctx, "a", CachedResponse{Data: []byte("old")}))
		require.NoError(t, c.Put(ctx, "a", CachedResponse{Data: []byte("new")}))

		resp, _, _ := c.Get(ctx, "a")
		assert.Equal(t, []byte("new"), resp.Data)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("stored bytes are copied", func(t *testing.T) {
		c := NewMemoryCache(2)
		data := []byte("abc")
		require.NoError(t, c.Put(ctx, "a", CachedResponse{Data: data}))
		data[0] = 'x'

		resp, _, _ := c.Get(ctx, "a")
		assert.Equal(t, []byte("abc"), resp.Data)
	})

	t.Run("non-positive size uses default", func(t *testing.T) {
		c := NewMemoryCache(0)
		assert.Equal(t, DefaultMemoryCacheSize, c.size)
	})
}

func TestSQLiteCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "posters.db")

	c, err := OpenSQLiteCache(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, path, c.Path())

	_, hit, err := c.Get(ctx, "https://image.tmdb.org/t/p/w500/a.jpg")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Put(ctx, "https://image.tmdb.org/t/p/w500/a.jpg", CachedResponse{Data: []byte{0xff, 0xd8, 0x00}, MIMEType: "image/jpeg"}))
	require.NoError(t, c.Put(ctx, "https://image.tmdb.org/t/p/w500/a.jpg", CachedResponse{Data: []byte{0xff, 0xd8, 0x01}, MIMEType: "image/jpeg"}))

	resp, hit, err := c.Get(ctx, "https://image.tmdb.org/t/p/w500/a.jpg")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte{0xff, 0xd8, 0x01}, resp.Data)
	assert.Equal(t, "image/jpeg", resp.MIMEType)

	// entries survive reopening the database
	require.NoError(t, c.Close())
	reopened, err := OpenSQLiteCache(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	_, hit, err = reopened.Get(ctx, "https://image.tmdb.org/t/p/w500/a.jpg")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestRedisCacheKeys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client, "", 0)
	assert.Equal(t, DefaultRedisPrefix+"https://x/a.jpg", c.key("https://x/a.jpg"))

	scoped := NewRedisCache(client, "test:", 0)
	assert.Equal(t, "test:k", scoped.key("k"))
}

func TestRedisCacheUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client, "test:", 0)
	_, hit, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, hit)
	assert.Contains(t, err.Error(), "redis HGETALL")
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client, "test:", 0)

	resp, hit, err := c.Get(ctx, "https://image.tmdb.org/t/p/w500/a.jpg")
	require.NoError(t, err, "a missing key is a miss")
	assert.False(t, hit)
	assert.Nil(t, resp)

	data := []byte{0xff, 0xd8, 0x00, 0x10}
	require.NoError(t, c.Put(ctx, "https://image.tmdb.org/t/p/w500/a.jpg", CachedResponse{Data: data, MIMEType: "image/jpeg"}))

	assert.True(t, mr.Exists("test:https://image.tmdb.org/t/p/w500/a.jpg"))
	assert.Equal(t, "image/jpeg", mr.HGet("test:https://image.tmdb.org/t/p/w500/a.jpg", "mime"))
	assert.Zero(t, mr.TTL("test:https://image.tmdb.org/t/p/w500/a.jpg"), "zero ttl keeps the entry")

	resp, hit, err = c.Get(ctx, "https://image.tmdb.org/t/p/w500/a.jpg")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, data, resp.Data)
	assert.Equal(t, "image/jpeg", resp.MIMEType)

	require.NoError(t, c.Put(ctx, "https://image.tmdb.org/t/p/w500/a.jpg", CachedResponse{Data: []byte("new"), MIMEType: "image/jpeg"}))
	resp, hit, err = c.Get(ctx, "https://image.tmdb.org/t/p/w500/a.jpg")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("new"), resp.Data)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client, "", time.Hour)
	require.NoError(t, c.Put(ctx, "k", CachedResponse{Data: []byte("x"), MIMEType: "image/jpeg"}))

	assert.Equal(t, time.Hour, mr.TTL(DefaultRedisPrefix+"k"))

	mr.FastForward(2 * time.Hour)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit, "expired entries are misses")
}
