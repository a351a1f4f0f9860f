package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestNewFromURLRejectsGarbage(t *testing.T) {
	_, err := NewFromURL("not a url")
	assert.Error(t, err)
}

// Runs against a real server when PAGECACHE_REDIS_URL is set.
func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("PAGECACHE_REDIS_URL")
	if url == "" {
		t.Skip("PAGECACHE_REDIS_URL not set")
	}
	ctx := context.Background()
	p, err := NewFromURL(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	key := "entity:test:" + t.Name()
	ok, err := p.Set(ctx, key, []byte("frame"), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	b, hit, err := p.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("frame"), b)

	require.NoError(t, p.Del(ctx, key))
	_, hit, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, p.Close(ctx))
	require.NoError(t, p.Close(ctx), "second close is a no-op")
}
