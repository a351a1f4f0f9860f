package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, Shards: 16, MaxEntriesInWindow: 100, MaxEntrySize: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	_, hit, err := p.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, hit)

	ok, err := p.Set(ctx, "entity:subtask:s1", []byte("frame"), 1, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, p.Len())

	b, hit, err := p.Get(ctx, "entity:subtask:s1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("frame"), b)

	require.NoError(t, p.Del(ctx, "entity:subtask:s1"))
	require.NoError(t, p.Del(ctx, "entity:subtask:s1"), "deleting a missing key is not an error")
}

func TestNewRequiresLifeWindow(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
