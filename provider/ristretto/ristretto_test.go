package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64, Metrics: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSetIsVisibleToNextGet(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	ok, err := p.Set(ctx, "entity:subtask:s1", []byte("frame"), 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	b, hit, err := p.Get(ctx, "entity:subtask:s1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("frame"), b)

	require.NoError(t, p.Del(ctx, "entity:subtask:s1"))
	_, hit, err = p.Get(ctx, "entity:subtask:s1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, p.Metrics())
}

func TestTTLExpires(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	ok, err := p.Set(ctx, "k", []byte("v"), 1, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, hit, _ := p.Get(ctx, "k")
		return !hit
	}, 2*time.Second, 20*time.Millisecond)
}
