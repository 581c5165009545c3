package readable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheReusesCatalog(t *testing.T) {
	path := buildContainer(t)

	cache, err := NewCache(2)
	require.NoError(t, err)
	defer cache.Close()

	first, err := cache.Open(context.Background(), path)
	require.NoError(t, err)

	second, err := cache.Open(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheEvictsAndCloses(t *testing.T) {
	a := buildContainer(t)
	b := buildContainer(t)
	c := buildContainer(t)

	cache, err := NewCache(2)
	require.NoError(t, err)
	defer cache.Close()

	catA, err := cache.Open(context.Background(), a)
	require.NoError(t, err)
	_, err = cache.Open(context.Background(), b)
	require.NoError(t, err)

	// Third open evicts the least recently used entry.
	_, err = cache.Open(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
	assert.False(t, cache.Contains(a))
	assert.True(t, cache.Contains(b))
	assert.True(t, cache.Contains(c))

	// The evicted catalog was closed; reads now fail.
	_, err = catA.Read("/counts", nil, nil)
	assert.Error(t, err)
}

func TestCacheRemove(t *testing.T) {
	path := buildContainer(t)

	cache, err := NewCache(4)
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Open(context.Background(), path)
	require.NoError(t, err)
	require.True(t, cache.Contains(path))

	require.NoError(t, cache.Remove(path))
	assert.False(t, cache.Contains(path))
	assert.Equal(t, 0, cache.Len())
}

func TestCacheClose(t *testing.T) {
	cache, err := NewCache(4)
	require.NoError(t, err)

	_, err = cache.Open(context.Background(), buildContainer(t))
	require.NoError(t, err)
	_, err = cache.Open(context.Background(), buildContainer(t))
	require.NoError(t, err)

	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Len())
}
