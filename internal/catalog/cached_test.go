package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCatalog struct {
	mu    sync.Mutex
	songs map[string]Song
	calls map[string]int
}

func (c *countingCatalog) GetSongByID(_ context.Context, id string) (Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[id]++
	s, ok := c.songs[id]
	if !ok {
		return Song{}, ErrNotFound
	}
	return s, nil
}

func (c *countingCatalog) GetSongs(_ context.Context, _ Filter) (Page, error) {
	return Page{Songs: []Song{c.songs["2"]}}, nil
}

func TestCached_GetSongByID(t *testing.T) {
	next := &countingCatalog{
		songs: map[string]Song{"1": {ID: "1", Title: "One"}, "2": {ID: "2", Title: "Two"}},
		calls: map[string]int{},
	}
	c := NewCached(next, 10, 0)
	defer c.Stop()
	ctx := context.Background()

	for range 3 {
		song, err := c.GetSongByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "One", song.Title)
	}
	assert.Equal(t, 1, next.calls["1"])

	for range 2 {
		_, err := c.GetSongByID(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	}
	assert.Equal(t, 2, next.calls["missing"], "misses are not cached")

	_, err := c.GetSongs(ctx, Filter{})
	require.NoError(t, err)
	_, err = c.GetSongByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 0, next.calls["2"], "listed songs warm the cache")
}
