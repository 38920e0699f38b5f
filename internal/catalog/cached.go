package catalog

import (
	"context"
	"time"

	"github.com/karlseguin/ccache/v3"
)

const (
	DefaultCacheSize = 1000
	DefaultCacheTTL  = 10 * time.Minute
)

// Cached memoizes successful lookups of another catalog. Failed lookups are
// not cached, so a song added later becomes visible immediately.
type Cached struct {
	next  Catalog
	cache *ccache.Cache[Song]
	ttl   time.Duration
}

func NewCached(next Catalog, size int64, ttl time.Duration) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next: next,
		cache: ccache.New(
			ccache.Configure[Song]().
				MaxSize(size).
				GetsPerPromote(3).
				ItemsToPrune(1),
		),
		ttl: ttl,
	}
}

func (c *Cached) GetSongByID(ctx context.Context, id string) (Song, error) {
	item, err := c.cache.Fetch(id, c.ttl, func() (Song, error) {
		return c.next.GetSongByID(ctx, id)
	})
	if err != nil {
		return Song{}, err
	}
	return item.Value(), nil
}

// GetSongs is not cached; listed songs warm the lookup cache.
func (c *Cached) GetSongs(ctx context.Context, f Filter) (Page, error) {
	page, err := c.next.GetSongs(ctx, f)
	if err != nil {
		return Page{}, err
	}
	for _, s := range page.Songs {
		c.cache.Set(s.ID, s, c.ttl)
	}
	return page, nil
}

// Stop releases the cache's background worker.
func (c *Cached) Stop() {
	c.cache.Stop()
}

var _ Catalog = (*Cached)(nil)
