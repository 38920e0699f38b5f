// Package catalog resolves song identifiers to playable songs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrNotFound is returned when no song has the requested identifier.
var ErrNotFound = errors.New("song not found")

// DefaultPageSize is the page size used when a Filter has no Limit.
const DefaultPageSize = 10

// Song is a playable catalog entry. Values are immutable once built.
type Song struct {
	ID         string
	Title      string
	Artist     string
	URL        string
	Genre      string
	ArtworkURL string
}

// Artwork returns the song's artwork, falling back to a placeholder image
// seeded by genre.
func (s Song) Artwork() string {
	if s.ArtworkURL != "" {
		return s.ArtworkURL
	}
	seed := s.Genre
	if seed == "" {
		seed = s.ID
	}
	return PlaceholderArtwork(seed)
}

// PlaceholderArtwork returns a deterministic placeholder image URL.
func PlaceholderArtwork(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/300/300", url.PathEscape(seed))
}

// Lookup resolves a single identifier.
type Lookup interface {
	GetSongByID(ctx context.Context, id string) (Song, error)
}

// Filter selects songs for GetSongs. A non-empty Query matches title or
// artist case-insensitively and returns every match; otherwise songs are
// listed in catalog order, Limit at a time, after the StartAfter cursor.
type Filter struct {
	Query      string
	Limit      int
	StartAfter string
}

// Page is one result page. Next is the cursor for the following page, empty
// when there are no more songs.
type Page struct {
	Songs []Song
	Next  string
}

// Catalog is the read side of a song collection.
type Catalog interface {
	Lookup
	GetSongs(ctx context.Context, f Filter) (Page, error)
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultPageSize
	}
	return f.Limit
}
