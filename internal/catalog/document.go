package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// document is the wire form of a song, shared by the remote API and
// catalog import files.
type document struct {
	TrackID  json.Number `json:"track_id"`
	Title    string      `json:"title"`
	Artist   string      `json:"artist"`
	URL      string      `json:"url"`
	Genre    string      `json:"genre"`
	AlbumArt string      `json:"album_art,omitempty"`
}

func (d document) song() (Song, error) {
	id := strings.TrimSpace(d.TrackID.String())
	if id == "" {
		return Song{}, fmt.Errorf("document %q: missing track_id", d.Title)
	}
	if d.URL == "" {
		return Song{}, fmt.Errorf("document %s: missing url", id)
	}
	return Song{
		ID:         id,
		Title:      d.Title,
		Artist:     d.Artist,
		URL:        d.URL,
		Genre:      d.Genre,
		ArtworkURL: d.AlbumArt,
	}, nil
}

// ReadSongs decodes a JSON array of song documents.
func ReadSongs(r io.Reader) ([]Song, error) {
	var docs []document
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode songs: %w", err)
	}

	songs := make([]Song, 0, len(docs))
	for _, d := range docs {
		s, err := d.song()
		if err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, nil
}
