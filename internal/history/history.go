// Package history keeps the most recently played songs, newest first.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/db"
)

// MaxEntries is the number of songs kept in the history.
const MaxEntries = 50

// Entry is one played song.
type Entry struct {
	Song     catalog.Song
	PlayedAt time.Time
}

// Store persists the history in the application database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn, now: time.Now}
}

// Add moves song to the front of the history. An existing entry for the same
// song is replaced and entries beyond MaxEntries are dropped.
func (s *Store) Add(ctx context.Context, song catalog.Song) error {
	artwork := song.ArtworkURL
	if artwork == "" {
		artwork = catalog.PlaceholderArtwork(song.ID)
	}

	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var seq int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM history`).Scan(&seq); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO history (song_id, seq, title, artist, url, genre, artwork_url, played_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(song_id) DO UPDATE SET
				seq = excluded.seq,
				title = excluded.title,
				artist = excluded.artist,
				url = excluded.url,
				genre = excluded.genre,
				artwork_url = excluded.artwork_url,
				played_at = excluded.played_at
		`, song.ID, seq, song.Title, song.Artist, song.URL,
			db.NullString(song.Genre), artwork, s.now().UnixMilli()); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			DELETE FROM history WHERE song_id NOT IN (
				SELECT song_id FROM history ORDER BY seq DESC LIMIT ?
			)
		`, MaxEntries)
		return err
	})
}

// List returns the history, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, title, artist, url, genre, artwork_url, played_at
		FROM history ORDER BY seq DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var genre, artwork sql.NullString
		var playedAt int64
		if err := rows.Scan(&e.Song.ID, &e.Song.Title, &e.Song.Artist, &e.Song.URL,
			&genre, &artwork, &playedAt); err != nil {
			return nil, err
		}
		e.Song.Genre = db.NullStringValue(genre)
		e.Song.ArtworkURL = db.NullStringValue(artwork)
		e.PlayedAt = time.UnixMilli(playedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}
