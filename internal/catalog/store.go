package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/llehouerou/humdrum/internal/db"
)

// Store is a catalog kept in the local SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database whose schema has been initialized.
func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn}
}

const songColumns = `id, title, artist, url, genre, artwork_url`

func (s *Store) GetSongByID(ctx context.Context, id string) (Song, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, ErrNotFound
	}
	return song, err
}

func (s *Store) GetSongs(ctx context.Context, f Filter) (Page, error) {
	if q := strings.TrimSpace(f.Query); q != "" {
		return s.search(ctx, q)
	}

	var (
		rows *sql.Rows
		err  error
	)
	limit := f.limit()
	if f.StartAfter == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+songColumns+` FROM songs
			ORDER BY track_number, id
			LIMIT ?
		`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+songColumns+` FROM songs
			WHERE (track_number, id) > (
				SELECT track_number, id FROM songs WHERE id = ?
			)
			ORDER BY track_number, id
			LIMIT ?
		`, f.StartAfter, limit)
	}
	if err != nil {
		return Page{}, err
	}
	songs, err := collect(rows)
	if err != nil {
		return Page{}, err
	}

	page := Page{Songs: songs}
	if len(songs) == limit {
		page.Next = songs[len(songs)-1].ID
	}
	return page, nil
}

func (s *Store) search(ctx context.Context, q string) (Page, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE lower(title) LIKE ? ESCAPE '\' OR lower(artist) LIKE ? ESCAPE '\'
		ORDER BY track_number, id
	`, pattern, pattern)
	if err != nil {
		return Page{}, err
	}
	songs, err := collect(rows)
	return Page{Songs: songs}, err
}

// Put inserts or replaces songs. Numeric identifiers define catalog order.
func (s *Store) Put(ctx context.Context, songs ...Song) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO songs (id, track_number, title, artist, url, genre, artwork_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				track_number = excluded.track_number,
				title = excluded.title,
				artist = excluded.artist,
				url = excluded.url,
				genre = excluded.genre,
				artwork_url = excluded.artwork_url
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, song := range songs {
			trackNumber, _ := strconv.ParseInt(song.ID, 10, 64)
			if _, err := stmt.ExecContext(ctx,
				song.ID, trackNumber, song.Title, song.Artist, song.URL,
				db.NullString(song.Genre), db.NullString(song.ArtworkURL),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of songs in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM songs`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (Song, error) {
	var song Song
	var genre, artwork sql.NullString
	if err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.URL, &genre, &artwork); err != nil {
		return Song{}, err
	}
	song.Genre = db.NullStringValue(genre)
	song.ArtworkURL = db.NullStringValue(artwork)
	return song, nil
}

func collect(rows *sql.Rows) ([]Song, error) {
	defer rows.Close()
	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ Catalog = (*Store)(nil)
