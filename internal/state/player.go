package state

import (
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/humdrum/internal/db"
)

// PlayerState is what survives between runs of the player.
type PlayerState struct {
	Volume     float64
	LastSongID string
}

// GetPlayerState returns the saved player state, or defaults when none was
// saved yet.
func (m *Manager) GetPlayerState() (PlayerState, error) {
	var st PlayerState
	var last sql.NullString
	err := m.db.QueryRow(`SELECT volume, last_song_id FROM player_state WHERE id = 1`).
		Scan(&st.Volume, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerState{Volume: 1.0}, nil
	}
	if err != nil {
		return PlayerState{}, err
	}
	st.LastSongID = db.NullStringValue(last)
	return st, nil
}

// SavePlayerState schedules a debounced write; bursts of volume changes
// collapse into one write.
func (m *Manager) SavePlayerState(st PlayerState) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &st

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = savePlayerState(m.db, *pending)
		}
	})
}

func savePlayerState(conn *sql.DB, st PlayerState) error {
	_, err := conn.Exec(`
		INSERT INTO player_state (id, volume, last_song_id)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			last_song_id = excluded.last_song_id
	`, st.Volume, db.NullString(st.LastSongID))
	return err
}
