package playback

import (
	"time"

	"github.com/llehouerou/humdrum/internal/catalog"
)

// StateChange is emitted when playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// SongChange is emitted when PlaySong selects a different song.
//
// Emitted by:
//   - PlaySong: when the song differs from the current one
//
// NOT emitted by:
//   - PlaySong with the current song (that toggles play/pause)
//   - transport events: a song ending or failing keeps it current
//
// The app should handle song-related side effects (now playing, desktop
// integration) in response to this event. History is recorded by the engine.
type SongChange struct {
	Previous *catalog.Song
	Current  *catalog.Song
}

// PositionChange is emitted on progress, when the duration becomes known
// and after a seek.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// VolumeChange is emitted when the volume level changes.
type VolumeChange struct {
	Level float64
}

// ErrorEvent is emitted when the current song cannot be played.
type ErrorEvent struct {
	Operation string // e.g., "play"
	SongID    string
	Err       error
}

// Session is a snapshot of the engine state.
type Session struct {
	Song         *catalog.Song
	State        State
	Position     time.Duration
	Duration     time.Duration
	Volume       float64
	IntentToPlay bool
	Buffering    bool
}
