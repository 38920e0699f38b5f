package playback

import (
	"context"
	"time"

	"github.com/llehouerou/humdrum/internal/catalog"
)

// Service defines the playback engine contract used by front ends.
type Service interface {
	// Playback control
	PlaySong(song catalog.Song) // Same song toggles play/pause
	TogglePlayPause()
	Play()
	Pause()
	Seek(seconds float64)
	SeekTo(position time.Duration)
	SetVolume(level float64)

	// State queries
	Snapshot() Session
	State() State
	CurrentSong() *catalog.Song
	Position() time.Duration
	Duration() time.Duration
	Volume() float64

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Run(ctx context.Context) error
	Close() error
}
