package lastfm

import (
	"time"

	"github.com/llehouerou/humdrum/internal/catalog"
)

// Last.fm scrobbling rules: a track must be longer than 30 seconds and
// have been played for half its duration or four minutes.
const (
	MinScrobbleDuration = 30 * time.Second
	MaxScrobbleListen   = 4 * time.Minute
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist    string
	Track     string
	Duration  time.Duration
	Timestamp time.Time // When playback started
}

// TrackFromSong converts a catalog song. ok is false for songs Last.fm
// cannot identify.
func TrackFromSong(song catalog.Song, duration time.Duration, startedAt time.Time) (ScrobbleTrack, bool) {
	if song.Artist == "" || song.Title == "" {
		return ScrobbleTrack{}, false
	}
	return ScrobbleTrack{
		Artist:    song.Artist,
		Track:     song.Title,
		Duration:  duration,
		Timestamp: startedAt,
	}, true
}

// ShouldScrobble reports whether listened time qualifies a track of the
// given duration for a scrobble.
func ShouldScrobble(duration, listened time.Duration) bool {
	if duration <= MinScrobbleDuration {
		return false
	}
	return listened >= min(duration/2, MaxScrobbleListen)
}
