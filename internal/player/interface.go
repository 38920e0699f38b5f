// internal/player/interface.go
package player

import "time"

// Interface is a media transport. Every event it emits carries the
// generation passed to the Load that produced it, so callers can drop
// events from a source they have already replaced.
type Interface interface {
	// Load replaces the current source. Loading starts paused; the transport
	// reports Waiting, then DurationKnown and Ready, or Error.
	Load(gen uint64, url string)
	Play()
	Pause()
	SeekTo(pos time.Duration)
	// SetVolume takes a level in [0, 1].
	SetVolume(level float64)
	Events() <-chan Event
	Close() error
}

// Event is a transport notification.
type Event struct {
	Gen      uint64
	Kind     EventKind
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
