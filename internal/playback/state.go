// internal/playback/state.go
package playback

// State represents the playback state.
//
//	           PlaySong               Ready (intent)
//	Empty ───────────────▶ Loading ─────────────────▶ Playing
//	                          │                        │  ▲
//	                          │ Ready (no intent)      │  │ Started
//	                          │ Error                  ▼  │
//	                          └──────────────────────▶ Paused
//
// Transitions out of Loading, Playing and Paused are driven by transport
// events only; commands merely record the intent to play.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// HasSong returns true once a song has been selected.
func (s State) HasSong() bool {
	return s != StateEmpty
}
