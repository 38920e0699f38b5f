// internal/player/state.go
package player

// EventKind identifies a transport event.
//
// A source goes through the following sequence:
//
//	Load ──▶ Waiting ──▶ DurationKnown ──▶ Ready
//	                                        │
//	                 Play ──▶ Started ◀─────┘
//	                 Pause ─▶ Paused
//	                          Ended  (end of stream)
//
// Progress is emitted periodically while playing and after every seek.
// Error can replace any step after Load; a source replaced by a newer Load
// fails with context.Canceled.
type EventKind int

const (
	EventProgress EventKind = iota
	EventDurationKnown
	EventStarted
	EventPaused
	EventEnded
	EventWaiting
	EventReady
	EventError
)

// String returns the event name for debugging.
func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "Progress"
	case EventDurationKnown:
		return "DurationKnown"
	case EventStarted:
		return "Started"
	case EventPaused:
		return "Paused"
	case EventEnded:
		return "Ended"
	case EventWaiting:
		return "Waiting"
	case EventReady:
		return "Ready"
	case EventError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further events follow for the source until
// it is played or seeked again.
func (k EventKind) Terminal() bool {
	return k == EventEnded || k == EventError
}
