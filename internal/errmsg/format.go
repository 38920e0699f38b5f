// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Capture operations
	OpMicrophoneOpen Op = "access the microphone"
	OpTranscode      Op = "analyze the recording"
	OpMatch          Op = "match your hum"

	// Catalog operations
	OpCatalogLoad   Op = "load songs"
	OpCatalogImport Op = "import songs"
	OpCatalogLookup Op = "look up song"

	// History operations
	OpHistoryAdd  Op = "update history"
	OpHistoryLoad Op = "load history"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackVolume Op = "change volume"

	// Last.fm operations
	OpLastfmLink       Op = "link Last.fm account"
	OpLastfmNowPlaying Op = "update Last.fm now playing"
	OpLastfmScrobble   Op = "scrobble to Last.fm"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
