package capture

// User-facing notification texts.
const (
	titleRecordingStarted = "Recording Started"
	bodyRecordingStarted  = "Start humming your tune for %d seconds!"

	titleRecordingStopped = "Recording Stopped"
	bodyRecordingStopped  = "Analyzing your hum..."

	titleMicrophoneError = "Microphone Error"
	bodyMicrophoneError  = "Could not access microphone. Please check permissions."

	titleAnalysisFailed = "Humming Analysis Failed"

	titleNoMatches = "No Matches Found"
	bodyNoMatches  = "Your hum didn't match any songs. Please try again."

	titleNotInLibrary = "No Matches Found in DB"
	bodyNotInLibrary  = "Your hum was recognized, but the songs couldn't be found in our library."
)
