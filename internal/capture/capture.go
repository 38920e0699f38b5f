// Package capture records a short humming sample from the microphone and
// runs it through decode, WAV encoding and matching.
package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/humdrum/internal/match"
	"github.com/llehouerou/humdrum/internal/pcm"
)

// State is the recording lifecycle.
//
//	Idle ──Start──▶ Starting ──opened──▶ Recording ──Stop/deadline──▶ Processing ──done──▶ Idle
//	                    │
//	                    └──open failed──▶ Idle
type State int

const (
	Idle State = iota
	Starting
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Starting:
		return "Starting"
	case Recording:
		return "Recording"
	case Processing:
		return "Processing"
	default:
		return "Unknown"
	}
}

// Microphone opens a recording device.
type Microphone interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open recording. Chunks yields encoded audio as it is produced
// and is closed once the device has stopped after Stop. Release frees the
// device and is called exactly once per stream.
type Stream interface {
	Chunks() <-chan []byte
	Stop()
	Release()
}

// Decoder turns a complete compressed recording into PCM.
type Decoder interface {
	Decode(blob []byte) (pcm.Buffer, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(blob []byte) (pcm.Buffer, error)

func (f DecoderFunc) Decode(blob []byte) (pcm.Buffer, error) { return f(blob) }

// Submitter sends a WAV recording to the matcher.
type Submitter interface {
	Submit(ctx context.Context, wav []byte) (match.Result, error)
}

// Outcome is the result of one processed recording: either a match result
// or a *TranscodeError / *match.NetworkMatchError.
type Outcome struct {
	Result match.Result
	Err    error
}

var (
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("capture: controller closed")
	// ErrEmptyRecording is wrapped when the recording decodes to no samples.
	ErrEmptyRecording = errors.New("recording is empty")
)

// PermissionError reports that the microphone could not be opened.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone unavailable: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// TranscodeError reports that the recording could not be turned into WAV.
type TranscodeError struct {
	Err error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode recording: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
