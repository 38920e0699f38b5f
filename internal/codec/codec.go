// Package codec turns compressed audio (MP3, FLAC, WAV, Ogg Opus/Vorbis, M4A)
// into beep streamers for playback and into planar PCM for analysis.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"

	"github.com/llehouerou/humdrum/internal/pcm"
)

// Kind identifies a container format.
type Kind int

const (
	Unknown Kind = iota
	MP3
	FLAC
	WAV
	Ogg
	M4A
)

// String returns the format name.
func (k Kind) String() string {
	switch k {
	case MP3:
		return "mp3"
	case FLAC:
		return "flac"
	case WAV:
		return "wav"
	case Ogg:
		return "ogg"
	case M4A:
		return "m4a"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is returned when the data matches no known container.
var ErrUnsupportedFormat = errors.New("codec: unsupported audio format")

const sniffLen = 12

// Sniff detects the container format from the first bytes of a file.
func Sniff(header []byte) Kind {
	switch {
	case len(header) >= 4 && string(header[:4]) == "OggS":
		return Ogg
	case len(header) >= 4 && string(header[:4]) == "fLaC":
		return FLAC
	case len(header) >= 12 && string(header[:4]) == "RIFF" && string(header[8:12]) == "WAVE":
		return WAV
	case len(header) >= 8 && string(header[4:8]) == "ftyp":
		return M4A
	case len(header) >= 3 && string(header[:3]) == "ID3":
		return MP3
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return MP3
	}
	return Unknown
}

// Open detects the format of rc and returns a seekable streamer over it.
// The streamer owns rc and closes it on Close.
func Open(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, beep.Format{}, fmt.Errorf("read header: %w", err)
	}
	if _, err := rc.Seek(0, io.SeekStart); err != nil {
		return nil, beep.Format{}, fmt.Errorf("rewind: %w", err)
	}

	kind := Sniff(header[:n])
	switch kind {
	case MP3:
		return decodeMP3(rc)
	case FLAC:
		return flac.Decode(rc)
	case WAV:
		return wav.Decode(rc)
	case M4A:
		return decodeM4A(rc)
	case Ogg:
		defer rc.Close()
		buf, err := decodeOgg(rc)
		if err != nil {
			return nil, beep.Format{}, err
		}
		s := newBufferStreamer(buf)
		return s, s.Format(), nil
	case Unknown:
	}
	return nil, beep.Format{}, ErrUnsupportedFormat
}

// DecodePCM decodes a complete in-memory file into planar PCM, keeping the
// source channel layout (at most two channels for non-Ogg formats).
func DecodePCM(data []byte) (pcm.Buffer, error) {
	if Sniff(data) == Ogg {
		return decodeOgg(bytes.NewReader(data))
	}

	streamer, format, err := Open(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return pcm.Buffer{}, err
	}
	defer streamer.Close()

	return drain(streamer, format)
}

func drain(streamer beep.Streamer, format beep.Format) (pcm.Buffer, error) {
	channels := min(max(format.NumChannels, 1), 2)
	out := pcm.Buffer{
		SampleRate: int(format.SampleRate),
		Channels:   make([][]float32, channels),
	}

	chunk := make([][2]float64, 4096)
	for {
		n, ok := streamer.Stream(chunk)
		for i := range n {
			for c := range channels {
				out.Channels[c] = append(out.Channels[c], float32(chunk[i][c]))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }
