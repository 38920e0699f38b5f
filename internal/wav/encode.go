// Package wav writes linear PCM as canonical 16-bit mono RIFF/WAVE files,
// the format the humming matcher accepts.
package wav

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/llehouerou/humdrum/internal/pcm"
)

const (
	// HeaderSize is the size of the canonical RIFF/WAVE header.
	HeaderSize = 44

	bitsPerSample = 16
	numChannels   = 1
	blockAlign    = numChannels * bitsPerSample / 8
	formatPCM     = 1
)

// ErrInvalidSampleRate is returned when the buffer has no usable sample rate.
var ErrInvalidSampleRate = errors.New("wav: invalid sample rate")

// Encode serializes the first channel of buf as a 16-bit mono WAV file.
// Further channels are ignored. An empty buffer yields a header-only file.
func Encode(buf pcm.Buffer) ([]byte, error) {
	if buf.SampleRate <= 0 || buf.SampleRate > math.MaxInt32/blockAlign {
		return nil, ErrInvalidSampleRate
	}

	samples := buf.Channel(0)
	dataSize := len(samples) * blockAlign
	out := make([]byte, HeaderSize+dataSize)

	le := binary.LittleEndian
	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+dataSize)) //nolint:gosec // bounded by slice length
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], numChannels)
	le.PutUint32(out[24:28], uint32(buf.SampleRate))            //nolint:gosec // checked above
	le.PutUint32(out[28:32], uint32(buf.SampleRate*blockAlign)) //nolint:gosec // checked above
	le.PutUint16(out[32:34], blockAlign)
	le.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(dataSize)) //nolint:gosec // bounded by slice length

	for i, s := range samples {
		le.PutUint16(out[HeaderSize+i*blockAlign:], uint16(Quantize(s))) //nolint:gosec // two's complement
	}
	return out, nil
}

// Quantize converts a float sample to a signed 16-bit value:
// round(s * 32767), saturated to the int16 range. NaN maps to 0.
func Quantize(s float32) int16 {
	v := math.Round(float64(s) * math.MaxInt16)
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
