package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gopxl/beep/v2"
	beepwav "github.com/gopxl/beep/v2/wav"

	"github.com/llehouerou/humdrum/internal/pcm"
)

func mono(rate int, samples ...float32) pcm.Buffer {
	return pcm.Buffer{SampleRate: rate, Channels: [][]float32{samples}}
}

func TestEncode_Length(t *testing.T) {
	tests := []struct {
		name string
		buf  pcm.Buffer
		want int
	}{
		{"empty", pcm.Buffer{SampleRate: 48000}, HeaderSize},
		{"zero samples", mono(48000), HeaderSize},
		{"one second 8k", mono(8000, make([]float32, 8000)...), HeaderSize + 16000},
		{"stereo keeps first channel", pcm.Buffer{
			SampleRate: 44100,
			Channels:   [][]float32{{0, 0, 0}, {1, 1, 1}},
		}, HeaderSize + 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(tt.buf)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("len = %d, want %d", len(out), tt.want)
			}
		})
	}
}

func TestEncode_Header(t *testing.T) {
	out, err := Encode(mono(22050, 0.5, -0.5))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"riff", string(out[0:4]), "RIFF"},
		{"riff size", le.Uint32(out[4:8]), uint32(40)},
		{"wave", string(out[8:12]), "WAVE"},
		{"fmt", string(out[12:16]), "fmt "},
		{"fmt size", le.Uint32(out[16:20]), uint32(16)},
		{"format", le.Uint16(out[20:22]), uint16(1)},
		{"channels", le.Uint16(out[22:24]), uint16(1)},
		{"rate", le.Uint32(out[24:28]), uint32(22050)},
		{"byte rate", le.Uint32(out[28:32]), uint32(44100)},
		{"block align", le.Uint16(out[32:34]), uint16(2)},
		{"bits", le.Uint16(out[34:36]), uint16(16)},
		{"data", string(out[36:40]), "data"},
		{"data size", le.Uint32(out[40:44]), uint32(4)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestEncode_InvalidSampleRate(t *testing.T) {
	for _, rate := range []int{0, -1} {
		if _, err := Encode(mono(rate, 0.1)); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("rate %d: error = %v, want ErrInvalidSampleRate", rate, err)
		}
	}
}

func TestEncode_UsesOnlyFirstChannel(t *testing.T) {
	left := []float32{0.25, -0.25}
	a, _ := Encode(pcm.Buffer{SampleRate: 8000, Channels: [][]float32{left}})
	b, _ := Encode(pcm.Buffer{SampleRate: 8000, Channels: [][]float32{left, {1, 1}}})
	if !bytes.Equal(a, b) {
		t.Error("second channel should not affect output")
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{1.5, 32767},
		{-2, -32768},
		{0.5, 16384},
		{-0.5, -16384},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 32767},
		{float32(math.Inf(-1)), -32768},
	}
	for _, tt := range tests {
		if got := Quantize(tt.in); got != tt.want {
			t.Errorf("Quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	in := []float32{0, 0.1, -0.1, 0.999, -0.999, 1, -1, 0.5}
	out, err := Encode(mono(16000, in...))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	streamer, format, err := beepwav.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("wav.Decode() error = %v", err)
	}
	defer streamer.Close()

	if format.SampleRate != beep.SampleRate(16000) || format.NumChannels != 1 {
		t.Fatalf("format = %+v", format)
	}
	if streamer.Len() != len(in) {
		t.Fatalf("Len() = %d, want %d", streamer.Len(), len(in))
	}

	samples := make([][2]float64, len(in))
	n, _ := streamer.Stream(samples)
	if n != len(in) {
		t.Fatalf("streamed %d samples, want %d", n, len(in))
	}

	const tolerance = 1.5 / 32767
	for i, want := range in {
		if diff := math.Abs(samples[i][0] - float64(want)); diff > tolerance {
			t.Errorf("sample %d = %v, want %v (diff %v)", i, samples[i][0], want, diff)
		}
	}
}
