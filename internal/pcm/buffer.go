// Package pcm holds decoded, planar audio in memory.
package pcm

import "time"

// Buffer is planar linear PCM: one slice of samples per channel, nominally
// in [-1, 1]. All channels have the same length.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NumChannels returns the number of channels.
func (b Buffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of frames (samples per channel).
func (b Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playing time of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Len()) * time.Second / time.Duration(b.SampleRate)
}

// Channel returns the samples of channel i, or nil when it does not exist.
func (b Buffer) Channel(i int) []float32 {
	if i < 0 || i >= len(b.Channels) {
		return nil
	}
	return b.Channels[i]
}

// Truncate returns b limited to d of audio. The samples are shared with b.
func (b Buffer) Truncate(d time.Duration) Buffer {
	if b.SampleRate <= 0 || d < 0 {
		return b
	}
	n := int(d * time.Duration(b.SampleRate) / time.Second)
	out := Buffer{SampleRate: b.SampleRate, Channels: make([][]float32, len(b.Channels))}
	for i, ch := range b.Channels {
		out.Channels[i] = ch[:min(n, len(ch))]
	}
	return out
}

// Deinterleave splits interleaved samples (L R L R ...) into a planar Buffer.
// A trailing partial frame is dropped.
func Deinterleave(sampleRate, channels int, interleaved []float32) Buffer {
	if channels <= 0 {
		return Buffer{SampleRate: sampleRate}
	}
	frames := len(interleaved) / channels
	out := Buffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range channels {
		out.Channels[c] = make([]float32, frames)
	}
	for i := range frames {
		for c := range channels {
			out.Channels[c][i] = interleaved[i*channels+c]
		}
	}
	return out
}

// Append adds interleaved samples to the end of b. The channel count of the
// interleaved data must match b.
func (b *Buffer) Append(interleaved []float32) {
	n := len(b.Channels)
	if n == 0 {
		return
	}
	frames := len(interleaved) / n
	for c := range n {
		ch := b.Channels[c]
		for i := range frames {
			ch = append(ch, interleaved[i*n+c])
		}
		b.Channels[c] = ch
	}
}
