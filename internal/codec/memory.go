package codec

import (
	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/humdrum/internal/pcm"
)

// bufferStreamer plays a decoded pcm.Buffer. Mono sources are duplicated
// to both output channels.
type bufferStreamer struct {
	buf pcm.Buffer
	pos int
}

func newBufferStreamer(buf pcm.Buffer) *bufferStreamer {
	return &bufferStreamer{buf: buf}
}

func (s *bufferStreamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.buf.SampleRate),
		NumChannels: min(max(s.buf.NumChannels(), 1), 2),
		Precision:   2,
	}
}

func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	left := s.buf.Channel(0)
	right := s.buf.Channel(1)
	if right == nil {
		right = left
	}

	n := min(len(samples), s.buf.Len()-s.pos)
	if n <= 0 {
		return 0, false
	}
	for i := range n {
		samples[i][0] = float64(left[s.pos+i])
		samples[i][1] = float64(right[s.pos+i])
	}
	s.pos += n
	return n, true
}

func (s *bufferStreamer) Err() error { return nil }

func (s *bufferStreamer) Len() int { return s.buf.Len() }

func (s *bufferStreamer) Position() int { return s.pos }

func (s *bufferStreamer) Seek(p int) error {
	s.pos = min(max(p, 0), s.buf.Len())
	return nil
}

func (s *bufferStreamer) Close() error { return nil }
