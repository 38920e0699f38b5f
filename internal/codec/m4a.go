package codec

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

var errM4ACodec = errors.New("m4a: unsupported codec")

// m4aStream reads AAC or ALAC access units out of an MP4 container and
// exposes them as stereo frames.
type m4aStream struct {
	container *m4a.Reader
	closer    io.Closer
	channels  int
	bits      int
	total     int
	next      int
	pending   [][2]float64
	err       error

	aac  *faad2.Decoder
	alac *alac.Alac
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	rate := container.SampleRate()
	s := &m4aStream{
		container: container,
		closer:    rc,
		channels:  int(container.Channels()),
		bits:      int(container.SampleSize()),
		total:     int(container.Duration().Seconds() * float64(rate)),
	}
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: 2}

	switch container.Codec() {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, err
		}
		if err := dec.Init(ctx, container.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, err
		}
		s.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  int(rate),
			SampleSize:  s.bits,
			NumChannels: s.channels,
			FrameSize:   4096,
		})
		if err != nil {
			return nil, beep.Format{}, err
		}
		s.alac = dec
		if s.bits == 24 {
			format.Precision = 3
		}
	case m4a.CodecUnknown:
		return nil, beep.Format{}, errM4ACodec
	}
	return s, format, nil
}

func (s *m4aStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if len(s.pending) > 0 {
			c := copy(samples[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.next >= s.container.SampleCount() {
			break
		}
		if err := s.decodeNext(); err != nil {
			s.err = err
			break
		}
	}
	return n, n > 0
}

func (s *m4aStream) decodeNext() error {
	unit, err := s.container.ReadSample(s.next)
	if err != nil {
		return err
	}
	s.next++

	switch {
	case s.aac != nil:
		samples, err := s.aac.Decode(context.Background(), unit)
		if err != nil {
			return err
		}
		s.pending = s.fromInt16(samples)
	case s.alac != nil:
		s.pending = s.fromALAC(s.alac.Decode(unit))
	default:
		return errM4ACodec
	}
	return nil
}

func (s *m4aStream) fromInt16(in []int16) [][2]float64 {
	ch := max(s.channels, 1)
	frames := make([][2]float64, len(in)/ch)
	for i := range frames {
		l := float64(in[i*ch]) / 32768
		r := l
		if ch > 1 {
			r = float64(in[i*ch+1]) / 32768
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

// fromALAC converts little-endian 16 or 24-bit ALAC output to frames.
func (s *m4aStream) fromALAC(data []byte) [][2]float64 {
	width := 2
	scale := 32768.0
	if s.bits == 24 {
		width, scale = 3, 8388608.0
	}
	ch := max(s.channels, 1)
	stride := width * ch
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		off := i * stride
		l := float64(readSigned(data[off:], width)) / scale
		r := l
		if ch > 1 {
			r = float64(readSigned(data[off+width:], width)) / scale
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

func readSigned(b []byte, width int) int32 {
	var v int32
	for i := range width {
		v |= int32(b[i]) << (8 * i)
	}
	shift := 32 - 8*width
	return v << shift >> shift
}

func (s *m4aStream) Err() error { return s.err }

func (s *m4aStream) Len() int { return s.total }

func (s *m4aStream) Position() int {
	return int(s.container.SampleTime(s.next).Seconds() * float64(s.container.SampleRate()))
}

func (s *m4aStream) Seek(p int) error {
	p = min(max(p, 0), s.total)
	at := time.Duration(float64(p) / float64(s.container.SampleRate()) * float64(time.Second))
	s.next = s.container.SeekToTime(at)
	s.pending = nil
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	if s.aac != nil {
		s.aac.Close(context.Background())
	}
	return s.closer.Close()
}
