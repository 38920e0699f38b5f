package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/llehouerou/humdrum/internal/pcm"
)

var (
	errInvalidOggMagic   = errors.New("ogg: invalid capture pattern")
	errInvalidOggVersion = errors.New("ogg: unsupported version")
	errEmptyOgg          = errors.New("ogg: no packets")
)

// oggPageHeader is the fixed part of an Ogg page plus its segment table.
type oggPageHeader struct {
	GranulePos   int64
	SerialNumber uint32
	SegmentTable []uint8
}

func parseOggPageHeader(r io.Reader) (*oggPageHeader, error) {
	var buf [27]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	if string(buf[0:4]) != "OggS" {
		return nil, errInvalidOggMagic
	}
	if buf[4] != 0 {
		return nil, errInvalidOggVersion
	}

	hdr := &oggPageHeader{
		GranulePos:   int64(binary.LittleEndian.Uint64(buf[6:14])), //nolint:gosec // granule is signed
		SerialNumber: binary.LittleEndian.Uint32(buf[14:18]),
		SegmentTable: make([]uint8, buf[26]),
	}
	if _, err := io.ReadFull(r, hdr.SegmentTable); err != nil {
		return nil, err
	}
	return hdr, nil
}

// oggPacketReader reassembles packets from the first logical stream of an
// Ogg file. Pages of other streams are skipped.
type oggPacketReader struct {
	r       io.Reader
	serial  uint32
	started bool
	partial []byte
	ready   [][]byte
	granule int64
}

func newOggPacketReader(r io.Reader) *oggPacketReader {
	return &oggPacketReader{r: r, granule: -1}
}

// Next returns the next complete packet, or io.EOF after the last one.
func (o *oggPacketReader) Next() ([]byte, error) {
	for len(o.ready) == 0 {
		if err := o.readPage(); err != nil {
			return nil, err
		}
	}
	p := o.ready[0]
	o.ready = o.ready[1:]
	return p, nil
}

// Granule is the granule position of the last page read, -1 if none.
func (o *oggPacketReader) Granule() int64 {
	return o.granule
}

func (o *oggPacketReader) readPage() error {
	hdr, err := parseOggPageHeader(o.r)
	if err != nil {
		return err
	}

	size := 0
	for _, seg := range hdr.SegmentTable {
		size += int(seg)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(o.r, body); err != nil {
		return err
	}

	if !o.started {
		o.serial = hdr.SerialNumber
		o.started = true
	}
	if hdr.SerialNumber != o.serial {
		return nil
	}

	off := 0
	for _, seg := range hdr.SegmentTable {
		o.partial = append(o.partial, body[off:off+int(seg)]...)
		off += int(seg)
		if seg < 255 {
			o.ready = append(o.ready, o.partial)
			o.partial = nil
		}
	}
	if hdr.GranulePos >= 0 {
		o.granule = hdr.GranulePos
	}
	return nil
}

// oggFrameCapacity bounds the samples per channel of one decoded packet
// (Opus 120ms at 48kHz is 5760, Vorbis long blocks stay below 8192).
const oggFrameCapacity = 8192

// decodeOgg decodes a whole Ogg Opus or Vorbis stream into memory.
func decodeOgg(r io.Reader) (pcm.Buffer, error) {
	packets := newOggPacketReader(r)

	first, err := packets.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return pcm.Buffer{}, errEmptyOgg
		}
		return pcm.Buffer{}, err
	}
	codec, err := detectOggCodec(first)
	if err != nil {
		return pcm.Buffer{}, err
	}
	for complete := false; !complete; {
		p, err := packets.Next()
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("ogg headers: %w", err)
		}
		if complete, err = codec.AddHeaderPacket(p); err != nil {
			return pcm.Buffer{}, err
		}
	}

	channels := codec.Channels()
	out := pcm.Buffer{SampleRate: codec.SampleRate(), Channels: make([][]float32, channels)}
	scratch := make([]float32, oggFrameCapacity*channels)
	skip := codec.PreSkip()

	for {
		p, err := packets.Next()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return pcm.Buffer{}, err
		}
		n, err := codec.Decode(p, scratch)
		if err != nil {
			return pcm.Buffer{}, fmt.Errorf("ogg packet: %w", err)
		}
		frames := scratch[:n*channels]
		if skip > 0 {
			drop := min(skip, n)
			frames = frames[drop*channels:]
			skip -= drop
		}
		out.Append(frames)
	}

	if g := packets.Granule(); g >= 0 {
		if total := codec.GranuleToSamples(g); total >= 0 && int(total) < out.Len() {
			for c := range out.Channels {
				out.Channels[c] = out.Channels[c][:total]
			}
		}
	}
	return out, nil
}
