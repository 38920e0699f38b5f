package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// lace returns the segment table for a packet; a final short segment is
// emitted only when the packet ends on this page.
func lace(packet []byte, terminate bool) []byte {
	var segs []byte
	n := len(packet)
	for n >= 255 {
		segs = append(segs, 255)
		n -= 255
	}
	if terminate {
		segs = append(segs, byte(n))
	}
	return segs
}

func oggPage(serial uint32, granule int64, segs []byte, body []byte) []byte {
	hdr := make([]byte, 27)
	copy(hdr, "OggS")
	binary.LittleEndian.PutUint64(hdr[6:14], uint64(granule)) //nolint:gosec // test data
	binary.LittleEndian.PutUint32(hdr[14:18], serial)
	hdr[26] = byte(len(segs))
	out := append(hdr, segs...)
	return append(out, body...)
}

func TestOggPacketReader_Reassembly(t *testing.T) {
	long := bytes.Repeat([]byte{0xAB}, 300)
	short := []byte("tail")

	var stream []byte
	// First page holds 255 bytes of the long packet, unterminated.
	stream = append(stream, oggPage(7, -1, []byte{255}, long[:255])...)
	// A foreign stream page is ignored.
	stream = append(stream, oggPage(9, 0, lace([]byte("xx"), true), []byte("xx"))...)
	// Second page finishes the long packet and carries a short one.
	segs := append([]byte{45}, lace(short, true)...)
	body := append(append([]byte{}, long[255:]...), short...)
	stream = append(stream, oggPage(7, 1234, segs, body)...)

	r := newOggPacketReader(bytes.NewReader(stream))

	p, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !bytes.Equal(p, long) {
		t.Errorf("first packet len = %d, want %d", len(p), len(long))
	}

	p, err = r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(p) != "tail" {
		t.Errorf("second packet = %q, want tail", p)
	}
	if r.Granule() != 1234 {
		t.Errorf("Granule() = %d, want 1234", r.Granule())
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end error = %v, want io.EOF", err)
	}
}

func TestParseOggPageHeader_Errors(t *testing.T) {
	bad := oggPage(1, 0, nil, nil)
	copy(bad, "Oggx")
	if _, err := parseOggPageHeader(bytes.NewReader(bad)); !errors.Is(err, errInvalidOggMagic) {
		t.Errorf("magic: error = %v", err)
	}

	bad = oggPage(1, 0, nil, nil)
	bad[4] = 1
	if _, err := parseOggPageHeader(bytes.NewReader(bad)); !errors.Is(err, errInvalidOggVersion) {
		t.Errorf("version: error = %v", err)
	}
}

func TestDetectOggCodec(t *testing.T) {
	opusHead := make([]byte, 19)
	copy(opusHead, "OpusHead")
	opusHead[8] = 1
	opusHead[9] = 1
	binary.LittleEndian.PutUint16(opusHead[10:12], 312)
	binary.LittleEndian.PutUint32(opusHead[12:16], 16000)

	codec, err := detectOggCodec(opusHead)
	if err != nil {
		t.Fatalf("opus: error = %v", err)
	}
	if codec.SampleRate() != 48000 || codec.Channels() != 1 || codec.PreSkip() != 312 {
		t.Errorf("opus codec = rate %d channels %d preskip %d",
			codec.SampleRate(), codec.Channels(), codec.PreSkip())
	}
	if got := codec.GranuleToSamples(1312); got != 1000 {
		t.Errorf("GranuleToSamples() = %d, want 1000", got)
	}

	opusHead[8] = 2
	if _, err := detectOggCodec(opusHead); !errors.Is(err, errUnsupportedOpus) {
		t.Errorf("opus v2: error = %v", err)
	}

	vorbisIdent := make([]byte, 30)
	vorbisIdent[0] = 0x01
	copy(vorbisIdent[1:], "vorbis")
	vorbisIdent[11] = 2
	binary.LittleEndian.PutUint32(vorbisIdent[12:16], 44100)
	codec, err = detectOggCodec(vorbisIdent)
	if err != nil {
		t.Fatalf("vorbis: error = %v", err)
	}
	if codec.SampleRate() != 44100 || codec.Channels() != 2 {
		t.Errorf("vorbis codec = rate %d channels %d", codec.SampleRate(), codec.Channels())
	}
	if _, err := codec.Decode([]byte{0}, make([]float32, 16)); !errors.Is(err, errVorbisNotReady) {
		t.Errorf("Decode before headers: error = %v", err)
	}

	if _, err := detectOggCodec([]byte("garbage")); !errors.Is(err, errUnknownOggCodec) {
		t.Errorf("unknown: error = %v", err)
	}
}
