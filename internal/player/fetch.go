package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrUnsupportedSource is returned for URLs that are neither http(s),
// file:// nor a plain path.
var ErrUnsupportedSource = errors.New("player: unsupported source")

// ErrStalled is returned when a download receives nothing for longer than
// the stall timeout.
var ErrStalled = errors.New("player: download stalled")

// StatusError reports a non-200 answer from a media server.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, http.StatusText(e.Code))
}

// fetch reads the whole source into memory; decoders need to seek.
func (p *Player) fetch(ctx context.Context, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	var data []byte
	switch u.Scheme {
	case "http", "https":
		data, err = p.download(ctx, src)
	case "file":
		data, err = os.ReadFile(u.Path)
	case "":
		data, err = os.ReadFile(src)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	// A canceled load may still have finished reading.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.log.Debug().Str("url", src).Str("size", humanize.Bytes(uint64(len(data)))).Msg("Fetched source")
	return data, nil
}

// download fails with ErrStalled when no bytes arrive for p.stall, however
// long the whole transfer takes.
func (p *Player) download(ctx context.Context, src string) ([]byte, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	idle := time.AfterFunc(p.stall, func() { cancel(ErrStalled) })
	defer idle.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fetchError(ctx, src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: src, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(&idleReader{r: resp.Body, timer: idle, timeout: p.stall})
	if err != nil {
		return nil, fetchError(ctx, src, err)
	}
	return data, nil
}

func fetchError(ctx context.Context, src string, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrStalled) {
		return fmt.Errorf("fetch %s: %w", src, cause)
	}
	return fmt.Errorf("fetch %s: %w", src, err)
}

// idleReader pushes the stall deadline back on every read that returns data.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleReader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

// memoryFile adapts an in-memory source to io.ReadSeekCloser.
type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }
