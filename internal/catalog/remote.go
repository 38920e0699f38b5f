package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// RemoteConfig configures a Remote catalog.
type RemoteConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Remote reads songs from a catalog HTTP API:
//
//	GET {base}/songs/{id}
//	GET {base}/songs?q=&limit=&start_after=
//
// Server errors and transport failures are retried with exponential backoff.
type Remote struct {
	base       string
	client     *http.Client
	maxRetries uint64
	log        zerolog.Logger
}

// ErrStatus is wrapped by errors for unexpected response codes.
var ErrStatus = errors.New("unexpected status")

func NewRemote(cfg RemoteConfig) *Remote {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Remote{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		client:     client,
		maxRetries: cfg.MaxRetries,
		log:        cfg.Logger,
	}
}

func (r *Remote) GetSongByID(ctx context.Context, id string) (Song, error) {
	var doc document
	err := r.getJSON(ctx, "/songs/"+url.PathEscape(id), &doc)
	if err != nil {
		return Song{}, err
	}
	return doc.song()
}

type pageDocument struct {
	Songs []document `json:"songs"`
	Next  string     `json:"next"`
}

func (r *Remote) GetSongs(ctx context.Context, f Filter) (Page, error) {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	} else {
		q.Set("limit", strconv.Itoa(f.limit()))
		if f.StartAfter != "" {
			q.Set("start_after", f.StartAfter)
		}
	}

	var doc pageDocument
	if err := r.getJSON(ctx, "/songs?"+q.Encode(), &doc); err != nil {
		return Page{}, err
	}

	page := Page{Next: doc.Next, Songs: make([]Song, 0, len(doc.Songs))}
	for _, d := range doc.Songs {
		s, err := d.song()
		if err != nil {
			r.log.Warn().Err(err).Msg("Skipping malformed catalog document")
			continue
		}
		page.Songs = append(page.Songs, s)
	}
	return page, nil
}

func (r *Remote) getJSON(ctx context.Context, path string, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode))
		}

		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.log.Debug().Err(err).Str("path", path).Dur("wait", wait).Msg("Retrying catalog request")
	}
	return backoff.RetryNotify(op, r.policy(ctx), notify)
}

func (r *Remote) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, r.maxRetries), ctx)
}

var _ Catalog = (*Remote)(nil)
