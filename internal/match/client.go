package match

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/humdrum/internal/catalog"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 60 * time.Second

	formField    = "file"
	formFilename = "hum.wav"
	maxBodyBytes = 1 << 20
)

// Config configures a Client.
type Config struct {
	URL         string
	Timeout     time.Duration
	Concurrency int
	HTTPClient  *http.Client
	Logger      zerolog.Logger
}

// Client submits recordings to a query-by-humming endpoint.
type Client struct {
	url         string
	http        *http.Client
	lookup      catalog.Lookup
	concurrency int
	log         zerolog.Logger
}

func New(cfg Config, lookup catalog.Lookup) *Client {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Client{
		url:         cfg.URL,
		http:        client,
		lookup:      lookup,
		concurrency: concurrency,
		log:         cfg.Logger,
	}
}

// Submit uploads a WAV recording and resolves the candidates it returns.
// Empty and unresolvable results are reported through Result.Status; only
// transport failures and non-2xx answers are errors (*NetworkMatchError).
func (c *Client) Submit(ctx context.Context, wav []byte) (Result, error) {
	body, err := c.post(ctx, wav)
	if err != nil {
		return Result{}, err
	}

	candidates, err := parseCandidates(body)
	if err != nil {
		return Result{}, &NetworkMatchError{Err: err}
	}
	if len(candidates) == 0 {
		return Result{Status: StatusEmpty}, nil
	}

	songs, err := c.resolve(ctx, candidates)
	if err != nil {
		return Result{}, err
	}

	res := Result{Status: StatusMatched, Songs: songs, Candidates: candidates}
	if len(songs) == 0 {
		res.Status = StatusRecognizedButAbsent
	}
	c.log.Debug().
		Int("candidates", len(candidates)).
		Int("resolved", len(songs)).
		Stringer("status", res.Status).
		Msg("Matcher answered")
	return res, nil
}

func (c *Client) post(ctx context.Context, wav []byte) ([]byte, error) {
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, formFilename))
	header.Set("Content-Type", "audio/wav")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, &NetworkMatchError{Err: err}
	}
	if _, err := part.Write(wav); err != nil {
		return nil, &NetworkMatchError{Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &NetworkMatchError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &form)
	if err != nil {
		return nil, &NetworkMatchError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkMatchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkMatchError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkMatchError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// parseCandidates reads {"matches": [{"track_id": N}, ...]}. Entries without
// an integral track_id are skipped; duplicates keep their best rank.
func parseCandidates(body []byte) ([]Candidate, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}

	var out []Candidate
	gjson.GetBytes(body, "matches").ForEach(func(_, m gjson.Result) bool {
		if id, ok := trackID(m.Get("track_id")); ok {
			out = append(out, Candidate{TrackID: id, Rank: len(out)})
		}
		return true
	})

	return lo.UniqBy(out, func(c Candidate) string { return c.TrackID }), nil
}

func trackID(v gjson.Result) (string, bool) {
	switch v.Type { //nolint:exhaustive // other kinds carry no id
	case gjson.Number:
		if v.Num != float64(int64(v.Num)) {
			return "", false
		}
		return strconv.FormatInt(int64(v.Num), 10), true
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}

// resolve looks candidates up concurrently and returns the found songs in
// candidate order. Lookup failures drop the candidate.
func (c *Client) resolve(ctx context.Context, candidates []Candidate) ([]catalog.Song, error) {
	slots := make([]*catalog.Song, len(candidates))

	wg, wgCtx := errgroup.WithContext(ctx)
	wg.SetLimit(c.concurrency)
	for i, cand := range candidates {
		wg.Go(func() error {
			song, err := c.lookup.GetSongByID(wgCtx, cand.TrackID)
			if err != nil {
				c.log.Debug().Err(err).Str("track_id", cand.TrackID).Msg("Candidate not resolved")
				return nil
			}
			slots[i] = &song
			return nil
		})
	}
	_ = wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	songs := lo.FilterMap(slots, func(s *catalog.Song, _ int) (catalog.Song, bool) {
		if s == nil {
			return catalog.Song{}, false
		}
		return *s, true
	})
	return lo.UniqBy(songs, func(s catalog.Song) string { return s.ID }), nil
}
