package lastfm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/playback"
	"github.com/llehouerou/humdrum/internal/state"
)

const (
	// DefaultRetryInterval is how often queued scrobbles are retried.
	DefaultRetryInterval = 5 * time.Minute

	maxAttempts = 10

	// Position jumps larger than this are seeks, not listening.
	maxProgressStep = 5 * time.Second
)

// PendingStore persists scrobbles that could not be submitted.
type PendingStore interface {
	AddPendingScrobble(s state.PendingScrobble) error
	GetPendingScrobbles() ([]state.PendingScrobble, error)
	DeletePendingScrobble(id int64) error
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
}

// Verify state.Manager implements PendingStore at compile time.
var _ PendingStore = (*state.Manager)(nil)

// ScrobbleState tracks the scrobbling status of the current song.
type ScrobbleState struct {
	Song           catalog.Song
	StartedAt      time.Time     // When playback started
	Duration       time.Duration // 0 until known
	Listened       time.Duration // Time actually played
	LastPosition   time.Duration
	Scrobbled      bool // Whether this song has been scrobbled
	NowPlayingSent bool // Whether now playing was sent
}

// Scrobbler follows the playback engine and reports to Last.fm: now
// playing when a song starts, a scrobble once enough of it was heard.
type Scrobbler struct {
	api           API
	pending       PendingStore
	log           zerolog.Logger
	retryInterval time.Duration
	now           func() time.Time

	current *ScrobbleState
}

// NewScrobbler creates a scrobbler. pending may be nil, in which case
// failed scrobbles are dropped.
func NewScrobbler(api API, pending PendingStore, log zerolog.Logger) *Scrobbler {
	return &Scrobbler{
		api:           api,
		pending:       pending,
		log:           log,
		retryInterval: DefaultRetryInterval,
		now:           time.Now,
	}
}

// Run consumes sub until it is closed or ctx ends.
func (s *Scrobbler) Run(ctx context.Context, sub *playback.Subscription) error {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	s.RetryPending()
	for {
		select {
		case sc := <-sub.SongChanged:
			s.finish()
			if sc.Current != nil {
				s.start(*sc.Current)
			}
		case pc := <-sub.PositionChanged:
			s.progress(pc)
		case <-ticker.C:
			s.RetryPending()
		case <-sub.Done:
			s.finish()
			return nil
		case <-ctx.Done():
			s.finish()
			return ctx.Err()
		}
	}
}

func (s *Scrobbler) start(song catalog.Song) {
	s.current = &ScrobbleState{Song: song, StartedAt: s.now()}

	track, ok := TrackFromSong(song, 0, s.current.StartedAt)
	if !ok {
		s.log.Debug().Str("song_id", song.ID).Msg("Song has no artist or title, not scrobbling")
		return
	}
	if err := s.api.UpdateNowPlaying(track); err != nil {
		s.log.Warn().Err(err).Str("song_id", song.ID).Msg("Failed to update now playing")
		return
	}
	s.current.NowPlayingSent = true
}

func (s *Scrobbler) progress(pc playback.PositionChange) {
	cur := s.current
	if cur == nil {
		return
	}
	if pc.Duration > 0 {
		cur.Duration = pc.Duration
	}
	if step := pc.Position - cur.LastPosition; step > 0 && step <= maxProgressStep {
		cur.Listened += step
	}
	cur.LastPosition = pc.Position

	if cur.Duration > 0 && pc.Position >= cur.Duration {
		s.finish()
	}
}

// finish scrobbles the current song if it qualifies. A song is scrobbled
// at most once per start.
func (s *Scrobbler) finish() {
	cur := s.current
	if cur == nil || cur.Scrobbled || !ShouldScrobble(cur.Duration, cur.Listened) {
		return
	}
	track, ok := TrackFromSong(cur.Song, cur.Duration, cur.StartedAt)
	if !ok {
		return
	}
	cur.Scrobbled = true

	err := s.api.Scrobble(track)
	if err == nil {
		s.log.Debug().Str("song_id", cur.Song.ID).Msg("Scrobbled")
		return
	}
	s.log.Warn().Err(err).Str("song_id", cur.Song.ID).Msg("Scrobble failed, queueing")
	if s.pending == nil {
		return
	}
	if err := s.pending.AddPendingScrobble(state.PendingScrobble{
		Artist:       track.Artist,
		Track:        track.Track,
		DurationSecs: int(track.Duration.Seconds()),
		Timestamp:    track.Timestamp,
	}); err != nil {
		s.log.Error().Err(err).Msg("Failed to queue scrobble")
	}
}

// RetryPending resubmits queued scrobbles and returns how many succeeded
// and failed.
func (s *Scrobbler) RetryPending() (succeeded, failed int) {
	if s.pending == nil {
		return 0, 0
	}
	pending, err := s.pending.GetPendingScrobbles()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load pending scrobbles")
		return 0, 0
	}

	for i := range pending {
		p := &pending[i]
		// Skip if too many attempts
		if p.Attempts >= maxAttempts {
			continue
		}

		track := ScrobbleTrack{
			Artist:    p.Artist,
			Track:     p.Track,
			Duration:  time.Duration(p.DurationSecs) * time.Second,
			Timestamp: p.Timestamp,
		}
		if err := s.api.Scrobble(track); err != nil {
			failed++
			_ = s.pending.UpdatePendingScrobbleAttempt(p.ID, err.Error())
		} else {
			succeeded++
			_ = s.pending.DeletePendingScrobble(p.ID)
		}
	}
	if succeeded+failed > 0 {
		s.log.Info().Int("succeeded", succeeded).Int("failed", failed).Msg("Retried pending scrobbles")
	}
	return succeeded, failed
}
