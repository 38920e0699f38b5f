// internal/playback/service_impl.go
package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/notify"
	"github.com/llehouerou/humdrum/internal/player"
)

// Verify Engine implements Service at compile time.
var _ Service = (*Engine)(nil)

const (
	titlePlaybackError = "Playback Error"
	bodyPlaybackError  = "Could not play %s. The audio source may be invalid or unavailable."
)

// HistorySink records songs as they start. SongStarted must not block.
type HistorySink interface {
	SongStarted(song catalog.Song)
}

// Option configures an Engine.
type Option func(*Engine)

// WithCancellation replaces the predicate deciding which transport errors
// are benign interruptions. The default matches context.Canceled.
func WithCancellation(fn func(error) bool) Option {
	return func(e *Engine) {
		if fn != nil {
			e.isCancellation = fn
		}
	}
}

func WithHistory(h HistorySink) Option {
	return func(e *Engine) { e.history = h }
}

func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithVolume sets the initial volume level, applied to the transport by New.
func WithVolume(level float64) Option {
	return func(e *Engine) {
		if !math.IsNaN(level) && !math.IsInf(level, 0) {
			e.volume = clampLevel(level)
		}
	}
}

// IsCancellation is the default cancellation predicate.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Engine plays one song at a time over a media transport. Commands record
// intent and drive the transport; state only changes in response to
// transport events. Every Load gets a new generation and events from older
// generations are ignored.
type Engine struct {
	mu sync.Mutex

	transport      player.Interface
	history        HistorySink
	notifier       notify.Notifier
	log            zerolog.Logger
	isCancellation func(error) bool

	gen       uint64
	song      *catalog.Song
	state     State
	position  time.Duration
	duration  time.Duration
	volume    float64
	intent    bool
	buffering bool

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates an engine over transport.
func New(transport player.Interface, opts ...Option) *Engine {
	e := &Engine{
		transport:      transport,
		log:            zerolog.Nop(),
		isCancellation: IsCancellation,
		volume:         1,
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = notify.Log{Logger: e.log}
	}
	transport.SetVolume(e.volume)
	return e
}

// PlaySong starts song, or toggles play/pause if it is already current.
func (e *Engine) PlaySong(song catalog.Song) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if e.song != nil && e.song.ID == song.ID {
		e.toggleLocked()
		e.mu.Unlock()
		return
	}

	prev := e.song
	current := song
	e.song = &current
	e.gen++
	e.intent = true
	e.buffering = false
	e.position, e.duration = 0, 0
	e.setStateLocked(StateLoading)
	e.transport.Load(e.gen, song.URL)
	e.log.Info().
		Str("song_id", song.ID).
		Str("title", song.Title).
		Uint64("gen", e.gen).
		Msg("Playing song")
	e.publishSong(SongChange{Previous: prev, Current: &current})
	e.publishPosition(PositionChange{})
	e.mu.Unlock()

	if e.history != nil {
		e.history.SongStarted(current)
	}
}

// TogglePlayPause pauses when playing or about to play, and plays otherwise.
func (e *Engine) TogglePlayPause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toggleLocked()
}

func (e *Engine) toggleLocked() {
	if e.song == nil {
		return
	}
	if e.state == StatePlaying || e.intent {
		e.intent = false
		e.transport.Pause()
		return
	}
	e.intent = true
	e.transport.Play()
}

// Play resumes the current song.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.song == nil || e.state == StatePlaying {
		return
	}
	e.intent = true
	e.transport.Play()
}

// Pause pauses the current song.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.song == nil || (e.state != StatePlaying && !e.intent) {
		return
	}
	e.intent = false
	e.transport.Pause()
}

// Seek moves to an absolute position in seconds. Values that are not
// finite are ignored; negative values seek to the start.
func (e *Engine) Seek(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.song == nil {
		return
	}

	pos := time.Duration(max(seconds, 0) * float64(time.Second))
	if e.duration > 0 {
		pos = min(pos, e.duration)
	}
	e.transport.SeekTo(pos)
	e.position = pos
	e.publishPosition(PositionChange{Position: pos, Duration: e.duration})
}

// SeekTo is Seek with a duration.
func (e *Engine) SeekTo(position time.Duration) {
	e.Seek(position.Seconds())
}

// SetVolume sets the level, clamped to [0, 1]. Values that are not finite
// are ignored.
func (e *Engine) SetVolume(level float64) {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return
	}
	level = clampLevel(level)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = level
	e.transport.SetVolume(level)
	e.publishVolume(VolumeChange{Level: level})
}

func clampLevel(level float64) float64 {
	return min(max(level, 0), 1)
}

// Run applies transport events until ctx ends or the transport closes its
// event channel.
func (e *Engine) Run(ctx context.Context) error {
	events := e.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.handleEvent(ev)
		}
	}
}

// handleEvent is the single entry point for transport events.
func (e *Engine) handleEvent(ev player.Event) {
	e.mu.Lock()
	if ev.Gen != e.gen || e.song == nil {
		e.mu.Unlock()
		e.log.Trace().
			Uint64("gen", ev.Gen).
			Stringer("kind", ev.Kind).
			Msg("Dropping stale transport event")
		return
	}

	var failed *catalog.Song
	switch ev.Kind {
	case player.EventProgress:
		e.position = ev.Position
		if ev.Duration > 0 {
			e.duration = ev.Duration
		}
		e.publishPosition(PositionChange{Position: e.position, Duration: e.duration})

	case player.EventDurationKnown:
		e.duration = ev.Duration
		e.publishPosition(PositionChange{Position: e.position, Duration: e.duration})

	case player.EventStarted:
		e.buffering = false
		e.setStateLocked(StatePlaying)

	case player.EventPaused:
		e.setStateLocked(StatePaused)

	case player.EventEnded:
		e.intent = false
		if e.duration == 0 {
			e.duration = ev.Duration
		}
		e.position = e.duration
		e.setStateLocked(StatePaused)
		e.publishPosition(PositionChange{Position: e.position, Duration: e.duration})

	case player.EventWaiting:
		e.buffering = true

	case player.EventReady:
		e.buffering = false
		if e.intent {
			e.transport.Play()
		} else {
			e.setStateLocked(StatePaused)
		}

	case player.EventError:
		if e.isCancellation(ev.Err) {
			e.log.Debug().Err(ev.Err).Msg("Playback interrupted")
			break
		}
		e.intent = false
		e.buffering = false
		e.setStateLocked(StatePaused)
		e.publishError(ErrorEvent{Operation: "play", SongID: e.song.ID, Err: ev.Err})
		song := *e.song
		failed = &song
	}
	e.mu.Unlock()

	if failed != nil {
		e.log.Error().Err(ev.Err).Str("song_id", failed.ID).Msg("Playback failed")
		if _, err := e.notifier.Notify(notify.Notification{
			Title:   titlePlaybackError,
			Body:    fmt.Sprintf(bodyPlaybackError, failed.Title),
			Timeout: notify.Transient,
			Urgency: notify.UrgencyCritical,
		}); err != nil {
			e.log.Debug().Err(err).Msg("Notification failed")
		}
	}
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	prev := e.state
	e.state = s
	e.publishState(StateChange{Previous: prev, Current: s})
}

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	var song *catalog.Song
	if e.song != nil {
		s := *e.song
		song = &s
	}
	return Session{
		Song:         song,
		State:        e.state,
		Position:     e.position,
		Duration:     e.duration,
		Volume:       e.volume,
		IntentToPlay: e.intent,
		Buffering:    e.buffering,
	}
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentSong returns the current song, or nil if none.
func (e *Engine) CurrentSong() *catalog.Song {
	return e.Snapshot().Song
}

// Position returns the last known playback position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Duration returns the current song duration, or 0 while unknown.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Volume returns the current volume level.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	if e.closedSubs() {
		sub.close()
		return sub
	}
	e.subs = append(e.subs, sub)
	return sub
}

func (e *Engine) closedSubs() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Close shuts down the engine and its transport.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.done)
	e.mu.Unlock()

	err := e.transport.Close()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	return err
}

func (e *Engine) publishState(ev StateChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendState(ev)
	}
}

func (e *Engine) publishSong(ev SongChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendSong(ev)
	}
}

func (e *Engine) publishPosition(ev PositionChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendPosition(ev)
	}
}

func (e *Engine) publishVolume(ev VolumeChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendVolume(ev)
	}
}

func (e *Engine) publishError(ev ErrorEvent) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendError(ev)
	}
}
