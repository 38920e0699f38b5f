package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog"

	"github.com/llehouerou/humdrum/internal/codec"
)

const (
	DefaultSampleRate       = 44100
	DefaultProgressInterval = 500 * time.Millisecond
	DefaultStallTimeout     = 30 * time.Second
)

// Config configures a Player. A zero Config plays through the system
// speaker at DefaultSampleRate.
type Config struct {
	HTTPClient *http.Client
	// StallTimeout is how long a download may go without receiving data.
	// Slow but steady transfers are never cut off.
	StallTimeout     time.Duration
	ProgressInterval time.Duration
	SampleRate       int
	Logger           zerolog.Logger
}

// Player is the beep-backed transport. Sources are downloaded fully into
// memory, decoded with package codec and mixed through the speaker.
type Player struct {
	out      output
	http     *http.Client
	log      zerolog.Logger
	rate     beep.SampleRate
	interval time.Duration
	stall    time.Duration

	mu          sync.Mutex
	gen         uint64
	cancelLoad  context.CancelFunc
	track       *track
	volumeLevel float64
	closed      bool

	events *eventQueue
	stop   chan struct{}
	wg     sync.WaitGroup
}

// track is one decoded source. ctrl and volume are rebuilt when a finished
// track is played again.
type track struct {
	gen      uint64
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	playing  bool
	ended    atomic.Bool
}

func New(cfg Config) *Player {
	return newPlayer(cfg, defaultOutput)
}

func newPlayer(cfg Config, out output) *Player {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	stall := cfg.StallTimeout
	if stall <= 0 {
		stall = DefaultStallTimeout
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	p := &Player{
		out:         out,
		http:        client,
		log:         cfg.Logger,
		rate:        beep.SampleRate(rate),
		interval:    interval,
		stall:       stall,
		volumeLevel: 1,
		events:      newEventQueue(),
		stop:        make(chan struct{}),
	}
	p.wg.Add(1)
	go p.progressLoop()
	return p
}

// Events returns the ordered event stream. It is closed by Close.
func (p *Player) Events() <-chan Event {
	return p.events.out
}

// Load stops the current source and starts fetching url in the background.
// A load still in flight is canceled.
func (p *Player) Load(gen uint64, url string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.gen = gen
	if p.cancelLoad != nil {
		p.cancelLoad()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancelLoad = cancel
	if p.track != nil {
		p.release(p.track)
		p.track = nil
	}
	p.wg.Add(1)
	p.events.push(Event{Gen: gen, Kind: EventWaiting})
	p.mu.Unlock()

	p.log.Debug().Uint64("gen", gen).Str("url", url).Msg("Loading source")
	go p.load(ctx, gen, url)
}

func (p *Player) load(ctx context.Context, gen uint64, url string) {
	defer p.wg.Done()

	data, err := p.fetch(ctx, url)
	if err != nil {
		p.fail(gen, err)
		return
	}

	streamer, format, err := codec.Open(memoryFile{bytes.NewReader(data)})
	if err != nil {
		p.fail(gen, fmt.Errorf("decode %s: %w", url, err))
		return
	}
	if err := p.out.Init(p.rate); err != nil {
		_ = streamer.Close()
		p.fail(gen, fmt.Errorf("init speaker: %w", err))
		return
	}

	t := &track{gen: gen, streamer: streamer, format: format}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.gen != gen || ctx.Err() != nil {
		_ = streamer.Close()
		p.events.push(Event{Gen: gen, Kind: EventError, Err: context.Canceled})
		return
	}
	p.track = t
	p.startLocked(t, true)

	duration := format.SampleRate.D(streamer.Len())
	p.events.push(Event{Gen: gen, Kind: EventDurationKnown, Duration: duration})
	p.events.push(Event{Gen: gen, Kind: EventReady, Duration: duration})
}

// startLocked builds the effect chain for t and hands it to the output.
func (p *Player) startLocked(t *track, paused bool) {
	var s beep.Streamer = t.streamer
	if t.format.SampleRate != p.rate {
		s = beep.Resample(4, t.format.SampleRate, p.rate, s)
	}
	t.ctrl = &beep.Ctrl{Streamer: s, Paused: paused}
	t.volume = &effects.Volume{Streamer: t.ctrl, Base: 2}
	applyVolume(t.volume, p.volumeLevel)
	t.ended.Store(false)

	p.out.Play(beep.Seq(t.volume, beep.Callback(func() { p.finished(t) })))
}

// finished runs on the mixer goroutine with the output locked.
func (p *Player) finished(t *track) {
	t.ended.Store(true)
	d := t.format.SampleRate.D(t.streamer.Len())
	p.events.push(Event{Gen: t.gen, Kind: EventEnded, Position: d, Duration: d})
}

func (p *Player) fail(gen uint64, err error) {
	if errors.Is(err, context.Canceled) {
		p.log.Debug().Uint64("gen", gen).Msg("Load canceled")
	} else {
		p.log.Warn().Err(err).Uint64("gen", gen).Msg("Load failed")
	}
	p.events.push(Event{Gen: gen, Kind: EventError, Err: err})
}

func (p *Player) release(t *track) {
	p.out.Clear()
	if err := t.streamer.Close(); err != nil {
		p.log.Debug().Err(err).Msg("Closing source")
	}
}

func (p *Player) progressLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			if t := p.track; t != nil && t.playing && !t.ended.Load() {
				p.out.Lock()
				pos := t.position()
				p.out.Unlock()
				p.events.push(Event{Gen: t.gen, Kind: EventProgress, Position: pos, Duration: t.duration()})
			}
			p.mu.Unlock()
		case <-p.stop:
			return
		}
	}
}

func (t *track) position() time.Duration {
	return t.format.SampleRate.D(t.streamer.Position())
}

func (t *track) duration() time.Duration {
	return t.format.SampleRate.D(t.streamer.Len())
}

// Close stops playback, cancels pending loads and closes Events.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.cancelLoad != nil {
		p.cancelLoad()
	}
	if p.track != nil {
		p.release(p.track)
		p.track = nil
	}
	p.mu.Unlock()

	close(p.stop)
	p.wg.Wait()
	p.events.close()
	return nil
}
