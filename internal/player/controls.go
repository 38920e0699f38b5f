package player

import (
	"time"
)

// Play resumes the loaded source, restarting it if it has ended. It does
// nothing while a source is still loading.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.track
	if t == nil {
		return
	}

	if t.ended.Load() {
		p.out.Lock()
		err := t.streamer.Seek(0)
		p.out.Unlock()
		if err != nil {
			p.log.Warn().Err(err).Msg("Rewinding source")
		}
		p.startLocked(t, false)
	} else {
		p.out.Lock()
		t.ctrl.Paused = false
		p.out.Unlock()
	}
	t.playing = true

	p.out.Lock()
	pos := t.position()
	p.out.Unlock()
	p.events.push(Event{Gen: t.gen, Kind: EventStarted, Position: pos, Duration: t.duration()})
}

// Pause pauses the loaded source.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.track
	if t == nil {
		return
	}

	p.out.Lock()
	t.ctrl.Paused = true
	pos := t.position()
	p.out.Unlock()
	t.playing = false

	p.events.push(Event{Gen: t.gen, Kind: EventPaused, Position: pos, Duration: t.duration()})
}

// SeekTo moves to an absolute position, clamped to the source bounds.
// Seeking an ended source back into range rewinds it paused; Play resumes it.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.track
	if t == nil {
		return
	}

	n := t.format.SampleRate.N(max(pos, 0))
	n = min(n, t.streamer.Len())

	p.out.Lock()
	err := t.streamer.Seek(n)
	actual := t.position()
	p.out.Unlock()
	if err != nil {
		p.log.Warn().Err(err).Dur("position", pos).Msg("Seek failed")
	}

	if t.ended.Load() && n < t.streamer.Len() {
		p.startLocked(t, true)
		t.playing = false
	}

	p.events.push(Event{Gen: t.gen, Kind: EventProgress, Position: actual, Duration: t.duration()})
}
