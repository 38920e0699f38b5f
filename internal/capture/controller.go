package capture

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/humdrum/internal/errmsg"
	"github.com/llehouerou/humdrum/internal/match"
	"github.com/llehouerou/humdrum/internal/notify"
	"github.com/llehouerou/humdrum/internal/wav"
)

const (
	// DefaultMaxDuration is how long a recording runs before it stops itself.
	DefaultMaxDuration = 5 * time.Second

	outcomeBuffer = 4
)

// Config configures a Controller.
type Config struct {
	MaxDuration time.Duration
	Notifier    notify.Notifier
	Logger      zerolog.Logger
}

// Controller drives one recording at a time. Start toggles: it begins a
// recording when idle and stops the running one when recording.
type Controller struct {
	mic      Microphone
	dec      Decoder
	sub      Submitter
	notifier notify.Notifier
	log      zerolog.Logger
	maxDur   time.Duration

	mu       sync.Mutex
	state    State
	gen      uint64
	stream   Stream
	deadline *time.Timer
	closed   bool

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	outcomes chan Outcome
}

func New(mic Microphone, dec Decoder, sub Submitter, cfg Config) *Controller {
	maxDur := cfg.MaxDuration
	if maxDur <= 0 {
		maxDur = DefaultMaxDuration
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Log{Logger: cfg.Logger}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		mic:      mic,
		dec:      dec,
		sub:      sub,
		notifier: notifier,
		log:      cfg.Logger,
		maxDur:   maxDur,
		ctx:      ctx,
		cancel:   cancel,
		outcomes: make(chan Outcome, outcomeBuffer),
	}
}

// Outcomes delivers the result of every processed recording. It is closed
// by Close.
func (c *Controller) Outcomes() <-chan Outcome {
	return c.outcomes
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a recording, or stops the current one. It does nothing while
// the microphone is being opened or a recording is being processed.
// A microphone that cannot be opened yields a *PermissionError.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.state == Recording:
		c.stopLocked()
		c.mu.Unlock()
		return nil
	case c.state != Idle:
		c.log.Debug().Stringer("state", c.state).Msg("Ignoring start while busy")
		c.mu.Unlock()
		return nil
	}
	c.state = Starting
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	stream, err := c.mic.Open(ctx)

	c.mu.Lock()
	if err != nil {
		c.state = Idle
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("Failed to open microphone")
		c.notify(titleMicrophoneError, bodyMicrophoneError, notify.UrgencyCritical)
		return &PermissionError{Err: err}
	}
	if c.closed {
		c.state = Idle
		c.mu.Unlock()
		stream.Stop()
		stream.Release()
		return ErrClosed
	}
	c.state = Recording
	c.stream = stream
	c.deadline = time.AfterFunc(c.maxDur, func() { c.expire(gen) })
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Info().Dur("max_duration", c.maxDur).Msg("Recording started")
	c.notify(titleRecordingStarted,
		fmt.Sprintf(bodyRecordingStarted, int(c.maxDur.Round(time.Second)/time.Second)),
		notify.UrgencyLow)

	go c.collect(stream)
	return nil
}

// Stop ends the current recording early. It does nothing unless recording.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Recording {
		c.stopLocked()
	}
}

// expire is the deadline callback; it only acts on the recording it was
// armed for.
func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != Recording {
		return
	}
	c.log.Debug().Msg("Recording deadline reached")
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
	c.state = Processing
	c.stream.Stop()
}

// collect gathers chunks until the device has stopped, then releases it and
// processes the recording.
func (c *Controller) collect(stream Stream) {
	defer c.wg.Done()

	var chunks [][]byte
	for chunk := range stream.Chunks() {
		if len(chunk) > 0 {
			chunks = append(chunks, chunk)
		}
	}

	c.mu.Lock()
	if c.deadline != nil {
		c.deadline.Stop()
		c.deadline = nil
	}
	c.state = Processing
	c.stream = nil
	c.mu.Unlock()

	stream.Release()
	c.notify(titleRecordingStopped, bodyRecordingStopped, notify.UrgencyLow)

	outcome := c.process(bytes.Join(chunks, nil))

	c.mu.Lock()
	c.state = Idle
	c.mu.Unlock()

	select {
	case c.outcomes <- outcome:
	default:
		c.log.Warn().Msg("Outcome dropped, nobody is listening")
	}
}

func (c *Controller) process(blob []byte) Outcome {
	c.log.Debug().Int("bytes", len(blob)).Msg("Processing recording")

	buf, err := c.dec.Decode(blob)
	if err == nil && buf.Len() == 0 {
		err = ErrEmptyRecording
	}
	if err != nil {
		return c.fail(errmsg.OpTranscode, &TranscodeError{Err: err})
	}

	data, err := wav.Encode(buf)
	if err != nil {
		return c.fail(errmsg.OpTranscode, &TranscodeError{Err: err})
	}

	res, err := c.sub.Submit(c.ctx, data)
	if err != nil {
		return c.fail(errmsg.OpMatch, err)
	}

	switch res.Status {
	case match.StatusEmpty:
		c.notify(titleNoMatches, bodyNoMatches, notify.UrgencyNormal)
	case match.StatusRecognizedButAbsent:
		c.notify(titleNotInLibrary, bodyNotInLibrary, notify.UrgencyNormal)
	case match.StatusMatched:
		c.log.Info().Int("songs", len(res.Songs)).Msg("Hum matched")
	}
	return Outcome{Result: res}
}

func (c *Controller) fail(op errmsg.Op, err error) Outcome {
	c.log.Error().Err(err).Msg("Recording failed")
	c.notify(titleAnalysisFailed, errmsg.Format(op, err), notify.UrgencyCritical)
	return Outcome{Err: err}
}

func (c *Controller) notify(title, body string, urgency notify.Urgency) {
	if _, err := c.notifier.Notify(notify.Notification{
		Title:   title,
		Body:    body,
		Timeout: notify.Transient,
		Urgency: urgency,
	}); err != nil {
		c.log.Debug().Err(err).Msg("Notification failed")
	}
}

// Close stops any recording, waits for processing to finish and closes
// Outcomes. In-flight submissions are canceled.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.state == Recording {
		c.stopLocked()
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	close(c.outcomes)
}
