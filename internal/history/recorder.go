package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/humdrum/internal/catalog"
)

// Writer is the persistence side of the recorder.
type Writer interface {
	Add(ctx context.Context, song catalog.Song) error
}

const (
	recorderBuffer = 16
	writeTimeout   = 5 * time.Second
)

// Recorder writes history entries in the background. SongStarted never
// blocks and write failures are only logged.
type Recorder struct {
	w     Writer
	log   zerolog.Logger
	queue chan catalog.Song

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

func NewRecorder(w Writer, log zerolog.Logger) *Recorder {
	r := &Recorder{
		w:       w,
		log:     log,
		queue:   make(chan catalog.Song, recorderBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go r.run()
	return r
}

// SongStarted queues song for the history. When the queue is full the song
// is dropped.
func (r *Recorder) SongStarted(song catalog.Song) {
	select {
	case <-r.done:
		return
	default:
	}
	select {
	case r.queue <- song:
	default:
		r.log.Warn().Str("song_id", song.ID).Msg("History queue full, dropping entry")
	}
}

func (r *Recorder) run() {
	defer close(r.stopped)
	for {
		select {
		case song := <-r.queue:
			r.write(song)
		case <-r.done:
			for {
				select {
				case song := <-r.queue:
					r.write(song)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(song catalog.Song) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.w.Add(ctx, song); err != nil {
		r.log.Error().Err(err).Str("song_id", song.ID).Msg("Failed to add song to history")
	}
}

// Close stops accepting songs and waits until queued songs are written.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() { close(r.done) })
	<-r.stopped
}
