package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// output is the audio sink. Lock guards every value the sink reads while
// mixing.
type output interface {
	Init(rate beep.SampleRate) error
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerOutput plays through the system speaker. The speaker can only be
// initialized once per process; tracks at other rates are resampled.
type speakerOutput struct {
	once sync.Once
	err  error
}

func (o *speakerOutput) Init(rate beep.SampleRate) error {
	o.once.Do(func() {
		o.err = speaker.Init(rate, rate.N(time.Second/10))
	})
	return o.err
}

func (o *speakerOutput) Play(s ...beep.Streamer) { speaker.Play(s...) }

func (o *speakerOutput) Clear() { speaker.Clear() }

func (o *speakerOutput) Lock() { speaker.Lock() }

func (o *speakerOutput) Unlock() { speaker.Unlock() }

// The speaker is process-wide, so every Player shares one output.
var defaultOutput = &speakerOutput{}
