package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	chunkSize = 4096

	// DefaultStopTimeout is how long a recorder has to exit after being
	// asked to quit before it is killed.
	DefaultStopTimeout = 3 * time.Second
	// DefaultStartTimeout bounds how long Open waits for the first audio
	// before handing out the stream anyway.
	DefaultStartTimeout = 2 * time.Second
)

// ErrNoAudio is returned by Open when the recorder exits cleanly without
// producing any output.
var ErrNoAudio = errors.New("recorder produced no audio")

// ProcessMicrophone records through an external encoder process (ffmpeg by
// default) that writes an Ogg/Opus stream to stdout. Stopping asks the
// process to quit so it can finish the container.
type ProcessMicrophone struct {
	Command string
	Args    []string
	Logger  zerolog.Logger

	// StopTimeout defaults to DefaultStopTimeout.
	StopTimeout time.Duration
	// StartTimeout defaults to DefaultStartTimeout.
	StartTimeout time.Duration
}

// DefaultArgs returns ffmpeg arguments capturing the default input device
// of the current platform as mono Ogg/Opus.
func DefaultArgs() []string {
	var input []string
	switch runtime.GOOS {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", ":0"}
	case "windows":
		input = []string{"-f", "dshow", "-i", "audio=default"}
	default:
		input = []string{"-f", "pulse", "-i", "default"}
	}
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, input...)
	return append(args, "-ac", "1", "-ar", "48000", "-c:a", "libopus", "-f", "ogg", "pipe:1")
}

// Open starts the recorder and waits until it produces audio. A recorder
// that exits first, typically because the device could not be opened,
// yields its exit error and the tail of its stderr.
func (m *ProcessMicrophone) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := m.Command
	if name == "" {
		name = "ffmpeg"
	}
	args := m.Args
	if len(args) == 0 {
		args = DefaultArgs()
	}
	stopTimeout := m.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	startTimeout := m.StartTimeout
	if startTimeout <= 0 {
		startTimeout = DefaultStartTimeout
	}

	cmd := exec.Command(name, args...) //nolint:gosec // command comes from configuration
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	// A plain pipe rather than StdoutPipe: Wait must not close the read
	// side while buffered audio is still unread.
	stdout, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = w
	stderr := &tailBuffer{max: 4096}
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	err = cmd.Start()
	_ = w.Close()
	if err != nil {
		_ = stdout.Close()
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	s := &processStream{
		name:        name,
		cmd:         cmd,
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		chunks:      make(chan []byte, 16),
		firstData:   make(chan struct{}),
		readDone:    make(chan struct{}),
		exited:      make(chan struct{}),
		released:    make(chan struct{}),
		stopTimeout: stopTimeout,
		log:         m.Logger,
	}
	go s.wait()
	go s.read()

	timer := time.NewTimer(startTimeout)
	defer timer.Stop()
	select {
	case <-s.firstData:
		return s, nil
	case <-s.readDone:
		select {
		case <-s.firstData:
			return s, nil
		default:
		}
		s.Release()
		return nil, s.startError()
	case <-timer.C:
		m.Logger.Debug().Dur("timeout", startTimeout).Msg("No audio yet, recording anyway")
		return s, nil
	case <-ctx.Done():
		s.Release()
		return nil, ctx.Err()
	}
}

type processStream struct {
	name        string
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      *os.File
	stderr      *tailBuffer
	chunks      chan []byte
	stopTimeout time.Duration
	log         zerolog.Logger

	firstData chan struct{}
	readDone  chan struct{}
	exited    chan struct{}
	released  chan struct{}
	waitErr   error

	mu          sync.Mutex
	killTimer   *time.Timer
	stopOnce    sync.Once
	releaseOnce sync.Once
}

func (s *processStream) Chunks() <-chan []byte { return s.chunks }

func (s *processStream) wait() {
	s.waitErr = s.cmd.Wait()
	close(s.exited)
}

func (s *processStream) read() {
	defer close(s.readDone)
	defer close(s.chunks)
	var seen bool
	for {
		buf := make([]byte, chunkSize)
		n, err := s.stdout.Read(buf)
		if n > 0 {
			if !seen {
				seen = true
				close(s.firstData)
			}
			select {
			case s.chunks <- buf[:n]:
			case <-s.released:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug().Err(err).Msg("Recorder output ended")
			}
			return
		}
	}
}

func (s *processStream) startError() error {
	err := s.waitErr
	if err == nil {
		err = ErrNoAudio
	}
	if tail := s.stderr.String(); tail != "" {
		return fmt.Errorf("%s exited: %w: %s", s.name, err, tail)
	}
	return fmt.Errorf("%s exited: %w", s.name, err)
}

// Stop asks ffmpeg to quit ('q' on stdin), which flushes the last page. A
// recorder still running after the stop timeout is killed, so Chunks is
// always closed eventually.
func (s *processStream) Stop() {
	s.stopOnce.Do(func() {
		_, _ = io.WriteString(s.stdin, "q\n")
		_ = s.stdin.Close()
		s.mu.Lock()
		s.killTimer = time.AfterFunc(s.stopTimeout, s.kill)
		s.mu.Unlock()
	})
}

// kill ends a recorder that ignored Stop. Closing stdout also covers
// children of the recorder still holding the pipe open.
func (s *processStream) kill() {
	select {
	case <-s.exited:
	default:
		s.log.Warn().Dur("timeout", s.stopTimeout).Msg("Recorder did not stop, killing it")
		_ = s.cmd.Process.Kill()
	}
	select {
	case <-s.readDone:
	default:
		_ = s.stdout.Close()
	}
}

// Release waits for the process to exit, killing it if it does not.
func (s *processStream) Release() {
	s.releaseOnce.Do(func() {
		s.Stop()
		select {
		case <-s.exited:
		case <-time.After(s.stopTimeout):
			s.kill()
			<-s.exited
		}
		s.mu.Lock()
		s.killTimer.Stop()
		s.mu.Unlock()
		_ = s.stdout.Close()
		close(s.released)

		if s.waitErr != nil {
			s.log.Debug().Err(s.waitErr).Str("stderr", s.stderr.String()).Msg("Recorder exited")
		}
	})
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(t.buf.String())
}
