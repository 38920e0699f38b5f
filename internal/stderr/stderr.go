//go:build unix

// Package stderr captures output that C libraries (ALSA, faad2) write
// directly to file descriptor 2, bypassing Go's os.Stderr, and turns it
// into log lines. This keeps the terminal progress line readable while
// audio plays.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Capture redirects fd 2 until Stop is called.
type Capture struct {
	orig      int
	pipeRead  *os.File
	pipeWrite *os.File
	done      chan struct{}
	stopOnce  sync.Once
}

// Start redirects stderr and forwards every non-empty line to log at
// debug level. The program can continue without capture when it fails.
func Start(log zerolog.Logger) (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := unix.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{orig: orig, pipeRead: r, pipeWrite: w, done: make(chan struct{})}
	go func() {
		defer close(c.done)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				log.Debug().Str("module", "stderr").Msg(line)
			}
		}
	}()

	return c, nil
}

// Stop restores the original stderr and waits until captured lines are
// logged.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		_ = unix.Dup2(c.orig, int(os.Stderr.Fd()))
		_ = unix.Close(c.orig)

		// fd 2 no longer refers to the pipe, so closing our end delivers EOF.
		c.pipeWrite.Close()
		<-c.done
		c.pipeRead.Close()
	})
}
