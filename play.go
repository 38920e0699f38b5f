package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/history"
	"github.com/llehouerou/humdrum/internal/lastfm"
	"github.com/llehouerou/humdrum/internal/logging"
	"github.com/llehouerou/humdrum/internal/mpris"
	"github.com/llehouerou/humdrum/internal/playback"
	"github.com/llehouerou/humdrum/internal/player"
	"github.com/llehouerou/humdrum/internal/state"
	"github.com/llehouerou/humdrum/internal/stderr"
)

const (
	volumeStep = 0.1
	seekStep   = 10 * time.Second
)

const playHelp = "Enter: play/pause  f/b: seek ±10s  +/-: volume  <seconds>: jump  q: quit"

func playAction(cliCtx *cli.Context) error {
	id := cliCtx.Args().First()
	if id == "" {
		return cli.Exit("usage: humdrum play <song-id>", 2)
	}

	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := openApp(cliCtx)
	if err != nil {
		return err
	}
	defer a.Close()

	song, err := a.lookupSong(cliCtx, id)
	if err != nil {
		return err
	}
	return a.play(ctx, song, readCommands(os.Stdin))
}

// play plays song until it ends, fails, or the user quits. commands are
// lines of user input.
func (a *app) play(ctx context.Context, song catalog.Song, commands <-chan string) error {
	pc := a.cfg.GetPlaybackConfig()

	volume := 1.0
	if pc.Volume != nil {
		volume = *pc.Volume
	} else if saved, err := a.state.GetPlayerState(); err == nil {
		volume = saved.Volume
	} else {
		a.log.Warn().Err(err).Msg("Failed to load player state")
	}

	if a.logToFile {
		if capture, err := stderr.Start(a.log); err != nil {
			a.log.Debug().Err(err).Msg("Could not capture stderr")
		} else {
			defer capture.Stop()
		}
	}

	recorder := history.NewRecorder(a.history, logging.Component(a.log, "history"))
	defer recorder.Close()

	transport := player.New(player.Config{
		StallTimeout:     pc.StallTimeout,
		ProgressInterval: pc.ProgressInterval,
		SampleRate:       pc.SampleRate,
		Logger:           logging.Component(a.log, "player"),
	})
	engine := playback.New(transport,
		playback.WithHistory(recorder),
		playback.WithNotifier(a.notifier),
		playback.WithLogger(logging.Component(a.log, "playback")),
		playback.WithVolume(volume),
	)
	sub := engine.Subscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(gctx) })

	if scrobbler := a.scrobbler(); scrobbler != nil {
		scrobbles := engine.Subscribe()
		g.Go(func() error {
			err := scrobbler.Run(gctx, scrobbles)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if adapter, err := mpris.New(engine); err != nil {
		a.log.Warn().Err(err).Msg("MPRIS unavailable")
	} else {
		defer adapter.Close()
	}

	engine.PlaySong(song)
	a.state.SavePlayerState(state.PlayerState{Volume: engine.Volume(), LastSongID: song.ID})
	fmt.Fprintf(a.out, "%s\n%s\n", songLine(song), playHelp)

	err := a.drive(gctx, engine, sub, commands)
	fmt.Fprintln(a.out)

	if closeErr := engine.Close(); closeErr != nil {
		a.log.Warn().Err(closeErr).Msg("Failed to close player")
	}
	if waitErr := g.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) && err == nil {
		err = waitErr
	}
	return err
}

// drive renders engine events and applies user commands until the song
// ends.
func (a *app) drive(ctx context.Context, engine playback.Service, sub *playback.Subscription, commands <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-sub.Done:
			return nil

		case sc := <-sub.StateChanged:
			snap := engine.Snapshot()
			a.render(snap)
			if sc.Current == playback.StatePaused && snap.Duration > 0 && snap.Position >= snap.Duration {
				return nil
			}

		case <-sub.PositionChanged:
			a.render(engine.Snapshot())

		case vc := <-sub.VolumeChanged:
			snap := engine.Snapshot()
			a.render(snap)
			st := state.PlayerState{Volume: vc.Level}
			if snap.Song != nil {
				st.LastSongID = snap.Song.ID
			}
			a.state.SavePlayerState(st)

		case ev := <-sub.Error:
			return fmt.Errorf("play %s: %w", ev.SongID, ev.Err)

		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if quit := applyCommand(engine, cmd); quit {
				return nil
			}
		}
	}
}

// applyCommand interprets one line of user input and reports whether the
// user asked to quit.
func applyCommand(engine playback.Service, cmd string) bool {
	cmd = strings.TrimSpace(cmd)
	switch cmd {
	case "", "p":
		engine.TogglePlayPause()
	case "q":
		return true
	case "f":
		engine.SeekTo(engine.Position() + seekStep)
	case "b":
		engine.SeekTo(engine.Position() - seekStep)
	case "+":
		engine.SetVolume(engine.Volume() + volumeStep)
	case "-":
		engine.SetVolume(engine.Volume() - volumeStep)
	default:
		if secs, err := strconv.ParseFloat(cmd, 64); err == nil {
			engine.Seek(secs)
		}
	}
	return false
}

func readCommands(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}

func (a *app) render(s playback.Session) {
	status := "▶"
	switch {
	case s.Buffering || s.State == playback.StateLoading:
		status = "…"
	case s.State == playback.StatePaused:
		status = "⏸"
	}
	fmt.Fprintf(a.out, "\r%s %s / %s  vol %3.0f%%  ",
		status, formatClock(s.Position), formatClock(s.Duration), s.Volume*100)
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d / time.Minute)
	sec := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", m, sec)
}

// scrobbler returns a Last.fm scrobbler when an account is configured or
// linked.
func (a *app) scrobbler() *lastfm.Scrobbler {
	if !a.cfg.HasLastfmConfig() {
		return nil
	}
	client := lastfm.New(a.cfg.Lastfm.APIKey, a.cfg.Lastfm.APISecret)
	if a.cfg.Lastfm.SessionKey != "" {
		client.SetSessionKey(a.cfg.Lastfm.SessionKey)
	} else if sess, err := a.state.GetLastfmSession(); err == nil && sess != nil {
		client.SetSessionKey(sess.SessionKey)
	}
	if !client.IsAuthenticated() {
		a.log.Debug().Msg("Last.fm configured but not linked, run `humdrum lastfm link`")
		return nil
	}
	return lastfm.NewScrobbler(client, a.state, logging.Component(a.log, "lastfm"))
}
