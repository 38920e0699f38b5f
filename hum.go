package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/llehouerou/humdrum/internal/capture"
	"github.com/llehouerou/humdrum/internal/codec"
	"github.com/llehouerou/humdrum/internal/config"
	"github.com/llehouerou/humdrum/internal/logging"
	"github.com/llehouerou/humdrum/internal/match"
)

func humAction(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := openApp(cliCtx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.HasMatcherConfig() {
		return fmt.Errorf("matcher is not configured: set matcher.url or %s", config.EnvMatcherURL)
	}
	mc := a.cfg.GetMatcherConfig()
	matcher := match.New(match.Config{
		URL:         mc.URL,
		Timeout:     mc.Timeout,
		Concurrency: mc.Concurrency,
		Logger:      logging.Component(a.log, "match"),
	}, a.catalog)

	cc := a.cfg.GetCaptureConfig()
	mic := &capture.ProcessMicrophone{
		Command: cc.Command,
		Args:    cc.Args,
		Logger:  logging.Component(a.log, "microphone"),
	}
	ctrl := capture.New(mic, capture.DecoderFunc(codec.DecodePCM), matcher, capture.Config{
		MaxDuration: cc.MaxDuration,
		Notifier:    a.notifier,
		Logger:      logging.Component(a.log, "capture"),
	})
	defer ctrl.Close()

	commands := readCommands(os.Stdin)
	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listening for up to %s, hum now. Press Enter to stop early.\n", cc.MaxDuration)

	var outcome capture.Outcome
wait:
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if ctrl.State() == capture.Recording {
				ctrl.Stop()
				fmt.Fprintln(a.out, "Matching...")
			}
		case outcome = <-ctrl.Outcomes():
			break wait
		}
	}

	if outcome.Err != nil {
		return outcome.Err
	}
	res := outcome.Result
	switch res.Status {
	case match.StatusEmpty:
		fmt.Fprintln(a.out, "No matches found. Try humming a bit longer.")
		return nil
	case match.StatusRecognizedButAbsent:
		fmt.Fprintln(a.out, "Recognized the tune, but it is not in your catalog.")
		return nil
	case match.StatusMatched:
	}

	printSongs(a.out, res.Songs)
	if !cliCtx.Bool(flagPlay) {
		return nil
	}
	if len(res.Songs) == 0 {
		return errors.New("no song to play")
	}
	return a.play(ctx, res.Songs[0], commands)
}
