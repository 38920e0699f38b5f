// Command matchfile submits an existing audio file to the humming matcher
// and prints the catalog songs it resolves to.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/codec"
	"github.com/llehouerou/humdrum/internal/config"
	"github.com/llehouerou/humdrum/internal/logging"
	"github.com/llehouerou/humdrum/internal/match"
	"github.com/llehouerou/humdrum/internal/state"
	"github.com/llehouerou/humdrum/internal/wav"
)

const (
	flagURL      = "url"
	flagDatabase = "database"
	flagMaxLen   = "max-duration"
)

func main() {
	logger := logging.New(os.Stderr, true).Level(zerolog.DebugLevel)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal().Err(err).Msg("Failed to load .env file")
	}

	app := &cli.App{
		Name:      "matchfile",
		Usage:     "Submit an audio file to the humming matcher",
		ArgsUsage: "<audio-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagURL,
				Usage:   "Matcher URL",
				EnvVars: []string{config.EnvMatcherURL},
			},
			&cli.StringFlag{
				Name:  flagDatabase,
				Usage: "Catalog database path",
			},
			&cli.DurationFlag{
				Name:  flagMaxLen,
				Usage: "Truncate the recording like the microphone would",
				Value: 5 * time.Second,
			},
		},
		Action: func(cliCtx *cli.Context) error {
			return run(cliCtx, logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal().Err(err).Msg("Match failed")
	}
}

func run(cliCtx *cli.Context, logger zerolog.Logger) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := cliCtx.Args().First()
	if path == "" {
		return errors.New("missing audio file")
	}
	url := cliCtx.String(flagURL)
	if url == "" {
		return fmt.Errorf("matcher URL missing: use --%s or %s", flagURL, config.EnvMatcherURL)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	logger.Info().
		Str("kind", codec.Sniff(data).String()).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("Read audio file")

	buf, err := codec.DecodePCM(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if maxLen := cliCtx.Duration(flagMaxLen); maxLen > 0 {
		buf = buf.Truncate(maxLen)
	}
	body, err := wav.Encode(buf)
	if err != nil {
		return err
	}
	logger.Info().
		Int("sample_rate", buf.SampleRate).
		Dur("duration", buf.Duration()).
		Str("wav_size", humanize.Bytes(uint64(len(body)))).
		Msg("Encoded recording")

	mgr, err := state.Open(cliCtx.String(flagDatabase))
	if err != nil {
		return err
	}
	defer mgr.Close()

	client := match.New(match.Config{URL: url, Logger: logging.Component(logger, "match")}, catalog.NewStore(mgr.DB()))
	res, err := client.Submit(ctx, body)
	if err != nil {
		return err
	}

	logger.Info().Stringer("status", res.Status).Int("candidates", len(res.Candidates)).Msg("Matcher answered")
	for i, c := range res.Candidates {
		fmt.Printf("candidate %d: track %s\n", i+1, c.TrackID)
	}
	for i, s := range res.Songs {
		fmt.Printf("%2d. [%s] %s - %s\n", i+1, s.ID, s.Title, s.Artist)
	}
	return nil
}
