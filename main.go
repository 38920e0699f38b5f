package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/llehouerou/humdrum/internal/logging"
)

const (
	flagConfig   = "config"
	flagDatabase = "database"
	flagLogLevel = "log-level"
	flagPlay     = "play"
	flagLimit    = "limit"
	flagClear    = "clear"
)

var version = "dev"

func main() {
	logger := logging.New(os.Stderr, true)
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	app := &cli.App{
		Name:    "humdrum",
		Version: version,
		Suggest: true,
		Usage:   "Hum a tune, find the song, play it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Config file path (default: XDG config and ./config.toml)",
			},
			&cli.StringFlag{
				Name:  flagDatabase,
				Usage: "Database path, overrides the config file",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "Log level (trace, debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "hum",
				Usage:  "Record a hum and look up matching songs",
				Action: humAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    flagPlay,
						Aliases: []string{"p"},
						Usage:   "Play the best match",
					},
				},
			},
			{
				Name:      "play",
				Usage:     "Play a song from the catalog",
				ArgsUsage: "<song-id>",
				Action:    playAction,
			},
			{
				Name:   "history",
				Usage:  "List recently played songs",
				Action: historyAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagClear,
						Usage: "Clear the history instead",
					},
				},
			},
			{
				Name:  "catalog",
				Usage: "Manage the local song catalog",
				Subcommands: []*cli.Command{
					{
						Name:      "import",
						Usage:     "Import songs from a JSON file",
						ArgsUsage: "<file.json>",
						Action:    catalogImportAction,
					},
					{
						Name:      "search",
						Usage:     "Search songs by title or artist, or list them without a query",
						ArgsUsage: "[query]",
						Action:    catalogSearchAction,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:  flagLimit,
								Usage: "Songs per page when listing",
								Value: 10,
							},
						},
					},
				},
			},
			{
				Name:  "lastfm",
				Usage: "Last.fm account",
				Subcommands: []*cli.Command{
					{
						Name:   "link",
						Usage:  "Authorize humdrum to scrobble to your account",
						Action: lastfmLinkAction,
					},
					{
						Name:   "unlink",
						Usage:  "Forget the linked account",
						Action: lastfmUnlinkAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
