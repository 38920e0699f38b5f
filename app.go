package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/llehouerou/humdrum/internal/catalog"
	"github.com/llehouerou/humdrum/internal/config"
	"github.com/llehouerou/humdrum/internal/history"
	"github.com/llehouerou/humdrum/internal/logging"
	"github.com/llehouerou/humdrum/internal/notify"
	"github.com/llehouerou/humdrum/internal/state"
)

// app holds what every command shares: configuration, logging, the
// database and the catalog built on top of it.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	state    *state.Manager
	store    *catalog.Store
	catalog  catalog.Catalog
	history  *history.Store
	notifier notify.Notifier
	out      io.Writer

	// logToFile is set when logs do not go to stderr, so stderr may be
	// captured into them.
	logToFile bool

	closers []func()
}

func openApp(cliCtx *cli.Context) (*app, error) {
	cfg, err := loadConfig(cliCtx.String(flagConfig))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if db := cliCtx.String(flagDatabase); db != "" {
		cfg.Database = db
	}

	a := &app{cfg: cfg, out: cliCtx.App.Writer}
	if a.out == nil {
		a.out = os.Stdout
	}
	if err := a.openLogger(cliCtx.String(flagLogLevel)); err != nil {
		a.Close()
		return nil, err
	}

	mgr, err := state.Open(cfg.Database)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.state = mgr
	a.onClose(func() {
		if err := mgr.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close database")
		}
	})

	a.store = catalog.NewStore(mgr.DB())
	a.history = history.NewStore(mgr.DB())
	a.catalog = a.store

	cc := cfg.GetCatalogConfig()
	if cfg.HasRemoteCatalog() {
		remote := catalog.NewRemote(catalog.RemoteConfig{
			BaseURL:    cfg.Catalog.URL,
			MaxRetries: uint64(cc.MaxRetries),
			Logger:     logging.Component(a.log, "catalog"),
		})
		cached := catalog.NewCached(remote, cc.CacheSize, cc.CacheTTL)
		a.onClose(cached.Stop)
		a.catalog = cached
		a.log.Debug().Str("url", cfg.Catalog.URL).Msg("Using remote catalog")
	}

	desktop, err := notify.New()
	if err != nil {
		a.log.Warn().Err(err).Msg("Desktop notifications unavailable")
		desktop = nil
	}
	logNotifier := notify.Log{Logger: logging.Component(a.log, "notify")}
	if desktop != nil {
		a.notifier = notify.Multi{desktop, logNotifier}
	} else {
		a.notifier = logNotifier
	}

	return a, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func (a *app) openLogger(levelFlag string) error {
	lc := a.cfg.GetLogConfig()
	if levelFlag != "" {
		lc.Level = levelFlag
	}
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	pretty := *lc.Pretty
	if lc.File != "" {
		f, err := logging.OpenFile(lc.File)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.onClose(func() { _ = f.Close() })
		w = f
		pretty = false
		a.logToFile = true
	}
	a.log = logging.New(w, pretty).Level(level)
	return nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) lookupSong(cliCtx *cli.Context, id string) (catalog.Song, error) {
	song, err := a.catalog.GetSongByID(cliCtx.Context, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Song{}, fmt.Errorf("song %q is not in the catalog", id)
	}
	return song, err
}
