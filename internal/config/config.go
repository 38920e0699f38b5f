package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables overriding endpoints and secrets. A .env file is
// loaded into the environment by the command before Load runs.
const (
	EnvMatcherURL      = "HUMDRUM_MATCHER_URL"
	EnvCatalogURL      = "HUMDRUM_CATALOG_URL"
	EnvLastfmAPIKey    = "LASTFM_API_KEY"
	EnvLastfmAPISecret = "LASTFM_API_SECRET"
	EnvLastfmSession   = "LASTFM_SESSION_KEY"
)

type Config struct {
	// Database path, empty means the XDG data directory
	Database string `koanf:"database"`

	// Humming recognition service
	Matcher MatcherConfig `koanf:"matcher"`

	// Microphone recording
	Capture CaptureConfig `koanf:"capture"`

	// Song catalog (local database, optionally backed by a remote service)
	Catalog CatalogConfig `koanf:"catalog"`

	// Audio output
	Playback PlaybackConfig `koanf:"playback"`

	Log LogConfig `koanf:"log"`

	// Last.fm now playing (enabled when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`
}

// MatcherConfig holds the query-by-humming service settings.
type MatcherConfig struct {
	URL         string        `koanf:"url"`         // e.g., "http://localhost:8000/qbh"
	Timeout     time.Duration `koanf:"timeout"`     // whole request (default: 60s)
	Concurrency int           `koanf:"concurrency"` // parallel catalog lookups (default: 4)
}

// CaptureConfig holds microphone recording settings.
type CaptureConfig struct {
	MaxDuration time.Duration `koanf:"max_duration"` // default: 5s
	Command     string        `koanf:"command"`      // recorder binary (default: "ffmpeg")
	Args        []string      `koanf:"args"`         // replaces the platform defaults
}

// CatalogConfig holds catalog lookup settings.
type CatalogConfig struct {
	URL        string        `koanf:"url"`         // remote catalog base URL, empty = local only
	CacheSize  int64         `koanf:"cache_size"`  // cached songs (default: 1000)
	CacheTTL   time.Duration `koanf:"cache_ttl"`   // default: 10m
	MaxRetries int           `koanf:"max_retries"` // remote retries on 5xx (default: 3)
}

// PlaybackConfig holds audio output settings.
type PlaybackConfig struct {
	ProgressInterval time.Duration `koanf:"progress_interval"` // default: 500ms
	StallTimeout     time.Duration `koanf:"stall_timeout"`     // longest a download may receive nothing (default: 30s)
	SampleRate       int           `koanf:"sample_rate"`       // speaker rate (default: 44100)
	Volume           *float64      `koanf:"volume"`            // initial volume, overrides the saved one
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // zerolog level name (default: "info")
	Pretty *bool  `koanf:"pretty"` // colorized output (default: true)
	File   string `koanf:"file"`   // empty = stderr
}

// LastfmConfig holds Last.fm configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

func Load() (*Config, error) {
	return load(getConfigPaths(), os.Getenv)
}

// LoadFile loads a single config file, which must exist.
func LoadFile(path string) (*Config, error) {
	path = expandPath(path)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return load([]string{path}, os.Getenv)
}

func load(paths []string, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv(getenv)

	if cfg.Database != "" {
		cfg.Database = expandPath(cfg.Database)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}
	if cfg.Capture.Command != "" {
		cfg.Capture.Command = expandPath(cfg.Capture.Command)
	}

	// Normalize catalog URL (remove trailing slash)
	cfg.Catalog.URL = strings.TrimSuffix(cfg.Catalog.URL, "/")

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Matcher.URL, EnvMatcherURL)
	set(&c.Catalog.URL, EnvCatalogURL)
	set(&c.Lastfm.APIKey, EnvLastfmAPIKey)
	set(&c.Lastfm.APISecret, EnvLastfmAPISecret)
	set(&c.Lastfm.SessionKey, EnvLastfmSession)
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/humdrum/config.toml
		filepath.Join(xdg.ConfigHome, "humdrum", "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasMatcherConfig returns true if the humming matcher is configured.
func (c *Config) HasMatcherConfig() bool {
	return c.Matcher.URL != ""
}

// HasRemoteCatalog returns true if lookups go to a catalog service.
func (c *Config) HasRemoteCatalog() bool {
	return c.Catalog.URL != ""
}

// HasLastfmConfig returns true if Last.fm is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// GetMatcherConfig returns the matcher configuration with defaults applied.
func (c *Config) GetMatcherConfig() MatcherConfig {
	cfg := c.Matcher
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Concurrency <= 0 || cfg.Concurrency > 32 {
		cfg.Concurrency = 4
	}
	return cfg
}

// GetCaptureConfig returns the capture configuration with defaults applied.
func (c *Config) GetCaptureConfig() CaptureConfig {
	cfg := c.Capture
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 5 * time.Second
	}
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	return cfg
}

// GetCatalogConfig returns the catalog configuration with defaults applied.
func (c *Config) GetCatalogConfig() CatalogConfig {
	cfg := c.Catalog
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.MaxRetries <= 0 || cfg.MaxRetries > 10 {
		cfg.MaxRetries = 3
	}
	return cfg
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 500 * time.Millisecond
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = 30 * time.Second
	}
	if cfg.SampleRate < 8000 || cfg.SampleRate > 192000 {
		cfg.SampleRate = 44100
	}
	if cfg.Volume != nil {
		v := min(max(*cfg.Volume, 0), 1)
		cfg.Volume = &v
	}
	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Pretty == nil {
		pretty := true
		cfg.Pretty = &pretty
	}
	return cfg
}
