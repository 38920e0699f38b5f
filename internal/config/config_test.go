//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	return path
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/data/humdrum.db",
			expected: filepath.Join(home, "data", "humdrum.db"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/var/lib/humdrum.db",
			expected: "/var/lib/humdrum.db",
		},
		{
			name:     "relative path unchanged",
			input:    "data/humdrum.db",
			expected: "data/humdrum.db",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) != 2 {
		t.Fatalf("getConfigPaths() = %v, want 2 paths", paths)
	}
	if paths[1] != "config.toml" {
		t.Errorf("last config path = %q, want %q", paths[1], "config.toml")
	}
	if filepath.Base(filepath.Dir(paths[0])) != "humdrum" {
		t.Errorf("first config path = %q, want a humdrum directory", paths[0])
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	cfg, err := load([]string{filepath.Join(t.TempDir(), "nope.toml")}, noEnv)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.HasMatcherConfig() || cfg.HasRemoteCatalog() || cfg.HasLastfmConfig() {
		t.Errorf("empty config reports integrations: %+v", cfg)
	}
}

func TestLoad_BasicConfig(t *testing.T) {
	path := writeConfig(t, `
database = "~/humdrum.db"

[matcher]
url = "http://localhost:8000/qbh"
timeout = "20s"
concurrency = 8

[capture]
max_duration = "7s"
args = ["-f", "alsa", "-i", "hw:0"]

[catalog]
url = "http://catalog.local/"
cache_ttl = "1h"

[playback]
volume = 0.6

[log]
level = "debug"
pretty = false
`)

	cfg, err := load([]string{path}, noEnv)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.Database != filepath.Join(home, "humdrum.db") {
		t.Errorf("Database = %q, want expanded path", cfg.Database)
	}
	m := cfg.GetMatcherConfig()
	if m.URL != "http://localhost:8000/qbh" || m.Timeout != 20*time.Second || m.Concurrency != 8 {
		t.Errorf("Matcher = %+v", m)
	}
	c := cfg.GetCaptureConfig()
	if c.MaxDuration != 7*time.Second || len(c.Args) != 4 || c.Command != "ffmpeg" {
		t.Errorf("Capture = %+v", c)
	}
	if cfg.Catalog.URL != "http://catalog.local" {
		t.Errorf("Catalog.URL = %q, want trailing slash removed", cfg.Catalog.URL)
	}
	if got := cfg.GetCatalogConfig().CacheTTL; got != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", got)
	}
	if v := cfg.GetPlaybackConfig().Volume; v == nil || *v != 0.6 {
		t.Errorf("Playback.Volume = %v, want 0.6", v)
	}
	l := cfg.GetLogConfig()
	if l.Level != "debug" || *l.Pretty {
		t.Errorf("Log = %+v", l)
	}
}

func TestLoad_LaterFileWins(t *testing.T) {
	first := writeConfig(t, "[matcher]\nurl = \"http://first\"\nconcurrency = 2\n")
	second := writeConfig(t, "[matcher]\nurl = \"http://second\"\n")

	cfg, err := load([]string{first, second}, noEnv)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Matcher.URL != "http://second" {
		t.Errorf("Matcher.URL = %q, want second file", cfg.Matcher.URL)
	}
	if cfg.Matcher.Concurrency != 2 {
		t.Errorf("Matcher.Concurrency = %d, want value kept from first file", cfg.Matcher.Concurrency)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "[matcher]\nurl = \"http://file\"\n[lastfm]\napi_key = \"file-key\"\n")
	env := map[string]string{
		EnvMatcherURL:      "http://env/qbh",
		EnvCatalogURL:      "http://catalog.env/",
		EnvLastfmAPISecret: "env-secret",
		EnvLastfmSession:   "  ",
	}

	cfg, err := load([]string{path}, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Matcher.URL != "http://env/qbh" {
		t.Errorf("Matcher.URL = %q", cfg.Matcher.URL)
	}
	if cfg.Catalog.URL != "http://catalog.env" {
		t.Errorf("Catalog.URL = %q", cfg.Catalog.URL)
	}
	if !cfg.HasLastfmConfig() || cfg.Lastfm.APIKey != "file-key" {
		t.Errorf("Lastfm = %+v", cfg.Lastfm)
	}
	if cfg.Lastfm.SessionKey != "" {
		t.Errorf("blank env value should not override, got %q", cfg.Lastfm.SessionKey)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	path := writeConfig(t, "invalid = [[[")

	if _, err := load([]string{path}, noEnv); err == nil {
		t.Error("load() expected error for invalid TOML, got nil")
	}
}

func TestLoad_FromWorkingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvMatcherURL, "")
	if err := os.WriteFile("config.toml", []byte("[matcher]\nurl = \"http://cwd\"\n"), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matcher.URL != "http://cwd" {
		t.Errorf("Matcher.URL = %q, want local config to win", cfg.Matcher.URL)
	}
}

func TestHasLastfmConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected bool
	}{
		{"both set", Config{Lastfm: LastfmConfig{APIKey: "k", APISecret: "s"}}, true},
		{"only key", Config{Lastfm: LastfmConfig{APIKey: "k"}}, false},
		{"only secret", Config{Lastfm: LastfmConfig{APISecret: "s"}}, false},
		{"neither", Config{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.HasLastfmConfig(); got != tt.expected {
				t.Errorf("HasLastfmConfig() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetMatcherConfig_Defaults(t *testing.T) {
	tests := []struct {
		name        string
		in          MatcherConfig
		timeout     time.Duration
		concurrency int
	}{
		{"zero values", MatcherConfig{}, 60 * time.Second, 4},
		{"negative values", MatcherConfig{Timeout: -1, Concurrency: -3}, 60 * time.Second, 4},
		{"too many workers", MatcherConfig{Concurrency: 100}, 60 * time.Second, 4},
		{"custom values", MatcherConfig{Timeout: time.Second, Concurrency: 16}, time.Second, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&Config{Matcher: tt.in}).GetMatcherConfig()
			if got.Timeout != tt.timeout || got.Concurrency != tt.concurrency {
				t.Errorf("GetMatcherConfig() = %+v, want timeout %v concurrency %d", got, tt.timeout, tt.concurrency)
			}
		})
	}
}

func TestGetCatalogConfig_Defaults(t *testing.T) {
	got := (&Config{}).GetCatalogConfig()
	if got.CacheSize != 1000 || got.CacheTTL != 10*time.Minute || got.MaxRetries != 3 {
		t.Errorf("GetCatalogConfig() = %+v", got)
	}

	custom := (&Config{Catalog: CatalogConfig{CacheSize: 5, MaxRetries: 1}}).GetCatalogConfig()
	if custom.CacheSize != 5 || custom.MaxRetries != 1 {
		t.Errorf("GetCatalogConfig() = %+v, want custom values kept", custom)
	}
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	got := (&Config{}).GetPlaybackConfig()
	if got.ProgressInterval != 500*time.Millisecond || got.StallTimeout != 30*time.Second ||
		got.SampleRate != 44100 || got.Volume != nil {
		t.Errorf("GetPlaybackConfig() = %+v", got)
	}

	loud := 3.0
	got = (&Config{Playback: PlaybackConfig{Volume: &loud, SampleRate: 48000}}).GetPlaybackConfig()
	if *got.Volume != 1 || got.SampleRate != 48000 {
		t.Errorf("GetPlaybackConfig() = %+v, want clamped volume", got)
	}
	if loud != 3.0 {
		t.Error("GetPlaybackConfig() modified the stored config")
	}
}

func TestGetLogConfig_Defaults(t *testing.T) {
	got := (&Config{}).GetLogConfig()
	if got.Level != "info" || got.Pretty == nil || !*got.Pretty {
		t.Errorf("GetLogConfig() = %+v", got)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvMatcherURL, "")
	path := writeConfig(t, `
[matcher]
url = "http://localhost:8000/qbh"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Matcher.URL != "http://localhost:8000/qbh" {
		t.Errorf("Matcher.URL = %q", cfg.Matcher.URL)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); !os.IsNotExist(err) {
		t.Errorf("LoadFile(missing) error = %v, want not exist", err)
	}
}
