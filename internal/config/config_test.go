package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/magnet-finder/internal/magnet"
	"github.com/litescript/magnet-finder/internal/scraper"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, scraper.DefaultJSONEndpoints, reg.Templates(scraper.ModeJSON))
	assert.Equal(t, magnet.DefaultTrackers, cfg.Trackers())

	to, err := cfg.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Second, to.JSON)
	assert.Equal(t, 10*time.Second, to.HTML)

	q := cfg.DefaultQuery()
	assert.Equal(t, scraper.MoviesHD, q.Category)
	assert.Equal(t, scraper.Res1080p, q.Resolution)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.Search.JSONEndpoints = []string{"http://mirror.test/q.php?q={query}&cat={category}"}
	cfg.Search.HTMLEndpoints = []string{}
	cfg.Search.JSONTimeout = "3s"
	cfg.Search.MaxResults = 25
	cfg.Search.DefaultResolution = "4k"
	cfg.QBittorrent.Enabled = true
	cfg.Server.Addr = "127.0.0.1:9000"

	require.NoError(t, SaveFile(path, cfg))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Search.JSONEndpoints, got.Search.JSONEndpoints)
	assert.Empty(t, got.Search.HTMLEndpoints)
	assert.Equal(t, 25, got.Search.MaxResults)
	assert.True(t, got.QBittorrent.Enabled)
	assert.Equal(t, "127.0.0.1:9000", got.Server.Addr)

	to, err := got.Timeouts()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, to.JSON)
	assert.Equal(t, scraper.Res4K, got.DefaultQuery().Resolution)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \":8081\"\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, scraper.DefaultHTMLEndpoints, cfg.Search.HTMLEndpoints)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{name: "bad toml", body: "[search\n", code: ErrCodeDecode},
		{name: "bad timeout", body: "[search]\njson_timeout = \"soon\"\n", code: ErrCodeInvalid, field: "search.json_timeout"},
		{name: "day timeout ok but negative results", body: "[search]\nhtml_timeout = \"1d\"\nmax_results = -1\n", code: ErrCodeInvalid, field: "search.max_results"},
		{name: "template without query", body: "[search]\njson_endpoints = [\"https://x.test/\"]\n", code: ErrCodeInvalid, field: "search.json_endpoints"},
		{name: "bad category", body: "[search]\ndefault_category = \"music\"\n", code: ErrCodeInvalid, field: "search.default_category"},
		{name: "bad port", body: "[qbittorrent]\nenabled = true\nport = 0\n", code: ErrCodeInvalid, field: "qbittorrent.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			cfg, err := LoadFile(path)
			require.Error(t, err)
			assert.Equal(t, tt.code, Code(err))
			assert.Equal(t, Default(), cfg, "defaults are returned on error")

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, path, e.Path)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestConfigPathEnvOverride(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", ConfigPath())
}

func TestTrackersFallBack(t *testing.T) {
	cfg := Default()
	cfg.Search.Trackers = nil
	assert.Equal(t, magnet.DefaultTrackers, cfg.Trackers())
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveFile(path, Default()))

	reloaded := make(chan Config, 4)
	w, err := NewWatcher(path, nil, func(cfg Config, err error) {
		if err != nil {
			return
		}
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Stop()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	cfg := Default()
	cfg.Server.Addr = ":9999"
	require.NoError(t, SaveFile(path, cfg))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-reloaded:
			if got.Server.Addr == ":9999" {
				return
			}
		case <-deadline:
			t.Fatal("watcher did not reload")
		}
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.toml"), nil, nil)
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}
