// Package config handles application configuration via TOML files.
// Configuration is stored at ~/.config/magnet-finder/config.toml and covers
// the mirror lists, trackers, timeouts, qBittorrent hand-off, logging and the
// HTTP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/xhit/go-str2duration/v2"

	"github.com/litescript/magnet-finder/internal/magnet"
	"github.com/litescript/magnet-finder/internal/scraper"
)

// EnvPath overrides the config file location.
const EnvPath = "MAGNET_FINDER_CONFIG"

// Error codes carried by *Error.
const (
	ErrCodeRead    = "config_read"
	ErrCodeDecode  = "config_decode"
	ErrCodeInvalid = "config_invalid"
)

// Error is a structured configuration error.
type Error struct {
	Code  string
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s: field %s: %v", e.Code, e.Path, e.Field, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code, or "" if err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Config holds application configuration
type Config struct {
	Search      SearchConfig      `toml:"search"`
	QBittorrent QBittorrentConfig `toml:"qbittorrent"`
	Log         LogConfig         `toml:"log"`
	Server      ServerConfig      `toml:"server"`
}

// SearchConfig holds the mirror lists and search defaults
type SearchConfig struct {
	JSONEndpoints []string `toml:"json_endpoints"`
	HTMLEndpoints []string `toml:"html_endpoints"`
	Trackers      []string `toml:"trackers"`

	// Durations such as "8s", "1m30s" or "1d".
	JSONTimeout string `toml:"json_timeout"`
	HTMLTimeout string `toml:"html_timeout"`

	MaxResults        int    `toml:"max_results"`
	DefaultCategory   string `toml:"default_category"`
	DefaultResolution string `toml:"default_resolution"`
}

// QBittorrentConfig holds qBittorrent Web API settings
type QBittorrentConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	SavePath string `toml:"save_path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File is used by the TUI so log lines don't corrupt the screen.
	File string `toml:"file"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the default configuration
func Default() Config {
	home, _ := os.UserHomeDir()

	return Config{
		Search: SearchConfig{
			JSONEndpoints:     append([]string(nil), scraper.DefaultJSONEndpoints...),
			HTMLEndpoints:     append([]string(nil), scraper.DefaultHTMLEndpoints...),
			Trackers:          append([]string(nil), magnet.DefaultTrackers...),
			JSONTimeout:       scraper.DefaultJSONTimeout.String(),
			HTMLTimeout:       scraper.DefaultHTMLTimeout.String(),
			MaxResults:        scraper.DefaultMaxResults,
			DefaultCategory:   scraper.MoviesHD.String(),
			DefaultResolution: scraper.Res1080p.String(),
		},
		QBittorrent: QBittorrentConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     8080,
			Username: "admin",
			Password: "adminadmin",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join(home, ".local", "state", "magnet-finder", "magnet-finder.log"),
		},
		Server: ServerConfig{
			Addr: ":7007",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "magnet-finder", "config.toml")
}

// Load reads config from disk or returns defaults
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path. A missing file yields defaults. On any
// other error the defaults are still returned alongside it, so callers can
// keep running.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, &Error{Code: ErrCodeRead, Path: path, Err: err}
	}

	loaded := Default()
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return cfg, &Error{Code: ErrCodeDecode, Path: path, Err: err}
	}
	if err := loaded.Validate(); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = path
		}
		return cfg, err
	}

	return loaded, nil
}

// Save writes config to disk
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes cfg to path, creating parent directories.
func SaveFile(path string, cfg Config) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks every value the runtime objects are built from.
func (c Config) Validate() error {
	if _, err := c.Registry(); err != nil {
		return invalid("search.json_endpoints", err)
	}
	if _, err := c.Timeouts(); err != nil {
		return err
	}
	if c.Search.MaxResults < 0 {
		return invalid("search.max_results", fmt.Errorf("must not be negative"))
	}
	if _, err := scraper.ParseCategory(c.Search.DefaultCategory); err != nil {
		return invalid("search.default_category", err)
	}
	if _, err := scraper.ParseResolution(c.Search.DefaultResolution); err != nil {
		return invalid("search.default_resolution", err)
	}
	for _, tr := range c.Search.Trackers {
		if strings.TrimSpace(tr) == "" {
			return invalid("search.trackers", fmt.Errorf("empty tracker"))
		}
	}
	if c.QBittorrent.Enabled && (c.QBittorrent.Port <= 0 || c.QBittorrent.Port > 65535) {
		return invalid("qbittorrent.port", fmt.Errorf("out of range: %d", c.QBittorrent.Port))
	}
	return nil
}

// Registry builds the immutable endpoint registry.
func (c Config) Registry() (*scraper.Registry, error) {
	return scraper.NewRegistry(c.Search.JSONEndpoints, c.Search.HTMLEndpoints, scraper.DefaultCategoryCodes())
}

// Trackers returns the configured trackers, or the defaults if none are set.
func (c Config) Trackers() []string {
	if len(c.Search.Trackers) == 0 {
		return append([]string(nil), magnet.DefaultTrackers...)
	}
	return append([]string(nil), c.Search.Trackers...)
}

// Timeouts parses the per-mode timeouts. Empty values use the defaults.
func (c Config) Timeouts() (scraper.Timeouts, error) {
	t := scraper.DefaultTimeouts()
	var err error
	if t.JSON, err = parseTimeout(c.Search.JSONTimeout, t.JSON); err != nil {
		return t, invalid("search.json_timeout", err)
	}
	if t.HTML, err = parseTimeout(c.Search.HTMLTimeout, t.HTML); err != nil {
		return t, invalid("search.html_timeout", err)
	}
	return t, nil
}

// DefaultQuery returns an empty query carrying the configured defaults.
func (c Config) DefaultQuery() scraper.Query {
	q := scraper.Query{Category: scraper.MoviesHD, Resolution: scraper.ResAny}
	if cat, err := scraper.ParseCategory(c.Search.DefaultCategory); err == nil {
		q.Category = cat
	}
	if res, err := scraper.ParseResolution(c.Search.DefaultResolution); err == nil {
		q.Resolution = res
	}
	return q
}

func parseTimeout(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

func invalid(field string, err error) error {
	return &Error{Code: ErrCodeInvalid, Field: field, Err: err}
}
