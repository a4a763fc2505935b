// Package config loads edc settings: a YAML file, an optional .env file,
// environment overrides, and validation against an embedded CUE schema.
//
// Load order:
//
//  1. defaults
//  2. the config file, migrated to the current schema version
//  3. .env, then the process environment (EDC_JOURNAL_DIR, EDC_DATA_DIR,
//     EDC_LOG_LEVEL)
//  4. schema validation
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/edc/internal/engine"
	"github.com/roach88/edc/internal/watcher"
)

// SchemaVersion is the settings layout this build writes.
const SchemaVersion = 2

// Environment variables that override the file.
const (
	EnvJournalDir = "EDC_JOURNAL_DIR"
	EnvDataDir    = "EDC_DATA_DIR"
	EnvLogLevel   = "EDC_LOG_LEVEL"
)

// Config is the full settings document.
type Config struct {
	SchemaVersion int    `yaml:"schema_version" json:"schema_version"`
	JournalDir    string `yaml:"journal_dir" json:"journal_dir"`
	DataDir       string `yaml:"data_dir" json:"data_dir"`

	// MinPlanetValue100k is the high-value body threshold in units of
	// 100,000 cr. Zero disables the notice.
	MinPlanetValue100k int64 `yaml:"min_planet_value_100k" json:"min_planet_value_100k"`
	// ExoHighValueM is the high-value species threshold in millions of cr.
	ExoHighValueM int64 `yaml:"exo_high_value_m" json:"exo_high_value_m"`

	Watcher WatcherConfig `yaml:"watcher" json:"watcher"`
	Session SessionConfig `yaml:"session" json:"session"`
	Log     LogConfig     `yaml:"log" json:"log"`
	History HistoryConfig `yaml:"history" json:"history"`
	Archive ArchiveConfig `yaml:"archive" json:"archive"`
	Feed    FeedConfig    `yaml:"feed" json:"feed"`

	// Path is the file the settings came from, "" for pure defaults.
	Path string `yaml:"-" json:"-"`
	// Migrated is set when the file was an older schema version.
	Migrated bool `yaml:"-" json:"-"`
}

type WatcherConfig struct {
	Pattern         string        `yaml:"pattern" json:"pattern"`
	PollInterval    time.Duration `yaml:"poll_interval" json:"poll_interval"`
	WaitInterval    time.Duration `yaml:"wait_interval" json:"wait_interval"`
	RetryInterval   time.Duration `yaml:"retry_interval" json:"retry_interval"`
	NoticeInterval  time.Duration `yaml:"notice_interval" json:"notice_interval"`
	BootstrapBytes  int64         `yaml:"bootstrap_bytes" json:"bootstrap_bytes"`
	BootstrapEvents int           `yaml:"bootstrap_events" json:"bootstrap_events"`
}

type SessionConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	JSON  bool   `yaml:"json" json:"json"`
	// File, when set, receives a copy of every log line.
	File string `yaml:"file" json:"file"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Dir     string `yaml:"dir" json:"dir"`
}

type FeedConfig struct {
	// Addr is the listen address; "" disables the feed.
	Addr           string   `yaml:"addr" json:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// DefaultJournalDir is where the game client writes its journals, relative
// to the user's home directory.
var DefaultJournalDir = filepath.Join("Saved Games", "Frontier Developments", "Elite Dangerous")

// AppDir returns the directory edc keeps its own files in.
func AppDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "edc")
	}
	return ".edc"
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(AppDir(), "config.yaml")
}

// Default returns the built-in settings.
func Default() *Config {
	app := AppDir()
	wd := watcher.DefaultConfig("")
	return &Config{
		SchemaVersion:      SchemaVersion,
		JournalDir:         filepath.Join("~", DefaultJournalDir),
		DataDir:            filepath.Join(app, "data"),
		MinPlanetValue100k: 1,
		ExoHighValueM:      2,
		Watcher: WatcherConfig{
			Pattern:         wd.Pattern,
			PollInterval:    wd.PollInterval,
			WaitInterval:    wd.WaitInterval,
			RetryInterval:   wd.RetryInterval,
			NoticeInterval:  wd.NoticeInterval,
			BootstrapBytes:  wd.BootstrapBytes,
			BootstrapEvents: wd.BootstrapEvents,
		},
		Session: SessionConfig{RefreshInterval: 500 * time.Millisecond},
		Log:     LogConfig{Level: "info"},
		History: HistoryConfig{Path: filepath.Join(app, "history.db")},
		Archive: ArchiveConfig{Dir: filepath.Join(app, "archive")},
	}
}

// Options controls where Load looks besides the config file.
type Options struct {
	// EnvFile is a dotenv file read before the environment. A missing file
	// is ignored; "" skips it.
	EnvFile string
	// LookupEnv reads the process environment. Nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load reads path with the standard .env and environment handling.
// A missing file yields defaults; the legacy settings.json beside it is
// used when present.
func Load(path string) (*Config, error) {
	return LoadWith(path, Options{EnvFile: ".env"})
}

// LoadWith is Load with explicit environment sources.
func LoadWith(path string, opts Options) (*Config, error) {
	cfg := Default()

	if path != "" {
		src, err := locate(path)
		if err != nil {
			return nil, err
		}
		if src != "" {
			if err := cfg.readFile(src); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(opts); err != nil {
		return nil, err
	}
	cfg.expand()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// locate returns the file to read for path: path itself, the legacy
// settings.json in the same directory, or "" when neither exists.
func locate(path string) (string, error) {
	candidates := []string{path, filepath.Join(filepath.Dir(path), "settings.json")}
	for _, p := range candidates {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("config %s is a directory", p)
		}
		return p, nil
	}
	return "", nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := c.decode(data); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	c.Path = path
	return nil
}

// decode migrates the document to SchemaVersion, then decodes it over c
// strictly: unknown keys are errors.
func (c *Config) decode(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if doc == nil {
		return nil
	}

	migrated, err := migrate(doc)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encode: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(out))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode: %w", err)
	}
	c.Migrated = migrated

	if c.MinPlanetValue100k < 0 {
		c.MinPlanetValue100k = 0
	}
	if c.ExoHighValueM < 0 {
		c.ExoHighValueM = 0
	}
	return nil
}

func (c *Config) applyEnv(opts Options) error {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var dotenv map[string]string
	if opts.EnvFile != "" {
		m, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("read %s: %w", opts.EnvFile, err)
		}
	}

	// The process environment wins over .env.
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	if v, ok := get(EnvJournalDir); ok {
		c.JournalDir = v
	}
	if v, ok := get(EnvDataDir); ok {
		c.DataDir = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

// expand resolves a leading "~" in path settings.
func (c *Config) expand() {
	for _, p := range []*string{&c.JournalDir, &c.DataDir, &c.Log.File, &c.History.Path, &c.Archive.Dir} {
		*p = expandHome(*p)
	}
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// Thresholds converts the notice thresholds to credits.
func (c *Config) Thresholds() engine.Thresholds {
	return engine.Thresholds{
		PlanetValue:   c.MinPlanetValue100k * 100_000,
		OrganismValue: c.ExoHighValueM * 1_000_000,
	}
}

// WatcherConfig returns the watcher settings for the configured journal
// directory.
func (c *Config) WatcherConfig() watcher.Config {
	return watcher.Config{
		Dir:             c.JournalDir,
		Pattern:         c.Watcher.Pattern,
		PollInterval:    c.Watcher.PollInterval,
		WaitInterval:    c.Watcher.WaitInterval,
		RetryInterval:   c.Watcher.RetryInterval,
		NoticeInterval:  c.Watcher.NoticeInterval,
		BootstrapBytes:  c.Watcher.BootstrapBytes,
		BootstrapEvents: c.Watcher.BootstrapEvents,
	}
}

// Save writes c as YAML at the current schema version.
func (c *Config) Save(path string) error {
	out := *c
	out.SchemaVersion = SchemaVersion
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
