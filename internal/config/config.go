// Package config loads comboom's runtime configuration.
//
// A config file is TOML with one table per concern:
//
//	[layout]
//	desired = 400.0
//	aggression = 5000.0
//
//	[server]
//	addr = ":8080"
//	fps = 60
//
// Missing tables and keys keep their defaults, so an empty file is valid.
// Unknown keys are rejected to catch typos. [Watch] reloads a file whenever it
// changes on disk.
package config

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/layout"
	"github.com/matzehuels/comboom/pkg/render"
	"github.com/matzehuels/comboom/pkg/vec"
)

const (
	appName  = "comboom"
	fileName = "config.toml"
)

// =============================================================================
// Types
// =============================================================================

// Config is the complete runtime configuration.
type Config struct {
	Layout layout.Config  `toml:"layout"`
	Area   Area           `toml:"area"`
	Render render.Options `toml:"render"`
	Cache  Cache          `toml:"cache"`
	Store  Store          `toml:"store"`
	Server Server         `toml:"server"`
	Log    Log            `toml:"log"`
}

// Area is the rectangle, centred on the origin, that new members are
// scattered over.
type Area struct {
	Width  float64 `toml:"width" validate:"gt=0"`
	Height float64 `toml:"height" validate:"gt=0"`
}

// Rect returns the area in world coordinates.
func (a Area) Rect() vec.Rect { return vec.FromRadii(a.Width/2, a.Height/2) }

// Cache selects the screenshot and settle cache backend. RedisURL wins over
// Dir; Disabled wins over both.
type Cache struct {
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url" validate:"omitempty,url"`
	Disabled bool   `toml:"disabled"`
	// Prefix namespaces keys so several servers can share one Redis.
	Prefix string `toml:"prefix"`
}

// Store selects where saved snapshots live. MongoURI wins over Dir.
type Store struct {
	Dir        string `toml:"dir"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database" validate:"required_with=MongoURI"`
	Collection string `toml:"collection" validate:"required_with=MongoURI"`
}

// Server configures the HTTP frame server.
type Server struct {
	Addr string `toml:"addr" validate:"required"`
	FPS  int    `toml:"fps" validate:"gt=0,lte=240"`
	// Watch reloads tuning from the config file while serving.
	Watch bool `toml:"watch"`
}

// Frame returns the duration of one frame.
func (s Server) Frame() time.Duration { return time.Second / time.Duration(s.FPS) }

// Log configures the logger.
type Log struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// ParseLevel returns the configured level, defaulting to info.
func (l Log) ParseLevel() log.Level {
	if l.Level == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// =============================================================================
// Defaults
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Area:   Area{Width: 2000, Height: 2000},
		Render: render.DefaultOptions(),
		Store: Store{
			Database:   appName,
			Collection: "snapshots",
		},
		Server: Server{Addr: ":8080", FPS: 60},
		Log:    Log{Level: "info"},
	}
}

// Validate reports every invalid field as errors.ErrCodeInvalidConfig.
func (c Config) Validate() error {
	return errs.Struct(errs.ErrCodeInvalidConfig, c)
}

// =============================================================================
// Loading
// =============================================================================

// Load reads path on top of [Default] and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it is set, otherwise the file at
// [DefaultPath] if one exists, otherwise the defaults. The returned path is
// the file actually read, or empty.
func LoadOrDefault(path string) (Config, string, error) {
	if path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}
	def, err := DefaultPath()
	if err != nil {
		return Default(), "", nil
	}
	if _, err := os.Stat(def); err != nil {
		return Default(), "", nil
	}
	cfg, err := Load(def)
	return cfg, def, err
}

// Write encodes c as TOML.
func Write(w io.Writer, c Config) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode config")
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the config file location using the XDG standard
// (~/.config/comboom/config.toml).
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}
