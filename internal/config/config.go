// Package config provides configuration types and defaults for bblocks.
//
// Configuration is read from a TOML file. The lookup order is the --config
// flag, then $XDG_CONFIG_HOME/bblocks/config.toml, then
// ~/.config/bblocks/config.toml. A missing default file yields [Defaults];
// a missing explicit file is an error.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/cache"
)

const appName = "bblocks"

// DefaultRegister is the OGC building blocks register.
const DefaultRegister = "https://opengeospatial.github.io/bblocks/register.json"

// Config holds all configuration options for bblocks.
type Config struct {
	Register string       `toml:"register"`
	LogLevel string       `toml:"log_level"`
	Cache    CacheConfig  `toml:"cache"`
	Server   ServerConfig `toml:"server"`
	Uplift   UpliftConfig `toml:"uplift"`
}

// CacheConfig selects and configures the fetch response cache.
type CacheConfig struct {
	Backend         string   `toml:"backend"` // none, file, memory, redis or mongo
	Dir             string   `toml:"dir"`     // file backend directory (default: XDG cache dir)
	TTL             Duration `toml:"ttl"`
	RedisURL        string   `toml:"redis_url"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
}

// ServerConfig holds HTTP API options.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	Preload      int      `toml:"preload"` // parallel full-record fetches at startup; 0 disables
}

// UpliftConfig holds semantic uplift options.
type UpliftConfig struct {
	IterateRules bool `toml:"iterate_rules"`
}

// Duration is a time.Duration written as a string ("24h", "90s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Register: DefaultRegister,
		LogLevel: "info",
		Cache: CacheConfig{
			Backend:         cache.BackendFile,
			TTL:             Duration{24 * time.Hour},
			MongoDatabase:   appName,
			MongoCollection: "http_cache",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{2 * time.Minute},
			MaxBodyBytes: 10 << 20,
		},
	}
}

// Path returns the default configuration file path.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the default file cache directory (~/.cache/bblocks/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the configuration at path over [Defaults]. An empty path uses
// [Path], and a missing file there is not an error. Keys absent from the
// file keep their defaults; unknown keys are rejected.
func Load(path string) (Config, string, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, "", nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Defaults(), "", nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, path, bberrors.Wrap(bberrors.ErrCodeConfiguration, err, "config file not found")
		}
		return cfg, path, bberrors.Wrap(bberrors.ErrCodeConfiguration, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, path, bberrors.New(bberrors.ErrCodeConfiguration, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, path, bberrors.Wrap(bberrors.ErrCodeConfiguration, err, "%s", path)
	}
	return cfg, path, nil
}

var backends = []string{cache.BackendNone, cache.BackendFile, cache.BackendMemory, cache.BackendRedis, cache.BackendMongo}

// Validate checks enumerated values and backend requirements.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return bberrors.New(bberrors.ErrCodeInvalidEnum, "log_level: unknown level %q", c.LogLevel)
	}
	if !slices.Contains(backends, c.Cache.Backend) {
		return bberrors.New(bberrors.ErrCodeInvalidEnum, "cache.backend: unknown backend %q (must be one of %s)", c.Cache.Backend, strings.Join(backends, ", "))
	}
	switch {
	case c.Cache.Backend == cache.BackendRedis && c.Cache.RedisURL == "":
		return bberrors.New(bberrors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
	case c.Cache.Backend == cache.BackendMongo && c.Cache.MongoURI == "":
		return bberrors.New(bberrors.ErrCodeInvalidInput, "cache.mongo_uri is required for the mongo backend")
	case c.Cache.TTL.Duration < 0:
		return bberrors.New(bberrors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	case c.Server.Preload < 0:
		return bberrors.New(bberrors.ErrCodeInvalidInput, "server.preload must not be negative")
	}
	if c.Register != "" {
		if err := bberrors.ValidateLocation(c.Register); err != nil {
			return err
		}
	}
	return nil
}

// Level returns the configured log level, or info when it is invalid.
func (c Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// Settings converts the cache section to a [cache.Config]. A file backend
// without a directory uses [CacheDir].
func (c CacheConfig) Settings() (cache.Config, error) {
	dir := c.Dir
	if dir == "" && (c.Backend == "" || c.Backend == cache.BackendFile) {
		d, err := CacheDir()
		if err != nil {
			return cache.Config{}, bberrors.Wrap(bberrors.ErrCodeConfiguration, err, "cache directory")
		}
		dir = d
	}
	return cache.Config{
		Backend:         c.Backend,
		Dir:             dir,
		RedisURL:        c.RedisURL,
		MongoURI:        c.MongoURI,
		MongoDatabase:   c.MongoDatabase,
		MongoCollection: c.MongoCollection,
	}, nil
}
