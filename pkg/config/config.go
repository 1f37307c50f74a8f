// Package config loads the optional shipyard.toml.
//
// Every setting has a fixed default, so the file is never required. A file in
// the working directory is picked up automatically; --config points at one
// elsewhere.
//
//	database   = "data/sde.sqlite"
//	output     = "data"
//	root_group = 4
//	strict     = false
//
//	[cache]
//	backend   = "file"        # file | redis | none
//	dir       = "~/.cache/shipyard"
//	redis_url = "redis://localhost:6379/0"
//	prefix    = "shipyard:"
//
//	[server]
//	addr = ":8080"
//
//	[mongo]
//	uri      = "mongodb://localhost:27017"
//	database = "shipyard"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	shipyarderrors "github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/publish"
	"github.com/matzehuels/shipyard/pkg/sde"
	"github.com/matzehuels/shipyard/pkg/server"
)

// FileName is the config file looked up in the working directory.
const FileName = "shipyard.toml"

// appName names the cache directory.
const appName = "shipyard"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

var cacheBackends = []string{CacheFile, CacheRedis, CacheNone}

// Config holds all settings.
type Config struct {
	Database  string `toml:"database"`
	Output    string `toml:"output"`
	RootGroup int64  `toml:"root_group"`
	Strict    bool   `toml:"strict"`

	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
	Mongo  Mongo  `toml:"mongo"`

	// Source is the file the config was read from, empty for defaults.
	Source string `toml:"-"`
}

// Cache configures the extract cache.
type Cache struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// Server configures the serve command.
type Server struct {
	Addr string `toml:"addr"`
}

// Mongo configures the publish command.
type Mongo struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:  sde.DefaultPath,
		Output:    export.DefaultDir,
		RootGroup: sde.ShipMarketGroup,
		Cache: Cache{
			Backend:  CacheFile,
			Dir:      DefaultCacheDir(),
			RedisURL: "redis://localhost:6379/0",
			Prefix:   appName + ":",
		},
		Server: Server{Addr: server.DefaultAddr},
		Mongo: Mongo{
			URI:      "mongodb://localhost:27017",
			Database: publish.DefaultDatabase,
		},
	}
}

// Load reads the config at path on top of the defaults. With an empty path,
// FileName in the working directory is used if it exists; otherwise the
// defaults are returned unchanged. An explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return Config{}, shipyarderrors.Wrap(shipyarderrors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, shipyarderrors.Wrap(shipyarderrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, shipyarderrors.New(shipyarderrors.ErrCodeInvalidConfig,
			"%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Source = path
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enums.
func (c Config) Validate() error {
	if c.Database == "" {
		return shipyarderrors.New(shipyarderrors.ErrCodeInvalidConfig, "database path cannot be empty")
	}
	if c.Output == "" {
		return shipyarderrors.New(shipyarderrors.ErrCodeInvalidConfig, "output directory cannot be empty")
	}
	if c.RootGroup <= 0 {
		return shipyarderrors.New(shipyarderrors.ErrCodeInvalidConfig, "root_group must be positive, got %d", c.RootGroup)
	}
	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return shipyarderrors.New(shipyarderrors.ErrCodeInvalidConfig,
			"cache.backend must be one of %s, got %q", strings.Join(cacheBackends, ", "), c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return shipyarderrors.New(shipyarderrors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
	}
	return nil
}

// DefaultCacheDir returns the cache directory using the XDG convention
// (~/.cache/shipyard). It falls back to a directory under os.TempDir.
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
