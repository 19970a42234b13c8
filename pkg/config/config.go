// Package config loads canopy configuration from a TOML file and
// applies defaults and validation. Every setting has a working default
// so a missing config file is never an error.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/canopyviz/canopy/pkg/errors"
	"github.com/canopyviz/canopy/pkg/layout"
	"github.com/canopyviz/canopy/pkg/materialize"
)

// Cache backend names accepted in config.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Store backend names accepted in config.
const (
	StoreBackendFile  = "file"
	StoreBackendMongo = "mongo"
)

// Config holds all tunable settings.
type Config struct {
	// Data is the path to the input record file.
	Data string `toml:"data"`

	Layout      LayoutConfig      `toml:"layout"`
	Materialize MaterializeConfig `toml:"materialize"`
	Cache       CacheConfig       `toml:"cache"`
	Store       StoreConfig       `toml:"store"`
	Server      ServerConfig      `toml:"server"`
}

// LayoutConfig controls grid spacing.
type LayoutConfig struct {
	SpacingX float64 `toml:"spacing_x"`
	SpacingY float64 `toml:"spacing_y"`
}

// MaterializeConfig controls chunked materialization.
type MaterializeConfig struct {
	ChunkSize int `toml:"chunk_size"`
}

// CacheConfig selects and configures the artifact cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	// TTLSeconds is the entry lifetime; 0 means no expiration.
	TTLSeconds int `toml:"ttl_seconds"`
}

// StoreConfig selects and configures the snapshot store backend.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns a config with every setting at its default.
func Default() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".canopy")
	return Config{
		Data: "records.json",
		Layout: LayoutConfig{
			SpacingX: layout.DefaultSpacingX,
			SpacingY: layout.DefaultSpacingY,
		},
		Materialize: MaterializeConfig{
			ChunkSize: materialize.DefaultChunkSize,
		},
		Cache: CacheConfig{
			Backend:   CacheBackendFile,
			Dir:       filepath.Join(base, "cache"),
			RedisAddr: "localhost:6379",
		},
		Store: StoreConfig{
			Backend:  StoreBackendFile,
			Dir:      filepath.Join(base, "snapshots"),
			MongoURI: "mongodb://localhost:27017",
			MongoDB:  "canopy",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file
// yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no sensible fallback.
func (c Config) Validate() error {
	if c.Layout.SpacingX <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.spacing_x must be positive, got %g", c.Layout.SpacingX)
	}
	if c.Layout.SpacingY <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.spacing_y must be positive, got %g", c.Layout.SpacingY)
	}
	if c.Materialize.ChunkSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "materialize.chunk_size must be positive, got %d", c.Materialize.ChunkSize)
	}
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl_seconds must not be negative, got %d", c.Cache.TTLSeconds)
	}
	switch c.Store.Backend {
	case StoreBackendFile, StoreBackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	return nil
}
