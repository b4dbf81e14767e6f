package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/sizemap/internal/server"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/pipeline"
)

// Backend names accepted in the [cache] and [store] sections.
const (
	backendNone   = "none"
	backendFile   = "file"
	backendMemory = "memory"
	backendRedis  = "redis"
	backendMongo  = "mongo"
)

// Config is the on-disk configuration, read from
// $XDG_CONFIG_HOME/sizemap/config.toml. Flags override it.
type Config struct {
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Log    LogConfig    `toml:"log"`
}

type RenderConfig struct {
	Width        float64  `toml:"width"`
	Height       float64  `toml:"height"`
	PaddingTop   float64  `toml:"padding_top"`
	PaddingInner float64  `toml:"padding_inner"`
	Formats      []string `toml:"formats"`
}

type ServerConfig struct {
	Addr           string `toml:"addr"`
	MaxUploadMB    int    `toml:"max_upload_mb"`
	TreeCacheSize  int    `toml:"tree_cache_size"`
	RequestTimeout string `toml:"request_timeout"`
}

type CacheConfig struct {
	// Backend is file, redis or none.
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

type StoreConfig struct {
	// Backend is file, memory or mongo.
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// File, when set, receives a copy of every log line with rotation.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Width:   pipeline.DefaultWidth,
			Height:  pipeline.DefaultHeight,
			Formats: []string{pipeline.FormatSVG},
		},
		Server: ServerConfig{
			Addr:           server.DefaultAddr,
			MaxUploadMB:    server.DefaultMaxUpload >> 20,
			TreeCacheSize:  server.DefaultTreeCacheSize,
			RequestTimeout: server.DefaultRequestTimeout.String(),
		},
		Cache: CacheConfig{Backend: backendFile, Prefix: appName + ":"},
		Store: StoreConfig{Backend: backendFile, MongoDatabase: appName},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// loadConfig reads path over the defaults. A missing file is not an error;
// unknown keys are.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case backendFile, backendRedis, backendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case backendFile, backendMemory, backendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend must be file, memory or mongo, got %q", c.Store.Backend)
	}
	if c.Cache.Backend == backendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if c.Store.Backend == backendMongo && c.Store.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level")
	}
	if _, err := c.requestTimeout(); err != nil {
		return err
	}
	return pipeline.ValidateFormats(c.Render.Formats)
}

func (c *Config) requestTimeout() (time.Duration, error) {
	if c.Server.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "server.request_timeout")
	}
	return d, nil
}

// renderOptions returns pipeline options seeded from the [render] section.
func (c *Config) renderOptions() pipeline.Options {
	return pipeline.Options{
		Width:        c.Render.Width,
		Height:       c.Render.Height,
		PaddingTop:   c.Render.PaddingTop,
		PaddingInner: c.Render.PaddingInner,
		Formats:      append([]string(nil), c.Render.Formats...),
	}
}

// configPath returns $XDG_CONFIG_HOME/sizemap/config.toml, falling back to
// ~/.config.
func configPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// dataDir returns the directory of the file report store
// ($XDG_DATA_HOME/sizemap/reports).
func dataDir() (string, error) {
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		return filepath.Join(home, appName, "reports"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "reports"), nil
}
