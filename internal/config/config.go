// Package config loads loadmaster settings from defaults, an optional TOML
// file and LOADMASTER_* environment variables, in increasing precedence.
//
// Keys are dotted ("fetch.concurrency"); the matching environment variable
// replaces dots with underscores (LOADMASTER_FETCH_CONCURRENCY).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jfahler/loadmasterbot/pkg/cache"
	"github.com/jfahler/loadmasterbot/pkg/catalog"
	errs "github.com/jfahler/loadmasterbot/pkg/errors"
	"github.com/jfahler/loadmasterbot/pkg/integrations/workshop"
	"github.com/jfahler/loadmasterbot/pkg/pipeline"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LOADMASTER"

	// FileName is the config file looked up in Dir().
	FileName = "config.toml"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Store drivers.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config is the resolved configuration.
type Config struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Store     StoreConfig     `mapstructure:"store"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Workshop  WorkshopConfig  `mapstructure:"workshop"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Detection DetectionConfig `mapstructure:"detection"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Input     InputConfig     `mapstructure:"input"`
	Serve     ServeConfig     `mapstructure:"serve"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"` // prepended to every key
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type WorkshopConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// FetchConfig tunes outbound workshop requests.
type FetchConfig struct {
	Concurrency int           `mapstructure:"concurrency"` // <= 0 is unbounded
	Timeout     time.Duration `mapstructure:"timeout"`     // per request
	Retries     int           `mapstructure:"retries"`
	Rate        float64       `mapstructure:"rate"` // requests per second, negative disables
	Burst       int           `mapstructure:"burst"`
}

type AnalysisConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type DetectionConfig struct {
	Rule string `mapstructure:"rule"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"` // empty uses the embedded catalog
}

type InputConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration. Paths are left empty and
// resolved by Load.
func Default() Config {
	return Config{
		Cache:     CacheConfig{Backend: CacheFile, TTL: cache.TTLItem},
		Redis:     RedisConfig{Addr: "localhost:6379", Prefix: "loadmaster:"},
		Store:     StoreConfig{Driver: StoreSQLite},
		Mongo:     MongoConfig{Database: "loadmaster"},
		Workshop:  WorkshopConfig{BaseURL: workshop.DefaultBaseURL},
		Fetch:     FetchConfig{Concurrency: pipeline.DefaultConcurrency, Timeout: 10 * time.Second, Retries: 3, Rate: 10, Burst: 10},
		Analysis:  AnalysisConfig{Timeout: pipeline.DefaultTimeout},
		Detection: DetectionConfig{Rule: string(catalog.RuleCompanion)},
		Input:     InputConfig{MaxBytes: errs.DefaultMaxDocumentBytes},
		Serve:     ServeConfig{Addr: ":8080"},
	}
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file. It must exist.
	File string

	// Dir overrides the directory searched for FileName. Tests use it.
	Dir string
}

// Load resolves the configuration and returns it together with the path of
// the file that was read (empty when none).
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := locate(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errs.Wrap(errs.ErrCodeInvalidConfig, err, "read %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode configuration")
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func locate(opts LoadOptions) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", errs.Wrap(errs.ErrCodeInvalidConfig, err, "config file %s", opts.File)
		}
		return opts.File, nil
	}
	dir := opts.Dir
	if dir == "" {
		d, err := Dir()
		if err != nil {
			return "", nil
		}
		dir = d
	}
	candidate := filepath.Join(dir, FileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.prefix", d.Redis.Prefix)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("workshop.base_url", d.Workshop.BaseURL)
	v.SetDefault("fetch.concurrency", d.Fetch.Concurrency)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.retries", d.Fetch.Retries)
	v.SetDefault("fetch.rate", d.Fetch.Rate)
	v.SetDefault("fetch.burst", d.Fetch.Burst)
	v.SetDefault("analysis.timeout", d.Analysis.Timeout)
	v.SetDefault("detection.rule", d.Detection.Rule)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("input.max_bytes", d.Input.MaxBytes)
	v.SetDefault("serve.addr", d.Serve.Addr)
}

func (c *Config) resolvePaths() error {
	if c.Cache.Dir == "" && c.Cache.Backend == CacheFile {
		dir, err := CacheDir()
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "cache.dir is unset and no home directory")
		}
		c.Cache.Dir = dir
	}
	if c.Store.Path == "" && c.Store.Driver == StoreSQLite {
		dir, err := DataDir()
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "store.path is unset and no home directory")
		}
		c.Store.Path = filepath.Join(dir, "loadmaster.db")
	}
	return nil
}

// Validate checks enumerations and required companions.
func (c *Config) Validate() error {
	var problems []error

	switch c.Cache.Backend {
	case CacheFile, CacheMemory, CacheRedis, CacheNone:
	default:
		problems = append(problems, fmt.Errorf("cache.backend %q (want file, memory, redis or none)", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheRedis && c.Redis.Addr == "" {
		problems = append(problems, errors.New("redis.addr is required for the redis cache"))
	}

	switch c.Store.Driver {
	case StoreSQLite, StoreMemory:
	case StoreMongo:
		if c.Mongo.URI == "" {
			problems = append(problems, errors.New("mongo.uri is required for the mongo store"))
		}
	default:
		problems = append(problems, fmt.Errorf("store.driver %q (want sqlite, mongo or memory)", c.Store.Driver))
	}

	if _, err := catalog.ParseRule(c.Detection.Rule); err != nil {
		problems = append(problems, fmt.Errorf("detection.rule: %w", err))
	}
	if err := errs.ValidateURL(c.Workshop.BaseURL); err != nil {
		problems = append(problems, fmt.Errorf("workshop.base_url: %s", errs.UserMessage(err)))
	}
	if c.Fetch.Retries < 1 {
		problems = append(problems, fmt.Errorf("fetch.retries must be at least 1, got %d", c.Fetch.Retries))
	}
	if c.Input.MaxBytes < 0 {
		problems = append(problems, errors.New("input.max_bytes must not be negative"))
	}

	if len(problems) > 0 {
		return errs.Wrap(errs.ErrCodeInvalidConfig, errors.Join(problems...), "invalid configuration")
	}
	return nil
}
