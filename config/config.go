package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/BurntSushi/toml"

	"github.com/scipunch/feedsnap/cache"
	"github.com/scipunch/feedsnap/parser"
)

const baseCfgPath = "feedsnap/config.toml"

const (
	DefaultMaxEntries     = 20
	DefaultTimeoutSeconds = 20
	DefaultMaxBodyBytes   = 10 << 20
	DefaultConcurrency    = 4
	DefaultMaxLength      = 200
	DefaultMaxWords       = 40
)

type Config struct {
	FeedURL         string       `toml:"feed_url"`         // Feed opened when no -url flag is given
	MaxEntries      int          `toml:"max_entries"`      // Entries kept from the top of the feed
	DatabasePath    string       `toml:"database_path"`    // Snapshot store location
	OutputDirectory string       `toml:"output_directory"` // Directory for generated files (defaults to $HOME/feedsnap)
	Fetch           FetchConfig  `toml:"fetch"`
	Inline          InlineConfig `toml:"inline"`
	Cache           CacheConfig  `toml:"cache"`
}

// FetchConfig controls every HTTP request: feed, article pages and images
type FetchConfig struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
	MaxBodyBytes   int64  `toml:"max_body_bytes"`
	Concurrency    int    `toml:"concurrency"` // Entries built in parallel
	LogLevel       string `toml:"log_level"`   // Level of the network logger: debug, info, warn, error
}

// InlineConfig controls fetching the full article of short entries
type InlineConfig struct {
	Enabled   bool        `toml:"enabled"`
	Extractor parser.Type `toml:"extractor"` // "web" or "readability"
	MaxLength int         `toml:"max_length"`
	MaxWords  int         `toml:"max_words"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	_, err = toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	if err = conf.Validate(); err != nil {
		return conf, fmt.Errorf("invalid config at %s with %w", path, err)
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

func Default() Config {
	var home = os.Getenv("HOME")
	var outputDir = path.Join(home, "feedsnap")
	return Config{
		MaxEntries:      DefaultMaxEntries,
		DatabasePath:    cache.DefaultCachePath(),
		OutputDirectory: outputDir,
		Fetch: FetchConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
			MaxBodyBytes:   DefaultMaxBodyBytes,
			Concurrency:    DefaultConcurrency,
			LogLevel:       "info",
		},
		Inline: InlineConfig{
			Enabled:   true,
			Extractor: parser.Web,
			MaxLength: DefaultMaxLength,
			MaxWords:  DefaultMaxWords,
		},
		Cache: CacheConfig{Enabled: true},
	}
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	var errs []error
	if c.MaxEntries < 1 {
		errs = append(errs, fmt.Errorf("max_entries must be at least 1, got %d", c.MaxEntries))
	}
	if c.Fetch.TimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("fetch.timeout_seconds must be positive, got %d", c.Fetch.TimeoutSeconds))
	}
	if c.Fetch.MaxBodyBytes < 1 {
		errs = append(errs, fmt.Errorf("fetch.max_body_bytes must be positive, got %d", c.Fetch.MaxBodyBytes))
	}
	if c.Fetch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency))
	}
	switch c.Fetch.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown fetch.log_level '%s'", c.Fetch.LogLevel))
	}
	switch c.Inline.Extractor {
	case "", parser.Web, parser.Readability:
	default:
		errs = append(errs, fmt.Errorf("unknown inline.extractor '%s'", c.Inline.Extractor))
	}
	if c.Inline.MaxLength < 0 || c.Inline.MaxWords < 0 {
		errs = append(errs, fmt.Errorf("inline thresholds must not be negative"))
	}
	return errors.Join(errs...)
}

func DefaultPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	return "config.toml" // Fallback to current directory
}
