package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "RSS_INDEXER_CONFIG"
	modeEnv       = "RSS_INDEXER_MODE"
	timeoutEnv    = "RSS_INDEXER_TIMEOUT_SECONDS"
	logLevelEnv   = "RSS_INDEXER_LOG_LEVEL"
)

// Config holds everything a run needs: the feed list, fetch settings, and
// the pipeline's scheduling knobs.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Feeds    []string       `yaml:"feeds"`
	FeedFile string         `yaml:"feedFile"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FetchConfig describes the HTTP transport used for feeds and articles.
type FetchConfig struct {
	TimeoutSeconds     int    `yaml:"timeoutSeconds"`
	Profile            string `yaml:"profile"`
	HostIntervalMillis int    `yaml:"hostIntervalMillis"`
	CacheSize          int    `yaml:"cacheSize"`
}

// Timeout resolves the fetch timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// HostInterval resolves the per-host politeness interval as a duration.
func (f FetchConfig) HostInterval() time.Duration {
	return time.Duration(f.HostIntervalMillis) * time.Millisecond
}

// PipelineConfig selects the execution mode and sizes its workers and queues.
// MaxInFlight and MaxPerHost only bound the thread-per-unit mode; zero means
// unbounded.
type PipelineConfig struct {
	Mode           string `yaml:"mode"`
	FeedWorkers    int    `yaml:"feedWorkers"`
	ArticleWorkers int    `yaml:"articleWorkers"`
	QueueSize      int    `yaml:"queueSize"`
	MaxInFlight    int    `yaml:"maxInFlight"`
	MaxPerHost     int    `yaml:"maxPerHost"`
}

// Load reads YAML configuration from path (or the RSS_INDEXER_CONFIG env var
// when path is empty) and applies environment overrides on top of defaults.
// A missing path yields the defaults.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: cannot read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: cannot parse %s: %w", path, err)
		}
		cfg = fillDefaults(cfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(modeEnv); v != "" {
		c.Pipeline.Mode = v
	}
	if v := os.Getenv(timeoutEnv); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Fetch.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// fillDefaults restores defaults for fields the YAML file left at zero.
func fillDefaults(cfg Config) Config {
	def := defaultConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Fetch.TimeoutSeconds <= 0 {
		cfg.Fetch.TimeoutSeconds = def.Fetch.TimeoutSeconds
	}
	if cfg.Fetch.Profile == "" {
		cfg.Fetch.Profile = def.Fetch.Profile
	}
	if cfg.Fetch.CacheSize <= 0 {
		cfg.Fetch.CacheSize = def.Fetch.CacheSize
	}
	if cfg.Pipeline.Mode == "" {
		cfg.Pipeline.Mode = def.Pipeline.Mode
	}
	if cfg.Pipeline.FeedWorkers <= 0 {
		cfg.Pipeline.FeedWorkers = def.Pipeline.FeedWorkers
	}
	if cfg.Pipeline.ArticleWorkers <= 0 {
		cfg.Pipeline.ArticleWorkers = def.Pipeline.ArticleWorkers
	}
	if cfg.Pipeline.QueueSize <= 0 {
		cfg.Pipeline.QueueSize = def.Pipeline.QueueSize
	}
	return cfg
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Fetch: FetchConfig{
			TimeoutSeconds: 10,
			Profile:        "curl",
			CacheSize:      128,
		},
		Pipeline: PipelineConfig{
			Mode:           "pool",
			FeedWorkers:    3,
			ArticleWorkers: 20,
			QueueSize:      64,
			MaxInFlight:    18,
			MaxPerHost:     10,
		},
	}
}
