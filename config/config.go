package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/pevans/litcrawl/scraper"
)

// ErrUnknownCollection is returned when a collection name is not configured.
var ErrUnknownCollection = errors.New("unknown collection")

// Config holds all litcrawl configuration.
type Config struct {
	Log         LogConfig             `yaml:"log"`
	HTTP        HTTPConfig            `yaml:"http"`
	Crawl       CrawlConfig           `yaml:"crawl"`
	Ledger      LedgerConfig          `yaml:"ledger"`
	Server      ServerConfig          `yaml:"server"`
	Collections map[string]Collection `yaml:"collections"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// HTTPConfig controls the client used for every request.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`    // default: 0 (none)
	UserAgent string        `yaml:"user_agent"` // default: "" (HTTP library agent)
}

// CrawlConfig controls batching and page retries.
type CrawlConfig struct {
	BatchSize              int           `yaml:"batch_size"`       // default: 10
	MaxPageRetries         int           `yaml:"max_page_retries"` // default: 0 (unbounded)
	RetryDelay             time.Duration `yaml:"retry_delay"`
	TreatEmptyAsEndOfCrawl bool          `yaml:"treat_empty_as_end_of_crawl"` // default: true
}

// LedgerConfig locates the run history database. An empty DSN disables it.
type LedgerConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig controls the status API.
type ServerConfig struct {
	Addr string `yaml:"addr"` // default: ":8080"
}

// Collection is one crawlable archive: where its listing lives, where its
// records and progress marker are kept and how pages are read.
type Collection struct {
	BaseURL  string                `yaml:"base_url"`
	Output   string                `yaml:"output"`
	Progress string                `yaml:"progress"`
	List     scraper.ListConfig    `yaml:"list"`
	Article  scraper.ArticleConfig `yaml:"article"`
}

// Default returns the built-in configuration with the poems and stories
// archives of inepal.org.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Crawl: CrawlConfig{
			BatchSize:              10,
			TreatEmptyAsEndOfCrawl: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Collections: map[string]Collection{
			"poems": {
				BaseURL:  "https://inepal.org/nepalipoems/page/",
				Output:   "nepali_poems.csv",
				Progress: "scraping_progress.txt",
				List:     scraper.NewListConfig(),
				Article:  scraper.NewArticleConfig(true),
			},
			"stories": {
				BaseURL:  "https://inepal.org/nepalistories/page/",
				Output:   "nepali_story.csv",
				Progress: "scraping_progress_story.txt",
				List:     scraper.NewListConfig(),
				Article:  scraper.NewArticleConfig(false),
			},
		},
	}
}

// Load builds the configuration from defaults, the config file at path (and
// its .local override) and LITCRAWL_* environment variables, in that order
// of precedence. Missing files are not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides settings from LITCRAWL_* variables.
func (c *Config) applyEnv() {
	c.Log.Level = envOr("LITCRAWL_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("LITCRAWL_LOG_FORMAT", c.Log.Format)
	c.HTTP.Timeout = envDurationOr("LITCRAWL_HTTP_TIMEOUT", c.HTTP.Timeout)
	c.HTTP.UserAgent = envOr("LITCRAWL_USER_AGENT", c.HTTP.UserAgent)
	c.Crawl.BatchSize = envIntOr("LITCRAWL_BATCH_SIZE", c.Crawl.BatchSize)
	c.Crawl.MaxPageRetries = envIntOr("LITCRAWL_MAX_PAGE_RETRIES", c.Crawl.MaxPageRetries)
	c.Crawl.RetryDelay = envDurationOr("LITCRAWL_RETRY_DELAY", c.Crawl.RetryDelay)
	c.Crawl.TreatEmptyAsEndOfCrawl = envBoolOr("LITCRAWL_TREAT_EMPTY_AS_END", c.Crawl.TreatEmptyAsEndOfCrawl)
	c.Ledger.DSN = envOr("LITCRAWL_LEDGER_DSN", c.Ledger.DSN)
	c.Server.Addr = envOr("LITCRAWL_SERVER_ADDR", c.Server.Addr)
}

// Validate checks the configuration for values a crawl cannot run with.
func (c *Config) Validate() error {
	if c.Crawl.BatchSize < 1 {
		return fmt.Errorf("crawl.batch_size must be at least 1, got %d", c.Crawl.BatchSize)
	}
	if c.Crawl.MaxPageRetries < 0 {
		return fmt.Errorf("crawl.max_page_retries must not be negative, got %d", c.Crawl.MaxPageRetries)
	}
	if c.Crawl.RetryDelay < 0 {
		return fmt.Errorf("crawl.retry_delay must not be negative, got %s", c.Crawl.RetryDelay)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative, got %s", c.HTTP.Timeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if len(c.Collections) == 0 {
		return errors.New("no collections configured")
	}

	outputs := make(map[string]string)
	markers := make(map[string]string)
	for _, name := range c.Names() {
		col := c.Collections[name]
		switch {
		case col.BaseURL == "":
			return fmt.Errorf("collection %s: base_url is required", name)
		case col.Output == "":
			return fmt.Errorf("collection %s: output is required", name)
		case col.Progress == "":
			return fmt.Errorf("collection %s: progress is required", name)
		}
		if other, ok := outputs[col.Output]; ok {
			return fmt.Errorf("collections %s and %s share output %s", other, name, col.Output)
		}
		if other, ok := markers[col.Progress]; ok {
			return fmt.Errorf("collections %s and %s share progress file %s", other, name, col.Progress)
		}
		outputs[col.Output] = name
		markers[col.Progress] = name
	}

	return nil
}

// Names returns the configured collection names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Collections))
	for name := range c.Collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Collection returns the named collection.
func (c *Config) Collection(name string) (Collection, error) {
	col, ok := c.Collections[name]
	if !ok {
		return Collection{}, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return col, nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
