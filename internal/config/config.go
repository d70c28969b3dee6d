// Package config provides configuration management for the content factory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingSiteURL          = errors.New("site.url is required")
	ErrInvalidBackend          = errors.New("reasoning.backend must be 'cli' or 'api'")
	ErrInvalidMaxTokens        = errors.New("reasoning.max_tokens must be at least 1")
	ErrInvalidMinWords         = errors.New("content.min_words must be non-negative")
	ErrInvalidMinSources       = errors.New("content.min_sources must be non-negative")
	ErrInvalidMinFAQs          = errors.New("content.min_faqs must be non-negative")
	ErrInvalidTolerance        = errors.New("content.regression_tolerance must be between 0 and 1")
	ErrInvalidLinkCaps         = errors.New("linking caps must be at least 1 and max_per_field cannot exceed max_total")
	ErrInvalidBreakerThreshold = errors.New("publish.breaker_threshold must be at least 1")
	ErrInvalidDelay            = errors.New("publish.rate_limit_delay must be non-negative")
	ErrInvalidStaleDays        = errors.New("maintenance.stale_days must be at least 1")
	ErrInvalidCanary           = errors.New("autopilot.canary_error_rate must be between 0 and 1")
	ErrInvalidScraper          = errors.New("intel.scraper must be 'firecrawl' or 'local'")
	ErrInvalidLogLevel         = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Site          SiteConfig          `yaml:"site"`
	Logging       LoggingConfig       `yaml:"logging"`
	Reasoning     ReasoningConfig     `yaml:"reasoning"`
	Intel         IntelConfig         `yaml:"intel"`
	Content       ContentConfig       `yaml:"content"`
	Linking       LinkingConfig       `yaml:"linking"`
	Publish       PublishConfig       `yaml:"publish"`
	IndexNow      IndexNowConfig      `yaml:"indexnow"`
	Images        ImagesConfig        `yaml:"images"`
	SearchConsole SearchConsoleConfig `yaml:"search_console"`
	Budget        BudgetConfig        `yaml:"budget"`
	Maintenance   MaintenanceConfig   `yaml:"maintenance"`
	Autopilot     AutopilotConfig     `yaml:"autopilot"`
	Sitemap       SitemapConfig       `yaml:"sitemap"`
}

// DatabaseConfig locates the page registry.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SiteConfig describes the public site the pages are served from.
type SiteConfig struct {
	URL    string `yaml:"url"`
	Domain string `yaml:"domain"`
	Brand  string `yaml:"brand"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ReasoningConfig selects and tunes the language-model backend.
type ReasoningConfig struct {
	Backend   string        `yaml:"backend"`
	Binary    string        `yaml:"binary"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"-"`
	APIURL    string        `yaml:"api_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// IntelConfig controls competitor intelligence gathering.
type IntelConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Scraper        string `yaml:"scraper"`
	FirecrawlKey   string `yaml:"-"`
	FirecrawlURL   string `yaml:"firecrawl_url"`
	SearchLimit    int    `yaml:"search_limit"`
	ScrapeTop      int    `yaml:"scrape_top"`
	SourceCharCap  int    `yaml:"source_char_cap"`
	ScrapeCharCap  int    `yaml:"scrape_char_cap"`
	EnglishOnly    bool   `yaml:"english_only"`
	Explorer       bool   `yaml:"explorer"`
	ChangeTracking bool   `yaml:"change_tracking"`
}

// ContentConfig holds the quality gates and the version guard.
type ContentConfig struct {
	MinWords            int     `yaml:"min_words"`
	MinSources          int     `yaml:"min_sources"`
	MinFAQs             int     `yaml:"min_faqs"`
	RegressionTolerance float64 `yaml:"regression_tolerance"`
	Schema              bool    `yaml:"schema"`
}

// LinkingConfig bounds link density.
type LinkingConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxPerField   int  `yaml:"max_per_field"`
	MaxTotal      int  `yaml:"max_total"`
	CrossCategory int  `yaml:"cross_category"`
	ResourceBlock int  `yaml:"resource_block"`
}

// PublishConfig configures the CMS target and safety controls.
type PublishConfig struct {
	Enabled          bool          `yaml:"enabled"`
	APIURL           string        `yaml:"api_url"`
	Token            string        `yaml:"-"`
	CollectionID     string        `yaml:"collection_id"`
	RateLimitDelay   time.Duration `yaml:"rate_limit_delay"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
}

// IndexNowConfig configures the instant-indexing ping.
type IndexNowConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Key         string `yaml:"-"`
	KeyLocation string `yaml:"key_location"`
}

// ImagesConfig configures hero image generation.
type ImagesConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIURL  string `yaml:"api_url"`
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	Size    string `yaml:"size"`

	// Dir stores downloaded images under PublicURL. Empty keeps the
	// generator's URL.
	Dir       string `yaml:"dir"`
	PublicURL string `yaml:"public_url"`
}

// SearchConsoleConfig configures the ranking/impressions source.
type SearchConsoleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SiteURL         string `yaml:"site_url"`
	DiscoveryDays   int    `yaml:"discovery_days"`
	RankingDays     int    `yaml:"ranking_days"`
}

// BudgetConfig caps per-service usage for one run. Zero means unlimited.
type BudgetConfig struct {
	Limits map[string]int `yaml:"limits"`
}

// MaintenanceConfig controls the staleness refresh.
type MaintenanceConfig struct {
	StaleDays    int  `yaml:"stale_days"`
	RefreshLimit int  `yaml:"refresh_limit"`
	RelinkLimit  int  `yaml:"relink_limit"`
	Relink       bool `yaml:"relink"`
}

// AutopilotConfig controls batch runs.
type AutopilotConfig struct {
	Limit           int     `yaml:"limit"`
	CanaryBatch     int     `yaml:"canary_batch"`
	CanaryErrorRate float64 `yaml:"canary_error_rate"`
}

// SitemapConfig sets where the sitemap artifact is written.
type SitemapConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "sei.db"},
		Site: SiteConfig{
			URL:    "https://equipflow.co",
			Domain: "equipflow.co",
			Brand:  "EquipFlow",
		},
		Logging: LoggingConfig{Level: "info"},
		Reasoning: ReasoningConfig{
			Backend:   "cli",
			Binary:    "claude",
			Model:     "sonnet",
			APIURL:    "https://api.anthropic.com/v1/messages",
			MaxTokens: 4000,
			Timeout:   5 * time.Minute,
		},
		Intel: IntelConfig{
			Enabled:        true,
			Scraper:        "firecrawl",
			FirecrawlURL:   "https://api.firecrawl.dev/v1",
			SearchLimit:    5,
			ScrapeTop:      3,
			SourceCharCap:  5000,
			ScrapeCharCap:  15000,
			EnglishOnly:    true,
			Explorer:       true,
			ChangeTracking: true,
		},
		Content: ContentConfig{
			MinWords:            800,
			MinSources:          2,
			MinFAQs:             4,
			RegressionTolerance: 0.9,
			Schema:              true,
		},
		Linking: LinkingConfig{
			Enabled:       true,
			MaxPerField:   2,
			MaxTotal:      5,
			CrossCategory: 4,
			ResourceBlock: 6,
		},
		Publish: PublishConfig{
			Enabled:          true,
			APIURL:           "https://api.webflow.com/v2",
			RateLimitDelay:   1500 * time.Millisecond,
			BreakerThreshold: 3,
		},
		IndexNow: IndexNowConfig{Endpoint: "https://api.indexnow.org/indexnow"},
		Images: ImagesConfig{
			Enabled: true,
			APIURL:  "https://api.openai.com/v1/images/generations",
			Model:   "dall-e-3",
			Size:    "1792x1024",
		},
		SearchConsole: SearchConsoleConfig{DiscoveryDays: 28, RankingDays: 7},
		Budget:        BudgetConfig{Limits: map[string]int{}},
		Maintenance: MaintenanceConfig{
			StaleDays:    30,
			RefreshLimit: 5,
			RelinkLimit:  10,
			Relink:       true,
		},
		Autopilot: AutopilotConfig{
			Limit:           50,
			CanaryBatch:     5,
			CanaryErrorRate: 0.2,
		},
		Sitemap: SitemapConfig{Path: "sitemap.xml"},
	}
}

// LoadConfig loads configuration from a YAML file layered over Default, then
// applies secrets from .env and the environment. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv copies secrets and deployment overrides from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Database.Path, "SEI_DB")
	set(&c.Site.Domain, "SITE_DOMAIN")
	set(&c.Reasoning.APIKey, "ANTHROPIC_API_KEY")
	set(&c.Intel.FirecrawlKey, "FIRECRAWL_API_KEY")
	set(&c.Publish.Token, "WEBFLOW_API_TOKEN")
	set(&c.Publish.CollectionID, "WEBFLOW_COLLECTION_ID")
	set(&c.IndexNow.Key, "INDEXNOW_KEY")
	set(&c.IndexNow.KeyLocation, "INDEXNOW_KEY_LOCATION")
	set(&c.Images.APIKey, "OPENAI_API_KEY")
	set(&c.SearchConsole.CredentialsFile, "GSC_CREDENTIALS_FILE")
	set(&c.SearchConsole.SiteURL, "GSC_SITE_URL")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Site.URL == "" {
		return ErrMissingSiteURL
	}

	switch c.Reasoning.Backend {
	case "cli", "api":
	default:
		return ErrInvalidBackend
	}
	if c.Reasoning.MaxTokens < 1 {
		return ErrInvalidMaxTokens
	}

	switch c.Intel.Scraper {
	case "firecrawl", "local":
	default:
		return ErrInvalidScraper
	}

	if c.Content.MinWords < 0 {
		return ErrInvalidMinWords
	}
	if c.Content.MinSources < 0 {
		return ErrInvalidMinSources
	}
	if c.Content.MinFAQs < 0 {
		return ErrInvalidMinFAQs
	}
	if c.Content.RegressionTolerance < 0 || c.Content.RegressionTolerance > 1 {
		return ErrInvalidTolerance
	}

	l := c.Linking
	if l.MaxPerField < 1 || l.MaxTotal < 1 || l.MaxPerField > l.MaxTotal || l.ResourceBlock < 1 {
		return ErrInvalidLinkCaps
	}

	if c.Publish.BreakerThreshold < 1 {
		return ErrInvalidBreakerThreshold
	}
	if c.Publish.RateLimitDelay < 0 {
		return ErrInvalidDelay
	}

	if c.Maintenance.StaleDays < 1 {
		return ErrInvalidStaleDays
	}

	if c.Autopilot.CanaryErrorRate < 0 || c.Autopilot.CanaryErrorRate > 1 {
		return ErrInvalidCanary
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// PageURL returns the public URL of a page slug.
func (s SiteConfig) PageURL(slug string) string {
	return strings.TrimRight(s.URL, "/") + "/equipment/" + slug + "/"
}
