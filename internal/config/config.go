// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper"`
	Browser BrowserConfig `mapstructure:"browser"`
	Output  OutputConfig  `mapstructure:"output"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ScraperConfig governs the batch run: target, pacing, and limits.
type ScraperConfig struct {
	ListingURL        string  `mapstructure:"listing_url"`
	UniversityDefault string  `mapstructure:"university_default"`
	DelaySeconds      float64 `mapstructure:"delay_seconds"`
	JitterSeconds     float64 `mapstructure:"jitter_seconds"`
	MaxProfessors     int     `mapstructure:"max_professors"`
	SettleSeconds     float64 `mapstructure:"settle_seconds"`
}

// BrowserConfig configures the headless browser session.
type BrowserConfig struct {
	Headless          bool    `mapstructure:"headless"`
	UserAgent         string  `mapstructure:"user_agent"`
	NavTimeoutSec     int     `mapstructure:"nav_timeout_seconds"`
	WaitTimeoutSec    int     `mapstructure:"wait_timeout_seconds"`
	DomainQPS         float64 `mapstructure:"domain_qps"`
	PreflightTimeout  int     `mapstructure:"preflight_timeout_seconds"`
	PreflightDisabled bool    `mapstructure:"preflight_disabled"`
}

// OutputConfig sets paths for the persisted artifacts.
type OutputConfig struct {
	File        string `mapstructure:"file"`
	SummaryFile string `mapstructure:"summary_file"`
	ListingFile string `mapstructure:"listing_file"`
	SaveListing bool   `mapstructure:"save_listing"`
}

// MetricsConfig toggles the optional metrics/health listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DBConfig controls the optional run-history store. Empty DSN disables it.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PROFSCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.listing_url", "https://www.ratemyprofessors.com/search/professors/1262?q=*")
	v.SetDefault("scraper.university_default", "University of South Florida")
	v.SetDefault("scraper.delay_seconds", 1.5)
	v.SetDefault("scraper.jitter_seconds", 0.5)
	v.SetDefault("scraper.max_professors", 0)
	v.SetDefault("scraper.settle_seconds", 1.5)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("browser.nav_timeout_seconds", 30)
	v.SetDefault("browser.wait_timeout_seconds", 10)
	v.SetDefault("browser.domain_qps", 1.0)
	v.SetDefault("browser.preflight_timeout_seconds", 15)
	v.SetDefault("output.file", "usf_professors.json")
	v.SetDefault("output.summary_file", "scraping_summary.json")
	v.SetDefault("output.listing_file", "usf_professors_main.json")
	v.SetDefault("output.save_listing", false)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Scraper.ListingURL) == "" {
		return fmt.Errorf("scraper.listing_url must be set")
	}
	if c.Scraper.DelaySeconds < 0 {
		return fmt.Errorf("scraper.delay_seconds must be >= 0")
	}
	if c.Scraper.JitterSeconds < 0 {
		return fmt.Errorf("scraper.jitter_seconds must be >= 0")
	}
	if c.Scraper.MaxProfessors < 0 {
		return fmt.Errorf("scraper.max_professors must be >= 0")
	}
	if c.Browser.UserAgent == "" {
		return fmt.Errorf("browser.user_agent must be set")
	}
	if c.Browser.NavTimeoutSec <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0")
	}
	if c.Browser.WaitTimeoutSec <= 0 {
		return fmt.Errorf("browser.wait_timeout_seconds must be > 0")
	}
	if c.Browser.DomainQPS < 0 {
		return fmt.Errorf("browser.domain_qps must be >= 0")
	}
	if c.Output.File == "" {
		return fmt.Errorf("output.file must be set")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// Delay converts the configured inter-request delay into a duration.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Scraper.DelaySeconds * float64(time.Second))
}

// Jitter converts the configured jitter window into a duration.
func (c Config) Jitter() time.Duration {
	return time.Duration(c.Scraper.JitterSeconds * float64(time.Second))
}

// Settle converts the configured settle delay into a duration.
func (c Config) Settle() time.Duration {
	return time.Duration(c.Scraper.SettleSeconds * float64(time.Second))
}
