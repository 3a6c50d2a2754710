package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scraper.ListingURL == "" {
		t.Fatal("expected default listing URL")
	}
	if cfg.Scraper.DelaySeconds != 1.5 {
		t.Fatalf("expected default delay 1.5s, got %v", cfg.Scraper.DelaySeconds)
	}
	if !cfg.Browser.Headless {
		t.Fatal("expected headless by default")
	}
	if cfg.Output.File != "usf_professors.json" {
		t.Fatalf("unexpected default output file %q", cfg.Output.File)
	}
	if cfg.Metrics.Enabled {
		t.Fatal("expected metrics disabled by default")
	}
	if got := cfg.Delay(); got != 1500*time.Millisecond {
		t.Fatalf("expected delay 1.5s, got %v", got)
	}
	if got := cfg.Jitter(); got != 500*time.Millisecond {
		t.Fatalf("expected jitter 0.5s, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
scraper:
  listing_url: https://example.com/search/professors
  university_default: Example University
  delay_seconds: 2.5
  jitter_seconds: 1
  max_professors: 25
browser:
  headless: false
  user_agent: test-agent
  nav_timeout_seconds: 20
  wait_timeout_seconds: 5
  domain_qps: 0.5
output:
  file: out/profs.json
  summary_file: out/summary.json
  save_listing: true
metrics:
  enabled: true
  port: 9100
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scraper.ListingURL != "https://example.com/search/professors" {
		t.Fatalf("expected listing URL override, got %q", cfg.Scraper.ListingURL)
	}
	if cfg.Scraper.MaxProfessors != 25 {
		t.Fatalf("expected max professors 25, got %d", cfg.Scraper.MaxProfessors)
	}
	if cfg.Browser.Headless {
		t.Fatal("expected headless override to false")
	}
	if cfg.Browser.UserAgent != "test-agent" {
		t.Fatalf("expected user agent override, got %q", cfg.Browser.UserAgent)
	}
	if cfg.Output.File != "out/profs.json" || !cfg.Output.SaveListing {
		t.Fatalf("expected output overrides: %+v", cfg.Output)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9100 {
		t.Fatalf("expected metrics overrides: %+v", cfg.Metrics)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
	if got := cfg.Delay(); got != 2500*time.Millisecond {
		t.Fatalf("expected delay 2.5s, got %v", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listing url", func(c *Config) { c.Scraper.ListingURL = " " }},
		{"negative delay", func(c *Config) { c.Scraper.DelaySeconds = -1 }},
		{"negative jitter", func(c *Config) { c.Scraper.JitterSeconds = -0.5 }},
		{"negative max professors", func(c *Config) { c.Scraper.MaxProfessors = -2 }},
		{"empty user agent", func(c *Config) { c.Browser.UserAgent = "" }},
		{"zero nav timeout", func(c *Config) { c.Browser.NavTimeoutSec = 0 }},
		{"negative qps", func(c *Config) { c.Browser.DomainQPS = -1 }},
		{"empty output file", func(c *Config) { c.Output.File = "" }},
		{"metrics without port", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Port = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
