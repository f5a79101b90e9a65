package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Targets   TargetsConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
	Schedule  ScheduleConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance launched for each run.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// Proxy is the proxy URL used by the browser and the plain HTTP fetcher.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects go-rod/stealth before the first navigation.
	Stealth bool // default: false
}

// ScraperConfig controls scraping behavior.
type ScraperConfig struct {
	// NavigationTimeout bounds every navigate, click and back operation.
	NavigationTimeout time.Duration // default: 30s

	// RunTimeout bounds a whole pipeline run. Zero disables it.
	RunTimeout time.Duration // default: 5m

	// BlockedResourceTypes lists resource types the session tab never loads.
	// Images are not blocked by default: only their src attributes are read,
	// but some galleries only reveal the enlarged image once it has loaded.
	BlockedResourceTypes []string // default: ["Font", "Media"]

	// BlockAds drops requests to known ad and tracking domains.
	BlockAds bool // default: true
}

// TargetsConfig holds one URL per scraped page.
type TargetsConfig struct {
	NewsURL           string
	FeaturedImageURL  string
	FactsURL          string
	HemispheresURL    string
	HemisphereBaseURL string
}

// StoreConfig selects the snapshot store.
type StoreConfig struct {
	Driver string // "memory" or "sqlite"; default: "sqlite"
	Path   string // default: "marsscrape.db"
}

// RateLimitConfig controls per-client rate limiting of the scrape routes.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 0.1

	// Burst is the maximum burst size per client.
	Burst int // default: 2
}

// ScheduleConfig controls periodic scraping.
type ScheduleConfig struct {
	// Interval between background runs. Zero disables the scheduler.
	Interval time.Duration
}

// WebhookConfig controls the snapshot notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

const astrogeologyURL = "https://astrogeology.usgs.gov"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("MARS_HOST", "0.0.0.0"),
			Port: envIntOr("MARS_PORT", 8080),
			Mode: envOr("MARS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("MARS_HEADLESS", true),
			Proxy:      os.Getenv("MARS_PROXY"),
			NoSandbox:  envBoolOr("MARS_NO_SANDBOX", false),
			BrowserBin: os.Getenv("MARS_BROWSER_BIN"),
			Stealth:    envBoolOr("MARS_STEALTH", false),
		},
		Scraper: ScraperConfig{
			NavigationTimeout:    envDurationOr("MARS_NAV_TIMEOUT", 30*time.Second),
			RunTimeout:           envDurationOr("MARS_RUN_TIMEOUT", 5*time.Minute),
			BlockedResourceTypes: envSliceOr("MARS_BLOCKED_RESOURCES", []string{"Font", "Media"}),
			BlockAds:             envBoolOr("MARS_BLOCK_ADS", true),
		},
		Targets: TargetsConfig{
			NewsURL:           envOr("MARS_NEWS_URL", "https://mars.nasa.gov/news/"),
			FeaturedImageURL:  envOr("MARS_FEATURED_IMAGE_URL", "https://data-class-jpl-space.s3.amazonaws.com/JPL_Space/index.html"),
			FactsURL:          envOr("MARS_FACTS_URL", "https://space-facts.com/mars/"),
			HemispheresURL:    envOr("MARS_HEMISPHERES_URL", astrogeologyURL+"/search/results?q=hemisphere+enhanced&k1=target&v1=Mars"),
			HemisphereBaseURL: envOr("MARS_HEMISPHERE_BASE_URL", astrogeologyURL),
		},
		Store: StoreConfig{
			Driver: envOr("MARS_STORE_DRIVER", "sqlite"),
			Path:   envOr("MARS_STORE_PATH", "marsscrape.db"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("MARS_RATE_RPS", 0.1),
			Burst:             envIntOr("MARS_RATE_BURST", 2),
		},
		Schedule: ScheduleConfig{
			Interval: envDurationOr("MARS_SCRAPE_INTERVAL", 0),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("MARS_WEBHOOK_URL"),
			Secret: os.Getenv("MARS_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("MARS_LOG_LEVEL", "info"),
			Format: envOr("MARS_LOG_FORMAT", "json"),
		},
	}
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

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
