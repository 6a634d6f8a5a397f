package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultSiteURL = "http://localhost:3000"

type Config struct {
	Port            string
	SiteURL         string
	GAID            string
	GTMID           string
	PolicyFile      string
	StaticDir       string
	DownloadsDir    string
	MetricsEnabled  bool
	RateLimitPerMin int
	LogLevel        string
}

// Load reads the process environment once, after merging an optional .env
// file. The NEXT_PUBLIC_* names are kept for compatibility with existing
// deployments; the short names are accepted as fallbacks.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("APP_PORT", "3000"),
		SiteURL:         getEnvAny([]string{"NEXT_PUBLIC_SITE_URL", "SITE_URL"}, DefaultSiteURL),
		GAID:            getEnvAny([]string{"NEXT_PUBLIC_GA_ID", "GA_ID"}, ""),
		GTMID:           getEnvAny([]string{"NEXT_PUBLIC_GTM_ID", "GTM_ID"}, ""),
		PolicyFile:      getEnv("POLICY_FILE", ""),
		StaticDir:       getEnv("STATIC_DIR", "./public"),
		DownloadsDir:    getEnv("DOWNLOADS_DIR", "./public/downloads"),
		MetricsEnabled:  getEnv("METRICS_ENABLED", "false") == "true",
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 120),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	siteURL, err := normalizeSiteURL(cfg.SiteURL)
	if err != nil {
		return nil, err
	}
	cfg.SiteURL = siteURL

	if cfg.RateLimitPerMin < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MIN must not be negative, got %d", cfg.RateLimitPerMin)
	}

	return cfg, nil
}

// normalizeSiteURL checks that raw is an absolute http(s) URL and trims
// trailing slashes so paths can be appended directly.
func normalizeSiteURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid NEXT_PUBLIC_SITE_URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("NEXT_PUBLIC_SITE_URL must be an absolute http(s) URL, got %q", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvAny(keys []string, fallback string) string {
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
