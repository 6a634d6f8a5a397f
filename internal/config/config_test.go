package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_PORT", "NEXT_PUBLIC_SITE_URL", "SITE_URL", "NEXT_PUBLIC_GA_ID", "GA_ID",
	"NEXT_PUBLIC_GTM_ID", "GTM_ID", "POLICY_FILE", "STATIC_DIR", "DOWNLOADS_DIR",
	"METRICS_ENABLED", "RATE_LIMIT_PER_MIN", "LOG_LEVEL",
}

// isolate runs the test from an empty directory with every config variable
// unset, so neither a stray .env nor the CI environment leaks in.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.SiteURL)
	assert.Empty(t, cfg.GAID)
	assert.Empty(t, cfg.GTMID)
	assert.Empty(t, cfg.PolicyFile)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_PublicNamesWin(t *testing.T) {
	isolate(t)
	t.Setenv("NEXT_PUBLIC_SITE_URL", "https://conseil-orientation.com/")
	t.Setenv("SITE_URL", "https://ignored.example")
	t.Setenv("NEXT_PUBLIC_GA_ID", "G-ABC123")
	t.Setenv("GTM_ID", "GTM-XYZ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://conseil-orientation.com", cfg.SiteURL)
	assert.Equal(t, "G-ABC123", cfg.GAID)
	assert.Equal(t, "GTM-XYZ", cfg.GTMID)
}

func TestLoad_RejectsRelativeSiteURL(t *testing.T) {
	isolate(t)
	for _, bad := range []string{"conseil-orientation.com", "ftp://conseil-orientation.com", "/"} {
		t.Setenv("NEXT_PUBLIC_SITE_URL", bad)
		_, err := Load()
		assert.Error(t, err, "site url %q", bad)
	}
}

func TestLoad_RejectsNegativeRateLimit(t *testing.T) {
	isolate(t)
	t.Setenv("RATE_LIMIT_PER_MIN", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolate(t)
	dir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_PORT=8081\nMETRICS_ENABLED=true\n"), 0600))
	t.Cleanup(func() {
		os.Unsetenv("APP_PORT")
		os.Unsetenv("METRICS_ENABLED")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.MetricsEnabled)
}
