package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conseilweb/internal/config"
	"conseilweb/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	static := t.TempDir()
	downloads := filepath.Join(static, "downloads")
	require.NoError(t, os.MkdirAll(downloads, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(downloads, "conseil-orientation.apk"), []byte("apk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "logo.png"), []byte("png"), 0o644))

	return &config.Config{
		Port:            "3000",
		SiteURL:         "https://conseil-orientation.com",
		StaticDir:       static,
		DownloadsDir:    downloads,
		MetricsEnabled:  true,
		RateLimitPerMin: 0,
	}
}

func do(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	return resp
}

func assertPolicyHeaders(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
}

func TestServer_Pages(t *testing.T) {
	app := New(testConfig(t), policy.Default(), Options{})

	for _, path := range []string{"/", "/about", "/docs", "/download", "/features", "/support"} {
		resp := do(t, app, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"), path)
		assertPolicyHeaders(t, resp)
	}
}

func TestServer_Redirects(t *testing.T) {
	app := New(testConfig(t), policy.Default(), Options{})

	cases := map[string]string{
		"/android":          "https://play.google.com/store/apps/details?id=com.tcd.conseil_orientation",
		"/ios":              "https://apps.apple.com/app/conseil-orientation/id1234567890",
		"/apk":              "/downloads/conseil-orientation.apk",
		"/apk/":             "/downloads/conseil-orientation.apk",
		"/ios?utm_source=x": "https://apps.apple.com/app/conseil-orientation/id1234567890?utm_source=x",
	}
	for path, want := range cases {
		resp := do(t, app, path)
		assert.Equal(t, http.StatusPermanentRedirect, resp.StatusCode, path)
		assert.Equal(t, want, resp.Header.Get("Location"), path)
		assertPolicyHeaders(t, resp)
	}
}

func TestServer_ApkDownloadServed(t *testing.T) {
	app := New(testConfig(t), policy.Default(), Options{})

	resp := do(t, app, "/downloads/conseil-orientation.apk")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "apk", string(body))
	assertPolicyHeaders(t, resp)
}

func TestServer_NotFound(t *testing.T) {
	app := New(testConfig(t), policy.Default(), Options{})

	for _, path := range []string{"/nope", "/downloads/missing.apk", "/android/extra"} {
		resp := do(t, app, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `data-section="NotFound"`, path)
		assertPolicyHeaders(t, resp)
	}
}

func TestServer_ImageRejectionCarriesHeaders(t *testing.T) {
	app := New(testConfig(t), policy.Default(), Options{})

	resp := do(t, app, "/_image?url=https://evil.example/x.png")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assertPolicyHeaders(t, resp)

	resp = do(t, app, "/_image?url=/logo.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assertPolicyHeaders(t, resp)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	app := New(testConfig(t), policy.Default(), Options{})

	resp := do(t, app, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assertPolicyHeaders(t, resp)

	do(t, app, "/android")
	resp = do(t, app, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `conseilweb_redirects_total{source="/android",status="308"}`)
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = false
	app := New(cfg, policy.Default(), Options{})

	resp := do(t, app, "/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitPerMin = 2
	app := New(cfg, policy.Default(), Options{})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, app, "/about").StatusCode)
	}
	resp := do(t, app, "/about")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assertPolicyHeaders(t, resp)

	assert.Equal(t, http.StatusOK, do(t, app, "/healthz").StatusCode)
}

func TestServer_SitemapAndRobots(t *testing.T) {
	app := New(testConfig(t), policy.Default(), Options{})

	resp := do(t, app, "/sitemap.xml")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<loc>https://conseil-orientation.com/docs</loc>")

	resp = do(t, app, "/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":3000", Addr(&config.Config{Port: "3000"}))
	assert.Equal(t, "127.0.0.1:8080", Addr(&config.Config{Port: "127.0.0.1:8080"}))
}
