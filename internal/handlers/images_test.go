package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"conseilweb/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls    []string
	err      error
	status   int
	location string
}

func (f *fakeFetcher) fetch(c *fiber.Ctx, addr string) error {
	f.calls = append(f.calls, addr)
	if f.err != nil {
		return f.err
	}
	if f.status != 0 {
		c.Status(f.status)
	}
	if f.location != "" {
		c.Set(fiber.HeaderLocation, f.location)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.SendString("remote-bytes")
}

func newImageApp(t *testing.T, f *fakeFetcher) (*fiber.App, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0755))
	for name, body := range map[string]string{
		"img/hero.png":   "png-bytes",
		"img/hero.avif":  "avif-bytes",
		"img/logo.png":   "logo-png",
		"img/logo.webp":  "logo-webp",
		"img/logo.avif":  "logo-avif",
		"img/plain.jpeg": "jpeg-bytes",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(body), 0644))
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/_image", Image(policy.Default(), dir, f.fetch))
	return app, dir
}

func getImage(t *testing.T, app *fiber.App, src, accept string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/_image?url="+url.QueryEscape(src), nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestImage_LocalNegotiation(t *testing.T) {
	app, _ := newImageApp(t, &fakeFetcher{})

	cases := []struct {
		name   string
		src    string
		accept string
		body   string
	}{
		{"no accept header serves original", "/img/hero.png", "", "png-bytes"},
		{"jpeg only serves original", "/img/hero.png", "image/jpeg", "png-bytes"},
		{"avif accepted and present", "/img/hero.png", "image/avif,image/jpeg", "avif-bytes"},
		{"webp preferred but missing falls to avif", "/img/hero.png", "image/webp,image/avif", "avif-bytes"},
		{"webp preferred when both exist", "/img/logo.png", "image/avif,image/webp", "logo-webp"},
		{"refused webp is skipped", "/img/logo.png", "image/webp;q=0,image/avif", "logo-avif"},
		{"no variants at all", "/img/plain.jpeg", "image/webp,image/avif", "jpeg-bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := getImage(t, app, tc.src, tc.accept)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tc.body, body)
			assert.Equal(t, "Accept", resp.Header.Get("Vary"))
		})
	}
}

func TestImage_LocalTraversalStaysInStaticDir(t *testing.T) {
	app, dir := newImageApp(t, &fakeFetcher{})
	outside := filepath.Join(filepath.Dir(dir), "secret.png")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))
	t.Cleanup(func() { os.Remove(outside) })

	resp, body := getImage(t, app, "/../secret.png", "")
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "secret")
}

func TestImage_LocalMissing(t *testing.T) {
	app, _ := newImageApp(t, &fakeFetcher{})
	resp, _ := getImage(t, app, "/img/nope.png", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestImage_RemoteAllowList(t *testing.T) {
	f := &fakeFetcher{}
	app, _ := newImageApp(t, f)

	resp, body := getImage(t, app, "https://cdn.conseil-orientation.com/img/a.png", "image/webp")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "remote-bytes", body)
	assert.Equal(t, []string{"https://cdn.conseil-orientation.com/img/a.png"}, f.calls)

	rejected := []string{
		"https://evil.com/a.png",
		"http://conseil-orientation.com/a.png",
		"https://CDN.conseil-orientation.com/a.png",
		"https://user@conseil-orientation.com/a.png",
		"https://conseil-orientation.com:8443/a.png",
		"//conseil-orientation.com/a.png",
		"javascript:alert(1)",
	}
	for _, src := range rejected {
		resp, body := getImage(t, app, src, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, src)
		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(body), &payload), src)
		assert.NotEmpty(t, payload["error"], src)
	}
	assert.Len(t, f.calls, 1, "rejected sources must never be fetched")
}

func TestImage_RemoteFailure(t *testing.T) {
	app, _ := newImageApp(t, &fakeFetcher{err: errors.New("dial tcp: timeout")})
	resp, _ := getImage(t, app, "https://conseil-orientation.com/a.png", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestImage_RemoteNonSuccessStatus(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		location string
	}{
		{"redirect off the allow-list", http.StatusFound, "https://evil.example/x.png"},
		{"not found", http.StatusNotFound, ""},
		{"server error", http.StatusServiceUnavailable, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := newImageApp(t, &fakeFetcher{status: tc.status, location: tc.location})
			resp, body := getImage(t, app, "https://cdn.conseil-orientation.com/a.png", "")
			assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
			assert.Empty(t, resp.Header.Get("Location"))
			assert.NotContains(t, body, "remote-bytes")
		})
	}
}

func TestImage_MissingURL(t *testing.T) {
	app, _ := newImageApp(t, &fakeFetcher{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/_image", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVariantPath(t *testing.T) {
	cases := []struct{ file, format, want string }{
		{"/s/hero.png", "image/webp", "/s/hero.webp"},
		{"/s/hero.tar.png", "image/avif", "/s/hero.tar.avif"},
		{"/s/hero", "image/webp", "/s/hero.webp"},
	}
	for _, tc := range cases {
		if got := variantPath(tc.file, tc.format); got != tc.want {
			t.Errorf("variantPath(%q, %q) = %q, want %q", tc.file, tc.format, got, tc.want)
		}
	}
}
