package handlers

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"qr2png/internal/cache"
	u "qr2png/internal/utils"
)

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

func testConfig() u.Config {
	var cfg u.Config
	cfg.Render.DefaultSize = 512
	cfg.Render.MinSize = 64
	cfg.Render.MaxSize = 2048
	cfg.Render.MaxContentBytes = 2048
	cfg.Render.LogoTimeout = 2 * time.Second
	return cfg
}

func newTestApp(t *testing.T) (*fiber.App, *cache.Memory) {
	t.Helper()
	store := cache.NewMemory(time.Hour, 30*time.Minute, 1000)
	svc := NewQRService(testConfig(), store)

	app := fiber.New()
	app.Get("/v1/qr", svc.HandleRender)
	app.Get("/v1/cache/stats", svc.HandleCacheStats)
	return app, store
}

func doRequest(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}

func TestHandleRenderMissingContent(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doRequest(t, app, "/v1/qr")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleRenderSuccess(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doRequest(t, app, "/v1/qr?content=hello&size=128")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	cfg, err := png.DecodeConfig(bytesReader(body))
	require.NoError(t, err)
	require.Equal(t, 128, cfg.Width)
	require.Equal(t, 128, cfg.Height)
}

func TestHandleRenderSizeClamped(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doRequest(t, app, "/v1/qr?content=hello&size=10")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	cfg, err := png.DecodeConfig(bytesReader(body))
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Width, "undersized requests are clamped to the minimum")
}

func TestHandleRenderInvalidSize(t *testing.T) {
	app, _ := newTestApp(t)

	for _, size := range []string{"abc", "0", "-5"} {
		resp, _ := doRequest(t, app, "/v1/qr?content=hello&size="+size)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "size=%s", size)
	}
}

func TestHandleRenderOversizedContent(t *testing.T) {
	app, _ := newTestApp(t)

	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'a'
	}
	resp, _ := doRequest(t, app, "/v1/qr?content="+string(long))
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestHandleRenderServesCachedBytes(t *testing.T) {
	app, store := newTestApp(t)

	_, first := doRequest(t, app, "/v1/qr?content=hello&size=128")
	resp, second := doRequest(t, app, "/v1/qr?content=hello&size=128")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, first, second)
	require.Equal(t, uint64(1), store.Stats().Hits, "second request must be a cache hit")
}

func TestHandleRenderLogoFailureSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	app, _ := newTestApp(t)
	resp, body := doRequest(t, app, "/v1/qr?content=hello&size=128&logo_url="+url.QueryEscape(srv.URL))

	require.Equal(t, fiber.StatusOK, resp.StatusCode, "logo failure must not fail the request")
	_, err := png.DecodeConfig(bytesReader(body))
	require.NoError(t, err)
}

func TestHandleRenderInvalidLogoURLDropped(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doRequest(t, app, "/v1/qr?content=hello&size=128&logo_url="+url.QueryEscape("ftp://example.com/x"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestFingerprintIgnoresLogoURL(t *testing.T) {
	base := QRRequestParams{Content: "hello", Size: 256, FgColor: "#FF0000", BgColor: "#00FF00"}

	withLogo := base
	withLogo.LogoURL = "https://example.com/logo.png"
	otherLogo := base
	otherLogo.LogoURL = "https://example.org/other.png"

	// Intentional, documented behavior: the logo URL is not part of the
	// fingerprint, so a logo request can be served a cached plain render.
	require.Equal(t, computeCacheKey(&base), computeCacheKey(&withLogo))
	require.Equal(t, computeCacheKey(&withLogo), computeCacheKey(&otherLogo))
}

func TestFingerprintVariesWithParams(t *testing.T) {
	base := QRRequestParams{Content: "hello", Size: 256}

	variants := []QRRequestParams{
		{Content: "other", Size: 256},
		{Content: "hello", Size: 512},
		{Content: "hello", Size: 256, FgColor: "#FF0000"},
		{Content: "hello", Size: 256, BgColor: "#00FF00"},
	}
	for _, v := range variants {
		v := v
		require.NotEqual(t, computeCacheKey(&base), computeCacheKey(&v), "%+v", v)
	}
}

func TestHandleCacheStats(t *testing.T) {
	app, _ := newTestApp(t)

	doRequest(t, app, "/v1/qr?content=hello&size=128")
	resp, body := doRequest(t, app, "/v1/cache/stats")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"backend":"memory"`)
	require.Contains(t, string(body), `"entries":1`)
}
