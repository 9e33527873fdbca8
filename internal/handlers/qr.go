package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	neturl "net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"qr2png/internal/cache"
	"qr2png/internal/qr"
	u "qr2png/internal/utils"
)

// QRRequestParams holds validated input parameters.
type QRRequestParams struct {
	Content string
	Size    int
	FgColor string
	BgColor string
	LogoURL string
}

// QRService bundles configuration and dependencies for QR rendering.
type QRService struct {
	Config   *u.Config
	Cache    cache.Store
	Renderer *qr.Renderer
}

// NewQRService creates a new QRService instance.
func NewQRService(cfg u.Config, store cache.Store) *QRService {
	return &QRService{
		Config:   &cfg, // convert value to pointer
		Cache:    store,
		Renderer: qr.NewRenderer(cfg.Render.LogoTimeout),
	}
}

// HandleRender generates a QR PNG or serves a cached copy.
func (svc *QRService) HandleRender(c *fiber.Ctx) error {
	params, err := validateAndExtractQRParams(c, *svc.Config)
	if err != nil {
		return err
	}
	return svc.processRender(c, params)
}

// processRender handles caching and image generation.
func (svc *QRService) processRender(c *fiber.Ctx, params *QRRequestParams) error {
	cacheKey := computeCacheKey(params)

	if svc.Cache != nil {
		if cached, ok := svc.Cache.Get(cacheKey); ok {
			u.Info("QR cache hit", "key", cacheKey)
			c.Set("Content-Type", "image/png")
			return c.Send(cached)
		}
	}

	data, err := svc.Renderer.Render(c.Context(), qr.Request{
		Content: params.Content,
		Size:    params.Size,
		FgColor: params.FgColor,
		BgColor: params.BgColor,
		LogoURL: params.LogoURL,
	})
	if err != nil {
		u.Error("QR generation failed", "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, "QR generation failed")
	}

	if svc.Cache != nil {
		svc.Cache.Set(cacheKey, data)
	}

	requestID := c.Get("X-Request-ID")
	u.Info("QR generated", "size", params.Size, "bytes", len(data), "request_id", requestID)

	c.Set("Content-Type", "image/png")
	return c.Send(data)
}

// validateAndExtractQRParams validates and parses input parameters from the
// HTTP request. Only missing or oversized content is a hard error; size is
// clamped into range and a malformed logo URL is dropped, matching the
// soft-failure policy of the pipeline itself.
func validateAndExtractQRParams(c *fiber.Ctx, cfg u.Config) (*QRRequestParams, error) {
	content := c.Query("content")
	if content == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid content: missing")
	}
	if len(content) > cfg.Render.MaxContentBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("Content exceeds %d bytes", cfg.Render.MaxContentBytes))
	}

	size := cfg.Render.DefaultSize
	if sizeStr := c.Query("size"); sizeStr != "" {
		n, err := strconv.Atoi(sizeStr)
		if err != nil || n <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid size: must be a positive integer")
		}
		size = n
	}
	if size < cfg.Render.MinSize {
		size = cfg.Render.MinSize
	}
	if size > cfg.Render.MaxSize {
		size = cfg.Render.MaxSize
	}

	logoURL := c.Query("logo_url")
	if logoURL != "" {
		parsed, err := neturl.ParseRequestURI(logoURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			u.Warn("Dropping invalid logo URL", "logo_url", logoURL)
			logoURL = ""
		}
	}

	return &QRRequestParams{
		Content: content,
		Size:    size,
		FgColor: c.Query("fg_color"),
		BgColor: c.Query("bg_color"),
		LogoURL: logoURL,
	}, nil
}

// computeCacheKey creates a SHA256-based fingerprint from the request
// parameters. LogoURL is deliberately not part of the key: a later request
// with a logo but otherwise identical parameters is served the cached plain
// render. See DESIGN.md.
func computeCacheKey(params *QRRequestParams) string {
	h := sha256.New()
	h.Write([]byte(params.Content))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(params.Size)))
	h.Write([]byte{0})
	h.Write([]byte(params.FgColor))
	h.Write([]byte{0})
	h.Write([]byte(params.BgColor))
	return "qrcache:" + hex.EncodeToString(h.Sum(nil))
}

// HandleCacheStats exposes basic observability for the fingerprint cache.
func (svc *QRService) HandleCacheStats(c *fiber.Ctx) error {
	if mem, ok := svc.Cache.(*cache.Memory); ok {
		s := mem.Stats()
		return c.JSON(fiber.Map{
			"backend":   "memory",
			"entries":   s.Entries,
			"hits":      s.Hits,
			"misses":    s.Misses,
			"evictions": s.Evictions,
		})
	}
	return c.JSON(fiber.Map{
		"backend": svc.Config.Cache.Backend,
	})
}
