package qr

import (
	"context"
	"errors"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	u "qr2png/internal/utils"
)

// ErrEmptyContent is returned when a render is attempted without content.
var ErrEmptyContent = errors.New("content is empty")

// Request holds the parameters of one render. Immutable once constructed.
type Request struct {
	Content string
	Size    int
	FgColor string
	BgColor string
	LogoURL string
}

// Renderer builds colorized QR PNG images with optional logo overlays.
type Renderer struct {
	fetcher *LogoFetcher
}

// NewRenderer creates a Renderer whose logo fetches are bounded by logoTimeout.
func NewRenderer(logoTimeout time.Duration) *Renderer {
	return &Renderer{fetcher: NewLogoFetcher(logoTimeout)}
}

// Render runs the full composition pipeline: symbol encoding, color mapping,
// optional logo overlay, PNG encoding. A failed logo fetch or decode degrades
// to a plain QR image; only symbol or PNG encoding errors fail the render.
func (r *Renderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent
	}
	size := req.Size
	if size <= 0 {
		size = 512
	}

	// High recovery so a centered 25% obstruction stays decodable.
	code, err := qrcode.New(req.Content, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("encode symbol: %w", err)
	}

	fg := ParseHexColor(req.FgColor, defaultForeground)
	bg := ParseHexColor(req.BgColor, defaultBackground)
	img := MapColors(code.Bitmap(), size, fg, bg)

	if req.LogoURL != "" {
		logo, err := r.fetcher.Fetch(ctx, req.LogoURL, size)
		if err != nil {
			u.Warn("Logo unavailable, rendering without it", "url", req.LogoURL, "error", err.Error())
		} else {
			OverlayLogo(img, CalcSafeZone(size), logo)
		}
	}

	return EncodePNG(img)
}
