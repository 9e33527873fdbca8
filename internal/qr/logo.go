package qr

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

// LogoFetcher retrieves remote logo images. Failures are expected and the
// caller degrades to a plain render; nothing here is retried.
type LogoFetcher struct {
	client *http.Client
}

// NewLogoFetcher returns a fetcher whose single attempt is bounded by timeout.
func NewLogoFetcher(timeout time.Duration) *LogoFetcher {
	return &LogoFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the image at rawURL, decodes it and resizes it to a quarter
// of the QR's linear dimension with Lanczos resampling.
func (f *LogoFetcher) Fetch(ctx context.Context, rawURL string, size int) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build logo request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch logo: unexpected status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}

	edge := size / 4
	return imaging.Resize(img, edge, edge, imaging.Lanczos), nil
}
