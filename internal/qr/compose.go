package qr

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// backdropMargin is the white padding around the safe zone so the logo never
// touches colored modules directly.
const backdropMargin = 4

// OverlayLogo composites logo into the safe zone of dst, in place. The logo
// is resized to exactly fill the zone, an opaque white backdrop is painted
// over the zone plus margin, then every non-transparent logo pixel is
// alpha-blended on top. All writes are clamped to the buffer bounds.
func OverlayLogo(dst *image.RGBA, zone SafeZone, logo image.Image) {
	if zone.W <= 0 || zone.H <= 0 {
		return
	}

	fitted := imaging.Resize(logo, zone.W, zone.H, imaging.Lanczos)

	bounds := dst.Bounds()
	white := color.RGBA{255, 255, 255, 255}
	for y := zone.Y - backdropMargin; y < zone.Y+zone.H+backdropMargin; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := zone.X - backdropMargin; x < zone.X+zone.W+backdropMargin; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dst.SetRGBA(x, y, white)
		}
	}

	for y := 0; y < zone.H; y++ {
		ty := zone.Y + y
		if ty < bounds.Min.Y || ty >= bounds.Max.Y {
			continue
		}
		for x := 0; x < zone.W; x++ {
			tx := zone.X + x
			if tx < bounds.Min.X || tx >= bounds.Max.X {
				continue
			}
			px := fitted.NRGBAAt(x, y)
			if px.A == 0 {
				continue
			}
			a := float64(px.A) / 255.0
			existing := dst.RGBAAt(tx, ty)
			dst.SetRGBA(tx, ty, color.RGBA{
				R: blendChannel(existing.R, px.R, a),
				G: blendChannel(existing.G, px.G, a),
				B: blendChannel(existing.B, px.B, a),
				A: 255,
			})
		}
	}
}

func blendChannel(existing, overlay uint8, a float64) uint8 {
	return uint8(math.Round((1-a)*float64(existing) + a*float64(overlay)))
}
