package qr

import (
	"image"
	"image/color"
	"strconv"
)

var (
	defaultForeground = color.RGBA{0, 0, 0, 255}
	defaultBackground = color.RGBA{255, 255, 255, 255}
)

// ParseHexColor parses a "#RRGGBB" string into an opaque color. Anything that
// is not exactly seven characters of #-prefixed hex returns the fallback; a
// bad color never fails a render.
func ParseHexColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

// MapColors rasterizes a monochrome module bitmap into a size x size RGBA
// buffer, painting set modules with fg and clear modules with bg. Each image
// pixel maps to the nearest module. Output pixels are always fully opaque.
func MapColors(bitmap [][]bool, size int, fg, bg color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	modules := len(bitmap)
	if modules == 0 {
		return img
	}

	modulesPerPixel := float64(modules) / float64(size)
	for y := 0; y < size; y++ {
		my := int(float64(y) * modulesPerPixel)
		for x := 0; x < size; x++ {
			mx := int(float64(x) * modulesPerPixel)
			if bitmap[my][mx] {
				img.SetRGBA(x, y, fg)
			} else {
				img.SetRGBA(x, y, bg)
			}
		}
	}
	return img
}
