package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// EncodePNG serializes a composed pixel buffer to PNG bytes. Unlike color and
// logo failures, an encoder error is fatal to the request.
func EncodePNG(img image.Image) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}
