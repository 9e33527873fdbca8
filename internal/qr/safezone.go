package qr

// SafeZone is the centered square region of a QR image reserved for a logo
// overlay. A 25% linear footprint stays within the damage tolerance of the
// High error correction level used by the renderer.
type SafeZone struct {
	X, Y int
	W, H int
}

// CalcSafeZone returns the safe zone for a size x size image:
// a centered square with edge size/4.
func CalcSafeZone(size int) SafeZone {
	edge := size / 4
	return SafeZone{
		X: (size - edge) / 2,
		Y: (size - edge) / 2,
		W: edge,
		H: edge,
	}
}
