// Package windowing rescales raw 16-bit microscope intensities for display
// and export using per-channel black/white points, and persists those points
// between the calibration and conversion stages.
package windowing

// Point holds the black (Min) and white (Max) intensity bounds for one
// channel. A point is valid only when Min < Max; consumers fall back to the
// full range otherwise.
type Point struct {
	Min uint16 `json:"Min"`
	Max uint16 `json:"Max"`
}

// FullRange is the default window covering the whole 16-bit intensity range.
var FullRange = Point{Min: 0, Max: 65535}

// Valid reports whether the point describes a usable window.
func (p Point) Valid() bool { return p.Min < p.Max }

// Apply8 clips every sample to [Min, Max] and rescales affinely so that
// Min maps to 0 and Max to 255, truncating toward zero. An invalid point
// (Min >= Max) yields an all-zero output of the same length.
func Apply8(pix []uint16, p Point) []uint8 {
	out := make([]uint8, len(pix))
	if !p.Valid() {
		return out
	}

	scale := 255.0 / maxf(1, float64(p.Max)-float64(p.Min))
	for i, v := range pix {
		out[i] = uint8(float64(clip(v, p.Min, p.Max)-p.Min) * scale)
	}
	return out
}

// Apply16 is Apply8 with a 16-bit target range, used by preview paths that
// keep full depth.
func Apply16(pix []uint16, p Point) []uint16 {
	out := make([]uint16, len(pix))
	if !p.Valid() {
		return out
	}

	scale := 65535.0 / maxf(1, float64(p.Max)-float64(p.Min))
	for i, v := range pix {
		out[i] = uint16(float64(clip(v, p.Min, p.Max)-p.Min) * scale)
	}
	return out
}

// NormalizeByMax scales samples to the full 16-bit range using the image's
// own maximum. This is the display scaling used when labeling composites;
// it is deliberately not windowed.
func NormalizeByMax(pix []uint16) []uint16 {
	out := make([]uint16, len(pix))

	var max uint16
	for _, v := range pix {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return out
	}

	for i, v := range pix {
		out[i] = uint16(float64(v) / float64(max) * 65535)
	}
	return out
}

func clip(v, lo, hi uint16) uint16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
