package windowing

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Suggest derives a window point from the intensity distribution of a
// representative image, placing the black point at the loQ quantile and the
// white point at the hiQ quantile. It stands in for interactive calibration
// on headless runs. A degenerate distribution falls back to FullRange.
func Suggest(pix []uint16, loQ, hiQ float64) Point {
	if len(pix) == 0 || loQ < 0 || hiQ > 1 || loQ >= hiQ {
		return FullRange
	}

	sorted := make([]float64, len(pix))
	for i, v := range pix {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	p := Point{
		Min: uint16(stat.Quantile(loQ, stat.Empirical, sorted, nil)),
		Max: uint16(stat.Quantile(hiQ, stat.Empirical, sorted, nil)),
	}
	if !p.Valid() {
		return FullRange
	}
	return p
}
