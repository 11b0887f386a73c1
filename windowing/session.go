package windowing

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/carbocation/pfx"
)

// Calibrator produces a finalized window point for one channel, given that
// channel's representative 16-bit image. Interactive implementations block
// until the user commits; the adjustment loop inside may pass through any
// number of invalid (Min >= Max) candidates, which are a display state, not
// an error.
type Calibrator interface {
	Calibrate(name string, img *image.Gray16) (Point, error)
}

// Preview renders the 8-bit display image for a candidate point during
// calibration. An invalid candidate shows the unwindowed image, shifted
// down to 8 bits, so the adjustment loop keeps drawing instead of failing.
func Preview(img *image.Gray16, candidate Point) *image.Gray {
	pix := gray16Samples(img)
	out := image.NewGray(img.Bounds())

	if !candidate.Valid() {
		for i, v := range pix {
			out.Pix[i] = uint8(v >> 8)
		}
		return out
	}

	copy(out.Pix, Apply8(pix, candidate))
	return out
}

// RunSession runs one blocking calibration pass over per-channel composite
// images and returns the committed store. images maps each channel index to
// its composite path; the store key comes from that index, never from
// filename order, so channel names that sort differently from their indices
// (or stray files next to the composites) cannot cross-wire the points.
// A calibrator that commits an invalid point gets the full-range fallback
// rather than a rejected store. The images must be 16-bit grayscale PNGs.
func RunSession(images map[int]string, cal Calibrator) (Store, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("windowing: no channel images to calibrate")
	}

	channels := make([]int, 0, len(images))
	for ch := range images {
		channels = append(channels, ch)
	}
	sort.Ints(channels)

	store := make(Store)
	for _, channel := range channels {
		path := images[channel]
		img, err := loadGray16PNG(path)
		if err != nil {
			return nil, err
		}

		name := filepath.Base(path)
		p, err := cal.Calibrate(name, img)
		if err != nil {
			return nil, err
		}
		if !p.Valid() {
			log.Printf("windowing: %s committed invalid point Min=%d Max=%d, using full range", name, p.Min, p.Max)
			p = FullRange
		}

		store[ChannelKey(channel)] = p
	}

	return store, nil
}

// AutoCalibrator implements Calibrator non-interactively by placing the
// window at intensity quantiles of the channel image.
type AutoCalibrator struct {
	LowQuantile  float64
	HighQuantile float64
}

func (a AutoCalibrator) Calibrate(name string, img *image.Gray16) (Point, error) {
	p := Suggest(gray16Samples(img), a.LowQuantile, a.HighQuantile)
	log.Printf("windowing: auto-calibrated %s to Min=%d Max=%d", name, p.Min, p.Max)
	return p, nil
}

func loadGray16PNG(path string) (*image.Gray16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, pfx.Err(err)
	}

	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("windowing: %s must be 16-bit grayscale, got %T", path, img)
	}

	return gray, nil
}

func gray16Samples(img *image.Gray16) []uint16 {
	out := make([]uint16, len(img.Pix)/2)
	for i := range out {
		out[i] = uint16(img.Pix[2*i])<<8 | uint16(img.Pix[2*i+1])
	}
	return out
}
