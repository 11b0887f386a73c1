package batch

import (
	"bufio"
	"image"
	"image/png"
	"os"
)

// ImageWriter writes one 8-bit grayscale plane losslessly to disk with a
// compression degree on the 0 (none) to 9 (maximum) scale. The codec itself
// is a collaborator; the batch stage only hands it pixels and a path.
type ImageWriter interface {
	WriteGray(path string, img *image.Gray, level int) error
}

// PNGWriter is the default ImageWriter. The png encoder exposes a coarser
// set of levels than the 0-9 scale, so degrees are bucketed.
type PNGWriter struct{}

func (PNGWriter) WriteGray(path string, img *image.Gray, level int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := png.Encoder{CompressionLevel: pngCompression(level)}
	if err := enc.Encode(w, img); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func pngCompression(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
