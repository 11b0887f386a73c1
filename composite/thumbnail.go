package composite

import (
	"strings"

	"github.com/disintegration/imaging"
)

// Thumbnail writes a downscaled 8-bit copy of a composite next to the
// original, for use as a lightweight LIMS attachment preview. It returns
// the thumbnail path. Width is capped at maxWidth; height follows the
// aspect ratio.
func Thumbnail(path string, maxWidth int) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	outPath := strings.TrimSuffix(path, ".png") + "_thumb.png"
	if err := imaging.Save(img, outPath); err != nil {
		return "", err
	}

	return outPath, nil
}
