package composite

import (
	"image"
	"log"

	"github.com/fogleman/gg"

	"github.com/microlims/acqexport/acquisition"
	"github.com/microlims/acqexport/windowing"
)

// LabelFile loads a written composite, overlays the given labels, and saves
// the labeled copy back over the original.
func LabelFile(path string, rowLabels, colLabels []string, fontPath string, fontSize float64) error {
	img, err := loadGray16(path)
	if err != nil {
		return err
	}

	labeled := DrawLabels(img, rowLabels, colLabels, fontPath, fontSize)
	return writePNG(path, labeled)
}

const labelMargin = 10

// DrawLabels overlays row labels down the left edge and column labels along
// the top of a composite. The copy it draws on is scaled to full 16-bit
// range by the image's own maximum, not by any calibrated window. fontPath
// may be empty, in which case the built-in bitmap face is used.
func DrawLabels(img *image.Gray16, rowLabels, colLabels []string, fontPath string, fontSize float64) image.Image {
	plane := acquisition.PlaneFromGray16(img)
	plane.Pix = windowing.NormalizeByMax(plane.Pix)

	ctx := gg.NewContextForImage(plane.Gray16())
	ctx.SetRGB(1, 1, 1)

	if fontPath != "" {
		if err := ctx.LoadFontFace(fontPath, fontSize); err != nil {
			log.Printf("composite: could not load font %s, using built-in face: %v", fontPath, err)
		}
	}

	h := float64(img.Bounds().Dy())
	w := float64(img.Bounds().Dx())

	for i, label := range rowLabels {
		y := labelMargin + float64(i)*(h-labelMargin)/float64(len(rowLabels))
		ctx.DrawString(label, labelMargin, y+labelMargin)
	}

	for i, label := range colLabels {
		x := labelMargin + float64(i)*(w-labelMargin)/float64(len(colLabels))
		ctx.DrawString(label, x, labelMargin)
	}

	return ctx.Image()
}
