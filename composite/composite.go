// Package composite assembles per-position snapshot frames into one large
// preview grid per channel, optionally labeled, for quick visual review and
// LIMS attachment.
package composite

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/tiff"
)

// DefaultMaxPerRow bounds how many positions are placed side by side
// before the grid wraps to the next row.
const DefaultMaxPerRow = 10

// ChannelFailure records a channel that could not be composited. These are
// isolated: remaining channels still build.
type ChannelFailure struct {
	Channel string
	Err     error
}

// Composite is one written per-channel output, carrying the channel index it
// was built from. Downstream calibration keys its window points by this
// index, never by filename order.
type Composite struct {
	Channel int
	Name    string
	Path    string
}

// Builder assembles one composite image per channel from the per-position
// directories an upstream extraction stage populated under OutputDir.
type Builder struct {
	// OutputDir holds the position subdirectories and receives the
	// per-channel composite PNGs.
	OutputDir string

	// ChannelNames label the output files, one per channel index.
	ChannelNames []string

	// MiddleZ selects which z-plane marker to collect; snapshot files
	// encode z in their names.
	MiddleZ int

	// MaxPerRow defaults to DefaultMaxPerRow.
	MaxPerRow int
}

// Build writes one 16-bit grayscale PNG per channel and returns the written
// composites along with per-channel failures. A position with no matching
// file is skipped with a log line; a channel with no frames at all, or with
// mismatched frame shapes, is a ChannelFailure. Only the absence of any
// position directory, or a write error, is fatal.
func (b *Builder) Build() ([]Composite, []ChannelFailure, error) {
	positionDirs, err := b.positionDirs()
	if err != nil {
		return nil, nil, err
	}
	if len(positionDirs) == 0 {
		return nil, nil, fmt.Errorf("composite: no position directories found in %s", b.OutputDir)
	}

	maxPerRow := b.MaxPerRow
	if maxPerRow <= 0 {
		maxPerRow = DefaultMaxPerRow
	}

	var written []Composite
	var failures []ChannelFailure

	for channel, name := range b.ChannelNames {
		frames := b.collect(positionDirs, channel)
		if len(frames) == 0 {
			failures = append(failures, ChannelFailure{Channel: name, Err: fmt.Errorf("no frames found for channel %d", channel)})
			continue
		}

		grid, err := AssembleGrid(frames, maxPerRow)
		if err != nil {
			failures = append(failures, ChannelFailure{Channel: name, Err: err})
			continue
		}

		outPath := filepath.Join(b.OutputDir, name+".png")
		if err := writePNG(outPath, grid); err != nil {
			return written, failures, err
		}

		log.Printf("composite: wrote %s (%d positions)", outPath, len(frames))
		written = append(written, Composite{Channel: channel, Name: name, Path: outPath})
	}

	return written, failures, nil
}

// AssembleGrid lays equally-shaped frames into a row-major grid wrapped at
// maxPerRow columns. The first frame's shape is the authoritative cell
// size; a frame with any other shape is an error rather than a silent
// resize.
func AssembleGrid(frames []*image.Gray16, maxPerRow int) (*image.Gray16, error) {
	cell := frames[0].Bounds()
	for i, f := range frames {
		if f.Bounds().Dx() != cell.Dx() || f.Bounds().Dy() != cell.Dy() {
			return nil, fmt.Errorf("frame %d has shape %dx%d, cell is %dx%d",
				i, f.Bounds().Dx(), f.Bounds().Dy(), cell.Dx(), cell.Dy())
		}
	}

	cols := len(frames)
	if cols > maxPerRow {
		cols = maxPerRow
	}
	rows := (len(frames) + cols - 1) / cols

	canvas := image.NewGray16(image.Rect(0, 0, cols*cell.Dx(), rows*cell.Dy()))
	for i, f := range frames {
		x := (i % cols) * cell.Dx()
		y := (i / cols) * cell.Dy()
		dst := image.Rect(x, y, x+cell.Dx(), y+cell.Dy())
		draw.Draw(canvas, dst, f, f.Bounds().Min, draw.Src)
	}

	return canvas, nil
}

func (b *Builder) positionDirs() ([]string, error) {
	entries, err := os.ReadDir(b.OutputDir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(b.OutputDir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// collect finds one representative frame per position: the first file in
// sorted order carrying this channel's marker at the middle z-plane.
func (b *Builder) collect(positionDirs []string, channel int) []*image.Gray16 {
	channelMarker := fmt.Sprintf("channel_%d_", channel)
	zMarker := fmt.Sprintf("_z_%d.", b.MiddleZ)

	var frames []*image.Gray16
	for _, dir := range positionDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Printf("composite: skipping unreadable position directory %s: %v", dir, err)
			continue
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.Contains(e.Name(), channelMarker) && strings.Contains(e.Name(), zMarker) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		if len(names) == 0 {
			log.Printf("composite: no channel %d frames in %s, skipping position", channel, dir)
			continue
		}

		img, err := loadGray16(filepath.Join(dir, names[0]))
		if err != nil {
			log.Printf("composite: skipping %s: %v", filepath.Join(dir, names[0]), err)
			continue
		}
		frames = append(frames, img)
	}

	return frames
}

// loadGray16 decodes a snapshot frame and converts it to 16-bit grayscale
// if the decoder returned another image type.
func loadGray16(path string) (*image.Gray16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	if gray, ok := img.(*image.Gray16); ok {
		return gray, nil
	}

	gray := image.NewGray16(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	return gray, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
