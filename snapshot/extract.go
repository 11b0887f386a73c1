// Package snapshot extracts representative raw frames from an acquisition
// into per-position directories of 16-bit TIFFs: the middle z-plane at the
// first and last timepoints, for every channel. The composite stage reads
// this layout.
package snapshot

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"github.com/microlims/acqexport/acquisition"
	"github.com/microlims/acqexport/batch"
)

// FrameFileName names one snapshot file. The channel marker and the z
// marker are parsed back by the composite stage, so the layout is a
// contract.
func FrameFileName(channel, time, z int) string {
	return fmt.Sprintf("channel_%d_time_%d_z_%d.tiff", channel, time, z)
}

// Extract writes the representative frames for every position under
// outDir, one subdirectory per position. Out-of-range indices and empty
// frames are logged and skipped; directory creation and write failures are
// fatal.
func Extract(r acquisition.Reader, outDir, date, initials string) error {
	dims := r.Sizes()
	z := dims.MiddleZ()

	times := []int{0}
	if dims.Timepoints > 1 {
		times = append(times, dims.Timepoints-1)
	}

	log.Printf("snapshot: extracting z=%d at timepoints %v for %d positions", z, times, dims.Positions)

	for p := 0; p < dims.Positions; p++ {
		posDir := filepath.Join(outDir, batch.PositionDirName(date, initials, p))
		if err := os.MkdirAll(posDir, os.ModePerm); err != nil {
			return err
		}

		for ch := 0; ch < dims.Channels; ch++ {
			for _, t := range times {
				index := dims.FrameIndex(p, t, z)

				plane, err := acquisition.ExtractPlane(r, index, ch)
				if err != nil {
					log.Printf("snapshot: skipping P=%d, T=%d, Z=%d, C=%d: %v", p, t, z, ch, err)
					continue
				}

				if err := writeTIFF(filepath.Join(posDir, FrameFileName(ch, t, z)), plane); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func writeTIFF(path string, plane *acquisition.Plane) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := tiff.Encode(w, plane.Gray16(), nil); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
