package snapshot

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/microlims/acqexport/acquisition"
)

func writeAcq(t *testing.T, dims acquisition.Dimensions, width, height int) string {
	t.Helper()

	dims = dims.WithDefaults()
	frames := make([][]uint16, dims.TotalFrames())
	for i := range frames {
		frame := make([]uint16, dims.Channels*width*height)
		for c := 0; c < dims.Channels; c++ {
			for j := 0; j < width*height; j++ {
				frame[c*width*height+j] = uint16(i*100 + c)
			}
		}
		frames[i] = frame
	}

	path := filepath.Join(t.TempDir(), "acq.raw")
	if err := acquisition.WriteRaw(path, dims, width, height, nil, frames); err != nil {
		t.Fatal(err)
	}
	return path
}

func readTIFF(t *testing.T, path string) *image.Gray16 {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray16", img)
	}
	return gray
}

func TestFrameFileName(t *testing.T) {
	if got := FrameFileName(1, 0, 2); got != "channel_1_time_0_z_2.tiff" {
		t.Errorf("FrameFileName = %q", got)
	}
}

func TestExtractLayout(t *testing.T) {
	dims := acquisition.Dimensions{Positions: 2, Timepoints: 3, ZStacks: 5, Channels: 2}
	acqPath := writeAcq(t, dims, 4, 4)
	outDir := t.TempDir()

	r, err := acquisition.OpenRaw(acqPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := Extract(r, outDir, "250301", "AK"); err != nil {
		t.Fatal(err)
	}

	// Middle of 5 z-planes is z=2; timepoints 0 and 2 are representative.
	for p := 0; p < dims.Positions; p++ {
		posDir := filepath.Join(outDir, "250301AK_p000"+string(rune('1'+p)))
		for ch := 0; ch < dims.Channels; ch++ {
			for _, tp := range []int{0, 2} {
				path := filepath.Join(posDir, FrameFileName(ch, tp, 2))
				img := readTIFF(t, path)

				if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
					t.Errorf("%s is %v, want 4x4", path, img.Bounds())
				}

				index := dims.FrameIndex(p, tp, 2)
				want := uint16(index*100 + ch)
				if got := img.Gray16At(0, 0).Y; got != want {
					t.Errorf("%s holds sample %d, want %d", path, got, want)
				}
			}
		}
	}
}

func TestExtractSingleTimepoint(t *testing.T) {
	acqPath := writeAcq(t, acquisition.Dimensions{Positions: 1, Timepoints: 1, ZStacks: 1, Channels: 1}, 2, 2)
	outDir := t.TempDir()

	r, err := acquisition.OpenRaw(acqPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := Extract(r, outDir, "250301", "AK"); err != nil {
		t.Fatal(err)
	}

	posDir := filepath.Join(outDir, "250301AK_p0001")
	entries, err := os.ReadDir(posDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files, want 1 (first timepoint only)", len(entries))
	}
	if entries[0].Name() != "channel_0_time_0_z_0.tiff" {
		t.Errorf("file = %q", entries[0].Name())
	}
}

// truncatedAcq reports more frames than it can serve.
type truncatedAcq struct {
	dims acquisition.Dimensions
}

func (a *truncatedAcq) Sizes() acquisition.Dimensions { return a.dims }

func (a *truncatedAcq) Shape() []int {
	return []int{a.dims.Positions, a.dims.Timepoints, a.dims.ZStacks, a.dims.Channels, 2, 2}
}

func (a *truncatedAcq) UnstructuredMetadata() map[string]interface{} { return nil }

func (a *truncatedAcq) GetFrame(index int) (*acquisition.Frame, error) {
	if index > 0 {
		return nil, acquisition.ErrFrameNotFound
	}
	return &acquisition.Frame{Channels: 1, Width: 2, Height: 2, Pix: []uint16{1, 2, 3, 4}}, nil
}

func (a *truncatedAcq) Close() error { return nil }

func TestExtractSkipsMissingFrames(t *testing.T) {
	outDir := t.TempDir()
	r := &truncatedAcq{dims: acquisition.Dimensions{Positions: 3, Timepoints: 1, ZStacks: 1, Channels: 1}}

	if err := Extract(r, outDir, "250301", "AK"); err != nil {
		t.Fatal(err)
	}

	// Position 0 succeeds; positions 1 and 2 are skipped, their directories
	// left empty rather than aborting the run.
	if _, err := os.Stat(filepath.Join(outDir, "250301AK_p0001", "channel_0_time_0_z_0.tiff")); err != nil {
		t.Errorf("position 0 frame missing: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(outDir, "250301AK_p0002"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("position 1 has %d files, want 0", len(entries))
	}
}
