package acquisition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// makeRaw writes a small raw store where every sample in frame i, channel c
// equals i*100 + c, so frames are distinguishable on read-back.
func makeRaw(t *testing.T, dims Dimensions, width, height int) string {
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

	path := filepath.Join(t.TempDir(), "test.acq")
	if err := WriteRaw(path, dims, width, height, map[string]interface{}{"Setup": "35"}, frames); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRawFileRoundTrip(t *testing.T) {
	dims := Dimensions{Positions: 2, Timepoints: 3, ZStacks: 1, Channels: 2}
	path := makeRaw(t, dims, 4, 3)

	r, err := OpenRaw(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got := r.Sizes(); got != dims {
		t.Errorf("Sizes = %+v, want %+v", got, dims)
	}

	wantShape := []int{2, 3, 1, 2, 3, 4}
	shape := r.Shape()
	for i := range wantShape {
		if shape[i] != wantShape[i] {
			t.Errorf("Shape = %v, want %v", shape, wantShape)
			break
		}
	}

	md := r.UnstructuredMetadata()
	if md["Setup"] != "35" {
		t.Errorf("UnstructuredMetadata[Setup] = %v, want 35", md["Setup"])
	}

	frame, err := r.GetFrame(5)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Channels != 2 || frame.Width != 4 || frame.Height != 3 {
		t.Errorf("frame shape = %dx%dx%d", frame.Channels, frame.Width, frame.Height)
	}
	if frame.Pix[0] != 500 {
		t.Errorf("frame 5 channel 0 sample = %d, want 500", frame.Pix[0])
	}
	if frame.Pix[4*3] != 501 {
		t.Errorf("frame 5 channel 1 sample = %d, want 501", frame.Pix[4*3])
	}
}

func TestRawFileGetFrameOutOfRange(t *testing.T) {
	path := makeRaw(t, Dimensions{Positions: 2, Timepoints: 1, ZStacks: 1, Channels: 1}, 2, 2)

	r, err := OpenRaw(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.GetFrame(2); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("GetFrame(2) err = %v, want ErrFrameNotFound", err)
	}
	if _, err := r.GetFrame(-1); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("GetFrame(-1) err = %v, want ErrFrameNotFound", err)
	}
}

func TestOpenRawRejectsNonStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.acq")
	if err := os.WriteFile(path, []byte("not a frame store at all"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenRaw(path); err == nil {
		t.Error("OpenRaw accepted a non-store file")
	}
}

// A file that ends inside the header must fail to open rather than parse
// whatever bytes a short read happened to return.
func TestOpenRawRejectsTruncatedHeader(t *testing.T) {
	content := append([]byte(rawMagic), 0xF4, 0x01, 0, 0) // claims a 500-byte header
	content = append(content, []byte(`{"sizes"`)...)

	path := filepath.Join(t.TempDir(), "truncated.acq")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenRaw(path); err == nil {
		t.Error("OpenRaw accepted a truncated header")
	}
}

func TestOpenRawRejectsTruncatedMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.acq")
	if err := os.WriteFile(path, []byte(rawMagic[:3]), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenRaw(path); err == nil {
		t.Error("OpenRaw accepted a file shorter than the magic")
	}
}

func TestExtractPlaneSelectsChannel(t *testing.T) {
	dims := Dimensions{Positions: 1, Timepoints: 2, ZStacks: 1, Channels: 3}
	path := makeRaw(t, dims, 2, 2)

	r, err := OpenRaw(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	plane, err := ExtractPlane(r, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(plane.Pix) != 4 {
		t.Fatalf("plane has %d samples, want 4", len(plane.Pix))
	}
	if plane.Pix[0] != 102 {
		t.Errorf("plane sample = %d, want 102", plane.Pix[0])
	}
}

func TestExtractPlaneOutOfRange(t *testing.T) {
	dims := Dimensions{Positions: 2, Timepoints: 2, ZStacks: 1, Channels: 1}
	path := makeRaw(t, dims, 2, 2)

	r, err := OpenRaw(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := ExtractPlane(r, 4, 0); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("index past end: err = %v, want ErrFrameNotFound", err)
	}
	if _, err := ExtractPlane(r, 0, 5); err != nil {
		// Single-channel planes ignore the requested channel.
		t.Errorf("single-channel frame with large channel index: %v", err)
	}
}

// stubReader serves a fixed frame regardless of index, standing in for a
// third-party acquisition source.
type stubReader struct {
	dims  Dimensions
	frame *Frame
}

func (s *stubReader) Sizes() Dimensions { return s.dims }

func (s *stubReader) Shape() []int {
	return []int{s.dims.Positions, s.dims.Timepoints, s.dims.ZStacks, s.dims.Channels, s.frame.Height, s.frame.Width}
}

func (s *stubReader) UnstructuredMetadata() map[string]interface{} { return nil }

func (s *stubReader) GetFrame(index int) (*Frame, error) { return s.frame, nil }

func (s *stubReader) Close() error { return nil }

// A source handing back fewer samples than Channels*Width*Height promises
// must surface ErrFrameNotFound, never a slice panic.
func TestExtractPlaneTruncatedFrame(t *testing.T) {
	dims := Dimensions{Positions: 1, Timepoints: 1, ZStacks: 1, Channels: 2}

	r := &stubReader{
		dims:  dims,
		frame: &Frame{Channels: 2, Width: 2, Height: 2, Pix: make([]uint16, 5)}, // want 8
	}
	if _, err := ExtractPlane(r, 0, 1); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("multi-channel truncated frame: err = %v, want ErrFrameNotFound", err)
	}

	r.frame = &Frame{Channels: 1, Width: 2, Height: 2, Pix: make([]uint16, 3)} // want 4
	if _, err := ExtractPlane(r, 0, 0); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("single-channel truncated frame: err = %v, want ErrFrameNotFound", err)
	}
}

func TestPlaneGray16RoundTrip(t *testing.T) {
	p := &Plane{Width: 2, Height: 2, Pix: []uint16{0, 257, 65535, 4242}}

	back := PlaneFromGray16(p.Gray16())
	for i := range p.Pix {
		if back.Pix[i] != p.Pix[i] {
			t.Errorf("sample %d = %d after round trip, want %d", i, back.Pix[i], p.Pix[i])
		}
	}
}
