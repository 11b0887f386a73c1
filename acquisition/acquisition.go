package acquisition

import (
	"errors"
	"fmt"
	"image"
)

// ErrFrameNotFound marks a non-fatal per-frame failure: the requested index
// is outside the acquisition's frame sequence, or the source yielded an
// empty frame. Batch callers record it and move on.
var ErrFrameNotFound = errors.New("acquisition: frame not found")

// Reader is the narrow interface the pipeline consumes from an open
// acquisition file. Implementations are not assumed safe for concurrent
// use; concurrent workers each open their own Reader.
type Reader interface {
	// Sizes returns the validated axis extents.
	Sizes() Dimensions

	// Shape returns the full array shape as [P, T, Z, C, height, width].
	Shape() []int

	// UnstructuredMetadata returns the nested key/value metadata recorded
	// by the microscope, if any.
	UnstructuredMetadata() map[string]interface{}

	// GetFrame retrieves the raw multi-channel frame at the given linear
	// index. It returns ErrFrameNotFound for an out-of-range index.
	GetFrame(index int) (*Frame, error)

	Close() error
}

// Frame is one raw sample plane with all channels stacked along the leading
// axis. Pix is channel-major, then row-major, one uint16 per sample.
type Frame struct {
	Channels int
	Width    int
	Height   int
	Pix      []uint16
}

// Plane is one single-channel 2D sample plane.
type Plane struct {
	Width  int
	Height int
	Pix    []uint16
}

// Gray16 converts the plane to an image.Gray16 (which stores big-endian
// sample pairs) for encoding.
func (p *Plane) Gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for i, v := range p.Pix {
		img.Pix[2*i] = uint8(v >> 8)
		img.Pix[2*i+1] = uint8(v)
	}
	return img
}

// PlaneFromGray16 is the inverse of Plane.Gray16.
func PlaneFromGray16(img *image.Gray16) *Plane {
	b := img.Bounds()
	p := &Plane{Width: b.Dx(), Height: b.Dy(), Pix: make([]uint16, b.Dx()*b.Dy())}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.Pix[i] = img.Gray16At(x, y).Y
			i++
		}
	}
	return p
}

// ExtractPlane retrieves the frame at the given linear index and selects one
// channel from it. A multi-channel frame is sliced along its leading axis;
// a single-channel frame is returned as-is regardless of the requested
// channel. Out-of-range indices and empty frames surface as
// ErrFrameNotFound so that a batch can record the failure and continue.
func ExtractPlane(r Reader, index, channel int) (*Plane, error) {
	dims := r.Sizes()
	if index < 0 || index >= dims.TotalFrames() {
		return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrFrameNotFound, index, dims.TotalFrames())
	}

	frame, err := r.GetFrame(index)
	if err != nil {
		return nil, err
	}
	if frame == nil || len(frame.Pix) == 0 {
		return nil, fmt.Errorf("%w: empty frame at index %d", ErrFrameNotFound, index)
	}

	planeSize := frame.Width * frame.Height
	channels := frame.Channels
	if channels < 1 {
		channels = 1
	}
	if len(frame.Pix) < channels*planeSize {
		return nil, fmt.Errorf("%w: truncated frame at index %d: %d samples, want %d",
			ErrFrameNotFound, index, len(frame.Pix), channels*planeSize)
	}

	if frame.Channels <= 1 {
		return &Plane{Width: frame.Width, Height: frame.Height, Pix: frame.Pix[:planeSize]}, nil
	}

	if channel < 0 || channel >= frame.Channels {
		return nil, fmt.Errorf("%w: channel %d out of range [0, %d)", ErrFrameNotFound, channel, frame.Channels)
	}

	return &Plane{
		Width:  frame.Width,
		Height: frame.Height,
		Pix:    frame.Pix[channel*planeSize : (channel+1)*planeSize],
	}, nil
}
