package acquisition

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/carbocation/pfx"
)

// rawMagic opens every raw frame-store file. The store is the minimal
// indexable form of an acquisition: a JSON header followed by the flat
// frame sequence, each frame C*H*W little-endian uint16 samples.
const rawMagic = "ACQRAW1\n"

type rawHeader struct {
	Sizes    Dimensions             `json:"sizes"`
	Width    int                    `json:"width"`
	Height   int                    `json:"height"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RawFile reads a raw frame-store file. It keeps the file handle open for
// the lifetime of the reader and is not safe for concurrent use.
type RawFile struct {
	f         *os.File
	header    rawHeader
	dataStart int64
	frameSize int64 // bytes per frame
}

// OpenRaw opens a raw frame-store file and validates its header.
func OpenRaw(path string) (*RawFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	magic := make([]byte, len(rawMagic))
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != rawMagic {
		f.Close()
		return nil, fmt.Errorf("acquisition: %s is not a raw frame store", path)
	}

	var headerLen uint32
	if err := binary.Read(f, binary.LittleEndian, &headerLen); err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(f, headerBytes); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquisition: truncated raw header in %s: %w", path, err)
	}

	r := &RawFile{f: f}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquisition: malformed raw header in %s: %w", path, err)
	}

	r.header.Sizes = r.header.Sizes.WithDefaults()
	if err := r.header.Sizes.Validate(); err != nil {
		f.Close()
		return nil, err
	}
	if r.header.Width < 1 || r.header.Height < 1 {
		f.Close()
		return nil, fmt.Errorf("acquisition: invalid frame shape %dx%d in %s", r.header.Width, r.header.Height, path)
	}

	r.dataStart = int64(len(rawMagic)) + 4 + int64(headerLen)
	r.frameSize = int64(r.header.Sizes.Channels) * int64(r.header.Width) * int64(r.header.Height) * 2

	return r, nil
}

func (r *RawFile) Sizes() Dimensions { return r.header.Sizes }

func (r *RawFile) Shape() []int {
	d := r.header.Sizes
	return []int{d.Positions, d.Timepoints, d.ZStacks, d.Channels, r.header.Height, r.header.Width}
}

func (r *RawFile) UnstructuredMetadata() map[string]interface{} {
	return r.header.Metadata
}

// GetFrame reads the multi-channel frame at the given linear index.
func (r *RawFile) GetFrame(index int) (*Frame, error) {
	if index < 0 || index >= r.header.Sizes.TotalFrames() {
		return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrFrameNotFound, index, r.header.Sizes.TotalFrames())
	}

	raw := make([]byte, r.frameSize)
	if _, err := r.f.ReadAt(raw, r.dataStart+int64(index)*r.frameSize); err != nil {
		return nil, fmt.Errorf("%w: short read at index %d: %v", ErrFrameNotFound, index, err)
	}

	pix := make([]uint16, len(raw)/2)
	for i := range pix {
		pix[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}

	return &Frame{
		Channels: r.header.Sizes.Channels,
		Width:    r.header.Width,
		Height:   r.header.Height,
		Pix:      pix,
	}, nil
}

func (r *RawFile) Close() error { return r.f.Close() }

// WriteRaw writes a complete raw frame store. frames must contain
// dims.TotalFrames() entries of C*H*W samples each, in linear index order.
// Used by converters producing the store and by test fixtures.
func WriteRaw(path string, dims Dimensions, width, height int, metadata map[string]interface{}, frames [][]uint16) error {
	dims = dims.WithDefaults()
	if err := dims.Validate(); err != nil {
		return err
	}
	if len(frames) != dims.TotalFrames() {
		return fmt.Errorf("acquisition: got %d frames, dimensions require %d", len(frames), dims.TotalFrames())
	}

	headerBytes, err := json.Marshal(rawHeader{Sizes: dims, Width: width, Height: height, Metadata: metadata})
	if err != nil {
		return pfx.Err(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(rawMagic); err != nil {
		return pfx.Err(err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(headerBytes))); err != nil {
		return pfx.Err(err)
	}
	if _, err := w.Write(headerBytes); err != nil {
		return pfx.Err(err)
	}

	want := dims.Channels * width * height
	for i, frame := range frames {
		if len(frame) != want {
			return fmt.Errorf("acquisition: frame %d has %d samples, want %d", i, len(frame), want)
		}
		if err := binary.Write(w, binary.LittleEndian, frame); err != nil {
			return pfx.Err(err)
		}
	}

	return pfx.Err(w.Flush())
}
