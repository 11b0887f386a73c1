// Package acquisition models a multidimensional microscope acquisition as a
// flat sequence of raw frames addressed by (position, time, z) coordinates,
// with channels stacked within each frame.
package acquisition

import "fmt"

// Dimensions holds the extent of each acquisition axis. Axes absent from the
// source file have extent 1; all extents must be at least 1.
type Dimensions struct {
	Positions  int `json:"P"`
	Timepoints int `json:"T"`
	ZStacks    int `json:"Z"`
	Channels   int `json:"C"`
}

// WithDefaults returns a copy with any zero-valued axis promoted to 1, the
// convention for axes the microscope did not record.
func (d Dimensions) WithDefaults() Dimensions {
	if d.Positions < 1 {
		d.Positions = 1
	}
	if d.Timepoints < 1 {
		d.Timepoints = 1
	}
	if d.ZStacks < 1 {
		d.ZStacks = 1
	}
	if d.Channels < 1 {
		d.Channels = 1
	}
	return d
}

// Validate confirms that every axis extent is at least 1. Dimensions are
// validated once when the acquisition is opened, not at every index call.
func (d Dimensions) Validate() error {
	if d.Positions < 1 || d.Timepoints < 1 || d.ZStacks < 1 || d.Channels < 1 {
		return fmt.Errorf("acquisition: invalid dimensions P=%d T=%d Z=%d C=%d (all extents must be >= 1)", d.Positions, d.Timepoints, d.ZStacks, d.Channels)
	}
	return nil
}

// TotalFrames is the length of the underlying flat frame sequence. Channels
// are stored within a frame, so they do not multiply the count.
func (d Dimensions) TotalFrames() int {
	return d.Positions * d.Timepoints * d.ZStacks
}

// MiddleZ is the representative z-plane used for previews and composites.
func (d Dimensions) MiddleZ() int {
	if d.ZStacks <= 1 {
		return 0
	}
	return d.ZStacks / 2
}

// FrameIndex maps a (position, time, z) coordinate onto the flat frame
// sequence. The channel axis is excluded: a frame carries all channels and
// the caller selects one after retrieval.
//
// Acquisitions without a z-stack use a distinct layout:
//
//	Z == 1: index = position + time*P
//	Z  > 1: index = z + position*Z + time*P*Z
//
// Callers must bounds-check the coordinate against the dimensions before
// calling; this function performs no validation.
func (d Dimensions) FrameIndex(position, time, z int) int {
	if d.ZStacks == 1 {
		return position + time*d.Positions
	}
	return z + position*d.ZStacks + time*d.Positions*d.ZStacks
}

// Coordinate addresses exactly one raw 2D sample plane within an acquisition.
// All fields are zero-based.
type Coordinate struct {
	Position  int
	Timepoint int
	Z         int
	Channel   int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("P=%d, T=%d, Z=%d, C=%d", c.Position, c.Timepoint, c.Z, c.Channel)
}

// In reports whether the coordinate lies within the given dimensions.
func (c Coordinate) In(d Dimensions) bool {
	return c.Position >= 0 && c.Position < d.Positions &&
		c.Timepoint >= 0 && c.Timepoint < d.Timepoints &&
		c.Z >= 0 && c.Z < d.ZStacks &&
		c.Channel >= 0 && c.Channel < d.Channels
}
