package batch

import (
	"fmt"
	"math"

	"github.com/microlims/acqexport/acquisition"
)

// FrameFileName builds the output name for one converted frame. Position,
// time, and z are rendered 1-based with fixed widths (4, 5, and 3 digits)
// so that lexicographic order matches coordinate order; the channel stays
// zero-based with 2 digits. Downstream tooling parses this layout, so it is
// a compatibility contract.
func FrameFileName(date, initials string, c acquisition.Coordinate) string {
	return fmt.Sprintf("%s%s_p%04d_t%05d_z%03d_w%02d.png",
		date, initials, c.Position+1, c.Timepoint+1, c.Z+1, c.Channel)
}

// PositionDirName builds the per-position output subdirectory name.
func PositionDirName(date, initials string, position int) string {
	return fmt.Sprintf("%s%s_p%04d", date, initials, position+1)
}

// CompressionLevel maps a 0-100 "compression percent" onto the 0-9 encoder
// scale: 100% means no compression (level 0) and 0% means maximum (level 9).
func CompressionLevel(percent int) int {
	level := int(math.Round(float64(100-percent) / 100 * 9))
	if level < 0 {
		level = 0
	}
	if level > 9 {
		level = 9
	}
	return level
}
