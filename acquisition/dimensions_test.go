package acquisition

import "testing"

func TestFrameIndexDegenerateDepth(t *testing.T) {
	dims := Dimensions{Positions: 3, Timepoints: 4, ZStacks: 1, Channels: 2}

	for time := 0; time < dims.Timepoints; time++ {
		for pos := 0; pos < dims.Positions; pos++ {
			want := pos + time*dims.Positions
			if got := dims.FrameIndex(pos, time, 0); got != want {
				t.Errorf("FrameIndex(%d, %d, 0) = %d, want %d", pos, time, got, want)
			}
		}
	}
}

func TestFrameIndexFullDepth(t *testing.T) {
	dims := Dimensions{Positions: 3, Timepoints: 2, ZStacks: 5, Channels: 1}

	for time := 0; time < dims.Timepoints; time++ {
		for pos := 0; pos < dims.Positions; pos++ {
			for z := 0; z < dims.ZStacks; z++ {
				want := z + pos*dims.ZStacks + time*dims.Positions*dims.ZStacks
				if got := dims.FrameIndex(pos, time, z); got != want {
					t.Errorf("FrameIndex(%d, %d, %d) = %d, want %d", pos, time, z, got, want)
				}
			}
		}
	}
}

// Indices over the full coordinate space must be unique and contiguous on
// [0, P*T*Z).
func TestFrameIndexUniqueContiguous(t *testing.T) {
	for _, dims := range []Dimensions{
		{Positions: 4, Timepoints: 3, ZStacks: 1, Channels: 2},
		{Positions: 2, Timepoints: 5, ZStacks: 7, Channels: 1},
		{Positions: 1, Timepoints: 1, ZStacks: 1, Channels: 1},
	} {
		seen := make([]bool, dims.TotalFrames())

		for time := 0; time < dims.Timepoints; time++ {
			for pos := 0; pos < dims.Positions; pos++ {
				for z := 0; z < dims.ZStacks; z++ {
					idx := dims.FrameIndex(pos, time, z)
					if idx < 0 || idx >= dims.TotalFrames() {
						t.Fatalf("%+v: index %d out of [0, %d)", dims, idx, dims.TotalFrames())
					}
					if seen[idx] {
						t.Fatalf("%+v: index %d produced twice", dims, idx)
					}
					seen[idx] = true
				}
			}
		}

		for i, ok := range seen {
			if !ok {
				t.Errorf("%+v: index %d never produced", dims, i)
			}
		}
	}
}

func TestDimensionsValidate(t *testing.T) {
	if err := (Dimensions{Positions: 1, Timepoints: 1, ZStacks: 1, Channels: 1}).Validate(); err != nil {
		t.Errorf("valid dimensions rejected: %v", err)
	}
	if err := (Dimensions{Positions: 0, Timepoints: 1, ZStacks: 1, Channels: 1}).Validate(); err == nil {
		t.Error("zero-extent axis accepted")
	}
}

func TestDimensionsWithDefaults(t *testing.T) {
	d := Dimensions{Timepoints: 6}.WithDefaults()
	want := Dimensions{Positions: 1, Timepoints: 6, ZStacks: 1, Channels: 1}
	if d != want {
		t.Errorf("WithDefaults = %+v, want %+v", d, want)
	}
}

func TestMiddleZ(t *testing.T) {
	cases := []struct {
		z    int
		want int
	}{
		{1, 0},
		{2, 1},
		{7, 3},
		{10, 5},
	}
	for _, c := range cases {
		dims := Dimensions{Positions: 1, Timepoints: 1, ZStacks: c.z, Channels: 1}
		if got := dims.MiddleZ(); got != c.want {
			t.Errorf("MiddleZ with Z=%d = %d, want %d", c.z, got, c.want)
		}
	}
}

func TestCoordinateIn(t *testing.T) {
	dims := Dimensions{Positions: 2, Timepoints: 3, ZStacks: 1, Channels: 2}

	if !(Coordinate{Position: 1, Timepoint: 2, Z: 0, Channel: 1}).In(dims) {
		t.Error("in-range coordinate rejected")
	}
	if (Coordinate{Position: 2, Timepoint: 0, Z: 0, Channel: 0}).In(dims) {
		t.Error("out-of-range position accepted")
	}
	if (Coordinate{Position: 0, Timepoint: 0, Z: 1, Channel: 0}).In(dims) {
		t.Error("out-of-range z accepted")
	}
}
