// Package region provides the axis-aligned bounding regions that spatial
// evaluation subdivides over.
package region

// Region3 is an axis-aligned box in three dimensions.
type Region3 struct {
	Lower [3]float64
	Upper [3]float64
}

// NewRegion3 builds a box from its corners. Callers are expected to pass
// lower <= upper per axis.
func NewRegion3(lower, upper [3]float64) Region3 {
	return Region3{Lower: lower, Upper: upper}
}

// Subdivide splits the box into eight octants at its midpoint. Octant i
// takes the upper half of axis j when bit j of i is set.
func (r Region3) Subdivide() [8]Region3 {
	c := r.center()
	var out [8]Region3
	for i := range out {
		sub := Region3{Lower: r.Lower, Upper: c}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				sub.Lower[axis] = c[axis]
				sub.Upper[axis] = r.Upper[axis]
			}
		}
		out[i] = sub
	}
	return out
}

// Volume returns the box volume.
func (r Region3) Volume() float64 {
	v := 1.0
	for axis := 0; axis < 3; axis++ {
		v *= r.Upper[axis] - r.Lower[axis]
	}
	return v
}

// Empty reports whether the region is the zero box.
func (r Region3) Empty() bool {
	return r.Lower == [3]float64{} && r.Upper == [3]float64{}
}

// Contains reports whether the point lies inside the box, boundary
// inclusive.
func (r Region3) Contains(p [3]float64) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < r.Lower[axis] || p[axis] > r.Upper[axis] {
			return false
		}
	}
	return true
}

func (r Region3) center() [3]float64 {
	var c [3]float64
	for axis := 0; axis < 3; axis++ {
		// Split halves first so huge extents do not overflow.
		c[axis] = r.Lower[axis]/2 + r.Upper[axis]/2
	}
	return c
}

// Region2 is an axis-aligned rectangle in the xy-plane, pinned at a fixed
// z value (Perp).
type Region2 struct {
	Lower [2]float64
	Upper [2]float64
	Perp  float64
}

// NewRegion2 builds a rectangle at the given perpendicular z.
func NewRegion2(lower, upper [2]float64, perp float64) Region2 {
	return Region2{Lower: lower, Upper: upper, Perp: perp}
}

// Subdivide splits the rectangle into four quadrants at its midpoint,
// preserving Perp. Quadrant i takes the upper half of axis j when bit j of
// i is set.
func (r Region2) Subdivide() [4]Region2 {
	var c [2]float64
	for axis := 0; axis < 2; axis++ {
		c[axis] = r.Lower[axis]/2 + r.Upper[axis]/2
	}
	var out [4]Region2
	for i := range out {
		sub := Region2{Lower: r.Lower, Upper: c, Perp: r.Perp}
		for axis := 0; axis < 2; axis++ {
			if i&(1<<axis) != 0 {
				sub.Lower[axis] = c[axis]
				sub.Upper[axis] = r.Upper[axis]
			}
		}
		out[i] = sub
	}
	return out
}

// Volume returns the rectangle's area.
func (r Region2) Volume() float64 {
	return (r.Upper[0] - r.Lower[0]) * (r.Upper[1] - r.Lower[1])
}

// Empty reports whether the region is the zero rectangle.
func (r Region2) Empty() bool {
	return r.Lower == [2]float64{} && r.Upper == [2]float64{} && r.Perp == 0
}

// Lower3 lifts the lower corner into three dimensions at z = Perp.
func (r Region2) Lower3() [3]float64 {
	return [3]float64{r.Lower[0], r.Lower[1], r.Perp}
}

// Upper3 lifts the upper corner into three dimensions at z = Perp.
func (r Region2) Upper3() [3]float64 {
	return [3]float64{r.Upper[0], r.Upper[1], r.Perp}
}
