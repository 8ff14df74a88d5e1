package ims

// Spacing is the physical size of one voxel along each of the three spatial
// axes. Two orderings exist: axis-major (depth, row, column - the storage
// layout order) and display order (column, row, depth - what visualization
// consumers expect). Reversed converts between them; conversion happens
// exactly once, at the assembler boundary.
type Spacing [3]float64

// Reversed returns the spacing with its axes reversed. Reversal is its own
// inverse, so it converts axis-major to display order and back.
func (s Spacing) Reversed() Spacing {
	return Spacing{s[2], s[1], s[0]}
}

// ScaledToLevel returns the spacing scaled by 2^level per axis, assuming
// binary downsampling between consecutive resolution levels. This is a
// policy assumption about the pyramid, not a measured fact: files built
// with a different downsampling factor get wrong spacing from this rule.
func (s Spacing) ScaledToLevel(level int) Spacing {
	factor := float64(uint64(1) << uint(level))
	return Spacing{s[0] * factor, s[1] * factor, s[2] * factor}
}

// Origin is the physical coordinate of the volume corner, in display order.
type Origin [3]float64

// LevelInfo describes one resolution level of the pyramid.
type LevelInfo struct {
	Level   int
	Shape   [3]uint64 // axis-major (depth, row, column)
	Spacing Spacing   // display order
}

// Volume is one fully materialized channel at a resolution level. Data is a
// flat slice of the native voxel type ([]uint8, []uint16, []float32, ...)
// in axis-major order; the caller owns it after Assemble returns.
type Volume struct {
	Data    interface{}
	Shape   [3]uint64 // axis-major
	Name    string
	Channel int
	Spacing Spacing // display order
	Origin  Origin  // display order
}

// NumVoxels returns the total element count of the volume.
func (v *Volume) NumVoxels() uint64 {
	return v.Shape[0] * v.Shape[1] * v.Shape[2]
}

// Registrar accepts assembled volumes for display. It is a one-way sink:
// the returned identifier is opaque to this package.
type Registrar interface {
	Register(v Volume) (string, error)
}
