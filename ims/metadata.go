package ims

import "fmt"

// SpacingOrigin resolves the voxel spacing and spatial origin for a
// resolution level. Both are returned in display order. Spacing resolution
// follows the configured strategy; origin problems never fail the call,
// they degrade to (0,0,0) with a recorded warning.
func (f *File) SpacingOrigin(level int) (Spacing, Origin, error) {
	sp, err := f.spacingForLevel(level)
	if err != nil {
		return Spacing{}, Origin{}, err
	}
	return sp, f.origin(), nil
}

// spacingForLevel returns display-order spacing for a level. Explicit
// per-level metadata is stored axis-major and reversed here, exactly once.
func (f *File) spacingForLevel(level int) (Spacing, error) {
	switch f.strategy {
	case SpacingExplicit:
		axisMajor, ok := f.meta.resolution(level)
		if !ok {
			return Spacing{}, fmt.Errorf("no calibration metadata for level %d", level)
		}
		return axisMajor.Reversed(), nil

	case SpacingSynthesized:
		return f.synthesizedSpacing(level)

	default: // SpacingAuto
		if axisMajor, ok := f.meta.resolution(level); ok {
			return axisMajor.Reversed(), nil
		}
		if f.haveBase {
			return f.synthesizedSpacing(level)
		}
		return Spacing{}, fmt.Errorf("level %d: no calibration metadata and no base spacing supplied", level)
	}
}

func (f *File) synthesizedSpacing(level int) (Spacing, error) {
	if !f.haveBase {
		return Spacing{}, fmt.Errorf("synthesized spacing requires a base spacing (WithBaseSpacing)")
	}
	if level < 0 {
		// Malformed level reference: degrade to the unscaled base.
		f.warnf("invalid resolution level %d, using unscaled base spacing", level)
		return f.base, nil
	}
	return f.base.ScaledToLevel(level), nil
}

// origin reads the spatial origin from the level-0/timepoint-0/channel-0
// dataset's ExtMin attribute (a whitespace-separated float triple), with
// the DataSetInfo/Image extents as fallback. The value is scoped to
// channel 0's geometry and applied uniformly; origin is cosmetic, so every
// failure path returns (0,0,0) with a warning instead of an error.
func (f *File) origin() Origin {
	ds, err := f.locate(0, 0, 0, false)
	if err == nil {
		if a := ds.Attr("ExtMin"); a != nil {
			text, ok := attrText(a)
			if ok {
				if v, ok := parseTextTriple(text); ok {
					return Origin(v)
				}
			}
			f.warnf("malformed ExtMin on %s, origin defaults to (0,0,0)", ds.Path())
			return Origin{}
		}
	}

	if min, _, ok := f.imageExtents(); ok {
		return Origin(min)
	}

	f.warnf("no origin metadata, origin defaults to (0,0,0)")
	return Origin{}
}
