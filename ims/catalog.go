package ims

import (
	"fmt"
	"sort"
)

// listLevels returns the sorted numeric suffixes of the ResolutionLevel
// groups present under DataSet. A container without a DataSet entry has an
// empty catalog, not an error.
func (f *File) listLevels() ([]int, error) {
	g, err := f.h5.OpenGroup(rootGroup)
	if err != nil {
		return nil, nil
	}

	members, err := g.Members()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", rootGroup, err)
	}

	var levels []int
	for _, name := range members {
		if n, ok := parseLevelName(name); ok {
			levels = append(levels, n)
		}
	}
	sort.Ints(levels)
	return levels, nil
}

// Levels enumerates the resolution pyramid. Levels are discovered by
// listing the level-named groups and validating that they form a
// contiguous range starting at 0; a gap is a descriptive error rather than
// a silent truncation. Shapes are axis-major, spacing is display order.
func (f *File) Levels() ([]LevelInfo, error) {
	levels, err := f.listLevels()
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, nil
	}

	for i, n := range levels {
		if n != i {
			return nil, fmt.Errorf("resolution levels are not contiguous: missing level %d (found levels %v)", i, levels)
		}
	}

	infos := make([]LevelInfo, 0, len(levels))
	for _, level := range levels {
		shape, ok := f.meta.shape(level)
		if !ok {
			return nil, fmt.Errorf("level %d: no shape metadata", level)
		}
		spacing, err := f.spacingForLevel(level)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		infos = append(infos, LevelInfo{Level: level, Shape: shape, Spacing: spacing})
	}
	return infos, nil
}
