package ims

import (
	"fmt"

	"github.com/robert-malhotra/go-imaris/hdf5"
)

// rootGroup is the container entry holding the resolution pyramid.
const rootGroup = "DataSet"

// GroupPath returns the container path of a channel group. No bounds
// validation happens here; out-of-range indices simply resolve to a
// missing group.
func GroupPath(level, timePoint, channel int) string {
	return fmt.Sprintf("%s/ResolutionLevel %d/TimePoint %d/Channel %d",
		rootGroup, level, timePoint, channel)
}

// timePointPath returns the container path of a timepoint group.
func timePointPath(level, timePoint int) string {
	return fmt.Sprintf("%s/ResolutionLevel %d/TimePoint %d", rootGroup, level, timePoint)
}

// LocateDataset resolves the data array for one (level, timepoint, channel)
// triple. The channel group may contain non-data children; the first
// dataset-kind child in enumeration order is the array. A missing group
// yields a *NotFoundError, a group without any dataset child a
// *DataAbsentError. Under WithStrictLayout a second dataset child is an
// error rather than being silently ignored.
func (f *File) LocateDataset(level, timePoint, channel int) (*hdf5.Dataset, error) {
	return f.locate(level, timePoint, channel, f.strict)
}

func (f *File) locate(level, timePoint, channel int, strict bool) (*hdf5.Dataset, error) {
	groupPath := GroupPath(level, timePoint, channel)

	g, err := f.h5.OpenGroup(groupPath)
	if err != nil {
		return nil, &NotFoundError{Path: groupPath, Err: err}
	}

	members, err := g.Members()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", groupPath, err)
	}

	var found *hdf5.Dataset
	for _, name := range members {
		ds, err := g.OpenDataset(name)
		if err != nil {
			// Sub-group or unreadable child; not the array.
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("group %s contains more than one data array (%q, %q)",
				groupPath, found.Name(), ds.Name())
		}
		found = ds
		if !strict {
			break
		}
	}

	if found == nil {
		return nil, &DataAbsentError{Path: groupPath}
	}
	return found, nil
}
