// Package ims reads Imaris (.ims) microscopy volumes, an HDF5-based
// container organizing data as ResolutionLevel/TimePoint/Channel groups.
package ims

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound   = errors.New("path not found in container")
	ErrDataAbsent = errors.New("no data array in group")
)

// NotFoundError reports a missing level/timepoint/channel group.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not found: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DataAbsentError reports a group that exists but contains no dataset child.
type DataAbsentError struct {
	Path string
}

func (e *DataAbsentError) Error() string {
	return fmt.Sprintf("no data array in group: %s", e.Path)
}

func (e *DataAbsentError) Is(target error) bool { return target == ErrDataAbsent }
