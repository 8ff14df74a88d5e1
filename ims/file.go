package ims

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/robert-malhotra/go-imaris/hdf5"
)

// SpacingStrategy selects how per-level voxel spacing is derived.
type SpacingStrategy int

const (
	// SpacingAuto uses explicit calibration metadata when the file carries
	// it and falls back to synthesis from the base spacing otherwise.
	SpacingAuto SpacingStrategy = iota

	// SpacingExplicit requires per-level calibration metadata and fails
	// for levels without it.
	SpacingExplicit

	// SpacingSynthesized ignores file metadata and scales the caller's
	// base spacing by 2^level.
	SpacingSynthesized
)

// File is an open Imaris container. It is read-only, not safe for
// concurrent use, and must be closed when done. Nothing is cached across
// load operations beyond the calibration metadata harvested at Open.
type File struct {
	path string
	h5   *hdf5.File
	meta *metaStore

	strategy   SpacingStrategy
	base       Spacing
	haveBase   bool
	strict     bool
	directOnly bool

	log      zerolog.Logger
	warnings []string
}

// Option configures an open handle.
type Option func(*File)

// WithLogger routes warnings to the given logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *File) { f.log = l }
}

// WithBaseSpacing supplies the full-resolution (level 0) voxel spacing in
// display order, enabling synthesized per-level spacing.
func WithBaseSpacing(s Spacing) Option {
	return func(f *File) {
		f.base = s
		f.haveBase = true
	}
}

// WithSpacingStrategy forces a spacing strategy instead of SpacingAuto.
func WithSpacingStrategy(s SpacingStrategy) Option {
	return func(f *File) { f.strategy = s }
}

// WithStrictLayout makes a group with more than one dataset child a hard
// error instead of silently using the first. Useful for surfacing layout
// violations in validation runs.
func WithStrictLayout() Option {
	return func(f *File) { f.strict = true }
}

// WithDirectMetadata skips the community metadata reader and harvests
// calibration metadata through direct hierarchy traversal only.
func WithDirectMetadata() Option {
	return func(f *File) { f.directOnly = true }
}

// Open opens an Imaris container for reading. Calibration metadata is
// harvested once at open time: the community reader is consulted first
// and direct traversal fills anything it could not provide.
func Open(path string, opts ...Option) (*File, error) {
	h5f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}

	f := &File{
		path: path,
		h5:   h5f,
		meta: newMetaStore(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.loadMetadata()
	return f, nil
}

// Close releases the container handle.
func (f *File) Close() error {
	return f.h5.Close()
}

// Path returns the container file path.
func (f *File) Path() string {
	return f.path
}

// Warnings returns the recoverable problems recorded on this handle, in
// the order they were encountered.
func (f *File) Warnings() []string {
	return f.warnings
}

func (f *File) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	f.warnings = append(f.warnings, msg)
	f.log.Warn().Str("file", f.path).Msg(msg)
}
