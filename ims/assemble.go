package ims

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-imaris/hdf5"
)

// Assemble materializes every channel of one (level, timepoint) into
// memory. Channels are discovered by listing the timepoint group, not
// assumed fixed. Spacing and origin are resolved once per call and shared
// across channels; arrays stay in axis-major order while spacing/origin
// are display order - that conversion happens here and nowhere else.
// Nothing is cached: calling Assemble again re-resolves and re-reads.
func (f *File) Assemble(level, timePoint int) ([]Volume, error) {
	tpPath := timePointPath(level, timePoint)

	g, err := f.h5.OpenGroup(tpPath)
	if err != nil {
		return nil, &NotFoundError{Path: tpPath, Err: err}
	}

	members, err := g.Members()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", tpPath, err)
	}

	var channels []int
	for _, name := range members {
		suffix, ok := strings.CutPrefix(name, "Channel ")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(suffix)); err == nil && n >= 0 {
			channels = append(channels, n)
		}
	}
	if len(channels) == 0 {
		return nil, &DataAbsentError{Path: tpPath}
	}
	sort.Ints(channels)

	spacing, origin, err := f.SpacingOrigin(level)
	if err != nil {
		return nil, err
	}

	volumes := make([]Volume, 0, len(channels))
	for _, ch := range channels {
		ds, err := f.LocateDataset(level, timePoint, ch)
		if err != nil {
			return nil, err
		}

		data, shape, err := readVolumeData(ds)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}

		volumes = append(volumes, Volume{
			Data:    data,
			Shape:   shape,
			Name:    f.volumeName(ch, level),
			Channel: ch,
			Spacing: spacing,
			Origin:  origin,
		})
	}
	return volumes, nil
}

// LoadInto assembles a level and hands each volume to the registrar,
// returning the node identifiers in channel order.
func (f *File) LoadInto(reg Registrar, level, timePoint int) ([]string, error) {
	volumes, err := f.Assemble(level, timePoint)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(volumes))
	for _, v := range volumes {
		id, err := reg.Register(v)
		if err != nil {
			return nil, fmt.Errorf("registering %s: %w", v.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// volumeName builds the display name, prefixed with the original channel
// label when the file records one.
func (f *File) volumeName(channel, level int) string {
	name := fmt.Sprintf("Channel_%d-res_%d", channel, level)
	if label := f.channelLabel(channel); label != "" {
		return label + "_" + name
	}
	return name
}

// channelLabel reads the channel's Name attribute from DataSetInfo.
func (f *File) channelLabel(channel int) string {
	g, err := f.h5.OpenGroup(fmt.Sprintf("DataSetInfo/Channel %d", channel))
	if err != nil {
		return ""
	}
	a := g.Attr("Name")
	if a == nil {
		return ""
	}
	text, ok := attrText(a)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

// readVolumeData materializes a 3-D dataset as a flat slice of its native
// element type, in axis-major order as stored.
func readVolumeData(ds *hdf5.Dataset) (interface{}, [3]uint64, error) {
	dims := ds.Shape()
	if len(dims) != 3 {
		return nil, [3]uint64{}, fmt.Errorf("data array %s has rank %d, want 3", ds.Path(), len(dims))
	}
	shape := [3]uint64{dims[0], dims[1], dims[2]}

	goType, err := ds.GoType()
	if err != nil {
		return nil, shape, fmt.Errorf("resolving datatype of %s: %w", ds.Path(), err)
	}

	var data interface{}
	switch goType.Kind() {
	case reflect.Uint8:
		data, err = ds.ReadUint8()
	case reflect.Uint16:
		data, err = ds.ReadUint16()
	case reflect.Uint32:
		data, err = ds.ReadUint32()
	case reflect.Int8:
		data, err = ds.ReadInt8()
	case reflect.Int16:
		data, err = ds.ReadInt16()
	case reflect.Int32:
		data, err = ds.ReadInt32()
	case reflect.Float32:
		data, err = ds.ReadFloat32()
	case reflect.Float64:
		data, err = ds.ReadFloat64()
	default:
		return nil, shape, fmt.Errorf("unsupported voxel datatype %v in %s", goType, ds.Path())
	}
	if err != nil {
		return nil, shape, fmt.Errorf("reading %s: %w", ds.Path(), err)
	}
	return data, shape, nil
}
