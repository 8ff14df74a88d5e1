package ims

import (
	"fmt"
	"strconv"
	"strings"

	ncapi "github.com/batchatco/go-native-netcdf/netcdf/api"
	nchdf5 "github.com/batchatco/go-native-netcdf/netcdf/hdf5"

	"github.com/robert-malhotra/go-imaris/hdf5"
)

// Calibration metadata fields.
const (
	fieldResolution = "resolution"
	fieldShape      = "shape"
)

// metaKey identifies one calibration metadata entry. Resolution and shape
// do not vary by channel in observed layouts, so entries are recorded
// against timepoint 0 / channel 0 and shared.
type metaKey struct {
	level, timePoint, channel int
	field                     string
}

// metaStore holds calibration metadata harvested at open time. Resolution
// values are stored in axis-major order, exactly as the storage layout
// presents them.
type metaStore struct {
	entries map[metaKey]interface{}
}

func newMetaStore() *metaStore {
	return &metaStore{entries: make(map[metaKey]interface{})}
}

func (m *metaStore) setResolution(level int, axisMajor Spacing) {
	m.entries[metaKey{level, 0, 0, fieldResolution}] = axisMajor
}

func (m *metaStore) resolution(level int) (Spacing, bool) {
	v, ok := m.entries[metaKey{level, 0, 0, fieldResolution}]
	if !ok {
		return Spacing{}, false
	}
	return v.(Spacing), true
}

func (m *metaStore) setShape(level int, shape [3]uint64) {
	m.entries[metaKey{level, 0, 0, fieldShape}] = shape
}

func (m *metaStore) shape(level int) ([3]uint64, bool) {
	v, ok := m.entries[metaKey{level, 0, 0, fieldShape}]
	if !ok {
		return [3]uint64{}, false
	}
	return v.([3]uint64), true
}

// loadMetadata builds the calibration store. The community reader is tried
// first; its failures are recoverable and only downgrade to direct
// traversal. Direct traversal always runs afterwards: dataset shapes come
// from the actual dataspaces (the community reader's data slicing is not
// trusted), and it fills in resolution for levels the reader missed.
func (f *File) loadMetadata() {
	if !f.directOnly {
		if err := f.loadCommunityMetadata(); err != nil {
			f.warnf("community metadata reader unavailable, falling back to direct traversal: %v", err)
		}
	}
	f.loadDirectMetadata()
}

// parseLevelName extracts the numeric suffix of a "ResolutionLevel <n>"
// group name.
func parseLevelName(name string) (int, bool) {
	suffix, ok := strings.CutPrefix(name, "ResolutionLevel ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(suffix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// --- direct traversal path ---

func (f *File) loadDirectMetadata() {
	levels, err := f.listLevels()
	if err != nil {
		f.warnf("enumerating resolution levels: %v", err)
		return
	}

	for _, level := range levels {
		ds, err := f.locate(level, 0, 0, false)
		if err != nil {
			f.warnf("level %d: %v", level, err)
			continue
		}

		dims := ds.Shape()
		if len(dims) != 3 {
			f.warnf("level %d: data array %s has rank %d, want 3", level, ds.Path(), len(dims))
			continue
		}
		shape := [3]uint64{dims[0], dims[1], dims[2]}
		f.meta.setShape(level, shape)

		if _, ok := f.meta.resolution(level); !ok {
			if sp, ok := f.extentSpacing(ds, shape); ok {
				f.meta.setResolution(level, sp)
			}
		}
	}
}

// extentSpacing derives per-axis spacing from the physical image extents
// and the level's shape. Extents are looked up on the dataset itself first
// (ExtMin/ExtMax text attributes) and on DataSetInfo/Image second.
// Returns the spacing in axis-major order.
func (f *File) extentSpacing(ds *hdf5.Dataset, shape [3]uint64) (Spacing, bool) {
	min, max, ok := f.datasetExtents(ds)
	if !ok {
		min, max, ok = f.imageExtents()
	}
	if !ok {
		return Spacing{}, false
	}

	// Extents are X Y Z (display order); shape is axis-major.
	display := [3]uint64{shape[2], shape[1], shape[0]}
	var sp Spacing
	for i := 0; i < 3; i++ {
		ext := max[i] - min[i]
		if ext <= 0 || display[i] == 0 {
			f.warnf("degenerate image extent for %s", ds.Path())
			return Spacing{}, false
		}
		sp[i] = ext / float64(display[i])
	}
	return sp.Reversed(), true
}

// datasetExtents reads the textual ExtMin/ExtMax attribute pair from a
// dataset. A present but unparsable pair is a recoverable warning.
func (f *File) datasetExtents(ds *hdf5.Dataset) (min, max [3]float64, ok bool) {
	minAttr := ds.Attr("ExtMin")
	maxAttr := ds.Attr("ExtMax")
	if minAttr == nil || maxAttr == nil {
		return min, max, false
	}

	minText, okMin := attrText(minAttr)
	maxText, okMax := attrText(maxAttr)
	if !okMin || !okMax {
		f.warnf("unreadable ExtMin/ExtMax on %s", ds.Path())
		return min, max, false
	}

	min, okMin = parseTextTriple(minText)
	max, okMax = parseTextTriple(maxText)
	if !okMin || !okMax {
		f.warnf("malformed ExtMin/ExtMax on %s", ds.Path())
		return min, max, false
	}
	return min, max, true
}

// imageExtents reads ExtMin0..2/ExtMax0..2 from the DataSetInfo/Image
// group, the location older writers use.
func (f *File) imageExtents() (min, max [3]float64, ok bool) {
	g, err := f.h5.OpenGroup("DataSetInfo/Image")
	if err != nil {
		return min, max, false
	}

	for i := 0; i < 3; i++ {
		lo, okLo := groupAttrFloat(g, fmt.Sprintf("ExtMin%d", i))
		hi, okHi := groupAttrFloat(g, fmt.Sprintf("ExtMax%d", i))
		if !okLo || !okHi {
			return min, max, false
		}
		min[i] = lo
		max[i] = hi
	}
	return min, max, true
}

// --- community reader path ---

// loadCommunityMetadata harvests resolution metadata through the
// community-maintained HDF5 reader. Only calibration is taken from it;
// shapes and voxel data always go through direct traversal.
func (f *File) loadCommunityMetadata() error {
	root, err := nchdf5.Open(f.path)
	if err != nil {
		return err
	}
	defer root.Close()

	minExt, maxExt, ok := communityExtents(root)
	if !ok {
		return fmt.Errorf("no image extents under DataSetInfo/Image")
	}

	dataGroup, err := root.GetGroup(rootGroup)
	if err != nil {
		return fmt.Errorf("opening %s: %w", rootGroup, err)
	}
	defer dataGroup.Close()

	found := 0
	for _, name := range dataGroup.ListSubgroups() {
		level, ok := parseLevelName(name)
		if !ok {
			continue
		}

		shape, ok := communityShape(dataGroup, name)
		if !ok {
			continue
		}

		// shape here is display order (X, Y, Z).
		var sp Spacing
		valid := true
		for i := 0; i < 3; i++ {
			ext := maxExt[i] - minExt[i]
			if ext <= 0 || shape[i] == 0 {
				valid = false
				break
			}
			sp[i] = ext / float64(shape[i])
		}
		if !valid {
			continue
		}

		f.meta.setResolution(level, sp.Reversed())
		found++
	}

	if found == 0 {
		return fmt.Errorf("no resolution levels under %s", rootGroup)
	}
	return nil
}

func communityExtents(root ncapi.Group) (min, max [3]float64, ok bool) {
	info, err := root.GetGroup("DataSetInfo")
	if err != nil {
		return min, max, false
	}
	defer info.Close()

	img, err := info.GetGroup("Image")
	if err != nil {
		return min, max, false
	}
	defer img.Close()

	attrs := img.Attributes()
	for i := 0; i < 3; i++ {
		lo, okLo := attrs.Get(fmt.Sprintf("ExtMin%d", i))
		hi, okHi := attrs.Get(fmt.Sprintf("ExtMax%d", i))
		if !okLo || !okHi {
			return min, max, false
		}
		if min[i], okLo = coerceFloat(lo); !okLo {
			return min, max, false
		}
		if max[i], okHi = coerceFloat(hi); !okHi {
			return min, max, false
		}
	}
	return min, max, true
}

// communityShape reads ImageSizeX/Y/Z from a level's channel-0 group and
// returns the display-order shape.
func communityShape(dataGroup ncapi.Group, levelName string) ([3]uint64, bool) {
	lg, err := dataGroup.GetGroup(levelName)
	if err != nil {
		return [3]uint64{}, false
	}
	defer lg.Close()

	tg, err := lg.GetGroup("TimePoint 0")
	if err != nil {
		return [3]uint64{}, false
	}
	defer tg.Close()

	cg, err := tg.GetGroup("Channel 0")
	if err != nil {
		return [3]uint64{}, false
	}
	defer cg.Close()

	attrs := cg.Attributes()
	var shape [3]uint64
	for i, axis := range []string{"ImageSizeX", "ImageSizeY", "ImageSizeZ"} {
		v, ok := attrs.Get(axis)
		if !ok {
			return [3]uint64{}, false
		}
		n, ok := coerceUint(v)
		if !ok {
			return [3]uint64{}, false
		}
		shape[i] = n
	}
	return shape, true
}

// --- value coercion ---

// Imaris writes most metadata as arrays of single characters; depending on
// the access path a value may surface as a string, a string slice, raw
// bytes, or a numeric type. These helpers flatten that zoo.

func coerceString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []string:
		return strings.Join(val, ""), true
	case []byte:
		return strings.TrimRight(string(val), "\x00"), true
	case []int8:
		b := make([]byte, len(val))
		for i, c := range val {
			b[i] = byte(c)
		}
		return strings.TrimRight(string(b), "\x00"), true
	default:
		return "", false
	}
}

func coerceFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case []float64:
		if len(val) > 0 {
			return val[0], true
		}
	case []float32:
		if len(val) > 0 {
			return float64(val[0]), true
		}
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		if s, ok := coerceString(v); ok {
			n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func coerceUint(v interface{}) (uint64, bool) {
	n, ok := coerceFloat(v)
	if !ok || n < 0 || n != float64(uint64(n)) {
		return 0, false
	}
	return uint64(n), true
}

// attrText reads an attribute value as text.
func attrText(a *hdf5.Attribute) (string, bool) {
	v, err := a.Value()
	if err != nil {
		return "", false
	}
	return coerceString(v)
}

// groupAttrFloat reads a group attribute as a float.
func groupAttrFloat(g *hdf5.Group, name string) (float64, bool) {
	a := g.Attr(name)
	if a == nil {
		return 0, false
	}
	v, err := a.Value()
	if err != nil {
		return 0, false
	}
	return coerceFloat(v)
}

// parseTextTriple parses a whitespace-separated float triple, the textual
// encoding Imaris uses for extent attributes.
func parseTextTriple(s string) ([3]float64, bool) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return [3]float64{}, false
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return [3]float64{}, false
		}
		out[i] = n
	}
	return out, true
}
