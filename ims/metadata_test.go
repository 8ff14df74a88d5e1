package ims

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpacingReversedRoundTrip(t *testing.T) {
	s := Spacing{0.1, 0.2, 0.4}
	assert.Equal(t, Spacing{0.4, 0.2, 0.1}, s.Reversed())
	assert.Equal(t, s, s.Reversed().Reversed())
}

func TestSpacingScalingLaw(t *testing.T) {
	base := Spacing{0.018, 0.018, 0.040}

	assert.Equal(t, base, base.ScaledToLevel(0))
	for level := 0; level < 10; level++ {
		factor := float64(uint64(1) << uint(level))
		want := Spacing{base[0] * factor, base[1] * factor, base[2] * factor}
		assert.Equal(t, want, base.ScaledToLevel(level), "level %d", level)
	}

	// The scenario from the field: level 2 quadruples each axis.
	assert.Equal(t, Spacing{0.072, 0.072, 0.160}, base.ScaledToLevel(2))
}

func TestSpacingOriginStrategies(t *testing.T) {
	// Extents and spacings are exact binary fractions so the derived
	// values compare exactly: X spans 2.0 over 16 columns, Y 2.0 over 8
	// rows, Z 2.0 over 4 planes.
	path := writeFixture(t, fixtureOpts{
		extents: true,
		extMin:  [3]float64{1.5, 2.5, 3.5},
		extMax:  [3]float64{3.5, 4.5, 5.5},
	})

	// Explicit metadata is present; Auto must prefer it even when a base
	// spacing is also supplied.
	f := openFixture(t, path, WithBaseSpacing(testBase))
	sp, org, err := f.SpacingOrigin(0)
	require.NoError(t, err)
	assert.Equal(t, Spacing{0.125, 0.25, 0.5}, sp)
	assert.Equal(t, Origin{1.5, 2.5, 3.5}, org)

	// Forcing synthesis ignores the file metadata.
	forced := openFixture(t, path,
		WithBaseSpacing(testBase),
		WithSpacingStrategy(SpacingSynthesized))
	sp, _, err = forced.SpacingOrigin(1)
	require.NoError(t, err)
	assert.Equal(t, testBase.ScaledToLevel(1), sp)
}

func TestSynthesizedSpacingRequiresBase(t *testing.T) {
	path := writeFixture(t, fixtureOpts{})
	f := openFixture(t, path, WithSpacingStrategy(SpacingSynthesized))

	_, _, err := f.SpacingOrigin(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base spacing")
}

func TestAutoWithoutAnyMetadataFails(t *testing.T) {
	path := writeFixture(t, fixtureOpts{})
	f := openFixture(t, path)

	_, _, err := f.SpacingOrigin(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no calibration metadata")
}

func TestMalformedExtMinFallsBackToZeroOrigin(t *testing.T) {
	path := writeFixture(t, fixtureOpts{level0ExtMinText: "garbage not floats"})
	f := openFixture(t, path, WithBaseSpacing(testBase))

	volumes, err := f.Assemble(0, 0)
	require.NoError(t, err)
	require.Len(t, volumes, 2)
	assert.Equal(t, Origin{0, 0, 0}, volumes[0].Origin)

	require.NotEmpty(t, f.Warnings())
	found := false
	for _, w := range f.Warnings() {
		if strings.Contains(w, "ExtMin") {
			found = true
		}
	}
	assert.True(t, found, "expected an ExtMin warning, got %v", f.Warnings())
}

func TestInvalidLevelUsesUnscaledBase(t *testing.T) {
	path := writeFixture(t, fixtureOpts{})
	f := openFixture(t, path,
		WithBaseSpacing(testBase),
		WithSpacingStrategy(SpacingSynthesized))

	sp, err := f.spacingForLevel(-1)
	require.NoError(t, err)
	assert.Equal(t, testBase, sp)
	assert.NotEmpty(t, f.Warnings())
}

func TestMetaStoreKeys(t *testing.T) {
	m := newMetaStore()

	_, ok := m.resolution(0)
	assert.False(t, ok)

	m.setResolution(1, Spacing{0.4, 0.2, 0.1})
	got, ok := m.resolution(1)
	require.True(t, ok)
	assert.Equal(t, Spacing{0.4, 0.2, 0.1}, got)

	m.setShape(1, [3]uint64{2, 4, 8})
	shape, ok := m.shape(1)
	require.True(t, ok)
	assert.Equal(t, [3]uint64{2, 4, 8}, shape)
}

func TestParseTextTriple(t *testing.T) {
	v, ok := parseTextTriple("0.5 -1.25 3")
	require.True(t, ok)
	assert.Equal(t, [3]float64{0.5, -1.25, 3}, v)

	_, ok = parseTextTriple("1.0 2.0")
	assert.False(t, ok)

	_, ok = parseTextTriple("a b c")
	assert.False(t, ok)
}

func TestParseLevelName(t *testing.T) {
	n, ok := parseLevelName("ResolutionLevel 3")
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = parseLevelName("TimePoint 0")
	assert.False(t, ok)

	_, ok = parseLevelName("ResolutionLevel x")
	assert.False(t, ok)
}
