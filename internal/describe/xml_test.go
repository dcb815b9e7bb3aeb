package describe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

const fixtureDir = "../testutil/testdata/interfaces"

func loadFixture(t *testing.T, module string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir, module+".xml"))
	require.NoError(t, err)
	return data
}

func TestParseInterfaceDescription_SlopeAspect(t *testing.T) {
	m, err := ParseInterfaceDescription(loadFixture(t, "r.slope.aspect"))
	require.NoError(t, err)

	assert.Equal(t, "r.slope.aspect", m.ID)
	assert.Equal(t, "Generates raster maps of slope, aspect, curvatures and partial derivatives from an elevation raster map.", m.Description)
	assert.Equal(t, []string{"aspect", "curvature", "grass-module", "raster", "slope", "terrain"}, m.Categories)

	names := func(ps []ir.Parameter) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	assert.Equal(t, []string{"elevation", "format", "precision", "zscale", "min_slope", "a", "e"}, names(m.Parameters))
	assert.Equal(t, []string{"slope", "aspect"}, names(m.Returns))

	elevation := m.Parameters[0]
	assert.False(t, elevation.Optional)
	assert.Nil(t, elevation.Default)
	assert.Equal(t, ir.ParameterSchema{Type: "string", Subtype: "cell"}, elevation.Schema)

	format := m.Parameters[1]
	assert.True(t, format.Optional)
	require.NotNil(t, format.Default)
	assert.Equal(t, "degrees", *format.Default)
	assert.Equal(t, []string{"degrees", "percent"}, format.Schema.Enum)

	zscale := m.Parameters[3]
	assert.Equal(t, ir.TypeNumber, zscale.Schema.Type, "float is normalized to number")
	assert.Equal(t, "1.0", *zscale.Default)

	flag := m.Parameters[5]
	assert.Equal(t, ir.TypeBoolean, flag.Schema.Type)
	assert.Equal(t, "False", *flag.Default)
	assert.True(t, flag.Optional)
}

func TestParseInterfaceDescription_LabelAndMultiple(t *testing.T) {
	m, err := ParseInterfaceDescription(loadFixture(t, "r.mapcalc.simple"))
	require.NoError(t, err)
	assert.Equal(t, "Formula. Formula (e.g. A-B or A*C+B)", m.Parameters[0].Description)

	n, err := ParseInterfaceDescription(loadFixture(t, "r.neighbors"))
	require.NoError(t, err)
	output, isReturn, ok := n.Lookup("output")
	require.True(t, ok)
	assert.True(t, isReturn)
	assert.Equal(t, ir.TypeArray, output.Schema.Type)

	size, _, _ := n.Lookup("size")
	assert.Equal(t, ir.TypeInteger, size.Schema.Type)

	title, _, _ := n.Lookup("title")
	require.NotNil(t, title.Default, "empty default element is kept")
	assert.Equal(t, "", *title.Default)
}

func TestParseInterfaceDescription_Invalid(t *testing.T) {
	_, err := ParseInterfaceDescription([]byte("not xml"))
	assert.ErrorIs(t, err, ErrInvalidDescription)

	_, err = ParseInterfaceDescription([]byte(`<task><description>x</description></task>`))
	assert.ErrorIs(t, err, ErrInvalidDescription)
}

func TestParseCategories(t *testing.T) {
	assert.Equal(t, []string{"grass-module"}, parseCategories(""))
	assert.Equal(t, []string{"focalstatistics", "grass-module", "raster"}, parseCategories("raster, focal statistics, raster"))
}

func TestJoinDescription(t *testing.T) {
	assert.Equal(t, "L. D", joinDescription(" L ", "D"))
	assert.Equal(t, "D", joinDescription("", "D"))
	assert.Equal(t, "L", joinDescription("L", ""))
}
