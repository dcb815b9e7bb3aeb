package describe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

func TestOverrides_EmbeddedImporterExporter(t *testing.T) {
	o := NewOverrides("")

	imp, found, err := o.Lookup("importer")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, imp.Standalone())
	assert.NotEmpty(t, imp.ImportDescr)

	exp, found, err := o.Lookup("exporter")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEmpty(t, exp.Export)
}

func TestOverrides_MissingIsNotAnError(t *testing.T) {
	_, found, err := NewOverrides("").Lookup("r.slope.aspect")
	assert.NoError(t, err)
	assert.False(t, found)

	_, found, err = NewOverrides("").Lookup("../etc/passwd")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestOverrides_DirectoryShadowsEmbedded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "importer.json"),
		[]byte(`{"id": "importer", "description": "custom", "import_descr": [{"name": "source"}]}`), 0o644))

	ov, found, err := NewOverrides(dir).Lookup("importer")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "custom", ov.Description)
	assert.Len(t, ov.ImportDescr, 1)
}

func TestOverrides_MalformedIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"parameters": [{"description": "no name"}]}`), 0o644))

	_, _, err := NewOverrides(dir).Lookup("broken")
	assert.Error(t, err)
}

func TestParseOverride_CoercesLooseValues(t *testing.T) {
	ov, err := ParseOverride([]byte(`{
		"parameters": [{"name": "size", "optional": "true", "default": 3, "schema": {"type": "integer", "enum": [3, 5, 7]}}]
	}`))
	require.NoError(t, err)
	require.Len(t, ov.Parameters, 1)

	p := ov.Parameters[0]
	assert.True(t, p.Optional)
	assert.Equal(t, "3", *p.Default)
	assert.Equal(t, []string{"3", "5", "7"}, p.Schema.Enum)
	assert.False(t, ov.Standalone())
}

func TestOverride_ApplyMergesByName(t *testing.T) {
	base := &ir.Module{
		ID:          "r.x",
		Description: "engine",
		Categories:  []string{"grass-module"},
		Parameters: []ir.Parameter{
			{Name: "input", Description: "engine input"},
			{Name: "size", Description: "engine size"},
		},
		Returns: []ir.Parameter{},
	}
	ov := Override{
		Parameters: []ir.Parameter{{Name: "size", Description: "curated size"}, {Name: "extra"}},
		Export:     []ir.Parameter{{Name: "format"}},
	}

	out := ov.Apply(base)

	assert.Equal(t, "engine", out.Description)
	assert.Equal(t, "engine input", out.Parameters[0].Description)
	assert.Equal(t, "curated size", out.Parameters[1].Description)
	assert.Equal(t, "extra", out.Parameters[2].Name)
	assert.Len(t, out.Export, 1)
	assert.Equal(t, "engine size", base.Parameters[1].Description, "input is not mutated")
}
