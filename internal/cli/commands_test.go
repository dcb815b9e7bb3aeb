package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actinia-org/actinia-gdi/internal/describe"
	"github.com/actinia-org/actinia-gdi/internal/ir"
)

func storeWithSlope(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := execute(t, dir, slopeTemplate, "template", "create", "slope", "-")
	require.NoError(t, err)
	return dir
}

func TestTemplateLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, slopeTemplate, "template", "create", "slope", "-")
	require.NoError(t, err)
	assert.Equal(t, "✓ Template slope created\n", out)
	assert.FileExists(t, filepath.Join(dir, "slope.json"))

	_, err = execute(t, dir, slopeTemplate, "template", "create", "slope", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err = execute(t, dir, "", "template", "get", "slope")
	require.NoError(t, err)
	assert.JSONEq(t, slopeTemplate, out)

	out, err = execute(t, dir, "", "--format", "json", "template", "get", "slope")
	require.NoError(t, err)
	var resp struct {
		Status string         `json:"status"`
		Data   TemplateRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "slope", resp.Data.Name)
	assert.NotEmpty(t, resp.Data.Hash)
	assert.JSONEq(t, slopeTemplate, string(resp.Data.Template))

	out, err = execute(t, dir, "", "template", "names")
	require.NoError(t, err)
	assert.Equal(t, "slope\n", out)

	out, err = execute(t, dir, "", "template", "delete", "slope")
	require.NoError(t, err)
	assert.Equal(t, "✓ Template slope deleted\n", out)

	out, err = execute(t, dir, "", "template", "get", "slope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestTemplateCreateRejectsInvalidSource(t *testing.T) {
	dir := t.TempDir()
	bad := `{"id": "bad", "description": "", "template": {"list": [{"id": "s1", "inputs": []}]}}`

	out, err := execute(t, dir, bad, "template", "create", "bad", "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E203")
	assert.NoFileExists(t, filepath.Join(dir, "bad.json"))

	_, err = execute(t, dir, bad, "template", "create", "bad", "-", "--no-validate")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "bad.json"))
}

func TestTemplateCreateReportsDuplicateContent(t *testing.T) {
	dir := storeWithSlope(t)

	out, err := execute(t, dir, slopeTemplate, "template", "create", "slope_copy", "-")
	require.NoError(t, err)
	assert.Equal(t, "✓ Template slope_copy created\n  same content as: slope\n", out)

	out, err = execute(t, dir, slopeTemplate, "--format", "json", "template", "update", "slope", "-")
	require.NoError(t, err)
	var resp struct {
		Data TemplateChange `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "updated", resp.Data.Action)
	assert.Equal(t, []string{"slope_copy"}, resp.Data.Duplicates)
}

func TestTemplateUpdateMissing(t *testing.T) {
	out, err := execute(t, t.TempDir(), slopeTemplate, "template", "update", "slope", "-")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E005]")
}

func TestListCommand(t *testing.T) {
	dir := storeWithSlope(t)

	out, err := execute(t, dir, "", "--format", "json", "list")
	require.NoError(t, err)
	var resp struct {
		Data []ir.Module `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "slope", resp.Data[0].ID)
	assert.Equal(t, []string{ir.CategoryActiniaModule}, resp.Data[0].Categories)

	out, err = execute(t, dir, "", "list", "--engine")
	require.NoError(t, err)
	assert.Contains(t, out, "r.slope.aspect")
	assert.Contains(t, out, "Slope of a digital elevation model")
}

func TestListCommandEmpty(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "list")
	require.NoError(t, err)
	assert.Equal(t, "No modules found.\n", out)
}

func TestDescribeTemplate(t *testing.T) {
	dir := storeWithSlope(t)

	out, err := execute(t, dir, "", "--format", "json", "describe", "slope")
	require.NoError(t, err)
	var resp struct {
		Data ir.Module `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "slope", resp.Data.ID)
	require.Len(t, resp.Data.Parameters, 1)
	assert.Equal(t, "dem", resp.Data.Parameters[0].Name)
	require.Len(t, resp.Data.Returns, 1)
	assert.Equal(t, "slope_out", resp.Data.Returns[0].Name)

	var digest struct {
		Data DescribedModule `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &digest))
	want, err := ir.ModuleDigest(&resp.Data)
	require.NoError(t, err)
	assert.Equal(t, want, digest.Data.Digest)

	again, err := execute(t, dir, "", "--format", "json", "describe", "slope")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	out, err = execute(t, dir, "", "describe", "slope")
	require.NoError(t, err)
	assert.Contains(t, out, "Parameters:")
	assert.Contains(t, out, "*dem")
	assert.Contains(t, out, "Returns:")
}

func TestDescribeEngineModule(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "describe", "r.slope.aspect")
	require.NoError(t, err)
	assert.Contains(t, out, "grass-module")
	assert.Contains(t, out, "elevation")
}

func TestDescribeRefreshDropsCachedDescription(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("GMOD_DESCRIBE_CACHE_TTL", "1h")
	dir := t.TempDir()
	key := describe.DefaultCachePrefix + "r.slope.aspect"

	_, err := execute(t, dir, "", "--redis-addr", mr.Addr(), "describe", "r.slope.aspect")
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	require.NoError(t, mr.Set(key, `<task name="r.slope.aspect"><description>Stale description</description></task>`))
	out, err := execute(t, dir, "", "--redis-addr", mr.Addr(), "describe", "r.slope.aspect")
	require.NoError(t, err)
	assert.Contains(t, out, "Stale description")

	out, err = execute(t, dir, "", "--redis-addr", mr.Addr(), "describe", "r.slope.aspect", "--refresh")
	require.NoError(t, err)
	assert.NotContains(t, out, "Stale description")
	assert.Contains(t, out, "elevation")
	assert.True(t, mr.Exists(key))
}

func TestDescribeUnknownModule(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "describe", "r.nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestFillCommand(t *testing.T) {
	dir := storeWithSlope(t)

	out, err := execute(t, dir, "", "fill", "slope", "-p", "dem=srtm", "-p", "slope_out=srtm_slope")
	require.NoError(t, err)
	var steps []ir.Step
	require.NoError(t, json.Unmarshal([]byte(out), &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, "r.slope.aspect", steps[0].Module)
	assert.Equal(t, []ir.Item{{Param: "elevation", Value: "srtm"}}, steps[0].Inputs)
	assert.Equal(t, []ir.Item{{Param: "slope", Value: "srtm_slope"}}, steps[0].Outputs)
}

func TestFillCommandItemsAndChain(t *testing.T) {
	dir := storeWithSlope(t)
	items := `[{"param": "dem", "value": "srtm"}, {"param": "slope_out", "value": "s"}]`

	out, err := execute(t, dir, items, "fill", "slope", "--items", "-", "--chain")
	require.NoError(t, err)
	var pc ir.ProcessChain
	require.NoError(t, json.Unmarshal([]byte(out), &pc))
	assert.Equal(t, ir.ProcessChainVersion, pc.Version)
	require.Len(t, pc.List, 1)
	assert.Equal(t, "r.slope.aspect", pc.List[0].Module)
}

func TestFillCommandMissingParameter(t *testing.T) {
	dir := storeWithSlope(t)

	out, err := execute(t, dir, "", "--format", "json", "fill", "slope", "-p", "dem=srtm")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMissingParameter, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "slope_out")
}

func TestFillCommandBadPair(t *testing.T) {
	dir := storeWithSlope(t)

	out, err := execute(t, dir, "", "fill", "slope", "-p", "dem")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `invalid parameter "dem": expected name=value`)
}

func TestExpandCommand(t *testing.T) {
	dir := storeWithSlope(t)
	chain := `{"version": "1", "list": [
	  {"id": "a", "module": "slope", "inputs": [{"param": "dem", "value": "srtm"}], "outputs": [{"param": "slope_out", "value": "s"}]},
	  {"id": "b", "module": "r.neighbors", "inputs": [{"param": "input", "value": "s"}], "outputs": [{"param": "output", "value": "n"}]}
	]}`

	out, err := execute(t, dir, chain, "expand", "-")
	require.NoError(t, err)
	var pc ir.ProcessChain
	require.NoError(t, json.Unmarshal([]byte(out), &pc))
	require.Len(t, pc.List, 2)
	assert.Equal(t, "r.slope.aspect", pc.List[0].Module)
	assert.Equal(t, "r.neighbors", pc.List[1].Module)
	assert.Equal(t, "b", pc.List[1].ID)
}

func TestExpandCommandInvalidInput(t *testing.T) {
	out, err := execute(t, t.TempDir(), "not json", "expand", "-")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")

	_, err = execute(t, t.TempDir(), "", "expand", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"list": []}`), 0o644))

	data, err := readInput(path, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"list": []}`, string(data))

	_, err = readInput(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Error(t, err)
}
