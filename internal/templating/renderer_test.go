package templating

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actinia-org/actinia-gdi/internal/store"
)

const slopeSource = `{
  "id": "slope",
  "description": "Slope from a DEM",
  "template": {"list": [{
    "id": "s1",
    "module": "r.slope.aspect",
    "inputs": [
      {"param": "elevation", "value": "{{ dem }}"},
      {"param": "zscale", "value": "{{ zscale | default('1.0') }}"}
    ],
    "outputs": [
      {"param": "slope", "value": "{{ name }}_slope"},
      {"param": "aspect", "value": "{{ name }}_aspect"}
    ]
  }]}
}`

func TestAnalyzeSource(t *testing.T) {
	a, err := AnalyzeSource([]byte(slopeSource))
	require.NoError(t, err)

	assert.Equal(t, []string{"dem", "zscale", "name"}, a.Declared)
	assert.Equal(t, []string{"zscale"}, a.Filtered)
	assert.Equal(t, []string{"dem", "name"}, a.Required())
}

func TestAnalyzeSource_IgnoresFunctionNames(t *testing.T) {
	a, err := AnalyzeSource([]byte(`{"v": "{{ upper(prefix) }}-{{ suffix | lower() }}"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"prefix", "suffix"}, a.Declared)
	assert.Empty(t, a.Filtered)
}

func TestAnalyzeSource_FilteredOnlyWhenDefaultedEverywhere(t *testing.T) {
	src := `{"a": "{{ x | default('1') }}", "b": "{{ x }}", "c": "{{ y ?? 'n' }}"}`
	a, err := AnalyzeSource([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, a.Declared)
	assert.Equal(t, []string{"y"}, a.Filtered)
}

func TestAnalyzeSource_LetBindingsAreNotVariables(t *testing.T) {
	a, err := AnalyzeSource([]byte(`{"v": "{{ let s = base; s + '_out' }}"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, a.Declared)
}

func TestAnalyzeSource_SyntaxError(t *testing.T) {
	_, err := AnalyzeSource([]byte(`{"v": "{{ dem + }}"}`))
	require.Error(t, err)
	assert.True(t, IsExpressionError(err))
}

func TestAnalyzeSource_KeywordIsNotAVariable(t *testing.T) {
	_, err := AnalyzeSource([]byte(`{"v": "{{ in }}"}`))
	require.Error(t, err)
	var exprErr *ExpressionError
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, "in", exprErr.Expression)

	_, _, err = DiscoverSource([]byte(`{"v": "{{ in }}"}`))
	assert.True(t, IsExpressionError(err))

	a, err := AnalyzeSource([]byte(`{"v": "{{ src }}-{{ type }}"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "type"}, a.Declared)
}

func TestRenderSource(t *testing.T) {
	out, err := RenderSource([]byte(slopeSource), map[string]string{"dem": "elevation", "name": "run1"})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Contains(t, string(out), `"value": "elevation"`)
	assert.Contains(t, string(out), `"value": "1.0"`)
	assert.Contains(t, string(out), `"value": "run1_slope"`)
}

func TestRenderSource_OverridesDefault(t *testing.T) {
	out, err := RenderSource([]byte(slopeSource), map[string]string{"zscale": "2.5"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"value": "2.5"`)
}

func TestRenderSource_EscapesBindings(t *testing.T) {
	out, err := RenderSource([]byte(`{"v": "{{ expr }}"}`), map[string]string{"expr": `a = "b" \ c`})
	require.NoError(t, err)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, `a = "b" \ c`, doc["v"])
}

func TestRenderSource_UnboundRendersEmpty(t *testing.T) {
	out, err := RenderSource([]byte(`{"v": "[{{ missing }}]"}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v": "[]"}`, string(out))
}

func TestRenderSource_EscapedQuotesInExpression(t *testing.T) {
	out, err := RenderSource([]byte(`{"v": "{{ x | default(\"fallback\") }}"}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v": "fallback"}`, string(out))
}

func TestDiscoverSource(t *testing.T) {
	out, a, err := DiscoverSource([]byte(slopeSource))
	require.NoError(t, err)

	assert.Equal(t, []string{"dem", "name"}, a.Required())
	assert.Contains(t, string(out), `"value": "{{ dem }}"`)
	assert.Contains(t, string(out), `"value": "{{ name }}_slope"`)
	assert.Contains(t, string(out), `"value": "1.0"`, "filtered variables render their default")
}

func TestDiscoverSource_NormalizesExpressions(t *testing.T) {
	out, _, err := DiscoverSource([]byte(`{"v": "{{ upper(a) + b }}"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"v": "{{ a }}{{ b }}"}`, string(out))
}

func TestRenderer_WithStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slope.json"), []byte(slopeSource), 0o644))
	r := NewRenderer(store.NewFileStore(dir))

	tpl, a, err := r.Discover(ctx, "slope")
	require.NoError(t, err)
	assert.Equal(t, "slope", tpl.ID)
	require.Len(t, tpl.Template.List, 1)
	assert.Equal(t, "{{ dem }}", tpl.Template.List[0].Inputs[0].Value)
	assert.Equal(t, []string{"zscale"}, a.Filtered)

	filled, err := r.Render(ctx, "slope", map[string]string{"dem": "srtm", "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "srtm", filled.Template.List[0].Inputs[0].Value)
	assert.Equal(t, "x_aspect", filled.Template.List[0].Outputs[1].Value)

	_, err = r.Analyze(ctx, "absent")
	assert.True(t, store.IsNotFound(err))
}

func TestRenderer_DecodeError(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noid.json"), []byte(`{"description": "x"}`), 0o644))

	_, _, err := NewRenderer(store.NewFileStore(dir)).Discover(ctx, "noid")
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
}

func TestRenderer_ExpressionErrorNamesTemplate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"id": "bad", "v": "{{ ( }}"}`), 0o644))

	_, err := NewRenderer(store.NewFileStore(dir)).Analyze(ctx, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template bad")
}
