package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actinia-org/actinia-gdi/internal/store"
	"github.com/actinia-org/actinia-gdi/internal/testutil"
)

func TestAnalyzeCycles_DAG(t *testing.T) {
	graph := TemplateGraph{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {},
	}
	assert.Empty(t, AnalyzeCycles(graph))
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	cycles := AnalyzeCycles(TemplateGraph{"a": {"a"}, "b": {}})
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "a"}, cycles[0].Path)
	assert.Contains(t, cycles[0].Error(), "references itself")
}

func TestAnalyzeCycles_MultiNode(t *testing.T) {
	graph := TemplateGraph{
		"c": {"a"},
		"a": {"b"},
		"b": {"c"},
		"x": {"y"},
		"y": {"x"},
		"z": {"a"},
	}
	cycles := AnalyzeCycles(graph)
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0].Path)
	assert.Equal(t, []string{"x", "y", "x"}, cycles[1].Path)
	assert.Equal(t, "cyclic template chain: a -> b -> c -> a", cycles[0].Message)
}

func TestBuildTemplateGraph(t *testing.T) {
	dir := testutil.TemplateDir(t, map[string]string{
		"outer": `{"id": "outer", "template": {"list": [
			{"id": "i", "module": "inner", "inputs": [{"param": "x", "value": "{{ x }}"}]},
			{"id": "g", "module": "r.slope.aspect"}
		]}}`,
		"inner":  `{"id": "inner", "template": {"list": [{"id": "back", "module": "outer"}]}}`,
		"broken": `{"id": "broken", "template": {"list": [{"value": "{{ (( }}"}]}}`,
	})

	graph, err := BuildTemplateGraph(context.Background(), store.NewFileStore(dir))
	require.NoError(t, err)

	assert.Equal(t, []string{"inner"}, graph["outer"], "engine modules are not edges")
	assert.Equal(t, []string{"outer"}, graph["inner"])
	assert.Equal(t, []string{}, graph["broken"])

	cycles := AnalyzeCycles(graph)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"inner", "outer", "inner"}, cycles[0].Path)
}

func TestCycleError_AsValidationError(t *testing.T) {
	cycles := AnalyzeCycles(TemplateGraph{"a": {"a"}})
	require.Len(t, cycles, 1)

	verr := cycles[0].AsValidationError()
	assert.Equal(t, ErrCyclicReference, verr.Code)
	assert.Equal(t, "template references itself: a -> a", verr.Message)
}
