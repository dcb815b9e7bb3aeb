package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateHashDeterminism(t *testing.T) {
	src := []byte(`{"id": "slope", "template": {"list": []}}`)

	h1 := TemplateHash(src)
	h2 := TemplateHash(src)

	assert.Equal(t, h1, h2, "TemplateHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestTemplateHashNormalizesNFC(t *testing.T) {
	composed := []byte("{\"description\": \"caf\u00e9\"}")
	decomposed := []byte("{\"description\": \"cafe\u0301\"}")

	assert.Equal(t, TemplateHash(composed), TemplateHash(decomposed))
}

func TestTemplateHashChangesWithInput(t *testing.T) {
	assert.NotEqual(t,
		TemplateHash([]byte(`{"id": "a"}`)),
		TemplateHash([]byte(`{"id": "b"}`)),
	)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t,
		hashWithDomain(DomainTemplate, data),
		hashWithDomain(DomainModule, data),
		"different domains must not collide",
	)
}

func TestModuleDigestIgnoresMapOrderButNotListOrder(t *testing.T) {
	m := &Module{
		ID:         "slope",
		Categories: []string{CategoryActiniaModule},
		Parameters: []Parameter{
			{Name: "dem", Schema: ParameterSchema{Type: TypeString}},
			{Name: "zscale", Schema: ParameterSchema{Type: TypeNumber}},
		},
		Returns: []Parameter{},
	}

	d1, err := ModuleDigest(m)
	require.NoError(t, err)
	d2, err := ModuleDigest(m.Clone())
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	swapped := m.Clone()
	swapped.Parameters[0], swapped.Parameters[1] = swapped.Parameters[1], swapped.Parameters[0]
	d3, err := ModuleDigest(swapped)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3, "parameter order is significant")
}
