package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actinia-org/actinia-gdi/internal/ir"
)

func TestStoreContract_CreateGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Create(ctx, "slope", []byte(sampleTemplate)))

			rec, err := s.Get(ctx, "slope")
			require.NoError(t, err)
			assert.Equal(t, "slope", rec.Name)
			assert.JSONEq(t, sampleTemplate, string(rec.Source))
			assert.Equal(t, ir.TemplateHash([]byte(sampleTemplate)), rec.Hash)
		})
	}
}

func TestStoreContract_CreateTwiceFails(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Create(ctx, "slope", []byte(sampleTemplate)))

			err := s.Create(ctx, "slope", []byte(sampleTemplate))
			require.Error(t, err)
			assert.True(t, IsExists(err), "got %v", err)
		})
	}
}

func TestStoreContract_GetMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "nope")
			assert.True(t, IsNotFound(err), "got %v", err)
		})
	}
}

func TestStoreContract_UpdateMissingFails(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Update(ctx, "nope", []byte(sampleTemplate))
			assert.True(t, IsNotFound(err), "got %v", err)
		})
	}
}

func TestStoreContract_UpdateReplacesSource(t *testing.T) {
	ctx := context.Background()
	updated := `{"id": "slope", "description": "Updated", "template": {"list": []}}`
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Create(ctx, "slope", []byte(sampleTemplate)))
			require.NoError(t, s.Update(ctx, "slope", []byte(updated)))

			rec, err := s.Get(ctx, "slope")
			require.NoError(t, err)
			assert.JSONEq(t, updated, string(rec.Source))
			assert.Equal(t, ir.TemplateHash([]byte(updated)), rec.Hash)
		})
	}
}

func TestStoreContract_Delete(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Create(ctx, "slope", []byte(sampleTemplate)))
			require.NoError(t, s.Delete(ctx, "slope"))

			_, err := s.Get(ctx, "slope")
			assert.True(t, IsNotFound(err))

			err = s.Delete(ctx, "slope")
			assert.True(t, IsNotFound(err), "second delete reports missing")
		})
	}
}

func TestStoreContract_NamesSorted(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.NotNil(t, names)
			assert.Empty(t, names)

			for _, n := range []string{"ndvi", "aspect", "slope"} {
				require.NoError(t, s.Create(ctx, n, []byte(sampleTemplate)))
			}
			names, err = s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"aspect", "ndvi", "slope"}, names)
		})
	}
}

func TestStoreContract_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Create(ctx, "../escape", []byte(sampleTemplate))
			assert.ErrorIs(t, err, ErrInvalidName)

			err = s.Create(ctx, "broken", []byte(`{"id": `))
			assert.ErrorIs(t, err, ErrInvalidSource)
		})
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"slope", "r.slope.aspect_v2", "NDVI-2024"} {
		assert.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", ".hidden", "a/b", "a..b", "white space"} {
		assert.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestStoreContract_Duplicates(t *testing.T) {
	ctx := context.Background()
	for name, s := range allBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Create(ctx, "b", []byte(sampleTemplate)))
			require.NoError(t, s.Create(ctx, "a", []byte(sampleTemplate)))
			require.NoError(t, s.Create(ctx, "other", []byte(`{"id": "other"}`)))

			dups, err := Duplicates(ctx, s, "b", []byte(sampleTemplate))
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, dups)

			dups, err = Duplicates(ctx, s, "other", []byte(`{"id": "other"}`))
			require.NoError(t, err)
			assert.Empty(t, dups)
		})
	}
}
