package describe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_DescribeEngineModule(t *testing.T) {
	s := NewService(DirSource{Dir: fixtureDir})

	m, err := s.Describe(context.Background(), Request{Module: "r.slope.aspect", BatchKey: "res/1"})
	require.NoError(t, err)
	assert.Equal(t, "r.slope.aspect", m.ID)
	assert.Len(t, m.Returns, 2)
}

func TestService_OverrideOnlyModule(t *testing.T) {
	s := NewService(DirSource{Dir: fixtureDir})

	m, err := s.Describe(context.Background(), Request{Module: "importer"})
	require.NoError(t, err)
	assert.Equal(t, "importer", m.ID)
	_, ok := m.LookupImport("source")
	assert.True(t, ok)
	assert.NotNil(t, m.Returns)
}

func TestService_UnknownModule(t *testing.T) {
	s := NewService(DirSource{Dir: fixtureDir})

	_, err := s.Describe(context.Background(), Request{Module: "r.unknown"})
	assert.True(t, IsModuleNotFound(err))
}

func TestService_ListModules(t *testing.T) {
	mods, err := NewService(DirSource{Dir: fixtureDir}).ListModules(context.Background())
	require.NoError(t, err)
	assert.Len(t, mods, 3)

	_, err = NewService(&countingSource{}).ListModules(context.Background())
	assert.ErrorIs(t, err, ErrListingUnsupported)
}

type countingSource struct {
	inner Source
	calls int
}

func (c *countingSource) Fetch(ctx context.Context, req Request) ([]byte, error) {
	c.calls++
	return c.inner.Fetch(ctx, req)
}

func TestCachedSource_ServesSecondFetchFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingSource{inner: DirSource{Dir: fixtureDir}}
	cached := NewCachedSource(inner, client, time.Hour)
	ctx := context.Background()

	first, err := cached.Fetch(ctx, Request{Module: "r.slope.aspect"})
	require.NoError(t, err)
	second, err := cached.Fetch(ctx, Request{Module: "r.slope.aspect"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.True(t, mr.Exists(DefaultCachePrefix+"r.slope.aspect"))
	assert.Equal(t, time.Hour, mr.TTL(DefaultCachePrefix+"r.slope.aspect"))

	require.NoError(t, cached.Invalidate(ctx, "r.slope.aspect"))
	_, err = cached.Fetch(ctx, Request{Module: "r.slope.aspect"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestService_Refresh(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	inner := &countingSource{inner: DirSource{Dir: fixtureDir}}
	s := NewService(NewCachedSource(inner, client, time.Hour))
	ctx := context.Background()

	_, err := s.Describe(ctx, Request{Module: "r.slope.aspect"})
	require.NoError(t, err)
	require.True(t, mr.Exists(DefaultCachePrefix+"r.slope.aspect"))

	require.NoError(t, s.Refresh(ctx, "r.slope.aspect"))
	assert.False(t, mr.Exists(DefaultCachePrefix+"r.slope.aspect"))

	_, err = s.Describe(ctx, Request{Module: "r.slope.aspect"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	assert.NoError(t, NewService(DirSource{Dir: fixtureDir}).Refresh(ctx, "r.slope.aspect"))
}

func TestCachedSource_DoesNotCacheFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cached := NewCachedSource(DirSource{Dir: fixtureDir}, client, 0, WithCachePrefix("test:"))

	_, err := cached.Fetch(context.Background(), Request{Module: "r.unknown"})
	assert.True(t, IsModuleNotFound(err))
	assert.Empty(t, mr.Keys())
}

func TestCachedSource_FallsThroughWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	cached := NewCachedSource(DirSource{Dir: fixtureDir}, client, time.Minute)
	data, err := cached.Fetch(context.Background(), Request{Module: "r.neighbors"})
	require.NoError(t, err)
	assert.Contains(t, string(data), "r.neighbors")
}

func TestCachedSource_ListModulesDelegates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewService(NewCachedSource(DirSource{Dir: fixtureDir}, client, time.Minute))
	mods, err := s.ListModules(context.Background())
	require.NoError(t, err)
	assert.Len(t, mods, 3)
}
