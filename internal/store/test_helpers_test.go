package store

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// createTestSQLite creates a fresh SQLite store in a temp dir.
func createTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRedis creates a Redis store backed by an in-process server.
func createTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { s.Close() })
	return s, mr
}

// allBackends returns one fresh instance of every backend.
func allBackends(t *testing.T) map[string]Store {
	t.Helper()
	rs, _ := createTestRedis(t)
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "templates")),
		"sqlite": createTestSQLite(t),
		"redis":  rs,
	}
}

const sampleTemplate = `{"id": "slope", "description": "Slope", "template": {"list": []}}`
