package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gmod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: info
store:
  backend: sqlite
  sqlite_path: /var/lib/gmod/templates.db
describe:
  source: dir
  xml_dir: /srv/interfaces
  timeout: 5s
engine:
  max_depth: 4
`), 0o644))

	t.Setenv("GMOD_LOG_LEVEL", "error")
	t.Setenv("GMOD_ENGINE_MAX_DEPTH", "8")
	t.Setenv("GMOD_DESCRIBE_CACHE_TTL", "1m")
	t.Setenv("GMOD_STORE_REDIS_ADDR", "localhost:6379")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "", "")
	flags.String("xml-dir", "", "")
	flags.Int("max-depth", 0, "")
	flags.String("format", "text", "")
	require.NoError(t, flags.Parse([]string{"--xml-dir", "/opt/dumps", "--format", "json"}))

	cfg, err := Load(path, flags, false)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level, "env overrides file")
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/var/lib/gmod/templates.db", cfg.Store.SQLitePath)
	assert.Equal(t, SourceDir, cfg.Describe.Source)
	assert.Equal(t, "/opt/dumps", cfg.Describe.XMLDir, "changed flag overrides file")
	assert.Equal(t, 5*time.Second, cfg.Describe.Timeout)
	assert.Equal(t, time.Minute, cfg.Describe.CacheTTL)
	assert.Equal(t, 8, cfg.Engine.MaxDepth, "unchanged flag keeps env value")
	assert.True(t, cfg.CacheEnabled())
}

func TestLoad_DebugForcesDebugLevel(t *testing.T) {
	t.Setenv("GMOD_LOG_LEVEL", "error")
	cfg, err := Load("", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o644))

	_, err := Load(path, nil, false)
	assert.ErrorContains(t, err, "config source file:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "store.backend"},
		{"sqlite without path", func(c *Config) { c.Store.Backend = BackendSQLite; c.Store.SQLitePath = "" }, "store.sqlite_path"},
		{"redis without addr", func(c *Config) { c.Store.Backend = BackendRedis }, "store.redis.addr is required"},
		{"bad redis addr", func(c *Config) { c.Store.Redis.Addr = "no-port" }, "store.redis.addr"},
		{"dir source without dir", func(c *Config) { c.Describe.Source = SourceDir; c.Describe.XMLDir = "" }, "describe.xml_dir"},
		{"zero depth", func(c *Config) { c.Engine.MaxDepth = 0 }, "engine.max_depth"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

type stubSource struct {
	name     string
	priority int
	values   map[string]any
}

func (s *stubSource) Name() string  { return s.name }
func (s *stubSource) Priority() int { return s.priority }
func (s *stubSource) Load(k *koanf.Koanf) error {
	for key, v := range s.values {
		if err := k.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

func TestManager_SortsByPriority(t *testing.T) {
	m := NewManager(
		&stubSource{name: "secrets", priority: 25, values: map[string]any{"store.dir": "from-secrets"}},
		&DefaultSource{},
		&stubSource{name: "system", priority: 15, values: map[string]any{"store.dir": "from-system"}},
	)
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-secrets", cfg.Store.Dir)
	assert.Equal(t, cfg, m.Get())
	assert.Equal(t, "from-secrets", m.All()["store.dir"])
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "GMOD_STORE_SQLITE_PATH", EnvName(EnvPrefix, "store.sqlite_path"))
	assert.Equal(t, "GMOD_LOG_LEVEL", EnvName(EnvPrefix, "log.level"))
}

func TestDefaultSources_AscendingPriority(t *testing.T) {
	sources := DefaultSources("gmod.yaml", nil, false)
	require.Len(t, sources, 4)
	want := []int{PriorityDefaults, PriorityFile, PriorityEnv, PriorityFlags}
	for i, src := range sources {
		assert.Equal(t, want[i], src.Priority(), src.Name())
	}
	assert.Equal(t, "file:gmod.yaml", sources[1].Name())
}

func TestFileSource_SkipsAbsentFile(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, (&FileSource{}).Load(k))
	require.NoError(t, (&FileSource{Path: filepath.Join(t.TempDir(), "none.yaml")}).Load(k))
	assert.Empty(t, k.All())

	path := filepath.Join(t.TempDir(), "gmod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_depth: 3\n"), 0o644))
	require.NoError(t, (&FileSource{Path: path}).Load(k))
	assert.Equal(t, 3, k.Int("engine.max_depth"))
}
