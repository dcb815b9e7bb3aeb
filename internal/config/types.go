package config

import "time"

// Config holds application-wide configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Store    StoreConfig    `koanf:"store"`
	Describe DescribeConfig `koanf:"describe"`
	Engine   EngineConfig   `koanf:"engine"`
}

// LogConfig holds logging-specific configuration.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
}

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StoreConfig selects where templates live.
type StoreConfig struct {
	Backend    string      `koanf:"backend" validate:"oneof=file sqlite redis"`
	Dir        string      `koanf:"dir" validate:"required_if=Backend file"`
	SQLitePath string      `koanf:"sqlite_path" validate:"required_if=Backend sqlite"`
	Redis      RedisConfig `koanf:"redis"`
}

// RedisConfig is shared by the redis store backend and the describe cache.
type RedisConfig struct {
	Addr     string `koanf:"addr" validate:"omitempty,hostname_port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

// Describe sources.
const (
	SourceExec = "exec"
	SourceDir  = "dir"
)

// DescribeConfig configures how module interface descriptions are obtained.
type DescribeConfig struct {
	Source      string        `koanf:"source" validate:"oneof=exec dir"`
	GrassBin    string        `koanf:"grass_bin" validate:"required_if=Source exec"`
	XMLDir      string        `koanf:"xml_dir" validate:"required_if=Source dir"`
	OverrideDir string        `koanf:"override_dir"`
	Timeout     time.Duration `koanf:"timeout" validate:"gte=0"`
	// CacheTTL enables the redis describe cache when positive and
	// store.redis.addr is set.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

// EngineConfig tunes template resolution.
type EngineConfig struct {
	MaxDepth int `koanf:"max_depth" validate:"gte=1,lte=256"`
}

// CacheEnabled reports whether describe results should be cached in redis.
func (c Config) CacheEnabled() bool {
	return c.Describe.CacheTTL > 0 && c.Store.Redis.Addr != ""
}
