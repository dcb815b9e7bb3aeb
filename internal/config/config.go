package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by EnvSource.
const EnvPrefix = "GMOD_"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level: "warn",
		},
		Store: StoreConfig{
			Backend:    BackendFile,
			Dir:        "templates",
			SQLitePath: "templates.db",
			Redis: RedisConfig{
				Addr: "",
				DB:   0,
			},
		},
		Describe: DescribeConfig{
			Source:   SourceExec,
			GrassBin: "grass",
			XMLDir:   "interfaces",
			Timeout:  30 * time.Second,
			CacheTTL: 0,
		},
		Engine: EngineConfig{
			MaxDepth: 16,
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for koanf's confmap provider.
// Its keys are also the set of keys EnvSource and FlagSource may set.
func DefaultConfigAsMap() map[string]any {
	def := DefaultConfig()
	return map[string]any{
		"log.level": def.Log.Level,

		"store.backend":        def.Store.Backend,
		"store.dir":            def.Store.Dir,
		"store.sqlite_path":    def.Store.SQLitePath,
		"store.redis.addr":     def.Store.Redis.Addr,
		"store.redis.password": def.Store.Redis.Password,
		"store.redis.db":       def.Store.Redis.DB,

		"describe.source":       def.Describe.Source,
		"describe.grass_bin":    def.Describe.GrassBin,
		"describe.xml_dir":      def.Describe.XMLDir,
		"describe.override_dir": def.Describe.OverrideDir,
		"describe.timeout":      def.Describe.Timeout,
		"describe.cache_ttl":    def.Describe.CacheTTL,

		"engine.max_depth": def.Engine.MaxDepth,
	}
}

// Manager loads configuration from a list of sources.
type Manager struct {
	sources []Source
	k       *koanf.Koanf
	current Config
	mu      sync.RWMutex
}

// NewManager creates a manager over sources. Sources are loaded in priority
// order regardless of the order given.
func NewManager(sources ...Source) *Manager {
	sorted := slices.Clone(sources)
	slices.SortStableFunc(sorted, func(a, b Source) int { return a.Priority() - b.Priority() })
	return &Manager{sources: sorted}
}

// Load merges every source into a fresh koanf instance, unmarshals the
// result and validates it.
func (m *Manager) Load() (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := koanf.New(".")
	for _, src := range m.sources {
		if err := src.Load(k); err != nil {
			return Config{}, fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	m.k = k
	m.current = cfg
	return cfg, nil
}

// Get returns a copy of the last loaded configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// All lists every key set by the last Load with its merged value.
func (m *Manager) All() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.k == nil {
		return nil
	}
	return m.k.All()
}

// Load reads configuration from the standard sources.
func Load(configPath string, flags *pflag.FlagSet, debug bool) (Config, error) {
	return NewManager(DefaultSources(configPath, flags, debug)...).Load()
}

// Validate checks field constraints and the rules spanning sections.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", configKey(fe.Namespace()), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Store.Backend == BackendRedis && c.Store.Redis.Addr == "" {
		return errors.New("invalid configuration: store.redis.addr is required for the redis backend")
	}
	return nil
}

// configKey drops the root struct name from a validator namespace, leaving
// the koanf key.
func configKey(namespace string) string {
	if _, key, ok := strings.Cut(namespace, "."); ok {
		return key
	}
	return namespace
}
